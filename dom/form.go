package dom

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Value returns the current value of a form control.
// A <select> reports its selected option, or its first option when none is selected.
func Value(n *html.Node) string {
	switch {
	case IsElement(n, atom.Input):
		v, _ := Attr(n, "value")
		return v
	case IsElement(n, atom.Textarea):
		return TextContent(n)
	case IsElement(n, atom.Select):
		opts := Options(n)
		for _, o := range opts {
			if _, ok := Attr(o, "selected"); ok {
				return optionValue(o)
			}
		}
		if len(opts) > 0 {
			return optionValue(opts[0])
		}
	}
	return ""
}

// SetValue sets the current value of a form control. For a <select> it selects the first
// option whose value matches and reports false if there is none.
func SetValue(n *html.Node, v string) bool {
	switch {
	case IsElement(n, atom.Input):
		SetAttr(n, "value", v)
		return true
	case IsElement(n, atom.Textarea):
		SetTextContent(n, v)
		return true
	case IsElement(n, atom.Select):
		matched := false
		for _, o := range Options(n) {
			RemoveAttr(o, "selected")
			if !matched && optionValue(o) == v {
				SetAttr(o, "selected", "")
				matched = true
			}
		}
		return matched
	}
	return false
}

// Options returns the <option> elements of a <select> in document order.
func Options(sel *html.Node) []*html.Node {
	return FindAll(sel, func(n *html.Node) bool {
		return IsElement(n, atom.Option)
	})
}

// NewOption builds <option value="value">label</option>.
func NewOption(value, label string) *html.Node {
	o := Element(atom.Option, html.Attribute{Key: "value", Val: value})
	o.AppendChild(Text(label))
	return o
}

// FormDefaults is the default state of a form's controls, captured before any value is entered.
type FormDefaults struct {
	controls []controlDefault
}

type controlDefault struct {
	node     *html.Node
	value    string
	hasValue bool
	checked  bool
	selected map[*html.Node]bool
}

// CaptureDefaults records the value, checkedness and option selection that each control inside
// form starts with.
func CaptureDefaults(form *html.Node) *FormDefaults {
	d := &FormDefaults{}
	for _, n := range FindAll(form, isResettable) {
		c := controlDefault{node: n}
		switch {
		case IsElement(n, atom.Select):
			c.selected = map[*html.Node]bool{}
			for _, o := range Options(n) {
				if _, ok := Attr(o, "selected"); ok {
					c.selected[o] = true
				}
			}
		case IsElement(n, atom.Textarea):
			c.value, c.hasValue = TextContent(n), true
		default:
			c.value, c.hasValue = Attr(n, "value")
			_, c.checked = Attr(n, "checked")
		}
		d.controls = append(d.controls, c)
	}
	return d
}

// Restore puts every captured control back to its default state. Options added to a select
// after capture are deselected, so the select falls back to its first option.
func (d *FormDefaults) Restore() {
	for _, c := range d.controls {
		switch {
		case IsElement(c.node, atom.Select):
			for _, o := range Options(c.node) {
				if c.selected[o] {
					SetAttr(o, "selected", "")
				} else {
					RemoveAttr(o, "selected")
				}
			}
		case IsElement(c.node, atom.Textarea):
			SetTextContent(c.node, c.value)
		default:
			if c.hasValue {
				SetAttr(c.node, "value", c.value)
			} else {
				RemoveAttr(c.node, "value")
			}
			if c.checked {
				SetAttr(c.node, "checked", "")
			} else {
				RemoveAttr(c.node, "checked")
			}
		}
	}
}

func isResettable(n *html.Node) bool {
	switch {
	case IsElement(n, atom.Select), IsElement(n, atom.Textarea):
		return true
	case IsElement(n, atom.Input):
		t, _ := Attr(n, "type")
		return t != "submit" && t != "button" && t != "reset"
	}
	return false
}

func optionValue(o *html.Node) string {
	if v, ok := Attr(o, "value"); ok {
		return v
	}
	return TextContent(o)
}
