package loader

import (
	"errors"
	"fmt"
	"strconv"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/nomis52/signupboard/catalog"
	"github.com/nomis52/signupboard/dom"
)

// Card template classes.
const (
	titleClass        = "activity-title"
	descriptionClass  = "activity-description"
	participantsClass = "participants-list"
)

// NoParticipantsText is the placeholder entry of an empty participants list.
const NoParticipantsText = "No participants yet."

// ErrTemplate is returned when the card template lacks a part a card needs.
var ErrTemplate = errors.New("invalid card template")

// RenderCard clones the card template and fills it for one activity. The returned nodes are
// detached and ready to append to the list container; tmpl is not modified.
//
// The card gets the name as title and the description, followed by the schedule and an
// availability line with the unclamped spots left, and the participants in catalog order.
func RenderCard(tmpl *html.Node, name string, a catalog.Activity) ([]*html.Node, error) {
	nodes := dom.CloneTemplate(tmpl)

	title, err := part(nodes, titleClass)
	if err != nil {
		return nil, err
	}
	desc, err := part(nodes, descriptionClass)
	if err != nil {
		return nil, err
	}
	participants, err := part(nodes, participantsClass)
	if err != nil {
		return nil, err
	}
	if desc.Parent == nil {
		return nil, fmt.Errorf("%w: .%s must not be a top-level node", ErrTemplate, descriptionClass)
	}

	dom.SetTextContent(title, name)
	dom.SetTextContent(desc, a.Description)

	schedule := labelled("Schedule:", a.Schedule)
	dom.InsertAfter(desc, schedule)
	availability := labelled("Availability:", strconv.Itoa(a.SpotsLeft())+" spots left")
	dom.InsertAfter(schedule, availability)

	if len(a.Participants) == 0 {
		li := dom.Element(atom.Li, html.Attribute{Key: "style", Val: "font-style: italic"})
		li.AppendChild(dom.Text(NoParticipantsText))
		participants.AppendChild(li)
	} else {
		for _, email := range a.Participants {
			li := dom.Element(atom.Li)
			li.AppendChild(dom.Text(email))
			participants.AppendChild(li)
		}
	}

	return nodes, nil
}

// labelled builds <p><strong>label</strong> value</p>.
func labelled(label, value string) *html.Node {
	p := dom.Element(atom.P)
	strong := dom.Element(atom.Strong)
	strong.AppendChild(dom.Text(label))
	p.AppendChild(strong)
	p.AppendChild(dom.Text(" " + value))
	return p
}

func part(nodes []*html.Node, class string) (*html.Node, error) {
	for _, n := range nodes {
		if found := dom.ByClass(n, class); found != nil {
			return found, nil
		}
	}
	return nil, fmt.Errorf("%w: no .%s", ErrTemplate, class)
}
