package main

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/nomis52/signupboard/dom"
	"github.com/nomis52/signupboard/page"
)

// writeSummary prints the list container of p as plain text: one block per activity card, or
// the container text when there are no cards.
func writeSummary(w io.Writer, p *page.Page) {
	p.View(func(els page.Elements) {
		cards := dom.FindAll(els.List, func(n *html.Node) bool {
			return n.Type == html.ElementNode && dom.HasClass(n, "activity-card")
		})
		if len(cards) == 0 {
			fmt.Fprintln(w, collapse(dom.TextContent(els.List)))
			return
		}
		for i, card := range cards {
			if i > 0 {
				fmt.Fprintln(w)
			}
			writeCard(w, card)
		}
	})
}

func writeCard(w io.Writer, card *html.Node) {
	for _, n := range dom.FindAll(card, func(n *html.Node) bool {
		return dom.IsElement(n, atom.H4) || dom.IsElement(n, atom.P) || dom.IsElement(n, atom.Li)
	}) {
		text := collapse(dom.TextContent(n))
		switch {
		case dom.IsElement(n, atom.H4):
			fmt.Fprintln(w, text)
		case dom.IsElement(n, atom.Li):
			fmt.Fprintf(w, "    - %s\n", text)
		default:
			fmt.Fprintf(w, "  %s\n", text)
		}
	}
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
