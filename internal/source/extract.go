package source

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// dateMarker is the phrase identifying the date declaration line.
const dateMarker = "расписании на"

// Extract reduces the raw timetable page to a Snapshot: the centered marker
// regions (date declaration, week keyword) and the substitution table rows.
//
// Column layout of the substitution table, fixed by the site:
//
//	0: row number  1: group  2: pair numbers  3: subject by plan
//	4: subject by substitution  5: room
func Extract(body []byte) (*Snapshot, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparsable, err)
	}

	snap := &Snapshot{}

	var table *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "div":
				if hasAttr(n, "align", "center") {
					text := nodeText(n)
					if text != "" {
						snap.Markers = append(snap.Markers, text)
						if snap.DeclaredDate == "" && strings.Contains(text, dateMarker) {
							snap.DeclaredDate = text
						}
					}
				}
			case "table":
				if table == nil {
					table = n
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if table != nil {
		snap.HasTable = true
		snap.Rows = extractRows(table)
	}

	if !snap.HasTable && len(snap.Markers) == 0 {
		return nil, fmt.Errorf("%w: no table or marker regions found", ErrUnparsable)
	}
	return snap, nil
}

func extractRows(table *html.Node) []Row {
	rows := make([]Row, 0)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			cells := cellTexts(n)
			// Header rows use <th> and produce no cells here.
			if len(cells) >= 6 {
				rows = append(rows, Row{
					Group:   cells[1],
					Pairs:   cells[2],
					Subject: cells[4],
					Room:    cells[5],
				})
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(table)

	return rows
}

// cellTexts collects the text of every <td> directly contained in a row.
func cellTexts(tr *html.Node) []string {
	var cells []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "td" {
			cells = append(cells, nodeText(n))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		walk(c)
	}
	return cells
}

// nodeText returns the whitespace-normalized concatenation of all text
// nodes under n.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

func hasAttr(n *html.Node, key, val string) bool {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) && strings.EqualFold(a.Val, val) {
			return true
		}
	}
	return false
}
