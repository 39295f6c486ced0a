package htmlutil

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// GetText concatenates every text node under node.
func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

// NodeText is the trimmed text content of a node.
func NodeText(node *html.Node) string {
	return strings.TrimSpace(GetText(node))
}

var innerWhitespace = regexp.MustCompile(`\s\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) || unicode.IsSpace(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// CleanText strips non-printable characters and collapses runs of whitespace.
func CleanText(s string) string {
	s = removeNonPrintable(s)
	s = strings.TrimSpace(s)
	return innerWhitespace.ReplaceAllString(s, " ")
}

// FindByAttributeSubstring returns the first element under root matching
// selector whose attribute contains substr.
func FindByAttributeSubstring(root *goquery.Selection, selector, attribute, substr string) (*goquery.Selection, bool) {
	var found *goquery.Selection
	root.Find(selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		value, ok := sel.Attr(attribute)
		if ok && strings.Contains(value, substr) {
			found = sel
			return false
		}
		return true
	})
	return found, found != nil
}

// FindByAttribute is FindByAttributeSubstring with an exact match.
func FindByAttribute(root *goquery.Selection, selector, attribute, value string) (*goquery.Selection, bool) {
	var found *goquery.Selection
	root.Find(selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		v, ok := sel.Attr(attribute)
		if ok && v == value {
			found = sel
			return false
		}
		return true
	})
	return found, found != nil
}

// OwnRows returns the rows of a table without the rows of tables nested
// inside of it.
func OwnRows(table *goquery.Selection) []*goquery.Selection {
	var rows []*goquery.Selection
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		if row.Closest("table").IsSelection(table) {
			rows = append(rows, row)
		}
	})
	return rows
}

// Cells returns the td and th children of a row.
func Cells(row *goquery.Selection) []*html.Node {
	return row.ChildrenFiltered("td,th").Nodes
}

// RowText joins the trimmed text of every cell with a single space.
func RowText(cells []*html.Node) string {
	texts := make([]string, len(cells))
	for i, c := range cells {
		texts[i] = NodeText(c)
	}
	return strings.Join(texts, " ")
}
