package htmlutil

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

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

// CleanText is GetText with surrounding whitespace and non-breaking spaces removed,
// ASP.NET renders empty grid cells as "&nbsp;".
func CleanText(node *html.Node) string {
	text := strings.ReplaceAll(GetText(node), "\u00a0", " ")
	return strings.TrimSpace(text)
}
