package fetcher

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

var (
	whitespace = regexp.MustCompile(`\s+`)
	priceDigit = regexp.MustCompile(`[0-9][0-9,]*(\.[0-9]+)?`)
)

func selectText(n *html.Node, xpath string) string {
	node := htmlquery.FindOne(n, xpath)
	return digForText(node)
}

func digForText(n *html.Node) string {
	if n == nil {
		return ""
	}
	buf := new(bytes.Buffer)
	dig(n, buf)
	return compactWhitespace(buf.String())
}

func dig(n *html.Node, buf *bytes.Buffer) {
	if n == nil {
		return
	}
	if n.Type == html.TextNode {
		buf.WriteString(n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		dig(c, buf)
	}
}

func compactWhitespace(s string) string {
	s = whitespace.ReplaceAllString(s, " ")
	s = strings.Trim(s, " ")
	return s
}

// parsePrice pulls the first decimal number out of a currency string, e.g.
// "₹27,999.00" -> 27999. Missing or non-positive numbers report not-ok.
func parsePrice(s string) (float64, bool) {
	raw := priceDigit.FindString(s)
	if raw == "" {
		return 0, false
	}

	price, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil || price <= 0 {
		return 0, false
	}
	return price, true
}
