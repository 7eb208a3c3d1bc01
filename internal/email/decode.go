package email

import (
	"bytes"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/encoding/charmap"
)

// decodeQuotedPrintable reverses quoted-printable encoding with UTF-8 byte
// reassembly: soft line breaks are removed, `=HH` sequences are collected as
// raw bytes (not decoded one rune at a time), and the full byte buffer is
// decoded as UTF-8 once, falling back to ISO-8859-1 only if that fails.
// A naive per-escape `rune(byte)` conversion corrupts any multi-byte UTF-8
// sequence split across escapes; accumulating bytes first is what makes
// this round-trip correctly.
func decodeQuotedPrintable(s string) string {
	s = strings.ReplaceAll(s, "=\r\n", "")
	s = strings.ReplaceAll(s, "=\n", "")

	var buf bytes.Buffer
	for i := 0; i < len(s); i++ {
		if s[i] == '=' && i+2 < len(s) {
			if b, err := strconv.ParseUint(s[i+1:i+3], 16, 8); err == nil {
				buf.WriteByte(byte(b))
				i += 2
				continue
			}
		}
		buf.WriteByte(s[i])
	}

	raw := buf.Bytes()
	if utf8.Valid(raw) {
		return string(raw)
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(decoded)
}

// htmlToMarkdown converts HTML to a Markdown-like text: headings become
// ATX headings, emphasis becomes asterisks/underscores, lists become
// bullets/ordered markers, strikethrough is supported, links are preserved
// as `[text](href)`, and style/script/image content is dropped. Tables
// with layout-only attributes are unwrapped to their inner text.
func htmlToMarkdown(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}
	doc.Find("script, style, img").Remove()

	var out strings.Builder
	renderNode(doc.Selection, &out)
	return strings.TrimSpace(collapseBlankLines(out.String())), nil
}

func renderNode(sel *goquery.Selection, out *strings.Builder) {
	sel.Contents().Each(func(_ int, node *goquery.Selection) {
		if goquery.NodeName(node) == "#text" {
			out.WriteString(node.Text())
			return
		}
		renderElement(node, out)
	})
}

func renderElement(node *goquery.Selection, out *strings.Builder) {
	switch goquery.NodeName(node) {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		level := int(goquery.NodeName(node)[1] - '0')
		out.WriteString("\n" + strings.Repeat("#", level) + " ")
		renderNode(node, out)
		out.WriteString("\n")
	case "strong", "b":
		out.WriteString("**")
		renderNode(node, out)
		out.WriteString("**")
	case "em", "i":
		out.WriteString("_")
		renderNode(node, out)
		out.WriteString("_")
	case "s", "strike", "del":
		out.WriteString("~~")
		renderNode(node, out)
		out.WriteString("~~")
	case "a":
		href, _ := node.Attr("href")
		out.WriteString("[")
		renderNode(node, out)
		out.WriteString("](" + href + ")")
	case "li":
		out.WriteString("\n- ")
		renderNode(node, out)
	case "ul", "ol":
		out.WriteString("\n")
		renderNode(node, out)
		out.WriteString("\n")
	case "p", "div", "br", "tr":
		out.WriteString("\n")
		renderNode(node, out)
		out.WriteString("\n")
	case "table":
		// Layout tables have no semantic structure worth preserving; unwrap
		// to inner text only.
		renderNode(node, out)
	default:
		renderNode(node, out)
	}
}

func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	var kept []string
	blank := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			if blank {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		kept = append(kept, trimmed)
	}
	return strings.Join(kept, "\n")
}

// decodeBody prefers HTML content converted to Markdown, falling back to
// plain text if no HTML is present or the conversion yields fewer than 100
// characters.
func decodeBody(plainText, html string) string {
	if html != "" {
		if md, err := htmlToMarkdown(html); err == nil && len(md) >= 100 {
			return md
		}
	}
	return plainText
}

// extractMIMEPart locates the body of the given content type within a raw
// RFC 5322 message using plain substring search (never a single regex,
// which risks catastrophic backtracking on adversarial input).
func extractMIMEPart(raw, contentType string) string {
	marker := "Content-Type: " + contentType
	idx := strings.Index(raw, marker)
	if idx == -1 {
		return ""
	}
	rest := raw[idx:]

	sepIdx := strings.Index(rest, "\r\n\r\n")
	sepLen := 4
	if sepIdx == -1 {
		sepIdx = strings.Index(rest, "\n\n")
		sepLen = 2
	}
	if sepIdx == -1 {
		return ""
	}
	body := rest[sepIdx+sepLen:]

	if boundaryIdx := strings.Index(body, "\n--"); boundaryIdx != -1 {
		body = body[:boundaryIdx]
	}
	return strings.TrimSpace(body)
}
