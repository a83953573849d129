package render

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	gtext "github.com/yuin/goldmark/text"
)

const (
	// maxBodyLength bounds the rendered pull-request body. Slack rejects
	// section blocks over 3000 characters.
	maxBodyLength = 2800

	// maxEmbeddedImages is how many embedded <img> tags are converted to
	// links, further images are removed entirely.
	maxEmbeddedImages = 3
)

var (
	markdown = goldmark.New(goldmark.WithExtensions(extension.Strikethrough))

	// htmlStripper removes every HTML element, only text content survives.
	htmlStripper = bluemonday.StrictPolicy()

	imgTagRe = regexp.MustCompile(`(?is)<img[^>]*\bsrc\s*=\s*["']([^"']+)["'][^>]*/?>`)
	imgAltRe = regexp.MustCompile(`(?is)\balt\s*=\s*["']([^"']*)["']`)
)

// Body converts a pull-request body from GitHub-flavored markdown to Slack
// mrkdwn.
// Embedded HTML <img> tags become plain links because the image sources are
// usually not publicly fetchable, at most maxEmbeddedImages of them are kept.
// All other HTML is stripped and the result is truncated to maxBodyLength.
func Body(body string) string {
	if body == "" {
		return ""
	}

	body = replaceImgTags(body)
	body = html.UnescapeString(htmlStripper.Sanitize(body))

	return truncate(toMrkdwn(body), maxBodyLength)
}

// replaceImgTags rewrites HTML image tags into markdown links so they survive
// the HTML stripping. Images beyond the limit are dropped.
func replaceImgTags(body string) string {
	count := 0

	return imgTagRe.ReplaceAllStringFunc(body, func(tag string) string {
		count++
		if count > maxEmbeddedImages {
			return ""
		}

		src := imgTagRe.FindStringSubmatch(tag)[1]

		label := "image"
		if m := imgAltRe.FindStringSubmatch(tag); m != nil && m[1] != "" {
			label = m[1]
		}

		return fmt.Sprintf("[%s](%s)", label, src)
	})
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}

	return string(runes[:maxLen-1]) + "…"
}

// toMrkdwn renders a markdown document as Slack mrkdwn.
func toMrkdwn(src string) string {
	source := []byte(src)
	doc := markdown.Parser().Parse(gtext.NewReader(source))

	r := mrkdwnRenderer{source: source}
	r.renderBlocks(&r.buf, doc)

	return strings.TrimRight(r.buf.String(), "\n")
}

type mrkdwnRenderer struct {
	buf    strings.Builder
	source []byte
}

func (r *mrkdwnRenderer) renderBlocks(buf *strings.Builder, parent ast.Node) {
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		r.renderBlock(buf, n)
	}
}

func (r *mrkdwnRenderer) renderBlock(buf *strings.Builder, n ast.Node) {
	switch n := n.(type) {
	case *ast.Heading:
		buf.WriteString("*")
		r.renderInlines(buf, n)
		buf.WriteString("*\n\n")

	case *ast.Paragraph:
		r.renderInlines(buf, n)
		buf.WriteString("\n\n")

	case *ast.TextBlock:
		r.renderInlines(buf, n)
		buf.WriteString("\n")

	case *ast.Blockquote:
		var inner strings.Builder
		r.renderBlocks(&inner, n)
		for _, line := range strings.Split(strings.TrimRight(inner.String(), "\n"), "\n") {
			buf.WriteString("> ")
			buf.WriteString(line)
			buf.WriteString("\n")
		}
		buf.WriteString("\n")

	case *ast.FencedCodeBlock:
		r.renderCodeLines(buf, n)
	case *ast.CodeBlock:
		r.renderCodeLines(buf, n)

	case *ast.List:
		index := n.Start
		if index == 0 {
			index = 1
		}
		for item := n.FirstChild(); item != nil; item = item.NextSibling() {
			var inner strings.Builder
			r.renderBlocks(&inner, item)

			if n.IsOrdered() {
				fmt.Fprintf(buf, "%d. ", index)
				index++
			} else {
				buf.WriteString("• ")
			}
			buf.WriteString(strings.TrimRight(inner.String(), "\n"))
			buf.WriteString("\n")
		}
		buf.WriteString("\n")

	case *ast.ThematicBreak:
		buf.WriteString("---\n\n")

	case *ast.HTMLBlock:
		// already stripped before parsing, ignore leftovers

	default:
		if n.Type() == ast.TypeInline {
			r.renderInline(buf, n)
			return
		}
		r.renderBlocks(buf, n)
	}
}

func (r *mrkdwnRenderer) renderCodeLines(buf *strings.Builder, n ast.Node) {
	buf.WriteString("```\n")
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		buf.Write(segment.Value(r.source))
	}
	buf.WriteString("```\n\n")
}

func (r *mrkdwnRenderer) renderInlines(buf *strings.Builder, parent ast.Node) {
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		r.renderInline(buf, n)
	}
}

func (r *mrkdwnRenderer) renderInline(buf *strings.Builder, n ast.Node) {
	switch n := n.(type) {
	case *ast.Text:
		buf.WriteString(escapeText(string(n.Segment.Value(r.source))))
		if n.SoftLineBreak() || n.HardLineBreak() {
			buf.WriteString("\n")
		}

	case *ast.String:
		buf.WriteString(escapeText(string(n.Value)))

	case *ast.Emphasis:
		marker := "_"
		if n.Level == 2 {
			marker = "*"
		}
		buf.WriteString(marker)
		r.renderInlines(buf, n)
		buf.WriteString(marker)

	case *east.Strikethrough:
		buf.WriteString("~")
		r.renderInlines(buf, n)
		buf.WriteString("~")

	case *ast.CodeSpan:
		buf.WriteString("`")
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			if t, ok := c.(*ast.Text); ok {
				buf.Write(t.Segment.Value(r.source))
			}
		}
		buf.WriteString("`")

	case *ast.Link:
		var label strings.Builder
		r.renderInlines(&label, n)
		writeSlackLink(buf, string(n.Destination), label.String())

	case *ast.AutoLink:
		url := string(n.URL(r.source))
		writeSlackLink(buf, url, "")

	case *ast.Image:
		var label strings.Builder
		r.renderInlines(&label, n)
		writeSlackLink(buf, string(n.Destination), label.String())

	case *ast.RawHTML:
		// stripped before parsing, ignore leftovers

	default:
		r.renderInlines(buf, n)
	}
}

func writeSlackLink(buf *strings.Builder, url, label string) {
	buf.WriteString("<")
	buf.WriteString(url)
	if label != "" && label != url {
		buf.WriteString("|")
		buf.WriteString(label)
	}
	buf.WriteString(">")
}

// escapeText escapes the characters that have a special meaning in Slack
// mrkdwn text.
func escapeText(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")

	return s
}
