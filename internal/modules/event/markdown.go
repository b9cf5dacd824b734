package event

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var md = goldmark.New(goldmark.WithExtensions(extension.Linkify, extension.Strikethrough))

// RenderMarkdown converts event content to HTML. Raw HTML in the source is
// dropped by goldmark's default renderer.
func RenderMarkdown(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// Excerpt renders the first paragraph of src.
func Excerpt(src string) (template.HTML, error) {
	src = strings.TrimSpace(strings.ReplaceAll(src, "\r\n", "\n"))
	if i := strings.Index(src, "\n\n"); i >= 0 {
		src = src[:i]
	}
	if src == "" {
		return "", nil
	}
	return RenderMarkdown(src)
}
