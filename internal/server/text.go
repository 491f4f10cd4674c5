package server

import (
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"github.com/visualizing-jp/prj-jcie-sub000/internal/system"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
)

// renderText converts a step's markdown narrative to HTML.
func renderText(content string) (string, error) {
	if content == "" {
		return "", nil
	}
	buf := system.GetBuffer()
	defer system.PutBuffer(buf)
	if err := markdown.Convert([]byte(content), buf); err != nil {
		return "", fmt.Errorf("rendering step text: %w", err)
	}
	return buf.String(), nil
}
