package posts

import (
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
)

var sanitizerUGC = bluemonday.UGCPolicy()

// RenderText converts post markdown to HTML that is safe to embed.
func RenderText(md string) string {
	// parsers keep state, so one per call
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs | parser.NoEmptyLineBeforeBlock)
	doc := p.Parse([]byte(md))

	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.HrefTargetBlank})
	return string(sanitizerUGC.SanitizeBytes(markdown.Render(doc, renderer)))
}
