// Package render serializes host trees to HTML.
//
// The render package turns dom.Node trees into HTML strings or streams:
//
//   - HTML5 compliant element rendering
//   - Text and attribute escaping
//   - Void element handling (input, br, img, etc.)
//   - Verbatim script and style content
//   - Full page rendering with DOCTYPE, head and body
//
// # Basic Usage
//
//	renderer := render.NewRenderer(render.RendererConfig{})
//	html, err := renderer.RenderChildrenToString(doc.Body())
//
// # Full Page Rendering
//
//	err := renderer.RenderPage(w, render.PageData{
//	    Title: "Counter",
//	    Body:  doc.Body(),
//	})
package render
