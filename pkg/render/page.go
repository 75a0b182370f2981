package render

import (
	"fmt"
	"io"

	"github.com/vango-dev/stencil/pkg/dom"
)

// PageData contains all data needed to render a complete HTML page.
type PageData struct {
	// Body is the node whose children become the page body.
	Body *dom.Node

	// Title is the page title.
	Title string

	// StyleSheets contains paths to external stylesheets.
	StyleSheets []string

	// Scripts contains inline scripts appended to the body.
	Scripts []string

	// Lang is the language attribute for the html element.
	// Defaults to "en" if not specified.
	Lang string
}

// RenderPage renders a complete HTML document to the given writer.
func (r *Renderer) RenderPage(w io.Writer, page PageData) error {
	lang := page.Lang
	if lang == "" {
		lang = "en"
	}

	if _, err := fmt.Fprintf(w, "<!DOCTYPE html>\n<html lang=\"%s\">\n<head>\n", escapeAttr(lang)); err != nil {
		return err
	}
	if _, err := io.WriteString(w, `  <meta charset="utf-8">`+"\n"); err != nil {
		return err
	}
	if page.Title != "" {
		if _, err := fmt.Fprintf(w, "  <title>%s</title>\n", escapeHTML(page.Title)); err != nil {
			return err
		}
	}
	for _, href := range page.StyleSheets {
		if _, err := fmt.Fprintf(w, `  <link rel="stylesheet" href="%s">`+"\n", escapeAttr(href)); err != nil {
			return err
		}
	}
	if _, err := io.WriteString(w, "</head>\n<body>\n"); err != nil {
		return err
	}

	if err := r.RenderChildren(w, page.Body); err != nil {
		return err
	}

	for _, script := range page.Scripts {
		if _, err := fmt.Fprintf(w, "\n<script>%s</script>", script); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "\n</body>\n</html>\n")
	return err
}
