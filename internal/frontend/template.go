package frontend

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
)

var (
	scriptTagRegex = regexp.MustCompile(`<script([^>]*)>`)
	styleTagRegex  = regexp.MustCompile(`<style([^>]*)>`)
	linkTagRegex   = regexp.MustCompile(`<link([^>]*rel=["']stylesheet["'][^>]*)>`)
)

// LoadIndexTemplate loads and processes the index.html template from the embedded filesystem
func LoadIndexTemplate(staticFS fs.FS) (*template.Template, error) {
	indexFile, err := staticFS.Open("index.html")
	if err != nil {
		return nil, fmt.Errorf("failed to open index.html: %w", err)
	}
	defer indexFile.Close()

	htmlContent, err := io.ReadAll(indexFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read index.html: %w", err)
	}

	processedHTML := processHTMLForNonce(string(htmlContent))

	tmpl, err := template.New("index").Parse(processedHTML)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}

	return tmpl, nil
}

// processHTMLForNonce modifies HTML to include nonce template placeholders
func processHTMLForNonce(html string) string {
	html = scriptTagRegex.ReplaceAllString(html, `<script nonce="{{.Nonce}}"$1>`)
	html = styleTagRegex.ReplaceAllString(html, `<style nonce="{{.Nonce}}"$1>`)
	html = linkTagRegex.ReplaceAllString(html, `<link nonce="{{.Nonce}}"$1>`)
	return html
}

// RenderIndex renders the index.html template with the provided nonce
func RenderIndex(c *gin.Context, tmpl *template.Template, nonce string) error {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, gin.H{"Nonce": nonce}); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
	return nil
}
