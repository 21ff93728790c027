package storage

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"tstrend/models"
)

//go:embed templates/report.html.tmpl
var templateFS embed.FS

var reportTemplate = template.Must(
	template.New("report.html.tmpl").Funcs(template.FuncMap{
		"inc":         func(i int) int { return i + 1 },
		"labelClass":  labelClass,
		"sourceClass": sourceClass,
		"codeIcon":    codeIcon,
	}).ParseFS(templateFS, "templates/report.html.tmpl"),
)

// HTMLWriter renders a report into a single self-contained HTML file.
type HTMLWriter struct {
	path string
}

// NewHTMLWriter creates an HTMLWriter targeting path.
func NewHTMLWriter(path string) *HTMLWriter {
	return &HTMLWriter{path: path}
}

// Path returns the absolute output path, falling back to the configured one.
func (h *HTMLWriter) Path() string {
	abs, err := filepath.Abs(h.path)
	if err != nil {
		return h.path
	}
	return abs
}

// Write renders the report. Nothing is written when rendering fails.
func (h *HTMLWriter) Write(report *models.Report) error {
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, report); err != nil {
		return fmt.Errorf("html: render: %w", err)
	}

	if dir := filepath.Dir(h.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("html: create output dir: %w", err)
		}
	}
	if err := os.WriteFile(h.path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("html: write %q: %w", h.path, err)
	}
	return nil
}

func labelClass(label string) string {
	return "lbl-" + strings.ReplaceAll(label, " ", "-")
}

func sourceClass(src models.Source) string {
	return "src-" + strings.ReplaceAll(string(src), " ", "-")
}

func codeIcon(c *models.CodeLink) string {
	if c.Kind == models.CodeGitHub {
		return "fab fa-github"
	}
	return "fas fa-laptop-code"
}
