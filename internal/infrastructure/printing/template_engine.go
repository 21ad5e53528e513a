package printing

import (
	"bytes"
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"strconv"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed templates/order.html
var templateFS embed.FS

// TemplateEngine turns a positioned Page into a self-contained RTL HTML
// document sized for A4.
type TemplateEngine struct {
	tmpl *template.Template
	logo template.URL
}

type pageView struct {
	Title     string
	Width     float64
	Height    float64
	Logo      template.URL
	LogoX     float64
	LogoY     float64
	LogoWidth float64
	Sheets    []Sheet
}

var titleCaser = cases.Title(language.English)

// NewTemplateEngine parses the embedded template. logoPath may be empty or
// point at a missing file, in which case documents print without a logo.
func NewTemplateEngine(logoPath string) (*TemplateEngine, error) {
	tmpl, err := template.New("order.html").Funcs(template.FuncMap{
		"mm": func(v float64) template.CSS { return template.CSS(strconv.FormatFloat(v, 'f', 2, 64) + "mm") },
		"pt": func(v float64) template.CSS { return template.CSS(strconv.FormatFloat(v, 'f', 1, 64) + "pt") },
	}).ParseFS(templateFS, "templates/order.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse document template: %w", err)
	}

	engine := &TemplateEngine{tmpl: tmpl}
	if logoPath != "" {
		if data, err := os.ReadFile(logoPath); err == nil {
			engine.logo = dataURL(data)
		}
	}
	return engine, nil
}

// HasLogo reports whether a logo image was loaded
func (e *TemplateEngine) HasLogo() bool {
	return e.logo != ""
}

// Render produces the HTML of a page
func (e *TemplateEngine) Render(page Page) (string, error) {
	view := pageView{
		Title:     LabelTitle + " - " + titleCaser.String(string(page.Mode)),
		Width:     PageWidth,
		Height:    PageHeight,
		Logo:      e.logo,
		LogoX:     LogoX,
		LogoY:     LogoY,
		LogoWidth: LogoWidth,
		Sheets:    page.Sheets,
	}
	var buf bytes.Buffer
	if err := e.tmpl.Execute(&buf, view); err != nil {
		return "", NewRenderError(ErrCodeInvalidHTML, "failed to execute document template", err)
	}
	return buf.String(), nil
}

func dataURL(data []byte) template.URL {
	return template.URL("data:" + http.DetectContentType(data) + ";base64," + base64.StdEncoding.EncodeToString(data))
}
