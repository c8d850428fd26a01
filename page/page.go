// Package page renders the static HTML pages that are embedded into QR
// codes as data URIs.
package page

import (
	"embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed templates/consent.html.tmpl templates/goodboy.html
var templates embed.FS

var consentTmpl = template.Must(template.ParseFS(templates, "templates/consent.html.tmpl"))

// Goodboy is the animated goodboy page.
var Goodboy = mustRead("templates/goodboy.html")

func mustRead(name string) string {
	b, err := templates.ReadFile(name)
	if err != nil {
		panic(err)
	}
	return string(b)
}

// textEscaper escapes for HTML text content. Quotes are left alone.
var textEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
)

// attrEscaper escapes for a double- or single-quoted attribute value.
var attrEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
)

// EscapeText escapes s for use as HTML text content.
func EscapeText(s string) string {
	return textEscaper.Replace(s)
}

// EscapeAttr escapes s for use inside a quoted attribute value.
// It must not be replaced by EscapeText: the href context needs quotes escaped.
func EscapeAttr(s string) string {
	return attrEscaper.Replace(s)
}

type consentData struct {
	Site       string
	TargetText string
	TargetHref string
}

// RenderConsent returns the warning page shown before following targetURL.
// siteName appears in the title and heading, targetURL as text and as the
// href of the single "Proceed" link.
func RenderConsent(targetURL, siteName string) (string, error) {
	var b strings.Builder
	err := consentTmpl.Execute(&b, consentData{
		Site:       EscapeText(siteName),
		TargetText: EscapeText(targetURL),
		TargetHref: EscapeAttr(targetURL),
	})
	if err != nil {
		return "", fmt.Errorf("render consent page: %w", err)
	}
	return b.String(), nil
}
