package page

import (
	"regexp"
	"strings"
	"testing"
)

func TestEscapeText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "plain", want: "plain"},
		{in: "a&b", want: "a&amp;b"},
		{in: "<script>", want: "&lt;script&gt;"},
		{in: `say "hi" it's`, want: `say "hi" it's`},
		{in: "&amp;", want: "&amp;amp;"},
	}
	for _, tt := range tests {
		if got := EscapeText(tt.in); got != tt.want {
			t.Errorf("EscapeText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEscapeAttr(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "plain", want: "plain"},
		{in: "a&b", want: "a&amp;b"},
		{in: `"><script>`, want: "&quot;&gt;&lt;script&gt;"},
		{in: "it's", want: "it&#x27;s"},
	}
	for _, tt := range tests {
		if got := EscapeAttr(tt.in); got != tt.want {
			t.Errorf("EscapeAttr(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEscapeTextAndAttrDiffer(t *testing.T) {
	t.Parallel()

	in := `https://x.com/"q"`
	if EscapeText(in) == EscapeAttr(in) {
		t.Errorf("text and attribute escaping must differ for %q", in)
	}
}

func TestRenderConsent(t *testing.T) {
	t.Parallel()

	t.Run("example target", func(t *testing.T) {
		t.Parallel()
		doc, err := RenderConsent("https://example.com/a?b=1&c=2", "Demo Site")
		if err != nil {
			t.Fatalf("RenderConsent: %v", err)
		}
		for _, want := range []string{
			"Target:</strong> https://example.com/a?b=1&amp;c=2",
			`href="https://example.com/a?b=1&amp;c=2"`,
			"<title>Warning — Demo Site</title>",
			"<h1>Warning: Confirm before continuing</h1>",
			"For your safety, always check links before opening them.",
			`If you trust this source, click <a href="https://example.com/a?b=1&amp;c=2">Proceed to the site</a>. Otherwise do not continue.`,
			"Educational demo — does not collect data.",
			"<!doctype html>",
		} {
			if !strings.Contains(doc, want) {
				t.Errorf("expected document to contain %q\n%s", want, doc)
			}
		}
	})

	t.Run("quote in target stays inside href", func(t *testing.T) {
		t.Parallel()
		doc, err := RenderConsent(`https://x.com/"><script>`, "Demo Site")
		if err != nil {
			t.Fatalf("RenderConsent: %v", err)
		}
		if !strings.Contains(doc, `href="https://x.com/&quot;&gt;&lt;script&gt;"`) {
			t.Errorf("href not attribute-escaped:\n%s", doc)
		}
		if strings.Contains(doc, "<script>") {
			t.Error("raw <script> leaked into document")
		}
	})

	t.Run("hostile values add no markup", func(t *testing.T) {
		t.Parallel()
		benign, err := RenderConsent("https://a.example", "Site")
		if err != nil {
			t.Fatalf("RenderConsent: %v", err)
		}
		hostile, err := RenderConsent(`https://a.example/<x>&"'`, `<b>Evil & Co</b>`)
		if err != nil {
			t.Fatalf("RenderConsent: %v", err)
		}
		for _, ch := range []string{"<", ">"} {
			if strings.Count(benign, ch) != strings.Count(hostile, ch) {
				t.Errorf("count of %q changed: %d vs %d", ch, strings.Count(benign, ch), strings.Count(hostile, ch))
			}
		}
		stray := regexp.MustCompile(`&(?:amp|lt|gt|quot|#x27);`).ReplaceAllString(hostile, "")
		if strings.Contains(stray, "&") {
			t.Errorf("unescaped & in document:\n%s", hostile)
		}
	})

	t.Run("single anchor recovers target", func(t *testing.T) {
		t.Parallel()
		targets := []string{
			"https://example.com/a?b=1&c=2",
			`https://x.com/"><script>`,
			"https://example.com/it's?q=<1>",
		}
		for _, target := range targets {
			doc, err := RenderConsent(target, "Demo Site")
			if err != nil {
				t.Fatalf("RenderConsent: %v", err)
			}
			links, err := Links(doc)
			if err != nil {
				t.Fatalf("Links: %v", err)
			}
			if len(links) != 1 {
				t.Fatalf("expected 1 link, got %d", len(links))
			}
			if links[0] != target {
				t.Errorf("href = %q, want %q", links[0], target)
			}
		}
	})
}

func TestGoodboy(t *testing.T) {
	t.Parallel()

	s, err := Inspect(Goodboy)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if s.Title != "goodboy" {
		t.Errorf("title = %q, want goodboy", s.Title)
	}
	if len(s.Links) != 0 {
		t.Errorf("expected no links, got %v", s.Links)
	}
	if !strings.Contains(Goodboy, "You're a good human — have a nice day!") {
		t.Error("expected greeting in goodboy page")
	}
	if !strings.Contains(Goodboy, "@keyframes") {
		t.Error("expected css animation in goodboy page")
	}
}

func TestInspectTitle(t *testing.T) {
	t.Parallel()

	doc, err := RenderConsent("https://example.com", "A & B")
	if err != nil {
		t.Fatalf("RenderConsent: %v", err)
	}
	s, err := Inspect(doc)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if s.Title != "Warning — A & B" {
		t.Errorf("title = %q", s.Title)
	}
}
