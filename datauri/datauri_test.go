package datauri

import (
	"errors"
	"strings"
	"testing"
)

func TestEscape(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "unreserved untouched", in: "abcXYZ019-._~", want: "abcXYZ019-._~"},
		{name: "slash and ampersand", in: "a/b&c", want: "a%2Fb%26c"},
		{name: "space", in: "a b", want: "a%20b"},
		{name: "markup", in: `<a href="x">`, want: "%3Ca%20href%3D%22x%22%3E"},
		{name: "utf-8 bytes", in: "—", want: "%E2%80%94"},
		{name: "plus and percent", in: "+%", want: "%2B%25"},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Escape(tt.in); got != tt.want {
				t.Errorf("Escape(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestEscapeUnescapeRoundTrip(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"<!doctype html><html><p>a &amp; b</p></html>",
		"https://example.com/a?b=1&c=2#frag",
		"tabs\tand\nnewlines and + plus",
		"emoji 🐶 and accents éà",
		"100% sure",
	}
	for _, in := range inputs {
		out, err := Unescape(Escape(in))
		if err != nil {
			t.Fatalf("Unescape(Escape(%q)): %v", in, err)
		}
		if out != in {
			t.Errorf("round trip = %q, want %q", out, in)
		}
	}
}

func TestHTML(t *testing.T) {
	t.Parallel()

	got := HTML("<p>hi</p>")
	if got != "data:text/html;charset=utf-8,%3Cp%3Ehi%3C%2Fp%3E" {
		t.Errorf("HTML() = %q", got)
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	t.Run("html", func(t *testing.T) {
		t.Parallel()
		u, err := Parse(HTML("<b>x & y</b>"))
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		if !u.IsHTML() {
			t.Errorf("expected html media type, got %q", u.MediaType)
		}
		if u.Data != "<b>x & y</b>" {
			t.Errorf("Data = %q", u.Data)
		}
	})

	t.Run("plain text has no media type", func(t *testing.T) {
		t.Parallel()
		u, err := Parse("data:,hello%20world")
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		if u.IsHTML() || u.MediaType != "" || u.Data != "hello world" {
			t.Errorf("unexpected %+v", u)
		}
	})

	t.Run("not a data uri", func(t *testing.T) {
		t.Parallel()
		for _, s := range []string{"https://example.com", "data:text/html"} {
			if _, err := Parse(s); !errors.Is(err, ErrNotDataURI) {
				t.Errorf("Parse(%q) error = %v, want ErrNotDataURI", s, err)
			}
		}
	})

	t.Run("base64 rejected", func(t *testing.T) {
		t.Parallel()
		_, err := Parse("data:text/html;base64,PGI+")
		if err == nil || !strings.Contains(err.Error(), "base64") {
			t.Errorf("expected base64 error, got %v", err)
		}
	})

	t.Run("bad escape", func(t *testing.T) {
		t.Parallel()
		if _, err := Parse("data:,%zz"); err == nil {
			t.Error("expected error for invalid escape")
		}
	})
}
