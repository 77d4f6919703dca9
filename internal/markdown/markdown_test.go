package markdown

import (
	"strings"
	"testing"
)

func TestRenderBasicMarkdown(t *testing.T) {
	r := New(DefaultStyle)
	out, err := r.Render("# Lore\n\nThe **dragon** sleeps.\n\n- one\n- two\n")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	html := string(out)
	for _, want := range []string{"<h1>Lore</h1>", "<strong>dragon</strong>", "<li>one</li>"} {
		if !strings.Contains(html, want) {
			t.Fatalf("expected %q in %q", want, html)
		}
	}
}

func TestRenderDropsRawHTML(t *testing.T) {
	r := New(DefaultStyle)
	out, err := r.Render("hello <script>alert(1)</script>\n\n<div onclick=\"x()\">block</div>\n")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(string(out), "<script>") || strings.Contains(string(out), "onclick") {
		t.Fatalf("expected raw html to be omitted, got %q", out)
	}
}

func TestRenderHighlightsFencedCode(t *testing.T) {
	r := New(DefaultStyle)
	out, err := r.Render("```go\nfunc main() {}\n```\n")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	html := string(out)
	if !strings.Contains(html, "<pre") || !strings.Contains(html, "style=") {
		t.Fatalf("expected highlighted block, got %q", html)
	}
	if !strings.Contains(html, "func") || !strings.Contains(html, "main") {
		t.Fatalf("expected code text to survive, got %q", html)
	}
}

func TestRenderUnknownStyleFallsBack(t *testing.T) {
	r := New("no-such-style")
	if _, err := r.Render("```\n<b>x</b>\n```\n"); err != nil {
		t.Fatalf("render: %v", err)
	}
}
