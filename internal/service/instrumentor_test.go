package service_test

import (
	"strings"
	"testing"

	"github.com/shulgold/newsletter-engine/internal/service"
)

func TestInstrumentRewritesOnlyExternalLinks(t *testing.T) {
	instr := &service.Instrumentor{BaseURL: "https://portal.example.org"}

	body := `<a href="mailto:x@y.com">mail</a>` +
		`<a href="#top">top</a>` +
		`<a href="tel:+15551234">call</a>` +
		`<a href="https://example.com">site</a>`

	out := instr.Instrument(body, 7, 42)

	if !strings.Contains(out, `href="mailto:x@y.com"`) {
		t.Errorf("mailto link was rewritten: %s", out)
	}
	if !strings.Contains(out, `href="#top"`) {
		t.Errorf("anchor link was rewritten: %s", out)
	}
	if !strings.Contains(out, `href="tel:+15551234"`) {
		t.Errorf("tel link was rewritten: %s", out)
	}
	if !strings.Contains(out, `href="https://portal.example.org/track/click?sid=7&sub=42&url=https%3A%2F%2Fexample.com"`) {
		t.Errorf("external link not rewritten: %s", out)
	}
}

func TestInstrumentHandlesSingleQuotedHrefs(t *testing.T) {
	instr := &service.Instrumentor{BaseURL: "https://portal.example.org"}

	out := instr.Instrument(`<a href='https://example.com/page'>go</a>`, 1, 2)
	if !strings.Contains(out, `href='https://portal.example.org/track/click?sid=1&sub=2&url=https%3A%2F%2Fexample.com%2Fpage'`) {
		t.Errorf("single-quoted link not rewritten: %s", out)
	}
}

func TestInstrumentAppendsOpenPixel(t *testing.T) {
	instr := &service.Instrumentor{BaseURL: "https://portal.example.org"}

	out := instr.Instrument("<p>hello</p>", 3, 9)
	if !strings.Contains(out, `src="https://portal.example.org/track/open?sid=3&sub=9"`) {
		t.Errorf("open pixel missing: %s", out)
	}
	if !strings.Contains(out, `width="1" height="1"`) {
		t.Errorf("pixel not 1x1: %s", out)
	}
}

func TestInstrumentIsIdempotent(t *testing.T) {
	instr := &service.Instrumentor{BaseURL: "https://portal.example.org"}

	body := `<p>News: <a href="https://example.com">read</a></p>`
	once := instr.Instrument(body, 5, 6)
	twice := instr.Instrument(once, 5, 6)

	if once != twice {
		t.Errorf("re-instrumenting changed the body:\nonce:  %s\ntwice: %s", once, twice)
	}
}

func TestInstrumentLeavesNonAbsoluteLinksAlone(t *testing.T) {
	// The click endpoint only redirects to absolute http(s) URLs, so
	// rewriting anything else would produce dead links.
	instr := &service.Instrumentor{BaseURL: "https://portal.example.org"}

	body := `<a href="/local/page">local</a><a href="">empty</a><a href="ftp://example.com/f">ftp</a>`
	out := instr.Instrument(body, 1, 2)

	if !strings.Contains(out, `href="/local/page"`) {
		t.Errorf("relative link was rewritten: %s", out)
	}
	if !strings.Contains(out, `href=""`) {
		t.Errorf("empty href was rewritten: %s", out)
	}
	if !strings.Contains(out, `href="ftp://example.com/f"`) {
		t.Errorf("non-http scheme was rewritten: %s", out)
	}
	if strings.Contains(out, "url=%2Flocal%2Fpage") {
		t.Errorf("click redirect built for a relative target: %s", out)
	}
}

func TestInstrumentSkipsUnsubscribeLinks(t *testing.T) {
	instr := &service.Instrumentor{BaseURL: "https://portal.example.org"}

	body := `<a href="https://portal.example.org/unsubscribe?token=abc">unsubscribe</a>`
	out := instr.Instrument(body, 1, 1)
	if !strings.Contains(out, `href="https://portal.example.org/unsubscribe?token=abc"`) {
		t.Errorf("unsubscribe link was rewritten: %s", out)
	}
}

func TestPlainTextStripsHTMLAndAppendsUnsubscribe(t *testing.T) {
	instr := &service.Instrumentor{BaseURL: "https://portal.example.org"}

	body := `<style>p{color:red}</style><h1>Weekly &amp; News</h1><p>First line<br>second line</p>`
	text := instr.PlainText(body, "tok-123")

	if strings.Contains(text, "<") {
		t.Errorf("tags left in plain text: %q", text)
	}
	if strings.Contains(text, "color:red") {
		t.Errorf("style block left in plain text: %q", text)
	}
	if !strings.Contains(text, "Weekly & News") {
		t.Errorf("entities not unescaped: %q", text)
	}
	if !strings.Contains(text, "First line\nsecond line") {
		t.Errorf("line breaks not preserved: %q", text)
	}
	if !strings.Contains(text, "https://portal.example.org/unsubscribe?token=tok-123") {
		t.Errorf("unsubscribe URL missing: %q", text)
	}
}
