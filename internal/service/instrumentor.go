// internal/service/instrumentor.go
package service

import (
    "fmt"
    "html"
    "net/url"
    "regexp"
    "strings"
)

// Instrumentor rewrites outbound newsletter HTML per recipient: every
// external link becomes a click-tracking redirect and an invisible open
// pixel is appended. The stored newsletter body is never mutated; each
// recipient gets a fresh copy. Only well-formed href="..." / href='...'
// attributes are recognized.
type Instrumentor struct {
    BaseURL string // public base of the tracking endpoints, no trailing slash
}

var (
    hrefDoubleQuoted = regexp.MustCompile(`href="([^"]*)"`)
    hrefSingleQuoted = regexp.MustCompile(`href='([^']*)'`)

    tagPattern    = regexp.MustCompile(`<[^>]*>`)
    blockPattern  = regexp.MustCompile(`(?is)<(style|script)[^>]*>.*?</(style|script)>`)
    brPattern     = regexp.MustCompile(`(?i)<br\s*/?>`)
    blockEnd      = regexp.MustCompile(`(?i)</(p|div|h[1-6]|li|tr)>`)
    blankLines    = regexp.MustCompile(`\n{3,}`)
    trailingSpace = regexp.MustCompile(`[ \t]+\n`)
)

// Instrument returns the per-recipient HTML. It is idempotent: running it
// over an already-instrumented body changes nothing.
func (i *Instrumentor) Instrument(htmlBody string, sendID, subscriberID int) string {
    out := hrefDoubleQuoted.ReplaceAllStringFunc(htmlBody, func(match string) string {
        target := match[len(`href="`) : len(match)-1]
        return `href="` + i.rewriteLink(target, sendID, subscriberID) + `"`
    })
    out = hrefSingleQuoted.ReplaceAllStringFunc(out, func(match string) string {
        target := match[len(`href='`) : len(match)-1]
        return `href='` + i.rewriteLink(target, sendID, subscriberID) + `'`
    })

    if !strings.Contains(out, "/track/open?") {
        out += i.openPixel(sendID, subscriberID)
    }
    return out
}

func (i *Instrumentor) rewriteLink(target string, sendID, subscriberID int) string {
    if i.skipLink(target) {
        return target
    }
    return fmt.Sprintf("%s/track/click?sid=%d&sub=%d&url=%s",
        i.BaseURL, sendID, subscriberID, url.QueryEscape(target))
}

func (i *Instrumentor) skipLink(target string) bool {
    if strings.HasPrefix(target, "mailto:") || strings.HasPrefix(target, "tel:") || strings.HasPrefix(target, "#") {
        return true
    }
    // Already one of ours
    if strings.Contains(target, "/track/click?") || strings.Contains(target, "/track/open?") || strings.Contains(target, "/unsubscribe?") {
        return true
    }
    // The click endpoint only redirects to absolute http(s) URLs; anything
    // else (relative paths, empty values, other schemes) passes through.
    if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
        return true
    }
    return false
}

func (i *Instrumentor) openPixel(sendID, subscriberID int) string {
    return fmt.Sprintf(`<img src="%s/track/open?sid=%d&sub=%d" width="1" height="1" alt="" style="display:none;">`,
        i.BaseURL, sendID, subscriberID)
}

// UnsubscribeURL builds the capability link for a subscriber's token.
func (i *Instrumentor) UnsubscribeURL(token string) string {
    return fmt.Sprintf("%s/unsubscribe?token=%s", i.BaseURL, url.QueryEscape(token))
}

// PlainText strips the HTML structure down to a readable text body and
// appends the unsubscribe link, for clients that reject HTML.
func (i *Instrumentor) PlainText(htmlBody, unsubscribeToken string) string {
    text := blockPattern.ReplaceAllString(htmlBody, "")
    text = brPattern.ReplaceAllString(text, "\n")
    text = blockEnd.ReplaceAllString(text, "\n\n")
    text = tagPattern.ReplaceAllString(text, "")
    text = html.UnescapeString(text)
    text = trailingSpace.ReplaceAllString(text, "\n")
    text = blankLines.ReplaceAllString(text, "\n\n")
    text = strings.TrimSpace(text)

    return text + "\n\nTo unsubscribe: " + i.UnsubscribeURL(unsubscribeToken) + "\n"
}
