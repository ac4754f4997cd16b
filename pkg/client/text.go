package client

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const maxMessageLen = 300

// responseText reads a bounded prefix of the body and reduces it to a short,
// single-line message. HTML error pages are reduced to their visible text.
func responseText(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	return summarize(resp.Header.Get("Content-Type"), body)
}

func summarize(contentType string, body []byte) string {
	text := string(body)
	if strings.Contains(contentType, "html") || looksLikeHTML(body) {
		if doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body)); err == nil {
			doc.Find("script, style, head").Remove()
			text = doc.Text()
		}
	}

	text = strings.Join(strings.Fields(text), " ")
	if len(text) > maxMessageLen {
		text = text[:maxMessageLen] + "..."
	}
	return text
}

func looksLikeHTML(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '<' {
		return false
	}
	lower := bytes.ToLower(trimmed[:min(len(trimmed), 64)])
	return bytes.HasPrefix(lower, []byte("<!doctype html")) || bytes.HasPrefix(lower, []byte("<html"))
}
