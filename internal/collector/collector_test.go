package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const testRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Example News</title>
  <link>https://example.com</link>
  <description>test feed</description>
  <item>
    <title>First</title>
    <link>https://example.com/1</link>
    <pubDate>Mon, 01 Jan 2024 10:00:00 +0000</pubDate>
    <description>&lt;p&gt;Hello &lt;b&gt;world&lt;/b&gt;&lt;/p&gt;</description>
  </item>
  <item>
    <title>Second</title>
    <guid isPermaLink="false">tag:example.com,2024:2</guid>
  </item>
  <item>
    <title>Third</title>
    <link>https://example.com/3</link>
  </item>
</channel>
</rss>`

func newFeedServer(t *testing.T, body string, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != "test-agent/1.0" {
			t.Errorf("unexpected User-Agent %q", ua)
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		w.WriteHeader(status)
		_, _ = fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRSSFetcherParsesEntries(t *testing.T) {
	srv := newFeedServer(t, testRSS, http.StatusOK)

	res := NewRSSFetcher("test-agent/1.0", 0).Fetch(context.Background(), srv.URL)
	if !res.OK() {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if res.Source != "Example News" {
		t.Fatalf("Source = %q, want feed title", res.Source)
	}
	if len(res.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(res.Entries))
	}
	first := res.Entries[0]
	if first.Link != "https://example.com/1" || first.Title != "First" {
		t.Fatalf("unexpected first entry: %+v", first)
	}
	if first.Published == "" {
		t.Fatalf("published should be kept as raw text")
	}
	if res.Entries[1].Link != "" || res.Entries[1].GUID != "tag:example.com,2024:2" {
		t.Fatalf("second entry should only carry a guid: %+v", res.Entries[1])
	}
}

func TestRSSFetcherCapsEntriesPerFeed(t *testing.T) {
	srv := newFeedServer(t, testRSS, http.StatusOK)

	res := NewRSSFetcher("test-agent/1.0", 2).Fetch(context.Background(), srv.URL)
	if len(res.Entries) != 2 {
		t.Fatalf("expected cap of 2 entries, got %d", len(res.Entries))
	}
	if res.Entries[0].Title != "First" || res.Entries[1].Title != "Second" {
		t.Fatalf("cap should keep feed order: %+v", res.Entries)
	}
}

func TestRSSFetcherFailsOpen(t *testing.T) {
	srv := newFeedServer(t, "oops", http.StatusInternalServerError)

	res := NewRSSFetcher("test-agent/1.0", 25).Fetch(context.Background(), srv.URL)
	if res.OK() {
		t.Fatalf("expected error to be recorded")
	}
	if len(res.Entries) != 0 {
		t.Fatalf("failed feed should yield no entries, got %d", len(res.Entries))
	}
	if res.Source != srv.URL {
		t.Fatalf("failed feed source = %q, want address %q", res.Source, srv.URL)
	}
}

func TestRSSFetcherGarbageBody(t *testing.T) {
	srv := newFeedServer(t, "this is not xml", http.StatusOK)

	res := NewRSSFetcher("test-agent/1.0", 25).Fetch(context.Background(), srv.URL)
	if res.OK() || len(res.Entries) != 0 || res.Source != srv.URL {
		t.Fatalf("unparseable feed should fail open: %+v", res)
	}
}

func newPageServer(t *testing.T, html string, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != "test-agent/1.0" {
			t.Errorf("unexpected User-Agent %q", ua)
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		_, _ = fmt.Fprint(w, html)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSnippetFetcherFirstParagraph(t *testing.T) {
	srv := newPageServer(t, `<html><body><div>nav</div>
<p>  First   paragraph
 text. </p><p>Second paragraph.</p></body></html>`, http.StatusOK)

	res := NewSnippetFetcher("test-agent/1.0", 260).Fetch(context.Background(), srv.URL)
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if res.Text != "First paragraph text." {
		t.Fatalf("Text = %q", res.Text)
	}
}

func TestSnippetFetcherTruncates(t *testing.T) {
	long := strings.Repeat("à", 300)
	srv := newPageServer(t, "<p>"+long+"</p>", http.StatusOK)

	res := NewSnippetFetcher("test-agent/1.0", 260).Fetch(context.Background(), srv.URL)
	rs := []rune(res.Text)
	if len(rs) != 261 {
		t.Fatalf("truncated length = %d runes, want 261 (incl. ellipsis)", len(rs))
	}
	if !strings.HasSuffix(res.Text, Ellipsis) {
		t.Fatalf("truncated text should end with ellipsis: %q", res.Text)
	}
}

func TestSnippetFetcherFailuresYieldEmpty(t *testing.T) {
	noParagraph := newPageServer(t, "<html><body><div>only divs</div></body></html>", http.StatusOK)
	notFound := newPageServer(t, "<p>missing</p>", http.StatusNotFound)

	f := NewSnippetFetcher("test-agent/1.0", 260)
	for name, url := range map[string]string{
		"no paragraph": noParagraph.URL,
		"not found":    notFound.URL,
		"bad url":      "http://127.0.0.1:1/unreachable",
	} {
		res := f.Fetch(context.Background(), url)
		if res.Text != "" {
			t.Errorf("%s: expected empty text, got %q", name, res.Text)
		}
		if res.Err == nil {
			t.Errorf("%s: expected error to be recorded", name)
		}
	}
}

func TestPlainText(t *testing.T) {
	cases := map[string]string{
		"":                                   "",
		"  plain   text ":                    "plain text",
		"<p>Hello <b>world</b></p>":          "Hello world",
		`<a href="https://x">Title</a>&nbsp;`: "Title",
	}
	for in, want := range cases {
		if got := PlainText(in); got != want {
			t.Errorf("PlainText(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := TruncateRunes("短文本", 10); got != "短文本" {
		t.Fatalf("should keep text under limit: %q", got)
	}
	if got := TruncateRunes("abcdef", 3); got != "abc…" {
		t.Fatalf("TruncateRunes = %q, want %q", got, "abc…")
	}
}
