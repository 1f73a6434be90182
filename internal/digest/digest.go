package digest

import (
	"fmt"
	"strings"
	"time"

	"github.com/LJTian/NewsDigest/internal/processor"
)

// Labels 邮件中的固定文案
type Labels struct {
	Prefix       string
	NewsWord     string
	Header       string
	Source       string
	Published    string
	NotAvailable string
	OpenLink     string
	Link         string
	Untitled     string
}

var English = Labels{
	Prefix:       "[AI News]",
	NewsWord:     "new items",
	Header:       "AI news digest",
	Source:       "Source",
	Published:    "Published",
	NotAvailable: "not available",
	OpenLink:     "(open the link for details)",
	Link:         "Link",
	Untitled:     "(untitled)",
}

var Italian = Labels{
	Prefix:       "[IA News]",
	NewsWord:     "novità",
	Header:       "Riepilogo notizie IA",
	Source:       "Sorgente",
	Published:    "Pubblicato",
	NotAvailable: "N/D",
	OpenLink:     "(aprire il link per i dettagli)",
	Link:         "Link",
	Untitled:     "(senza titolo)",
}

// LabelsFor 根据语言代码选择文案，未知语言使用英文
func LabelsFor(lang string) Labels {
	switch strings.ToLower(strings.TrimSpace(lang)) {
	case "it", "it-it", "italian":
		return Italian
	default:
		return English
	}
}

// Digest 一封待发送的摘要邮件
type Digest struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Count   int    `json:"count"`
}

type Formatter struct {
	labels Labels
	loc    *time.Location
}

func NewFormatter(labels Labels, loc *time.Location) *Formatter {
	if loc == nil {
		loc = time.UTC
	}
	return &Formatter{labels: labels, loc: loc}
}

// Format 渲染主题与正文；没有条目时返回 nil，表示"无需发送"
func (f *Formatter) Format(items []processor.Item, now time.Time) *Digest {
	if len(items) == 0 {
		return nil
	}

	l := f.labels
	stamp := now.In(f.loc).Format("2006-01-02 15:04")
	zone := f.loc.String()

	subject := fmt.Sprintf("%s %d %s — %s %s", l.Prefix, len(items), l.NewsWord, stamp, zone)

	var b strings.Builder
	fmt.Fprintf(&b, "%s — %s %s\n\n", l.Header, stamp, zone)
	for _, it := range items {
		published := it.Published
		if published == "" {
			published = l.NotAvailable
		}
		detail := l.OpenLink
		if it.Snippet != "" {
			detail = it.Snippet
		}

		fmt.Fprintf(&b, "• %s\n", it.Title)
		fmt.Fprintf(&b, "  %s: %s\n", l.Source, it.Source)
		fmt.Fprintf(&b, "  %s: %s\n", l.Published, published)
		fmt.Fprintf(&b, "  %s\n", detail)
		fmt.Fprintf(&b, "  %s: %s\n", l.Link, it.URL)
		b.WriteString("\n")
	}

	return &Digest{
		Subject: subject,
		Body:    strings.TrimRight(b.String(), " \t\r\n"),
		Count:   len(items),
	}
}
