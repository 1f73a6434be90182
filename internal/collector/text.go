package collector

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Ellipsis 是截断后追加的标记
const Ellipsis = "…"

// PlainText 去掉 HTML 标记并压缩空白。订阅源的 summary 经常是一段 HTML
func PlainText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if !strings.ContainsAny(s, "<&") {
		return collapseSpaces(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return collapseSpaces(s)
	}
	return collapseSpaces(doc.Text())
}

// TruncateRunes 按 rune 截断，超出时追加省略号
func TruncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	return string(rs[:limit]) + Ellipsis
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
