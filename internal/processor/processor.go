package processor

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"strings"

	"github.com/LJTian/NewsDigest/internal/collector"
	log "github.com/sirupsen/logrus"
)

// DefaultUntitled 标题为空时的占位
const DefaultUntitled = "(untitled)"

// Item 是规范化后的新闻条目，只在单次运行中存在，不落库
type Item struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	Source    string `json:"source"`
	Published string `json:"published"`
	Snippet   string `json:"snippet"`
}

// SnippetSource 为缺少摘要的条目补充正文摘录
type SnippetSource interface {
	Fetch(ctx context.Context, url string) collector.SnippetResult
}

// Normalizer 做去重、字段兜底与摘要补全
type Normalizer struct {
	snippets SnippetSource
	untitled string
	maxChars int
}

// NewNormalizer snippets 为 nil 时不做额外的网页抓取
func NewNormalizer(snippets SnippetSource, untitled string, maxChars int) *Normalizer {
	if untitled == "" {
		untitled = DefaultUntitled
	}
	return &Normalizer{snippets: snippets, untitled: untitled, maxChars: maxChars}
}

// Process 按订阅源顺序规范化全部条目。
// seen 中已有的 id 会被过滤；同一次运行里重复出现的链接只保留第一次
func (n *Normalizer) Process(ctx context.Context, feeds []collector.FeedResult, seen map[string]struct{}) []Item {
	out := make([]Item, 0)
	// skip = seen + 本次已输出的 id，重复链接在补摘要之前就被过滤；不修改调用方的 seen
	skip := make(map[string]struct{}, len(seen))
	for id := range seen {
		skip[id] = struct{}{}
	}

	for _, feed := range feeds {
		for _, entry := range feed.Entries {
			it, ok := n.Normalize(ctx, entry, feed.Source, skip)
			if !ok {
				continue
			}
			skip[it.ID] = struct{}{}
			out = append(out, it)
		}
	}
	return out
}

// Normalize 将一条原始记录转成 Item。没有链接或已发送过的条目返回 false
func (n *Normalizer) Normalize(ctx context.Context, entry collector.RawEntry, source string, seen map[string]struct{}) (Item, bool) {
	link := strings.TrimSpace(entry.Link)
	if link == "" {
		link = strings.TrimSpace(entry.GUID)
	}
	if link == "" {
		log.WithField("source", source).Debug("drop entry without link")
		return Item{}, false
	}

	id := HashURL(link)
	// 先去重再补摘要，避免对已发送条目发起网络请求
	if _, ok := seen[id]; ok {
		return Item{}, false
	}

	title := strings.TrimSpace(entry.Title)
	if title == "" {
		title = n.untitled
	}

	published := entry.Published
	if published == "" {
		published = entry.Updated
	}

	snippet := collector.TruncateRunes(collector.PlainText(entry.Summary), n.maxChars)
	if snippet == "" && n.snippets != nil {
		res := n.snippets.Fetch(ctx, link)
		snippet = res.Text
	}

	return Item{
		ID:        id,
		Title:     title,
		URL:       link,
		Source:    source,
		Published: published,
		Snippet:   snippet,
	}, true
}

// HashURL 由 URL 计算稳定的指纹，作为跨运行去重的键
func HashURL(url string) string {
	h := sha1.New()
	h.Write([]byte(url))
	return hex.EncodeToString(h.Sum(nil))
}
