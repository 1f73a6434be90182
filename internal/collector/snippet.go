package collector

import (
	"context"
	"errors"
	"time"

	"github.com/gocolly/colly/v2"
	log "github.com/sirupsen/logrus"
)

const snippetRequestTimeout = 12 * time.Second

// ErrNoParagraph 页面可以访问，但没有可用的 <p> 文本
var ErrNoParagraph = errors.New("no paragraph text found")

// SnippetFetcher 访问文章页面，取第一个 <p> 的文本作为摘录。
// 只请求一次，不重试；任何失败都返回空文本
type SnippetFetcher struct {
	userAgent string
	maxChars  int
	timeout   time.Duration
}

func NewSnippetFetcher(userAgent string, maxChars int) *SnippetFetcher {
	return &SnippetFetcher{
		userAgent: userAgent,
		maxChars:  maxChars,
		timeout:   snippetRequestTimeout,
	}
}

func (f *SnippetFetcher) Fetch(ctx context.Context, url string) SnippetResult {
	if err := ctx.Err(); err != nil {
		return SnippetResult{Err: err}
	}

	c := colly.NewCollector(
		colly.UserAgent(f.userAgent),
	)
	c.SetRequestTimeout(f.timeout)

	var (
		text  string
		found bool
	)
	// 只取文档中的第一个段落，即使它是空的
	c.OnHTML("p", func(e *colly.HTMLElement) {
		if found {
			return
		}
		found = true
		text = collapseSpaces(e.Text)
	})

	if err := c.Visit(url); err != nil {
		log.WithError(err).WithField("url", url).Debug("fetch snippet failed")
		return SnippetResult{Err: err}
	}
	if text == "" {
		return SnippetResult{Err: ErrNoParagraph}
	}
	return SnippetResult{Text: TruncateRunes(text, f.maxChars)}
}
