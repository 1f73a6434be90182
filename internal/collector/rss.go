package collector

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	log "github.com/sirupsen/logrus"
)

const rssClientTimeout = 20 * time.Second

// RSSFetcher 通过 gofeed 抓取并解析 RSS / Atom 订阅源
type RSSFetcher struct {
	userAgent string
	maxItems  int
	client    *http.Client
}

// NewRSSFetcher maxItems <= 0 表示不限制单个订阅源的条数
func NewRSSFetcher(userAgent string, maxItems int) *RSSFetcher {
	return &RSSFetcher{
		userAgent: userAgent,
		maxItems:  maxItems,
		client:    &http.Client{Timeout: rssClientTimeout},
	}
}

func (f *RSSFetcher) Fetch(ctx context.Context, address string) FeedResult {
	res := FeedResult{Address: address, Source: address}

	fp := gofeed.NewParser()
	fp.UserAgent = f.userAgent
	fp.Client = f.client

	feed, err := fp.ParseURLWithContext(address, ctx)
	if err != nil {
		log.WithError(err).WithField("feed", address).Debug("fetch feed failed")
		res.Err = err
		return res
	}

	if title := strings.TrimSpace(feed.Title); title != "" {
		res.Source = title
	}

	items := feed.Items
	// 单个订阅源的硬上限，在去重与打分之前生效
	if f.maxItems > 0 && len(items) > f.maxItems {
		items = items[:f.maxItems]
	}

	res.Entries = make([]RawEntry, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		res.Entries = append(res.Entries, RawEntry{
			Title:     it.Title,
			Link:      strings.TrimSpace(it.Link),
			GUID:      strings.TrimSpace(it.GUID),
			Published: it.Published,
			Updated:   it.Updated,
			Summary:   it.Description,
		})
	}

	log.WithFields(log.Fields{
		"feed":    address,
		"source":  res.Source,
		"entries": len(res.Entries),
	}).Debug("feed fetched")
	return res
}
