package collector

import "context"

// RawEntry 是订阅源中的一条原始记录，尚未规范化
type RawEntry struct {
	Title     string
	Link      string
	GUID      string
	Published string
	Updated   string
	Summary   string
}

// FeedResult 是一次订阅源抓取的结果。
// 抓取失败不会返回 error：Entries 为空，Source 退化为订阅地址，Err 仅用于日志
type FeedResult struct {
	Address string
	Source  string
	Entries []RawEntry
	Err     error
}

// OK 表示本次抓取是否成功
func (r FeedResult) OK() bool {
	return r.Err == nil
}

// SnippetResult 是一次正文摘录抓取的结果，失败时 Text 为空
type SnippetResult struct {
	Text string
	Err  error
}

// Fetcher 抽象每一个订阅源的抓取
type Fetcher interface {
	Fetch(ctx context.Context, address string) FeedResult
}
