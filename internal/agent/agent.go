package agent

import (
	"fmt"

	"github.com/LJTian/NewsDigest/internal/collector"
	"github.com/LJTian/NewsDigest/internal/config"
	"github.com/LJTian/NewsDigest/internal/digest"
	"github.com/LJTian/NewsDigest/internal/dispatch"
	"github.com/LJTian/NewsDigest/internal/mailer"
	"github.com/LJTian/NewsDigest/internal/processor"
	"github.com/LJTian/NewsDigest/internal/ranking"
	"github.com/LJTian/NewsDigest/internal/storage"
)

// Runtime 由配置组装出的全部组件，cmd/newsagent 与 cmd/api 共用
type Runtime struct {
	Config *config.Config
	Store  storage.KV
	State  *storage.State
	Gate   *dispatch.Gate
}

// Build 按配置创建存储、抓取器、筛选器与发送器
func Build(cfg *config.Config) (*Runtime, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	kv, err := storage.Open(storage.Options{
		Backend:     cfg.StoreBackend,
		Dir:         cfg.StateDir,
		RedisAddr:   cfg.RedisAddr,
		PostgresDSN: cfg.PostgresDSN,
	})
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	state := storage.NewState(kv, loc)

	p := cfg.Pipeline
	labels := digest.LabelsFor(cfg.Lang)

	gate, err := dispatch.New(dispatch.Deps{
		Feeds:      p.Feeds,
		Fetcher:    collector.NewRSSFetcher(p.UserAgent, p.MaxItemsPerFeed),
		Normalizer: processor.NewNormalizer(collector.NewSnippetFetcher(p.UserAgent, p.SnippetMaxChars), labels.Untitled, p.SnippetMaxChars),
		Selector:   ranking.NewSelector(SelectorConfig(p.Selection)),
		Formatter:  digest.NewFormatter(labels, loc),
		State:      state,
		Sender: mailer.NewSMTPSender(mailer.Config{
			Host: cfg.SMTP.Host,
			Port: cfg.SMTP.Port,
			User: cfg.SMTP.User,
			Pass: cfg.SMTP.Pass,
			From: cfg.SMTP.From,
			To:   cfg.SMTP.To,
		}),
		Now: config.Now,
	})
	if err != nil {
		_ = kv.Close()
		return nil, err
	}

	return &Runtime{Config: cfg, Store: kv, State: state, Gate: gate}, nil
}

// SelectorConfig 把配置文件中的策略转换为筛选参数；simple 模式不打分也不限制来源
func SelectorConfig(sel config.Selection) ranking.Config {
	if sel.Mode == config.SelectionSimple {
		return ranking.Simple(sel.TopK)
	}
	return ranking.Config{
		PriorityTerms:    sel.PriorityTerms,
		DownweightTerms:  sel.DownweightTerms,
		Outlets:          sel.Outlets,
		PriorityWeight:   sel.PriorityWeight,
		DownweightWeight: sel.DownweightWeight,
		OutletBonus:      sel.OutletBonus,
		TopK:             sel.TopK,
		PerSourceLimit:   sel.PerSourceLimit,
	}
}

func (r *Runtime) Close() error {
	if r.Store == nil {
		return nil
	}
	return r.Store.Close()
}
