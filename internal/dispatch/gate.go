package dispatch

import (
	"context"
	"errors"
	"time"

	"github.com/LJTian/NewsDigest/internal/collector"
	"github.com/LJTian/NewsDigest/internal/digest"
	"github.com/LJTian/NewsDigest/internal/processor"
	"github.com/LJTian/NewsDigest/internal/ranking"
	"github.com/LJTian/NewsDigest/internal/storage"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Sender 外部邮件通道
type Sender interface {
	Send(ctx context.Context, subject, body string) error
}

// Outcome 一次运行的结果
type Outcome int

// OutcomeUnknown 是零值，只伴随 error 返回
const (
	OutcomeUnknown Outcome = iota
	OutcomeAlreadySent
	OutcomeSent
	OutcomeNothingNew
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAlreadySent:
		return "already sent today"
	case OutcomeSent:
		return "email sent"
	case OutcomeNothingNew:
		return "no news"
	default:
		return "unknown"
	}
}

// Deps 运行所需的全部组件，在构造时注入，方便测试替换
type Deps struct {
	Feeds      []string
	Fetcher    collector.Fetcher
	Normalizer *processor.Normalizer
	Selector   *ranking.Selector
	Formatter  *digest.Formatter
	State      *storage.State
	Sender     Sender
	Now        func() time.Time
}

// Gate 串联 每日闸门 → 抓取 → 去重 → 筛选 → 格式化 → 发送 → 持久化
type Gate struct {
	feeds      []string
	fetcher    collector.Fetcher
	normalizer *processor.Normalizer
	selector   *ranking.Selector
	formatter  *digest.Formatter
	state      *storage.State
	sender     Sender
	now        func() time.Time
}

func New(d Deps) (*Gate, error) {
	if d.Fetcher == nil || d.Normalizer == nil || d.Selector == nil || d.Formatter == nil || d.State == nil {
		return nil, errors.New("dispatch gate requires fetcher, normalizer, selector, formatter and state")
	}
	now := d.Now
	if now == nil {
		now = time.Now
	}
	return &Gate{
		feeds:      d.Feeds,
		fetcher:    d.Fetcher,
		normalizer: d.Normalizer,
		selector:   d.Selector,
		formatter:  d.Formatter,
		state:      d.State,
		sender:     d.Sender,
		now:        now,
	}, nil
}

// Run 执行一次完整流程。任何一步都不重试；发送失败时当天不会被标记为已发送
func (g *Gate) Run(ctx context.Context) (Outcome, error) {
	logger := log.WithField("run_id", uuid.NewString())

	today := g.state.Today(g.now())
	if g.state.HasSentToday(ctx, today) {
		logger.WithField("date", today).Info("digest already sent today, skip")
		return OutcomeAlreadySent, nil
	}

	seen := g.state.LoadSeen(ctx)
	selected := g.collect(ctx, logger, seen)
	// 被中断的运行不写状态，下次触发时整条流程重新执行
	if err := ctx.Err(); err != nil {
		logger.WithError(err).Warn("run interrupted, state untouched")
		return OutcomeUnknown, err
	}

	// 先落盘再发送：发送失败的条目不会在之后的运行中重发
	for _, it := range selected {
		seen[it.ID] = struct{}{}
	}
	if err := g.state.SaveSeen(ctx, seen); err != nil {
		return OutcomeUnknown, err
	}

	d := g.formatter.Format(ranking.Items(selected), g.now())
	if d == nil {
		logger.Info("no new items")
		if err := g.state.MarkSentToday(ctx, today); err != nil {
			return OutcomeUnknown, err
		}
		return OutcomeNothingNew, nil
	}

	if g.sender == nil {
		return OutcomeUnknown, errors.New("dispatch gate has no sender configured")
	}
	if err := g.sender.Send(ctx, d.Subject, d.Body); err != nil {
		return OutcomeUnknown, err
	}
	if err := g.state.MarkSentToday(ctx, today); err != nil {
		return OutcomeUnknown, err
	}
	logger.WithFields(log.Fields{"items": d.Count, "date": today}).Info("digest dispatched")
	return OutcomeSent, nil
}

// Preview 只读预览：抓取、筛选并渲染，但不写状态也不发送
func (g *Gate) Preview(ctx context.Context) ([]ranking.Scored, *digest.Digest, error) {
	logger := log.WithField("run_id", uuid.NewString())
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	selected := g.collect(ctx, logger, g.state.LoadSeen(ctx))
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	return selected, g.formatter.Format(ranking.Items(selected), g.now()), nil
}

func (g *Gate) collect(ctx context.Context, logger *log.Entry, seen map[string]struct{}) []ranking.Scored {
	results := make([]collector.FeedResult, 0, len(g.feeds))
	for _, addr := range g.feeds {
		res := g.fetcher.Fetch(ctx, addr)
		if !res.OK() {
			logger.WithError(res.Err).WithField("feed", addr).Warn("feed unavailable, skipped")
		}
		results = append(results, res)
	}

	items := g.normalizer.Process(ctx, results, seen)
	selected := g.selector.Select(items)

	logger.WithFields(log.Fields{
		"feeds":    len(g.feeds),
		"fresh":    len(items),
		"selected": len(selected),
	}).Info("collect done")
	return selected
}
