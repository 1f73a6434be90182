package ranking

import (
	"sort"
	"strings"

	"github.com/LJTian/NewsDigest/internal/processor"
	"golang.org/x/text/cases"
)

// Config 打分权重与筛选上限
type Config struct {
	PriorityTerms   []string
	DownweightTerms []string
	Outlets         []string

	PriorityWeight   float64
	DownweightWeight float64
	OutletBonus      float64

	// TopK <= 0 不限制总数；PerSourceLimit <= 0 不限制单个来源
	TopK           int
	PerSourceLimit int
}

// Simple 退化策略：不打分，不限制来源，只截取前 topK 条
func Simple(topK int) Config {
	return Config{TopK: topK}
}

// Scored 带分数的条目
type Scored struct {
	processor.Item
	Score float64 `json:"score"`
}

type Selector struct {
	cfg Config
}

func NewSelector(cfg Config) *Selector {
	return &Selector{cfg: cfg}
}

// Score 关键词与来源加权，纯加法，不做归一化
func (s *Selector) Score(it processor.Item) float64 {
	text := fold(it.Title + " " + it.Snippet)

	var score float64
	for _, term := range s.cfg.PriorityTerms {
		if containsTerm(text, term) {
			score += s.cfg.PriorityWeight
		}
	}
	for _, term := range s.cfg.DownweightTerms {
		if containsTerm(text, term) {
			score -= s.cfg.DownweightWeight
		}
	}

	source := fold(it.Source)
	for _, outlet := range s.cfg.Outlets {
		if containsTerm(source, outlet) {
			score += s.cfg.OutletBonus
			break
		}
	}
	return score
}

// Select 先按分数全局排序，再按来源限流，最多返回 TopK 条。
// 排序是稳定的：同分时保持订阅源顺序及源内顺序
func (s *Selector) Select(items []processor.Item) []Scored {
	scored := make([]Scored, len(items))
	for i, it := range items {
		scored[i] = Scored{Item: it, Score: s.Score(it)}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	out := make([]Scored, 0, len(scored))
	perSource := make(map[string]int)
	for _, it := range scored {
		if s.cfg.TopK > 0 && len(out) >= s.cfg.TopK {
			break
		}
		key := fold(strings.TrimSpace(it.Source))
		if s.cfg.PerSourceLimit > 0 && perSource[key] >= s.cfg.PerSourceLimit {
			continue
		}
		perSource[key]++
		out = append(out, it)
	}
	return out
}

// Items 去掉分数，便于交给格式化
func Items(scored []Scored) []processor.Item {
	out := make([]processor.Item, len(scored))
	for i, s := range scored {
		out[i] = s.Item
	}
	return out
}

func containsTerm(folded, term string) bool {
	term = strings.TrimSpace(term)
	if term == "" {
		return false
	}
	return strings.Contains(folded, fold(term))
}

// fold 做大小写折叠；cases.Caser 不是并发安全的，所以每次新建
func fold(s string) string {
	return cases.Fold().String(s)
}
