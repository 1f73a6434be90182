package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	KeySeen     = "seen"
	KeyLastSent = "last_sent"

	dateLayout = "2006-01-02"
)

type lastSent struct {
	Date string `json:"date"`
}

// State 在 KV 之上维护两份状态：已发送条目的 id 集合与最近一次发送日期。
// 读失败一律当作空值处理，不会阻塞流程
type State struct {
	kv  KV
	loc *time.Location
}

func NewState(kv KV, loc *time.Location) *State {
	if loc == nil {
		loc = time.UTC
	}
	return &State{kv: kv, loc: loc}
}

// Today 返回固定时区下的日期 YYYY-MM-DD
func (s *State) Today(now time.Time) string {
	return now.In(s.loc).Format(dateLayout)
}

func (s *State) Location() *time.Location {
	return s.loc
}

// LoadSeen 读取已见 id；文件缺失或损坏时返回空集合
func (s *State) LoadSeen(ctx context.Context) map[string]struct{} {
	seen := make(map[string]struct{})

	data, err := s.kv.Get(ctx, KeySeen)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.WithError(err).Warn("load seen ids failed, starting empty")
		}
		return seen
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		log.WithError(err).Warn("seen ids corrupt, starting empty")
		return seen
	}
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	return seen
}

// SaveSeen 排序后写入，保证结果可复现、diff 友好
func (s *State) SaveSeen(ctx context.Context, seen map[string]struct{}) error {
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	data, err := json.MarshalIndent(ids, "", "  ")
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, KeySeen, data); err != nil {
		return fmt.Errorf("save seen ids: %w", err)
	}
	return nil
}

// LastSent 返回最近一次发送日期，没有记录时为空
func (s *State) LastSent(ctx context.Context) string {
	data, err := s.kv.Get(ctx, KeyLastSent)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.WithError(err).Warn("load last sent date failed")
		}
		return ""
	}
	var rec lastSent
	if err := json.Unmarshal(data, &rec); err != nil {
		log.WithError(err).Warn("last sent record corrupt")
		return ""
	}
	return rec.Date
}

func (s *State) HasSentToday(ctx context.Context, today string) bool {
	return today != "" && s.LastSent(ctx) == today
}

// MarkSentToday 覆盖写入，不累积历史
func (s *State) MarkSentToday(ctx context.Context, today string) error {
	data, err := json.MarshalIndent(lastSent{Date: today}, "", "  ")
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, KeyLastSent, data); err != nil {
		return fmt.Errorf("save last sent date: %w", err)
	}
	return nil
}
