package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // 保证容器内没有 zoneinfo 时也能解析 Europe/Rome

	"gopkg.in/yaml.v3"
)

// DefaultFeeds 与最初的脚本保持一致：意大利语与英语两个 Google News 搜索
var DefaultFeeds = []string{
	"https://news.google.com/rss/search?q=intelligenza+artificiale&hl=it&gl=IT&ceid=IT:it",
	"https://news.google.com/rss/search?q=AI+enterprise&hl=en-US&gl=US&ceid=US:en",
}

const (
	DefaultUserAgent       = "NewsDigest-Agent/1.0"
	DefaultTimezone        = "Europe/Rome"
	DefaultMaxItemsPerFeed = 25
	DefaultSnippetMaxChars = 260
)

type Config struct {
	AppPort string
	// 可选：站点访问密码（Basic Auth），为空则不启用
	BasicAuthUser string
	BasicAuthPass string

	StateDir     string
	StoreBackend string
	PostgresDSN  string
	RedisAddr    string

	Timezone string
	Lang     string
	LogLevel string

	SMTP     SMTP
	Pipeline Pipeline
}

// SMTP 邮件发送所需配置，全部来自环境变量
type SMTP struct {
	Host string
	Port int
	User string
	Pass string
	From string
	To   string
}

// Pipeline 采集 / 去重 / 排序相关参数，可由 YAML 文件覆盖
type Pipeline struct {
	Feeds           []string  `yaml:"feeds"`
	MaxItemsPerFeed int       `yaml:"max_items_per_feed"`
	SnippetMaxChars int       `yaml:"snippet_max_chars"`
	UserAgent       string    `yaml:"user_agent"`
	Selection       Selection `yaml:"selection"`
}

// Selection 打分与筛选策略。Mode 为 simple 时不打分，只截取前 TopK 条
type Selection struct {
	Mode             string   `yaml:"mode"`
	TopK             int      `yaml:"top_k"`
	PerSourceLimit   int      `yaml:"per_source_limit"`
	PriorityTerms    []string `yaml:"priority_terms"`
	DownweightTerms  []string `yaml:"downweight_terms"`
	Outlets          []string `yaml:"outlets"`
	PriorityWeight   float64  `yaml:"priority_weight"`
	DownweightWeight float64  `yaml:"downweight_weight"`
	OutletBonus      float64  `yaml:"outlet_bonus"`
}

const (
	SelectionScoring = "scoring"
	SelectionSimple  = "simple"
)

// ErrUnknownSelectionMode selection.mode 只能是 scoring 或 simple
var ErrUnknownSelectionMode = errors.New("unknown selection mode")

// validate 规范化 Mode，空值按 scoring 处理
func (s *Selection) validate() error {
	mode := strings.ToLower(strings.TrimSpace(s.Mode))
	switch mode {
	case "":
		s.Mode = SelectionScoring
	case SelectionScoring, SelectionSimple:
		s.Mode = mode
	default:
		return fmt.Errorf("selection.mode %q: %w", s.Mode, ErrUnknownSelectionMode)
	}
	return nil
}

// fileSettings 是 YAML 配置文件的结构
type fileSettings struct {
	Timezone string   `yaml:"timezone"`
	Lang     string   `yaml:"lang"`
	Pipeline Pipeline `yaml:",inline"`
}

// DefaultPipeline 返回内置的采集与排序参数
func DefaultPipeline() Pipeline {
	return Pipeline{
		Feeds:           append([]string(nil), DefaultFeeds...),
		MaxItemsPerFeed: DefaultMaxItemsPerFeed,
		SnippetMaxChars: DefaultSnippetMaxChars,
		UserAgent:       DefaultUserAgent,
		Selection: Selection{
			Mode:           SelectionScoring,
			TopK:           8,
			PerSourceLimit: 1,
			PriorityTerms: []string{
				"funding", "acquisition", "launch", "regulation", "ai act",
				"enterprise", "partnership", "investimento", "finanziamento", "accordo",
			},
			DownweightTerms: []string{
				"tutorial", "how to", "webinar", "sponsored", "podcast", "opinion",
			},
			Outlets: []string{
				"Reuters", "Bloomberg", "Financial Times", "Il Sole 24 Ore",
				"ANSA", "Corriere", "TechCrunch", "The Verge", "Wired",
			},
			PriorityWeight:   2.0,
			DownweightWeight: 1.5,
			OutletBonus:      1.0,
		},
	}
}

// Load 读取环境变量与可选的 YAML 配置文件。path 为空时使用 NEWSDIGEST_CONFIG
func Load(path string) (*Config, error) {
	port, err := strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}
	user := getEnv("SMTP_USER", "")

	cfg := &Config{
		AppPort:       getEnv("APP_PORT", "9000"),
		BasicAuthUser: getEnv("APP_BASIC_USER", ""),
		BasicAuthPass: getEnv("APP_BASIC_PASS", ""),
		StateDir:      getEnv("STATE_DIR", "."),
		StoreBackend:  getEnv("STORE_BACKEND", "file"),
		PostgresDSN:   getEnv("POSTGRES_DSN", "host=localhost user=newsdigest password=newsdigest dbname=newsdigest port=5432 sslmode=disable TimeZone=UTC"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		Timezone:      DefaultTimezone,
		Lang:          "en",
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		SMTP: SMTP{
			Host: getEnv("SMTP_HOST", ""),
			Port: port,
			User: user,
			Pass: getEnv("SMTP_PASS", ""),
			From: getEnv("EMAIL_FROM", user),
			To:   getEnv("EMAIL_TO", ""),
		},
		Pipeline: DefaultPipeline(),
	}

	if path == "" {
		path = getEnv("NEWSDIGEST_CONFIG", "")
	}
	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	// 环境变量优先于配置文件
	cfg.Timezone = getEnv("DIGEST_TZ", cfg.Timezone)
	cfg.Lang = getEnv("DIGEST_LANG", cfg.Lang)

	if _, err := cfg.Location(); err != nil {
		return nil, err
	}

	if err := cfg.Pipeline.Selection.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read settings file %s: %w", path, err)
	}

	fs := fileSettings{Timezone: c.Timezone, Lang: c.Lang, Pipeline: c.Pipeline}
	if err := yaml.Unmarshal(data, &fs); err != nil {
		return fmt.Errorf("parse settings YAML %s: %w", path, err)
	}

	c.Timezone = fs.Timezone
	c.Lang = fs.Lang
	c.Pipeline = fs.Pipeline
	if c.Pipeline.UserAgent == "" {
		c.Pipeline.UserAgent = DefaultUserAgent
	}
	if c.Pipeline.SnippetMaxChars <= 0 {
		c.Pipeline.SnippetMaxChars = DefaultSnippetMaxChars
	}
	return nil
}

// Location 返回用于"每天"判断的时区；所有日期都以它为准，而不是机器本地时区
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Now returns current time, 方便后续做可测试封装
func Now() time.Time {
	return time.Now()
}
