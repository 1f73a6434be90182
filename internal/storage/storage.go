package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound 键不存在
var ErrNotFound = errors.New("storage: key not found")

// KV 是流水线状态的最小存储接口，只需要按键读写一段 JSON
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

const (
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Options 选择存储后端
type Options struct {
	Backend     string
	Dir         string
	RedisAddr   string
	PostgresDSN string
}

// Open 按配置创建存储后端，默认使用本地 JSON 文件
func Open(opts Options) (KV, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", BackendFile:
		return NewFileStore(opts.Dir), nil
	case BackendRedis:
		return NewRedisStore(opts.RedisAddr, defaultRedisPrefix), nil
	case BackendPostgres:
		return NewPostgresStore(opts.PostgresDSN)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}
