package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig 远端文档存储配置，Addr 为空表示只使用本地存储。
type RedisConfig struct {
	Addr     string `yaml:"addr" json:"addr"`
	Password string `yaml:"password" json:"password"`
	DB       int    `yaml:"db" json:"db"`
	Timeout  string `yaml:"timeout" json:"timeout"`
}

// Enabled 是否配置了远端存储。
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// RedisRemote 用 Redis 保存快照文档，写入时在 "<path>:updates" 频道广播完整内容。
type RedisRemote struct {
	client *redis.Client
}

// NewRedisRemote 创建客户端，不会立即建立连接。
func NewRedisRemote(cfg RedisConfig) *RedisRemote {
	timeout := 5 * time.Second
	if d, err := time.ParseDuration(cfg.Timeout); err == nil && d > 0 {
		timeout = d
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})
	return &RedisRemote{client: client}
}

// Ping 检查连接。
func (r *RedisRemote) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Read 读取文档，不存在时返回 ErrNotFound。
func (r *RedisRemote) Read(ctx context.Context, path string) ([]byte, error) {
	val, err := r.client.Get(ctx, path).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", path, err)
	}
	return val, nil
}

// Write 覆盖文档并广播新内容。
func (r *RedisRemote) Write(ctx context.Context, path string, body []byte) error {
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, path, body, 0)
	pipe.Publish(ctx, updatesChannel(path), body)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis write %s: %w", path, err)
	}
	return nil
}

// Subscribe 订阅文档变更，每次推送调用 onChange，直到上下文取消或连接断开。
func (r *RedisRemote) Subscribe(ctx context.Context, path string, onChange func([]byte)) error {
	sub := r.client.Subscribe(ctx, updatesChannel(path))
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("redis subscribe %s: %w", path, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return fmt.Errorf("redis subscription %s closed", path)
			}
			onChange([]byte(msg.Payload))
		}
	}
}

// Close 关闭客户端。
func (r *RedisRemote) Close() error {
	return r.client.Close()
}

func updatesChannel(path string) string {
	return path + ":updates"
}
