package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"time"
)

// NegativeTTL 空结果（记录不存在）的最长缓存时间
const NegativeTTL = 5 * time.Second

var nullJSON = []byte("null")

// GetOrLoadJSON load 返回 (nil, nil) 表示不存在，按 NegativeTTL 缓存。
// 缓存里的值无法解码时删除并回源一次
func GetOrLoadJSON[T any](
	c *Cache,
	ctx context.Context,
	key string,
	ttl time.Duration,
	load func(ctx context.Context) (*T, error),
) (*T, error) {
	b, err := c.getOrLoad(ctx, key, func(ctx context.Context) ([]byte, time.Duration, error) {
		v, e := load(ctx)
		if e != nil {
			return nil, 0, e
		}
		if v == nil {
			return nullJSON, min(ttl, NegativeTTL), nil
		}
		b, e := json.Marshal(v)
		return b, ttl, e
	})
	if err != nil {
		return nil, err
	}
	if bytes.Equal(b, nullJSON) {
		return nil, nil
	}
	var out T
	if json.Unmarshal(b, &out) != nil {
		_ = c.Del(ctx, key)
		return load(ctx)
	}
	return &out, nil
}
