package feed

import (
	"context"
	"encoding/json"

	"github.com/rushteam/learnfeed/core"
)

// DefaultCacheTTL 是 feed 缓存的默认有效期（秒）。
const DefaultCacheTTL = 3600

// Cache 是 feed 结果缓存：按用户缓存完整的推荐列表。
//
// 缓存是部署层优化，不是正确性依赖：读写失败都静默降级为直接计算。
// 用户产生新交互后由反馈回流主动失效（见 feedback.Collector）。
type Cache struct {
	Store core.Store

	// KeyPrefix 缓存 key 前缀，实际 key 为 {KeyPrefix}:{userID}
	KeyPrefix string

	// TTL 有效期（秒），默认 DefaultCacheTTL
	TTL int
}

// NewCache 创建 feed 缓存。
func NewCache(s core.Store) *Cache {
	return &Cache{
		Store:     s,
		KeyPrefix: "feed:cache",
		TTL:       DefaultCacheTTL,
	}
}

func (c *Cache) key(userID string) string {
	prefix := c.KeyPrefix
	if prefix == "" {
		prefix = "feed:cache"
	}
	return prefix + ":" + userID
}

// Get 读取缓存的 feed；未命中或解码失败返回 (nil, false)。
func (c *Cache) Get(ctx context.Context, userID string) ([]core.Recommendation, bool) {
	if c == nil || c.Store == nil {
		return nil, false
	}
	data, err := c.Store.Get(ctx, c.key(userID))
	if err != nil {
		return nil, false
	}
	var recs []core.Recommendation
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, false
	}
	return recs, true
}

// Set 写入缓存；失败静默忽略。
func (c *Cache) Set(ctx context.Context, userID string, recs []core.Recommendation) {
	if c == nil || c.Store == nil {
		return
	}
	data, err := json.Marshal(recs)
	if err != nil {
		return
	}
	ttl := c.TTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	_ = c.Store.Set(ctx, c.key(userID), data, ttl)
}

// Invalidate 使指定用户的缓存失效（新交互写入后调用）。
func (c *Cache) Invalidate(ctx context.Context, userID string) error {
	if c == nil || c.Store == nil {
		return nil
	}
	err := c.Store.Delete(ctx, c.key(userID))
	if err != nil && core.IsStoreNotFound(err) {
		return nil
	}
	return err
}
