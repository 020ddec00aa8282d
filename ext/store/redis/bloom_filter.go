// Package redis 提供基于 Redis 的布隆过滤器检查器，实现 filter.BloomFilterChecker 接口。
//
// 用于长周期消费历史的去重：按天一个布隆过滤器（key 形如 {prefix}:bloom:{userID}:{YYYYMMDD}），
// 序列化后整体存入 Redis，读取时在本地反序列化并缓存。
//
// 使用方式：
//
//	checker := redisext.NewRedisBloomFilterChecker(redisStore, 100000, 0.01)
//	adapter := filter.NewStoreAdapterWithBloomFilter(redisStore, checker)
//	f := filter.NewHistoryFilter(adapter, "user:consumed", 7*24*3600, 30)
package redis

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	goredis "github.com/redis/go-redis/v9"

	"github.com/rushteam/learnfeed/filter"
	"github.com/rushteam/learnfeed/store"
)

// RedisBloomFilterChecker 是基于 Redis 存储的布隆过滤器检查器。
//
// 设计：
//   - 每个 key 对应一个独立的布隆过滤器（通常按用户+日期分片）
//   - 过滤器整体序列化存入 Redis（GET/SET），避免依赖 RedisBloom 模块
//   - 本地缓存已加载的过滤器，同一 key 的重复检查不再访问 Redis
//
// 注意：本地缓存不感知 Redis 侧的更新；写入方与读取方同进程时
// 通过 AddToBloomFilter 保持一致，跨进程场景可调用 ClearCacheKey 强制重载。
type RedisBloomFilterChecker struct {
	client *goredis.Client

	// capacity 预估元素数量（影响过滤器大小）
	capacity uint

	// falsePositiveRate 期望误判率
	falsePositiveRate float64

	mu    sync.RWMutex
	cache map[string]*bloom.BloomFilter
}

// NewRedisBloomFilterChecker 基于已有的 RedisStore 创建检查器（复用其连接）。
func NewRedisBloomFilterChecker(s *store.RedisStore, capacity uint, falsePositiveRate float64) *RedisBloomFilterChecker {
	return NewRedisBloomFilterCheckerWithClient(s.GetClient(), capacity, falsePositiveRate)
}

// NewRedisBloomFilterCheckerWithClient 直接使用 redis 客户端创建检查器。
func NewRedisBloomFilterCheckerWithClient(client *goredis.Client, capacity uint, falsePositiveRate float64) *RedisBloomFilterChecker {
	if capacity == 0 {
		capacity = 100000
	}
	if falsePositiveRate <= 0 || falsePositiveRate >= 1 {
		falsePositiveRate = 0.01
	}
	return &RedisBloomFilterChecker{
		client:            client,
		capacity:          capacity,
		falsePositiveRate: falsePositiveRate,
		cache:             make(map[string]*bloom.BloomFilter),
	}
}

// CheckInBloomFilter 检查 contentID 是否可能在 key 对应的布隆过滤器中。
// 返回 true 表示可能存在（有误判率），false 表示一定不存在。
// key 不存在时视为空过滤器，返回 false。
func (c *RedisBloomFilterChecker) CheckInBloomFilter(ctx context.Context, key string, contentID string) (bool, error) {
	bf, err := c.load(ctx, key)
	if err != nil {
		return false, err
	}
	if bf == nil {
		return false, nil
	}
	return bf.TestString(contentID), nil
}

// AddToBloomFilter 将 contentID 加入 key 对应的布隆过滤器并写回 Redis。
// ttl 为过期秒数，<=0 表示不过期。
func (c *RedisBloomFilterChecker) AddToBloomFilter(ctx context.Context, key string, contentID string, ttl int) error {
	return c.BatchAddToBloomFilter(ctx, key, []string{contentID}, ttl)
}

// BatchAddToBloomFilter 批量加入 contentID 并写回 Redis（一次读改写）。
func (c *RedisBloomFilterChecker) BatchAddToBloomFilter(ctx context.Context, key string, contentIDs []string, ttl int) error {
	if len(contentIDs) == 0 {
		return nil
	}

	bf, err := c.load(ctx, key)
	if err != nil {
		return err
	}
	if bf == nil {
		bf = bloom.NewWithEstimates(c.capacity, c.falsePositiveRate)
	}
	for _, id := range contentIDs {
		bf.AddString(id)
	}

	var buf bytes.Buffer
	if _, err := bf.WriteTo(&buf); err != nil {
		return fmt.Errorf("serialize bloom filter %s: %w", key, err)
	}

	var expiration time.Duration
	if ttl > 0 {
		expiration = time.Duration(ttl) * time.Second
	}
	if err := c.client.Set(ctx, key, buf.Bytes(), expiration).Err(); err != nil {
		return fmt.Errorf("store bloom filter %s: %w", key, err)
	}

	c.mu.Lock()
	c.cache[key] = bf
	c.mu.Unlock()
	return nil
}

// ClearCache 清空本地过滤器缓存。
func (c *RedisBloomFilterChecker) ClearCache() {
	c.mu.Lock()
	c.cache = make(map[string]*bloom.BloomFilter)
	c.mu.Unlock()
}

// ClearCacheKey 清除指定 key 的本地缓存（下次检查时从 Redis 重新加载）。
func (c *RedisBloomFilterChecker) ClearCacheKey(key string) {
	c.mu.Lock()
	delete(c.cache, key)
	c.mu.Unlock()
}

// load 获取 key 对应的布隆过滤器：优先本地缓存，其次 Redis；不存在返回 nil。
func (c *RedisBloomFilterChecker) load(ctx context.Context, key string) (*bloom.BloomFilter, error) {
	c.mu.RLock()
	bf, ok := c.cache[key]
	c.mu.RUnlock()
	if ok {
		return bf, nil
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load bloom filter %s: %w", key, err)
	}

	bf = bloom.NewWithEstimates(c.capacity, c.falsePositiveRate)
	if _, err := bf.ReadFrom(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("deserialize bloom filter %s: %w", key, err)
	}

	c.mu.Lock()
	c.cache[key] = bf
	c.mu.Unlock()
	return bf, nil
}

var _ filter.BloomFilterChecker = (*RedisBloomFilterChecker)(nil)
