// Package feature 提供 core.FeatureService 的本地缓存装饰器。
//
// 画像构建每次请求都会读用户特征，远程特征服务（如 ext/feast）的
// 延迟直接落在 feed 热路径上；本地 TTL 缓存把高频用户的特征读取
// 变成内存查找。
package feature

import (
	"context"
	"sync"
	"time"

	"github.com/rushteam/learnfeed/core"
)

// CachedService 用内存 TTL+LRU 缓存包装一个 core.FeatureService。
//
// 缓存策略：
//   - 命中且未过期：直接返回，不访问远端
//   - 未命中/过期：穿透到远端，成功后写缓存
//   - 远端出错：错误原样上抛，由调用方决定降级（画像构建对特征
//     失败本就是宽容的）
type CachedService struct {
	upstream core.FeatureService

	mu    sync.Mutex
	users *entryMap
	items *entryMap

	// TTL 缓存有效期，默认 5 分钟
	TTL time.Duration

	// MaxEntries 每类（用户/内容）缓存条目上限，超出时淘汰最久未访问的条目
	MaxEntries int
}

type entry struct {
	features map[string]float64
	expireAt time.Time
	accessAt time.Time
}

type entryMap struct {
	m map[string]*entry
}

// NewCachedService 创建特征缓存装饰器。
func NewCachedService(upstream core.FeatureService) *CachedService {
	return &CachedService{
		upstream:   upstream,
		users:      &entryMap{m: make(map[string]*entry)},
		items:      &entryMap{m: make(map[string]*entry)},
		TTL:        5 * time.Minute,
		MaxEntries: 10000,
	}
}

func (s *CachedService) Name() string {
	return s.upstream.Name() + "+cache"
}

func (s *CachedService) GetUserFeatures(ctx context.Context, userID string) (map[string]float64, error) {
	return s.getOne(ctx, s.users, userID, s.upstream.GetUserFeatures)
}

func (s *CachedService) GetItemFeatures(ctx context.Context, contentID string) (map[string]float64, error) {
	return s.getOne(ctx, s.items, contentID, s.upstream.GetItemFeatures)
}

func (s *CachedService) BatchGetUserFeatures(ctx context.Context, userIDs []string) (map[string]map[string]float64, error) {
	return s.getBatch(ctx, s.users, userIDs, s.upstream.BatchGetUserFeatures)
}

func (s *CachedService) BatchGetItemFeatures(ctx context.Context, contentIDs []string) (map[string]map[string]float64, error) {
	return s.getBatch(ctx, s.items, contentIDs, s.upstream.BatchGetItemFeatures)
}

func (s *CachedService) Close(ctx context.Context) error {
	s.mu.Lock()
	s.users.m = make(map[string]*entry)
	s.items.m = make(map[string]*entry)
	s.mu.Unlock()
	return s.upstream.Close(ctx)
}

// Invalidate 清除某个实体的缓存（特征离线重算后调用）。
func (s *CachedService) Invalidate(userID, contentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if userID != "" {
		delete(s.users.m, userID)
	}
	if contentID != "" {
		delete(s.items.m, contentID)
	}
}

func (s *CachedService) getOne(ctx context.Context, cache *entryMap, id string,
	fetch func(context.Context, string) (map[string]float64, error)) (map[string]float64, error) {

	if features, ok := s.lookup(cache, id); ok {
		return features, nil
	}
	features, err := fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	s.put(cache, id, features)
	return features, nil
}

func (s *CachedService) getBatch(ctx context.Context, cache *entryMap, ids []string,
	fetch func(context.Context, []string) (map[string]map[string]float64, error)) (map[string]map[string]float64, error) {

	result := make(map[string]map[string]float64, len(ids))
	var misses []string
	for _, id := range ids {
		if features, ok := s.lookup(cache, id); ok {
			result[id] = features
		} else {
			misses = append(misses, id)
		}
	}
	if len(misses) == 0 {
		return result, nil
	}

	fetched, err := fetch(ctx, misses)
	if err != nil {
		return nil, err
	}
	for id, features := range fetched {
		s.put(cache, id, features)
		result[id] = features
	}
	return result, nil
}

func (s *CachedService) lookup(cache *entryMap, id string) (map[string]float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := cache.m[id]
	if !ok || time.Now().After(e.expireAt) {
		delete(cache.m, id)
		return nil, false
	}
	e.accessAt = time.Now()
	return e.features, true
}

func (s *CachedService) put(cache *entryMap, id string, features map[string]float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(cache.m) >= s.MaxEntries {
		evictOldest(cache.m)
	}
	now := time.Now()
	cache.m[id] = &entry{
		features: features,
		expireAt: now.Add(s.TTL),
		accessAt: now,
	}
}

func evictOldest(m map[string]*entry) {
	var oldestKey string
	var oldestTime time.Time
	first := true
	for key, e := range m {
		if first || e.accessAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = e.accessAt
			first = false
		}
	}
	if !first {
		delete(m, oldestKey)
	}
}

var _ core.FeatureService = (*CachedService)(nil)
