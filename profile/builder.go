// Package profile 把用户的行为日志与显式偏好聚合成单次请求使用的画像。
package profile

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rushteam/learnfeed/core"
	"github.com/rushteam/learnfeed/pkg/vectormath"
)

// 默认窗口策略：最多取最近 50 条、90 天内的交互。
const (
	DefaultMaxInteractions = 50
	DefaultMaxAge          = 90 * 24 * time.Hour
)

// domainAffinityPrefix 是 FeatureService 中领域亲和度特征的命名前缀，
// 例如 "domain_affinity:AI" -> 0.82。
const domainAffinityPrefix = "domain_affinity:"

// Builder 基于行为日志 + 显式偏好构建 UserProfile。
//
// 画像每次请求重建（见 core.UserProfile），Builder 自身无状态、可并发使用。
type Builder struct {
	Interactions core.InteractionStore
	Contents     core.ContentStore
	Preferences  core.PreferencesStore

	// Weights 交互加权策略，nil 时使用 DefaultWeightPolicy
	Weights *WeightPolicy

	// MaxInteractions / MaxAge 画像窗口策略（条数 + 时间双重上限）
	MaxInteractions int
	MaxAge          time.Duration

	// Features 可选：离线领域亲和度补充偏好面（Feast 等特征服务）。
	// 读取失败只影响补充，不影响画像主体。
	Features core.FeatureService

	// AffinityThreshold 领域亲和度并入偏好面的最低分，默认 0.5
	AffinityThreshold float64
}

// Build 构建用户画像。
//
// 失败语义：行为日志/偏好/内容库读取失败属于上游不可用，整体上抛；
// 单条内容缺失或缺向量只是跳过，不影响其余交互的聚合。
func (b *Builder) Build(ctx context.Context, userID string) (*core.UserProfile, error) {
	prefs, err := b.Preferences.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch preferences for %s: %w", userID, err)
	}
	return b.BuildWithPreferences(ctx, userID, prefs)
}

// BuildWithPreferences 使用调用方已持有的偏好构建画像，避免重复读偏好存储
// （feed 服务同一请求内偏好还要进 RecommendContext）。prefs 为 nil 时使用兜底偏好。
func (b *Builder) BuildWithPreferences(ctx context.Context, userID string, prefs *core.UserPreferences) (*core.UserProfile, error) {
	if prefs == nil {
		prefs = core.DefaultPreferences(userID)
	}

	maxCount := b.MaxInteractions
	if maxCount <= 0 {
		maxCount = DefaultMaxInteractions
	}

	interactions, err := b.Interactions.FetchRecent(ctx, userID, maxCount)
	if err != nil {
		return nil, fmt.Errorf("fetch interactions for %s: %w", userID, err)
	}
	interactions = b.applyWindow(interactions)

	p := core.NewUserProfile(userID)
	p.ActiveDomains = append([]string(nil), prefs.LearningDomains...)
	p.ActiveContentTypes = append([]core.ContentType(nil), prefs.PreferredContentTypes...)
	p.InteractionCount = len(interactions)

	policy := b.Weights
	if policy == nil {
		policy = DefaultWeightPolicy()
	}

	var (
		vectors [][]float64
		weights []float64
	)
	for _, it := range interactions {
		p.SeenContentIDs[it.ContentID] = true

		w := policy.Weight(it)
		if w <= 0 {
			// dislike 等非正向信号：记入已读，但不进入向量平均
			continue
		}

		content, err := b.Contents.GetContent(ctx, it.ContentID)
		if err != nil {
			if core.IsNotFound(err) {
				continue // 内容可能已下架
			}
			return nil, fmt.Errorf("fetch content %s: %w", it.ContentID, err)
		}
		if len(content.Embedding) == 0 {
			continue
		}

		vectors = append(vectors, content.Embedding)
		weights = append(weights, w)
	}

	vec, err := vectormath.WeightedMean(vectors, weights)
	if err != nil {
		return nil, err
	}
	if vec == nil {
		// 冷启动：零向量，排序退化为纯偏好打分
		dim, err := b.Contents.EmbeddingDimension(ctx)
		if err != nil {
			return nil, fmt.Errorf("embedding dimension: %w", err)
		}
		vec = vectormath.Zero(dim)
	}
	p.Vector = vec

	b.enrichDomains(ctx, p)
	return p, nil
}

// applyWindow 应用时间窗口（FetchRecent 已按条数截断、按时间倒序）。
func (b *Builder) applyWindow(interactions []*core.UserInteraction) []*core.UserInteraction {
	maxAge := b.MaxAge
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	cutoff := time.Now().Add(-maxAge)

	out := interactions[:0]
	for _, it := range interactions {
		if it == nil || it.Timestamp.Before(cutoff) {
			continue
		}
		out = append(out, it)
	}
	return out
}

// enrichDomains 用特征服务的领域亲和度补充偏好面。
// 特征服务不可用时静默跳过：补充是增强项，不是画像的硬依赖。
func (b *Builder) enrichDomains(ctx context.Context, p *core.UserProfile) {
	if b.Features == nil {
		return
	}

	features, err := b.Features.GetUserFeatures(ctx, p.UserID)
	if err != nil || len(features) == 0 {
		return
	}

	threshold := b.AffinityThreshold
	if threshold <= 0 {
		threshold = 0.5
	}

	for name, score := range features {
		if !strings.HasPrefix(name, domainAffinityPrefix) || score < threshold {
			continue
		}
		domain := strings.TrimPrefix(name, domainAffinityPrefix)
		if domain == "" || p.HasDomain(domain) {
			continue
		}
		p.ActiveDomains = append(p.ActiveDomains, domain)
	}
}
