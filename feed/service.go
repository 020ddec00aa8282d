// Package feed 是推荐引擎的对外门面：组合画像构建与 Pipeline，输出最终 feed。
package feed

import (
	"context"
	"fmt"

	"github.com/rushteam/learnfeed/core"
	"github.com/rushteam/learnfeed/explain"
	"github.com/rushteam/learnfeed/pipeline"
	"github.com/rushteam/learnfeed/profile"
)

// Scene 是 feed 请求的默认场景标识。
const Scene = "feed"

// Service 是 feed 服务：GetFeed 的一次调用完成
// 画像构建 → Pipeline（召回/过滤/排序/重排/解释）→ 结果映射。
//
// 同一输入（画像、偏好、候选集、策略版本不变）下输出完全一致。
type Service struct {
	// Profiles 画像构建器（必填）
	Profiles *profile.Builder

	// Preferences 用户偏好存储（必填，过滤与打分都要读偏好）
	Preferences core.PreferencesStore

	// Pipeline 推荐链路（必填）
	Pipeline *pipeline.Pipeline

	// Version 算法版本兜底值：排序节点未写 algorithm_version label 时使用
	Version string

	// Cache 可选的 feed 结果缓存
	Cache *Cache
}

// GetFeed 为用户生成个性化学习 feed。
//
// 边界语义：
//   - limit <= 0 → 空结果，不报错
//   - 候选集为空 → 空结果，不报错（新平台没内容是正常状态）
//   - 画像/偏好/候选读取失败 → 错误上抛（算不出有意义的 feed）
func (s *Service) GetFeed(ctx context.Context, userID string, limit int) ([]core.Recommendation, error) {
	if limit <= 0 {
		return []core.Recommendation{}, nil
	}
	if userID == "" {
		return nil, core.NewDomainError(core.ModuleService, core.ErrorCodeInvalidInput, "feed: user id is required")
	}

	prefs, err := s.Preferences.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch preferences: %w", err)
	}
	if prefs == nil {
		prefs = core.DefaultPreferences(userID)
	}

	// 偏好同时进画像与 RecommendContext，只读一次存储
	userProfile, err := s.Profiles.BuildWithPreferences(ctx, userID, prefs)
	if err != nil {
		return nil, fmt.Errorf("build profile: %w", err)
	}

	rctx := &core.RecommendContext{
		UserID:      userID,
		Scene:       Scene,
		Profile:     userProfile,
		Preferences: prefs,
		Limit:       limit,
	}

	items, err := s.Pipeline.Run(ctx, rctx, nil)
	if err != nil {
		return nil, fmt.Errorf("run pipeline: %w", err)
	}

	return s.toRecommendations(items, userProfile, limit), nil
}

// toRecommendations 把链路 Item 映射为对外的 Recommendation。
func (s *Service) toRecommendations(items []*core.Item, p *core.UserProfile, limit int) []core.Recommendation {
	recs := make([]core.Recommendation, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}

		text := explain.Text(it)
		if text == "" {
			// 链路未挂 explain 节点时兜底
			text = explain.FallbackText(p.ActiveDomains)
		}

		version := it.LabelValue("algorithm_version")
		if version == "" {
			version = s.Version
		}

		recs = append(recs, core.Recommendation{
			ContentID:        it.ID,
			Score:            it.Score,
			Explanation:      text,
			AlgorithmVersion: version,
		})
		if len(recs) >= limit {
			break
		}
	}
	return recs
}

// GetFeedCached 与 GetFeed 相同，但先查缓存、成功后回写缓存。
// 拆成两个方法是为了让无缓存部署的调用路径完全绕开缓存逻辑。
func (s *Service) GetFeedCached(ctx context.Context, userID string, limit int) ([]core.Recommendation, error) {
	if limit <= 0 {
		return []core.Recommendation{}, nil
	}
	if recs, ok := s.Cache.Get(ctx, userID); ok {
		if len(recs) > limit {
			recs = recs[:limit]
		}
		return recs, nil
	}

	recs, err := s.GetFeed(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	if len(recs) > 0 {
		s.Cache.Set(ctx, userID, recs)
	}
	return recs, nil
}
