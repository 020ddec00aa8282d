package core

import "github.com/rushteam/learnfeed/pkg/utils"

// RecommendContext 承载用户/场景/请求信息，贯穿整个 Pipeline 透传。
type RecommendContext struct {
	UserID string
	Scene  string // feed / related / search ...

	// Profile 是本次请求派生出的用户画像
	Profile *UserProfile

	// Preferences 是用户的显式偏好（只读）
	Preferences *UserPreferences

	// Limit 是调用方请求的 feed 长度（TopK）
	Limit int

	// Labels 是用户级标签，可驱动整个 Pipeline 行为
	// 例如：冷启动、重度用户等
	Labels map[string]utils.Label

	// Params 请求级上下文参数（device_type、locale、实验参数等）
	Params map[string]any
}

// GetProfile 获取画像；为空时返回一个冷启动空画像，调用方无需判空。
func (rctx *RecommendContext) GetProfile() *UserProfile {
	if rctx.Profile != nil {
		return rctx.Profile
	}
	return NewUserProfile(rctx.UserID)
}

// PutLabel 写入用户级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取用户级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
