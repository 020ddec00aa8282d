package core

// UserProfile 是单次推荐请求内派生的用户画像。
//
// 一句话定义：画像 = 行为向量 + 偏好面，是 Recall / Rank 的共同输入。
//
// 设计要点：
//  维度                 作用
//  Vector               向量召回 / 相似度打分核心
//  ActiveDomains        领域匹配信号 + 候选预过滤
//  ActiveContentTypes   形态匹配信号
//  SeenContentIDs       已读惩罚（novelty penalty）
//
// 画像每次请求基于 InteractionStore + UserPreferences 的当前状态重建，
// 不跨请求缓存——缓存属于部署层优化，不是正确性依赖。
type UserProfile struct {
	UserID string

	// Vector 行为向量：近期正向交互内容向量的加权平均。
	// 冷启动（无合格交互）时为零向量，排序退化为纯偏好打分。
	Vector []float64

	// ActiveDomains / ActiveContentTypes 来自 UserPreferences 的偏好面
	ActiveDomains      []string
	ActiveContentTypes []ContentType

	// SeenContentIDs 画像窗口内交互过的内容 ID，驱动已读惩罚
	SeenContentIDs map[string]bool

	// InteractionCount 画像窗口内的交互条数（冷启动判定用）
	InteractionCount int
}

// NewUserProfile 创建一个空画像（零向量按需由调用方填充维度）。
func NewUserProfile(userID string) *UserProfile {
	return &UserProfile{
		UserID:         userID,
		SeenContentIDs: make(map[string]bool),
	}
}

// ColdStart 判断画像是否处于冷启动状态：行为向量为零向量（或为空）。
func (p *UserProfile) ColdStart() bool {
	if p == nil {
		return true
	}
	for _, v := range p.Vector {
		if v != 0 {
			return false
		}
	}
	return true
}

// Seen 判断用户是否在画像窗口内交互过该内容。
func (p *UserProfile) Seen(contentID string) bool {
	if p == nil || p.SeenContentIDs == nil {
		return false
	}
	return p.SeenContentIDs[contentID]
}

// HasDomain 判断领域是否在偏好面内。
func (p *UserProfile) HasDomain(domain string) bool {
	if p == nil {
		return false
	}
	for _, d := range p.ActiveDomains {
		if d == domain {
			return true
		}
	}
	return false
}

// PrefersType 判断内容形态是否在偏好面内。
func (p *UserProfile) PrefersType(t ContentType) bool {
	if p == nil {
		return false
	}
	for _, ct := range p.ActiveContentTypes {
		if ct == t {
			return true
		}
	}
	return false
}
