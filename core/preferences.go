package core

// UserPreferences 是用户显式声明的学习偏好（每用户一份）。
//
// 只由用户本人修改；对推荐链路是只读输入，驱动画像的偏好面
// （active_domains / active_content_types）与候选过滤。
type UserPreferences struct {
	UserID string

	// LearningDomains 关注的学习领域，例如 ["AI", "systems"]
	LearningDomains []string

	// SkillLevels 各领域的自评水平，key 为领域，value 为难度等级
	SkillLevels map[string]DifficultyLevel

	// PreferredContentTypes 偏好的内容形态
	PreferredContentTypes []ContentType

	// MaxDurationMinutes 单条内容的时长上限（分钟），0 表示不限
	MaxDurationMinutes int
}

// DefaultPreferences 返回未设置偏好时的兜底值：不限定领域/形态/时长。
func DefaultPreferences(userID string) *UserPreferences {
	return &UserPreferences{
		UserID:      userID,
		SkillLevels: make(map[string]DifficultyLevel),
	}
}

// PrefersType 判断内容形态是否在偏好集合内。
// 未声明任何偏好形态时视为不匹配（由打分权重决定影响，不做硬过滤）。
func (p *UserPreferences) PrefersType(t ContentType) bool {
	if p == nil {
		return false
	}
	for _, ct := range p.PreferredContentTypes {
		if ct == t {
			return true
		}
	}
	return false
}
