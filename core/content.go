package core

import "time"

// ContentType 是学习内容的形态枚举。
type ContentType string

const (
	ContentTypeVideo   ContentType = "video"
	ContentTypeArticle ContentType = "article"
	ContentTypePaper   ContentType = "paper"
	ContentTypeCourse  ContentType = "course"
	ContentTypePodcast ContentType = "podcast"
)

// DifficultyLevel 是内容难度枚举。
type DifficultyLevel string

const (
	DifficultyBeginner     DifficultyLevel = "beginner"
	DifficultyIntermediate DifficultyLevel = "intermediate"
	DifficultyAdvanced     DifficultyLevel = "advanced"
)

// difficultyOrder 用于难度区间判断（beginner < intermediate < advanced）。
var difficultyOrder = map[DifficultyLevel]int{
	DifficultyBeginner:     0,
	DifficultyIntermediate: 1,
	DifficultyAdvanced:     2,
}

// Rank 返回难度的序数，未知难度返回 -1。
func (d DifficultyLevel) Rank() int {
	if r, ok := difficultyOrder[d]; ok {
		return r
	}
	return -1
}

// ModerationStatus 是内容审核状态枚举。
// 只有 approved 的内容才能进入候选集。
type ModerationStatus string

const (
	ModerationPending  ModerationStatus = "pending"
	ModerationApproved ModerationStatus = "approved"
	ModerationRejected ModerationStatus = "rejected"
)

// ContentItem 是学习内容的核心领域对象。
//
// Embedding 在内容入库/更新时生成一次，之后不再变化（除非重新入库）；
// 推荐链路只读，不会修改 ContentItem。
type ContentItem struct {
	ID          string
	Title       string
	Description string
	ContentType ContentType

	// Topics 内容主题（与 UserPreferences.LearningDomains 匹配）
	Topics []string

	DifficultyLevel DifficultyLevel

	// DurationMinutes 内容时长（分钟），0 表示未知
	DurationMinutes int

	// Embedding 内容向量，维度由平台统一（例如 1536）
	Embedding []float64

	ModerationStatus ModerationStatus
	CreatedAt        time.Time
}

// Eligible 判断内容是否具备候选资格：审核通过且已有向量。
func (c *ContentItem) Eligible() bool {
	return c != nil && c.ModerationStatus == ModerationApproved && len(c.Embedding) > 0
}

// HasTopic 判断内容是否包含指定主题。
func (c *ContentItem) HasTopic(topic string) bool {
	for _, t := range c.Topics {
		if t == topic {
			return true
		}
	}
	return false
}

// HasAnyTopic 判断内容主题与给定集合是否有交集。
func (c *ContentItem) HasAnyTopic(topics []string) bool {
	for _, t := range topics {
		if c.HasTopic(t) {
			return true
		}
	}
	return false
}
