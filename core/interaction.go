package core

import "time"

// InteractionType 是用户与内容的交互类型枚举。
type InteractionType string

const (
	InteractionView     InteractionType = "view"
	InteractionLike     InteractionType = "like"
	InteractionDislike  InteractionType = "dislike"
	InteractionComplete InteractionType = "complete"
	InteractionBookmark InteractionType = "bookmark"
	InteractionShare    InteractionType = "share"
)

// UserInteraction 是用户行为日志的一条记录（append-only）。
//
// 记录一旦写入不再修改；推荐链路只读消费，用于画像构建与已读惩罚。
type UserInteraction struct {
	UserID    string
	ContentID string
	Type      InteractionType

	// Rating 可选评分 1-5，0 表示未评分
	Rating int

	// CompletionPercent 可选完成度 0-100
	CompletionPercent int

	Timestamp time.Time
}

// Positive 判断交互是否为正向信号。
// dislike 是唯一的负向类型，不参与画像向量的加权平均。
func (i *UserInteraction) Positive() bool {
	return i != nil && i.Type != InteractionDislike
}
