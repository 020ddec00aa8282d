package profile

import "github.com/rushteam/learnfeed/core"

// WeightPolicy 是交互加权策略：决定每条正向交互对画像向量的贡献。
//
// 一句话定义：权重 = 类型基础权重 × 评分系数。
//
// 约束：
//   - 对交互类型单调：信号越强（complete > bookmark > like > view）权重越大
//   - 对评分单调：评分越高权重越大（未评分视为中性，系数 1）
//   - dislike 权重恒为 0：负向信号不进入正向平均
//
// 策略是配置而不是写死的算术：调整权重必须伴随 algorithm_version 变更。
type WeightPolicy struct {
	// TypeWeights 各交互类型的基础权重
	TypeWeights map[core.InteractionType]float64

	// RatingPivot 评分中性点：有评分时权重乘以 rating/RatingPivot。
	// 例如 pivot=3 时，5 星放大 1.67 倍，1 星缩小到 0.33 倍。
	RatingPivot float64
}

// DefaultWeightPolicy 返回默认加权策略。
func DefaultWeightPolicy() *WeightPolicy {
	return &WeightPolicy{
		TypeWeights: map[core.InteractionType]float64{
			core.InteractionView:     1.0,
			core.InteractionLike:     1.5,
			core.InteractionShare:    1.6,
			core.InteractionBookmark: 1.8,
			core.InteractionComplete: 2.0,
		},
		RatingPivot: 3.0,
	}
}

// Weight 计算单条交互的画像权重；非正向交互或未知类型返回 0。
func (p *WeightPolicy) Weight(i *core.UserInteraction) float64 {
	if i == nil || !i.Positive() {
		return 0
	}

	base, ok := p.TypeWeights[i.Type]
	if !ok || base <= 0 {
		return 0
	}

	w := base
	if i.Rating > 0 && p.RatingPivot > 0 {
		w *= float64(i.Rating) / p.RatingPivot
	}
	return w
}
