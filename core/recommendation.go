package core

// Recommendation 是推荐链路对外输出的最终记录。
//
// 与链路内部的 Item 不同，Recommendation 是固定字段的结果结构：
// 打分策略的任何变化都通过 AlgorithmVersion 标记，便于审计与 A/B 对比。
type Recommendation struct {
	ContentID string `json:"content_id"`

	// Score 归一化后的综合分，始终落在 [0,1]
	Score float64 `json:"score"`

	// Explanation 面向用户的推荐理由（生成失败时为兜底文案）
	Explanation string `json:"explanation"`

	// AlgorithmVersion 产生该条推荐的打分策略版本
	AlgorithmVersion string `json:"algorithm_version"`
}
