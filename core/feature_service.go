package core

import "context"

// FeatureService 是特征服务的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（ext/feast 等）实现
//   - 遵循依赖倒置原则：领域层定义接口，基础设施层实现接口
//
// 使用场景：
//   - 用户特征：离线计算的领域亲和度（domain_affinity:AI 等），画像构建时
//     可选地融合进偏好面权重
//   - 内容特征：互动统计（近 30 天交互数、均分），趋势召回打点
//
// 注意：请求级上下文（device_type 等）走 RecommendContext.Params，
// 不通过 FeatureService 获取。
//
// 实现：
//   - ext/feast.FeatureServiceAdapter 实现此接口（Feast Feature Store）
type FeatureService interface {
	// Name 返回特征服务名称（用于日志/监控）
	Name() string

	// GetUserFeatures 获取用户特征（单个用户）
	GetUserFeatures(ctx context.Context, userID string) (map[string]float64, error)

	// BatchGetUserFeatures 批量获取用户特征
	BatchGetUserFeatures(ctx context.Context, userIDs []string) (map[string]map[string]float64, error)

	// GetItemFeatures 获取内容特征（单条内容）
	GetItemFeatures(ctx context.Context, contentID string) (map[string]float64, error)

	// BatchGetItemFeatures 批量获取内容特征
	BatchGetItemFeatures(ctx context.Context, contentIDs []string) (map[string]map[string]float64, error)

	// Close 关闭特征服务，释放资源
	Close(ctx context.Context) error
}
