package core

import "context"

// ExplainRequest 是单条推荐理由的生成请求。
type ExplainRequest struct {
	// Content 待解释的内容
	Content *ContentItem

	// Score 该内容的综合分（供提示词引用）
	Score float64

	// ActiveDomains 用户当前关注的领域（画像偏好面）
	ActiveDomains []string

	// Labels 打分过程产生的标签（similarity / domain_match 等），供提示词引用
	Labels map[string]string
}

// AIService 是文本向量化与理由生成的领域接口。
//
// 设计原则：
//   - 通过构造注入，不使用包级单例；测试中可替换为确定性的 fake
//   - 所有方法都必须尊重 ctx 的超时/取消：调用方用 context.WithTimeout 约束单次调用
//   - Explain 失败只影响单条推荐的文案，绝不导致整个请求失败
//
// 实现：
//   - ext/ai/openai.Client 实现此接口（OpenAI 兼容 API）
//   - 测试中使用内存 fake
type AIService interface {
	// Name 返回服务名称（用于日志/监控）
	Name() string

	// EmbedText 将文本映射为平台维度的向量（入库链路使用，不在 feed 热路径上）
	EmbedText(ctx context.Context, text string) ([]float64, error)

	// Explain 为一条推荐生成自然语言理由
	Explain(ctx context.Context, req *ExplainRequest) (string, error)

	// Close 关闭连接/释放资源
	Close() error
}
