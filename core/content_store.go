package core

import "context"

// CandidateFilter 是候选集获取时的过滤提示。
//
// 这里的过滤发生在打分之前：不合格的内容不应占用 TopK 名额。
// 字段为零值时表示不做该维度过滤。
type CandidateFilter struct {
	// Domains 领域提示（命中任一主题即可），用于存储侧缩小候选集
	Domains []string

	// ContentTypes 形态提示
	ContentTypes []ContentType

	// MinDifficulty / MaxDifficulty 可接受的难度区间（闭区间）
	MinDifficulty DifficultyLevel
	MaxDifficulty DifficultyLevel

	// MaxDurationMinutes 时长上限（分钟），0 表示不限
	MaxDurationMinutes int

	// Limit 最多返回多少条候选，0 表示由实现决定
	Limit int
}

// ContentStore 是内容库的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（store/recall 适配器、SQL、向量库等）实现
//   - 实现必须只返回 Eligible 的内容：审核通过且 Embedding 非空
type ContentStore interface {
	// Name 返回存储后端名称（用于日志/监控）
	Name() string

	// FetchApprovedCandidates 获取具备候选资格的内容
	FetchApprovedCandidates(ctx context.Context, filter *CandidateFilter) ([]*ContentItem, error)

	// GetContent 按 ID 获取单条内容；不存在时返回 NOT_FOUND
	GetContent(ctx context.Context, contentID string) (*ContentItem, error)

	// EmbeddingDimension 返回平台统一的向量维度（用于构造零向量/校验）
	EmbeddingDimension(ctx context.Context) (int, error)
}

// InteractionStore 是用户行为日志的领域接口（append-only）。
type InteractionStore interface {
	// Name 返回存储后端名称（用于日志/监控）
	Name() string

	// FetchRecent 获取用户最近的交互记录，按时间倒序，最多 max 条。
	// max <= 0 时由实现决定默认窗口。
	FetchRecent(ctx context.Context, userID string, max int) ([]*UserInteraction, error)

	// Append 追加一条交互记录（反馈回流路径使用）
	Append(ctx context.Context, interaction *UserInteraction) error
}

// PreferencesStore 是用户偏好的领域接口。
type PreferencesStore interface {
	// Name 返回存储后端名称（用于日志/监控）
	Name() string

	// Get 获取用户偏好；未设置时返回 DefaultPreferences，而不是错误
	Get(ctx context.Context, userID string) (*UserPreferences, error)
}

// 上游存储错误（统一的 DomainError）
var (
	// ErrContentNotFound 表示内容不存在
	ErrContentNotFound = NewDomainError(ModuleStore, ErrorCodeNotFound, "content: not found")

	// ErrUpstreamUnavailable 表示上游存储读取失败。
	// 画像/候选数据缺失时无法计算出有意义的 feed，此类错误必须整体上抛。
	ErrUpstreamUnavailable = NewDomainError(ModuleStore, ErrorCodeUnavailable, "store: upstream unavailable")
)
