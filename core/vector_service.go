package core

import "context"

// VectorService 是向量检索服务的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（store/vector）实现
//   - 遵循依赖倒置原则：领域层定义接口，基础设施层实现接口
//
// 使用场景（召回场景专用）：
//   - 画像向量召回：根据 UserProfile.Vector 检索相近内容
//   - 相关内容召回：以某条内容的向量为查询
//
// 实现：
//   - store.MemoryVectorService 实现此接口（通过 core.VectorDatabaseService）
//   - 其他向量数据库（Milvus、pgvector、Elasticsearch 等）也可以实现此接口
type VectorService interface {
	// Search 向量搜索
	Search(ctx context.Context, req *VectorSearchRequest) (*VectorSearchResult, error)

	// Close 关闭连接
	Close() error
}

// VectorSearchRequest 向量搜索请求
type VectorSearchRequest struct {
	// Collection 集合名称（例如 "content_items"）
	Collection string

	// Vector 查询向量
	Vector []float64

	// TopK 返回 TopK 个最相似的结果
	TopK int

	// Metric 距离度量方式：cosine / euclidean / inner_product
	Metric string

	// Filter 元数据过滤条件（可选，例如 {"moderation_status": "approved"}）
	Filter map[string]interface{}

	// Params 额外参数（可选）
	Params map[string]interface{}
}

// VectorSearchItem 单个向量搜索结果项
type VectorSearchItem struct {
	// ID 内容 ID
	ID string

	// Score 相似度分数
	Score float64

	// Distance 距离
	Distance float64
}

// VectorSearchResult 向量搜索结果
type VectorSearchResult struct {
	// Items 搜索结果项列表（按相似度排序）
	Items []VectorSearchItem
}

// ValidateVectorMetric 验证距离度量类型
func ValidateVectorMetric(metric string) bool {
	switch metric {
	case "cosine", "euclidean", "inner_product":
		return true
	default:
		return false
	}
}

// MetricType 距离度量类型（用于类型安全）
type MetricType string

const (
	MetricCosine       MetricType = "cosine"
	MetricEuclidean    MetricType = "euclidean"
	MetricInnerProduct MetricType = "inner_product"
)

// VectorDatabaseService 是完整的向量数据库服务接口。
//
// 嵌入 VectorService（召回场景接口），额外提供数据管理操作：
// 内容入库时写入向量，重新入库时更新，下架时删除。
type VectorDatabaseService interface {
	VectorService

	// Insert 插入向量
	Insert(ctx context.Context, req *VectorInsertRequest) error

	// Update 更新向量
	Update(ctx context.Context, req *VectorUpdateRequest) error

	// Delete 删除向量
	Delete(ctx context.Context, req *VectorDeleteRequest) error

	// CreateCollection 创建集合
	CreateCollection(ctx context.Context, req *VectorCreateCollectionRequest) error

	// DropCollection 删除集合
	DropCollection(ctx context.Context, collection string) error

	// HasCollection 检查集合是否存在
	HasCollection(ctx context.Context, collection string) (bool, error)
}

// VectorInsertRequest 向量插入请求
type VectorInsertRequest struct {
	Collection string
	Vectors    [][]float64
	IDs        []string
	Metadata   []map[string]interface{}
}

// VectorUpdateRequest 向量更新请求
type VectorUpdateRequest struct {
	Collection string
	Vector     []float64
	ID         string
	Metadata   map[string]interface{}
}

// VectorDeleteRequest 向量删除请求
type VectorDeleteRequest struct {
	Collection string
	IDs        []string
}

// VectorCreateCollectionRequest 创建集合请求
type VectorCreateCollectionRequest struct {
	Name      string
	Dimension int
	Metric    string
	Params    map[string]interface{}
}
