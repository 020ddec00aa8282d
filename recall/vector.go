package recall

import (
	"context"
	"strconv"

	"github.com/rushteam/learnfeed/core"
	"github.com/rushteam/learnfeed/pipeline"
	"github.com/rushteam/learnfeed/pkg/utils"
)

// Vector 是画像向量召回源：以 UserProfile.Vector 为查询，
// 从向量服务检索相近的内容。
//
// 冷启动（零向量）时跳过：零向量对任何内容的相似度都没有区分度，
// 让趋势召回兜底比返回噪声更好。
type Vector struct {
	Service    core.VectorService
	Collection string // 向量集合名，例如 "content_items"
	TopK       int    // 返回 TopK 相似内容，默认 50
	Metric     string // 距离度量：cosine（默认）/ euclidean / inner_product

	Contents core.ContentStore // 可选：用于回填 ContentItem
}

func (r *Vector) Name() string        { return "recall.vector" }
func (r *Vector) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall。
func (r *Vector) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口。
func (r *Vector) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Service == nil || rctx == nil {
		return nil, nil
	}

	profile := rctx.GetProfile()
	if profile.ColdStart() {
		return nil, nil
	}

	topK := r.TopK
	if topK <= 0 {
		topK = 50
	}
	metric := r.Metric
	if !core.ValidateVectorMetric(metric) {
		metric = string(core.MetricCosine)
	}

	result, err := r.Service.Search(ctx, &core.VectorSearchRequest{
		Collection: r.Collection,
		Vector:     profile.Vector,
		TopK:       topK,
		Metric:     metric,
		Filter:     map[string]interface{}{"moderation_status": string(core.ModerationApproved)},
	})
	if err != nil {
		return nil, err
	}

	out := make([]*core.Item, 0, len(result.Items))
	for _, hit := range result.Items {
		it := core.NewItem(hit.ID)
		it.Score = hit.Score
		it.PutLabel("vector_metric", utils.Label{Value: metric, Source: "recall"})
		it.PutLabel("vector_score", utils.Label{
			Value:  strconv.FormatFloat(hit.Score, 'f', 4, 64),
			Source: "recall",
		})
		if r.Contents != nil {
			content, err := r.Contents.GetContent(ctx, hit.ID)
			if err != nil {
				if core.IsNotFound(err) {
					continue // 向量索引可能滞后于下架
				}
				return nil, err
			}
			if !content.Eligible() {
				continue
			}
			it.Content = content
		}
		out = append(out, it)
	}
	return out, nil
}
