// Package explain 为排好序的推荐结果生成自然语言理由。
package explain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/learnfeed/core"
	"github.com/rushteam/learnfeed/pipeline"
	"github.com/rushteam/learnfeed/pkg/utils"
)

// Assembler 是理由生成 Node：并发调用 AIService 为每条推荐生成文案。
//
// 失败语义（理由是装饰，不是正确性依赖）：
//   - 单条生成失败/超时 → 该条使用 fallback 文案，其余不受影响
//   - AIService 未配置 → 全部使用 fallback 文案
//   - 任何情况下都不减少推荐条数、不改变顺序
//
// 并发控制沿用 recall.Fanout 的 semaphore 模式：MaxInFlight 限制
// 同时在途的生成请求，PerItemTimeout 约束单条耗时。
type Assembler struct {
	Service core.AIService

	// MaxInFlight 同时在途的生成请求数，默认 4
	MaxInFlight int

	// PerItemTimeout 单条理由生成的超时，默认 2s
	PerItemTimeout time.Duration
}

func (n *Assembler) Name() string        { return "explain.assembler" }
func (n *Assembler) Kind() pipeline.Kind { return pipeline.KindPostProcess }

func (n *Assembler) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	profile := rctx.GetProfile()
	fallback := FallbackText(profile.ActiveDomains)

	if n.Service == nil {
		for _, it := range items {
			if it != nil {
				putExplanation(it, fallback, "fallback")
			}
		}
		return items, nil
	}

	maxInFlight := n.MaxInFlight
	if maxInFlight <= 0 {
		maxInFlight = 4
	}
	timeout := n.PerItemTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	eg, egCtx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, maxInFlight)

	for _, item := range items {
		it := item
		if it == nil {
			continue
		}

		eg.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()

			callCtx, cancel := context.WithTimeout(egCtx, timeout)
			defer cancel()

			text, err := n.Service.Explain(callCtx, &core.ExplainRequest{
				Content:       it.Content,
				Score:         it.Score,
				ActiveDomains: profile.ActiveDomains,
				Labels:        labelValues(it),
			})
			if err != nil || strings.TrimSpace(text) == "" {
				// 单条失败只降级这一条
				putExplanation(it, fallback, "fallback")
				return nil
			}
			putExplanation(it, text, n.Service.Name())
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}

// FallbackText 返回生成失败时的兜底文案。
func FallbackText(domains []string) string {
	if len(domains) == 0 {
		return "Recommended based on your learning activity"
	}
	return fmt.Sprintf("Recommended based on your interests in %s", strings.Join(domains, ", "))
}

// Text 读取 item 上已生成的理由文案，未生成时返回空串。
func Text(it *core.Item) string {
	if it == nil || it.Meta == nil {
		return ""
	}
	if s, ok := it.Meta["explanation"].(string); ok {
		return s
	}
	return ""
}

func putExplanation(it *core.Item, text, source string) {
	if it.Meta == nil {
		it.Meta = make(map[string]any)
	}
	it.Meta["explanation"] = text
	it.PutLabel("explain_source", utils.Label{Value: source, Source: "explain"})
}

func labelValues(it *core.Item) map[string]string {
	out := make(map[string]string, len(it.Labels))
	for k, v := range it.Labels {
		out[k] = v.Value
	}
	return out
}
