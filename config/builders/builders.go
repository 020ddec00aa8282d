// Package builders 注册内置 Node 的配置构建器（import 即生效）。
//
// 依赖存储/外部服务的 Node（recall.candidates、recall.vector、explain.assembler）
// 无法从纯配置构建，需在代码中组装后注入 Pipeline。
package builders

import (
	"fmt"
	"time"

	"github.com/rushteam/learnfeed/config"
	"github.com/rushteam/learnfeed/filter"
	"github.com/rushteam/learnfeed/pipeline"
	"github.com/rushteam/learnfeed/pkg/conv"
	"github.com/rushteam/learnfeed/rank"
	"github.com/rushteam/learnfeed/recall"
	"github.com/rushteam/learnfeed/rerank"
)

func init() {
	config.Register("recall.fanout", BuildFanoutNode)
	config.Register("recall.trending", BuildTrendingNode)
	config.Register("rank.relevance", BuildRelevanceNode)
	config.Register("rerank.topn", BuildTopNNode)
	config.Register("rerank.diversity", BuildDiversityNode)
	config.Register("filter", BuildFilterNode)
}

func BuildFanoutNode(cfg map[string]interface{}) (pipeline.Node, error) {
	sourcesConfig, ok := cfg["sources"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("sources not found or invalid")
	}
	sources := make([]recall.Source, 0, len(sourcesConfig))
	for _, sc := range sourcesConfig {
		sourceMap, ok := sc.(map[string]interface{})
		if !ok {
			continue
		}
		sourceType := conv.ConfigGet(sourceMap, "type", "")
		switch sourceType {
		case "trending":
			src, err := buildTrending(sourceMap)
			if err != nil {
				return nil, err
			}
			sources = append(sources, src)
		case "candidates", "vector":
			// 需要 ContentStore / VectorService，无法从纯配置构建
			return nil, fmt.Errorf("source type %q requires code-level wiring", sourceType)
		default:
			return nil, fmt.Errorf("unknown source type: %s", sourceType)
		}
	}
	fanout := &recall.Fanout{
		Sources:       sources,
		Dedup:         conv.ConfigGet(cfg, "dedup", true),
		MergeStrategy: conv.ConfigGet(cfg, "merge_strategy", ""),
	}
	if sec := conv.ConfigGetInt(cfg, "timeout", 0); sec > 0 {
		fanout.Timeout = time.Duration(sec) * time.Second
	}
	if n := conv.ConfigGetInt(cfg, "max_concurrent", 0); n > 0 {
		fanout.MaxConcurrent = n
	}
	return fanout, nil
}

func BuildTrendingNode(cfg map[string]interface{}) (pipeline.Node, error) {
	return buildTrending(cfg)
}

func buildTrending(cfg map[string]interface{}) (*recall.Trending, error) {
	ids := conv.SliceAnyToString(cfg["ids"])
	if ids == nil {
		ids = []string{}
	}
	return &recall.Trending{
		Key:             conv.ConfigGet(cfg, "key", ""),
		TopN:            conv.ConfigGetInt(cfg, "top_n", 0),
		IDs:             ids,
		MinInteractions: conv.ConfigGetInt(cfg, "min_interactions", 0),
	}, nil
}

func BuildRelevanceNode(cfg map[string]interface{}) (pipeline.Node, error) {
	policy := rank.DefaultScorePolicy()
	policy.Version = conv.ConfigGet(cfg, "version", policy.Version)
	policy.SimilarityWeight = conv.ConfigGetFloat64(cfg, "similarity_weight", policy.SimilarityWeight)
	policy.DomainWeight = conv.ConfigGetFloat64(cfg, "domain_weight", policy.DomainWeight)
	policy.TypeWeight = conv.ConfigGetFloat64(cfg, "type_weight", policy.TypeWeight)
	policy.SeenPenalty = conv.ConfigGetFloat64(cfg, "seen_penalty", policy.SeenPenalty)
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &rank.RelevanceNode{Policy: policy}, nil
}

func BuildTopNNode(cfg map[string]interface{}) (pipeline.Node, error) {
	return &rerank.TopNNode{N: conv.ConfigGetInt(cfg, "n", 0)}, nil
}

func BuildDiversityNode(cfg map[string]interface{}) (pipeline.Node, error) {
	return &rerank.Diversity{Decay: conv.ConfigGetFloat64(cfg, "decay", 0)}, nil
}

func BuildFilterNode(cfg map[string]interface{}) (pipeline.Node, error) {
	filtersConfig, ok := cfg["filters"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("filters not found or invalid")
	}
	filters := make([]filter.Filter, 0, len(filtersConfig))
	for _, fc := range filtersConfig {
		filterMap, ok := fc.(map[string]interface{})
		if !ok {
			continue
		}
		filterType := conv.ConfigGet(filterMap, "type", "")
		switch filterType {
		case "eligibility":
			filters = append(filters, &filter.EligibilityFilter{
				MaxLevelGap: conv.ConfigGetInt(filterMap, "max_level_gap", 0),
			})
		case "blocklist":
			ids := conv.SliceAnyToString(filterMap["content_ids"])
			if ids == nil {
				ids = []string{}
			}
			filters = append(filters, &filter.BlocklistFilter{
				Key: conv.ConfigGet(filterMap, "key", ""),
				IDs: ids,
			})
		case "rule":
			rules := conv.SliceAnyToString(filterMap["rules"])
			if rules == nil {
				rules = []string{}
			}
			filters = append(filters, &filter.RuleFilter{Rules: rules})
		case "history":
			keyPrefix := conv.ConfigGet(filterMap, "key_prefix", "")
			timeWindow := int64(conv.ConfigGetInt(filterMap, "time_window", 0))
			bloomDayWindow := conv.ConfigGetInt(filterMap, "bloom_filter_day_window", 0)
			filters = append(filters, filter.NewHistoryFilter(nil, keyPrefix, timeWindow, bloomDayWindow))
		default:
			return nil, fmt.Errorf("unknown filter type: %s", filterType)
		}
	}
	return &filter.FilterNode{Filters: filters}, nil
}
