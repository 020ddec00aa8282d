package core

import "github.com/rushteam/learnfeed/pkg/utils"

// Item 是推荐链路中的统一承载结构：内容、分数、特征、标签。
// Labels 用于解释与策略驱动；Score 用于排序决策。
type Item struct {
	ID       string
	Score    float64
	Content  *ContentItem
	Features map[string]float64
	Meta     map[string]any
	Labels   map[string]utils.Label
}

func NewItem(id string) *Item {
	return &Item{
		ID:       id,
		Score:    0,
		Features: make(map[string]float64),
		Meta:     make(map[string]any),
		Labels:   make(map[string]utils.Label),
	}
}

// NewContentItem 以 ContentItem 为载体创建链路 Item。
func NewContentItem(content *ContentItem) *Item {
	it := NewItem(content.ID)
	it.Content = content
	return it
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// LabelValue 读取 Label 的 Value，不存在时返回空串。
func (it *Item) LabelValue(key string) string {
	if it.Labels == nil {
		return ""
	}
	return it.Labels[key].Value
}
