// Package learnfeed 是面向个性化学习平台的内容推荐引擎（Learning Feed Kit）。
//
// 设计要点：
// - Pipeline-first: 推荐逻辑通过 Node 串联（Recall → Filter → Rank → ReRank → Explain）
// - Labels-first: labels 全链路透传与标准化 merge，支撑可解释推荐与观测
// - 画像按请求重建: UserProfile 由行为日志 + 显式偏好即时派生，缓存只是优化
// - 策略可配置: 打分权重/已读惩罚/窗口策略都是配置，对应稳定的 algorithm_version
package learnfeed

import "github.com/rushteam/learnfeed/pipeline"

// 轻量 facade：便于用户直接 import "learnfeed" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall      = pipeline.KindRecall
	KindFilter      = pipeline.KindFilter
	KindRank        = pipeline.KindRank
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)
