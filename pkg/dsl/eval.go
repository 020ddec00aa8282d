package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/learnfeed/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
)

// initCELEnv 初始化 CEL 环境，定义变量和函数
func initCELEnv() (*cel.Env, error) {
	env, err := cel.NewEnv(
		// 定义变量类型
		cel.Variable("item", cel.DynType),
		cel.Variable("content", cel.DynType),
		cel.Variable("label", cel.DynType),
		cel.Variable("rctx", cel.DynType),
	)
	return env, err
}

// getCELEnv 获取或创建 CEL 环境
func getCELEnv() (*cel.Env, error) {
	var err error
	celEnvOnce.Do(func() {
		celEnv, err = initCELEnv()
	})
	return celEnv, err
}

// Eval 是规则 DSL 解释器，使用 CEL (Common Expression Language) 实现。
// 运营/策展规则以表达式下发，对每条候选内容求布尔值。
//
// 表达式语法（CEL 标准语法）：
//   - 基础：label.recall_source == "trending" / content.content_type != "podcast"
//   - 数值：item.score > 0.7 / content.duration_minutes <= 30
//   - 逻辑：content.difficulty_level == "advanced" && item.score > 0.8
//   - 存在性：label.recall_source != null
//   - 包含："AI" in content.topics
//
// 示例：
//   - `content.content_type == "video" && content.duration_minutes > 120`
//     → 命中超长视频（策展规则可据此剔除）
//   - `label.recall_source.contains("trending")` → 召回来源包含 trending
type Eval struct {
	item *core.Item
	rctx *core.RecommendContext
	env  *cel.Env
}

// NewEval 创建一个新的 DSL 解释器。
func NewEval(item *core.Item, rctx *core.RecommendContext) *Eval {
	env, _ := getCELEnv()
	return &Eval{
		item: item,
		rctx: rctx,
		env:  env,
	}
}

// Evaluate 解析并执行 DSL 表达式，返回布尔结果。
//
// 注意：has(label.key) 可以用 label.key != null 替代
func (e *Eval) Evaluate(expr string) (bool, error) {
	if expr == "" {
		return true, nil
	}

	// 编译表达式
	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return false, fmt.Errorf("compile error: %v", issues.Err())
	}

	// 创建程序
	prg, err := e.env.Program(ast)
	if err != nil {
		return false, fmt.Errorf("program error: %v", err)
	}

	// 准备输入数据
	input := e.buildInput()

	// 执行表达式
	out, _, err := prg.Eval(input)
	if err != nil {
		// 对于不存在的 key，CEL 会返回错误
		// 用户应该使用 label.key != null 来检查存在性，而不是直接访问
		return false, fmt.Errorf("eval error: %v", err)
	}

	// 转换为布尔值
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}

	return result, nil
}

// buildInput 构建 CEL 表达式的输入数据
func (e *Eval) buildInput() map[string]interface{} {
	// 构建 label map
	labels := make(map[string]interface{})
	for k, v := range e.item.Labels {
		labels[k] = map[string]interface{}{
			"value":  v.Value,
			"source": v.Source,
		}
	}

	// 构建 content map（候选内容的领域字段）
	content := map[string]interface{}{}
	if c := e.item.Content; c != nil {
		content = map[string]interface{}{
			"id":                c.ID,
			"title":             c.Title,
			"content_type":      string(c.ContentType),
			"topics":            c.Topics,
			"difficulty_level":  string(c.DifficultyLevel),
			"duration_minutes":  c.DurationMinutes,
			"moderation_status": string(c.ModerationStatus),
		}
	}

	// 构建 item map
	item := map[string]interface{}{
		"id":       e.item.ID,
		"score":    e.item.Score,
		"features": e.item.Features,
		"meta":     e.item.Meta,
		"labels":   labels,
	}

	// 构建 rctx map
	rctx := map[string]interface{}{
		"user_id": e.rctx.UserID,
		"scene":   e.rctx.Scene,
		"limit":   e.rctx.Limit,
		"params":  e.rctx.Params,
	}
	if p := e.rctx.Profile; p != nil {
		rctx["active_domains"] = p.ActiveDomains
		rctx["cold_start"] = p.ColdStart()
	}

	// label 作为顶层访问：label.recall_source 直接取 value
	// 注意：CEL 访问不存在的 key 会报错，用 label.key != null 检查存在性
	labelAccessor := make(map[string]interface{})
	for k, v := range labels {
		labelAccessor[k] = v.(map[string]interface{})["value"]
	}

	return map[string]interface{}{
		"item":    item,
		"content": content,
		"label":   labelAccessor,
		"rctx":    rctx,
	}
}
