package recall

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/rushteam/learnfeed/core"
)

// StoreBackend 是基于 core.Store 的领域存储适配器，同时实现
// core.ContentStore / core.InteractionStore / core.PreferencesStore。
//
// Key 约定（JSON 编码）：
//   内容：     {KeyPrefix}:content:{contentID}
//   内容索引： {KeyPrefix}:contents        -> ["c1","c2",...]
//   向量维度： {KeyPrefix}:dim             -> 1536
//   行为日志： {KeyPrefix}:interactions:{userID} -> 按时间倒序的数组
//   偏好：     {KeyPrefix}:prefs:{userID}
//
// 适用于 Redis / 内存等 KV 后端；SQL/向量库等专用后端直接实现 core 接口即可。
type StoreBackend struct {
	store core.Store

	// KeyPrefix 是存储 key 的前缀
	KeyPrefix string

	// Dimension 向量维度兜底值：{KeyPrefix}:dim 未写入时使用
	Dimension int

	// MaxInteractionLog 每个用户保留的行为日志条数上限，默认 200
	MaxInteractionLog int
}

// NewStoreBackend 创建一个基于 core.Store 的领域存储适配器。
func NewStoreBackend(s core.Store, keyPrefix string) *StoreBackend {
	if keyPrefix == "" {
		keyPrefix = "learnfeed"
	}
	return &StoreBackend{
		store:     s,
		KeyPrefix: keyPrefix,
	}
}

func (a *StoreBackend) Name() string { return "store_backend" }

func (a *StoreBackend) contentKey(id string) string { return a.KeyPrefix + ":content:" + id }
func (a *StoreBackend) indexKey() string            { return a.KeyPrefix + ":contents" }
func (a *StoreBackend) dimKey() string              { return a.KeyPrefix + ":dim" }
func (a *StoreBackend) interactionsKey(uid string) string {
	return a.KeyPrefix + ":interactions:" + uid
}
func (a *StoreBackend) prefsKey(uid string) string { return a.KeyPrefix + ":prefs:" + uid }

// --- core.ContentStore ---

func (a *StoreBackend) GetContent(ctx context.Context, contentID string) (*core.ContentItem, error) {
	data, err := a.store.Get(ctx, a.contentKey(contentID))
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, core.ErrContentNotFound
		}
		return nil, err
	}

	var content core.ContentItem
	if err := json.Unmarshal(data, &content); err != nil {
		return nil, fmt.Errorf("decode content %s: %w", contentID, err)
	}
	return &content, nil
}

func (a *StoreBackend) FetchApprovedCandidates(ctx context.Context, filter *core.CandidateFilter) ([]*core.ContentItem, error) {
	ids, err := a.listContentIDs(ctx)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, a.contentKey(id))
	}
	kvs, err := a.store.BatchGet(ctx, keys)
	if err != nil {
		return nil, err
	}

	if filter == nil {
		filter = &core.CandidateFilter{}
	}

	out := make([]*core.ContentItem, 0, len(ids))
	for _, id := range ids {
		data, ok := kvs[a.contentKey(id)]
		if !ok {
			continue // 索引可能滞后于删除
		}
		var content core.ContentItem
		if err := json.Unmarshal(data, &content); err != nil {
			continue
		}
		if !matchesFilter(&content, filter) {
			continue
		}
		out = append(out, &content)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

func (a *StoreBackend) EmbeddingDimension(ctx context.Context) (int, error) {
	data, err := a.store.Get(ctx, a.dimKey())
	if err != nil {
		if core.IsStoreNotFound(err) && a.Dimension > 0 {
			return a.Dimension, nil
		}
		return 0, err
	}
	var dim int
	if err := json.Unmarshal(data, &dim); err != nil || dim <= 0 {
		if a.Dimension > 0 {
			return a.Dimension, nil
		}
		return 0, fmt.Errorf("invalid embedding dimension value: %q", data)
	}
	return dim, nil
}

// PutContent 写入内容并维护索引（内容入库/更新路径使用）。
func (a *StoreBackend) PutContent(ctx context.Context, content *core.ContentItem) error {
	data, err := json.Marshal(content)
	if err != nil {
		return err
	}
	if err := a.store.Set(ctx, a.contentKey(content.ID), data); err != nil {
		return err
	}

	ids, err := a.listContentIDs(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if id == content.ID {
			return nil
		}
	}
	ids = append(ids, content.ID)
	sort.Strings(ids)
	idx, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return a.store.Set(ctx, a.indexKey(), idx)
}

func (a *StoreBackend) listContentIDs(ctx context.Context) ([]string, error) {
	data, err := a.store.Get(ctx, a.indexKey())
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("decode content index: %w", err)
	}
	return ids, nil
}

// matchesFilter 应用候选过滤；字段为零值的维度不过滤。
func matchesFilter(c *core.ContentItem, f *core.CandidateFilter) bool {
	if !c.Eligible() {
		return false
	}
	if len(f.Domains) > 0 && !c.HasAnyTopic(f.Domains) {
		return false
	}
	if len(f.ContentTypes) > 0 {
		matched := false
		for _, t := range f.ContentTypes {
			if c.ContentType == t {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	if f.MinDifficulty != "" && c.DifficultyLevel.Rank() < f.MinDifficulty.Rank() {
		return false
	}
	if f.MaxDifficulty != "" && c.DifficultyLevel.Rank() > f.MaxDifficulty.Rank() {
		return false
	}
	if f.MaxDurationMinutes > 0 && c.DurationMinutes > f.MaxDurationMinutes {
		return false
	}
	return true
}

// --- core.InteractionStore ---

func (a *StoreBackend) FetchRecent(ctx context.Context, userID string, max int) ([]*core.UserInteraction, error) {
	data, err := a.store.Get(ctx, a.interactionsKey(userID))
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	var interactions []*core.UserInteraction
	if err := json.Unmarshal(data, &interactions); err != nil {
		return nil, fmt.Errorf("decode interactions for %s: %w", userID, err)
	}
	if max > 0 && len(interactions) > max {
		interactions = interactions[:max]
	}
	return interactions, nil
}

func (a *StoreBackend) Append(ctx context.Context, interaction *core.UserInteraction) error {
	if interaction == nil || interaction.UserID == "" {
		return core.NewDomainError(core.ModuleStore, core.ErrorCodeInvalidInput, "store: interaction requires user id")
	}

	existing, err := a.FetchRecent(ctx, interaction.UserID, 0)
	if err != nil {
		return err
	}

	// 新记录在前，保持 FetchRecent 的时间倒序约定
	interactions := append([]*core.UserInteraction{interaction}, existing...)
	limit := a.MaxInteractionLog
	if limit <= 0 {
		limit = 200
	}
	if len(interactions) > limit {
		interactions = interactions[:limit]
	}

	data, err := json.Marshal(interactions)
	if err != nil {
		return err
	}
	return a.store.Set(ctx, a.interactionsKey(interaction.UserID), data)
}

// --- core.PreferencesStore ---

func (a *StoreBackend) Get(ctx context.Context, userID string) (*core.UserPreferences, error) {
	data, err := a.store.Get(ctx, a.prefsKey(userID))
	if err != nil {
		if core.IsStoreNotFound(err) {
			return core.DefaultPreferences(userID), nil
		}
		return nil, err
	}

	var prefs core.UserPreferences
	if err := json.Unmarshal(data, &prefs); err != nil {
		return nil, fmt.Errorf("decode preferences for %s: %w", userID, err)
	}
	if prefs.UserID == "" {
		prefs.UserID = userID
	}
	return &prefs, nil
}

// PutPreferences 写入用户偏好。
func (a *StoreBackend) PutPreferences(ctx context.Context, prefs *core.UserPreferences) error {
	data, err := json.Marshal(prefs)
	if err != nil {
		return err
	}
	return a.store.Set(ctx, a.prefsKey(prefs.UserID), data)
}

// 确保实现领域存储接口
var (
	_ core.ContentStore     = (*StoreBackend)(nil)
	_ core.InteractionStore = (*StoreBackend)(nil)
	_ core.PreferencesStore = (*StoreBackend)(nil)
)
