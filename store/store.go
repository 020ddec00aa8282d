// Package store 提供 core.Store / core.KeyValueStore / core.VectorService 的具体实现。
//
// 注意：此包只包含实现，接口定义在 core 包。
//
// 典型用途：
//   - feed 结果缓存（feed.Cache）
//   - 趋势榜单（recall.Trending 的 zset）
//   - 行为日志 / 偏好 / 内容目录的 KV 承载（recall.StoreBackend）
//
// 示例：
//
//	var s core.Store = store.NewMemoryStore()
//	var kv core.KeyValueStore = store.NewMemoryStore()
package store
