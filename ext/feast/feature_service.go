// Package feast 提供基于 Feast Feature Store 官方 Go SDK 的 core.FeatureService 实现。
//
// 画像构建时通过它拉取离线计算的用户特征（如 domain_affinity:AI），
// 趋势召回可用它读取内容互动统计。
//
// 使用方式：
//
//	svc, err := feast.NewFeatureService("localhost", 6565, "learnfeed", &feast.FeatureMapping{
//		UserFeatures: []string{"user_stats:domain_affinity_ai", "user_stats:domain_affinity_biology"},
//		ItemFeatures: []string{"content_stats:interactions_30d", "content_stats:avg_rating"},
//	})
package feast

import (
	"context"
	"fmt"
	"time"

	feastsdk "github.com/feast-dev/feast/sdk/go"
	feasttypes "github.com/feast-dev/feast/sdk/go/protos/feast/types"

	"github.com/rushteam/learnfeed/core"
)

// FeatureMapping 描述领域实体与 Feast 特征的对应关系。
type FeatureMapping struct {
	// UserEntityKey 用户实体键，默认 "user_id"
	UserEntityKey string

	// ItemEntityKey 内容实体键，默认 "content_id"
	ItemEntityKey string

	// UserFeatures 用户特征全名列表，如 "user_stats:domain_affinity_ai"
	UserFeatures []string

	// ItemFeatures 内容特征全名列表，如 "content_stats:interactions_30d"
	ItemFeatures []string
}

// FeatureService 是 Feast 在线特征的 core.FeatureService 实现（gRPC）。
type FeatureService struct {
	client  *feastsdk.GrpcClient
	project string
	mapping *FeatureMapping

	// Timeout 单次请求超时，默认 5s
	Timeout time.Duration
}

// NewFeatureService 连接 Feast Feature Server 并创建特征服务。
// port 为 0 时使用默认 gRPC 端口 6565。
func NewFeatureService(host string, port int, project string, mapping *FeatureMapping) (*FeatureService, error) {
	if port == 0 {
		port = 6565
	}
	client, err := feastsdk.NewGrpcClient(host, port)
	if err != nil {
		return nil, fmt.Errorf("connect feast %s:%d: %w", host, port, err)
	}
	return newFeatureService(client, project, mapping), nil
}

// NewSecureFeatureService 使用静态 Token 认证连接 Feast。
func NewSecureFeatureService(host string, port int, project, token string, enableTLS bool, mapping *FeatureMapping) (*FeatureService, error) {
	if port == 0 {
		port = 6565
	}
	security := feastsdk.SecurityConfig{
		EnableTLS:  enableTLS,
		Credential: feastsdk.NewStaticCredential(token),
	}
	client, err := feastsdk.NewSecureGrpcClient(host, port, security)
	if err != nil {
		return nil, fmt.Errorf("connect feast %s:%d: %w", host, port, err)
	}
	return newFeatureService(client, project, mapping), nil
}

func newFeatureService(client *feastsdk.GrpcClient, project string, mapping *FeatureMapping) *FeatureService {
	if mapping == nil {
		mapping = &FeatureMapping{}
	}
	if mapping.UserEntityKey == "" {
		mapping.UserEntityKey = "user_id"
	}
	if mapping.ItemEntityKey == "" {
		mapping.ItemEntityKey = "content_id"
	}
	return &FeatureService{
		client:  client,
		project: project,
		mapping: mapping,
		Timeout: 5 * time.Second,
	}
}

func (s *FeatureService) Name() string { return "feast" }

func (s *FeatureService) GetUserFeatures(ctx context.Context, userID string) (map[string]float64, error) {
	batch, err := s.getOnline(ctx, s.mapping.UserEntityKey, s.mapping.UserFeatures, []string{userID})
	if err != nil {
		return nil, err
	}
	return batch[userID], nil
}

func (s *FeatureService) BatchGetUserFeatures(ctx context.Context, userIDs []string) (map[string]map[string]float64, error) {
	return s.getOnline(ctx, s.mapping.UserEntityKey, s.mapping.UserFeatures, userIDs)
}

func (s *FeatureService) GetItemFeatures(ctx context.Context, contentID string) (map[string]float64, error) {
	batch, err := s.getOnline(ctx, s.mapping.ItemEntityKey, s.mapping.ItemFeatures, []string{contentID})
	if err != nil {
		return nil, err
	}
	return batch[contentID], nil
}

func (s *FeatureService) BatchGetItemFeatures(ctx context.Context, contentIDs []string) (map[string]map[string]float64, error) {
	return s.getOnline(ctx, s.mapping.ItemEntityKey, s.mapping.ItemFeatures, contentIDs)
}

// Close 释放连接。SDK 的 gRPC 连接由库管理，这里仅断开引用。
func (s *FeatureService) Close(ctx context.Context) error {
	s.client = nil
	return nil
}

// getOnline 拉取一批实体的在线特征。
// 未配置特征列表时返回空 map，不访问远端。
func (s *FeatureService) getOnline(ctx context.Context, entityKey string, features []string, entityIDs []string) (map[string]map[string]float64, error) {
	result := make(map[string]map[string]float64, len(entityIDs))
	for _, id := range entityIDs {
		result[id] = make(map[string]float64)
	}
	if len(features) == 0 || len(entityIDs) == 0 {
		return result, nil
	}
	if s.client == nil {
		return nil, core.NewDomainError(core.ModuleProfile, core.ErrorCodeUnavailable, "feast: client closed")
	}

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	entities := make([]feastsdk.Row, len(entityIDs))
	for i, id := range entityIDs {
		entities[i] = feastsdk.Row{entityKey: feastsdk.StrVal(id)}
	}

	resp, err := s.client.GetOnlineFeatures(ctx, &feastsdk.OnlineFeaturesRequest{
		Features: features,
		Entities: entities,
		Project:  s.project,
	})
	if err != nil {
		return nil, fmt.Errorf("feast get online features: %w", err)
	}

	rows := resp.Rows()
	if len(rows) != len(entityIDs) {
		return nil, fmt.Errorf("feast row count mismatch: want %d, got %d", len(entityIDs), len(rows))
	}

	for i, row := range rows {
		vals := result[entityIDs[i]]
		for _, name := range features {
			if v, ok := row[name]; ok {
				if f, ok := valueToFloat64(v); ok {
					vals[name] = f
				}
			}
		}
	}
	return result, nil
}

// valueToFloat64 将 Feast 特征值转为 float64；非数值类型（字符串、字节）丢弃。
func valueToFloat64(v *feasttypes.Value) (float64, bool) {
	if v == nil {
		return 0, false
	}
	switch val := v.GetVal().(type) {
	case *feasttypes.Value_DoubleVal:
		return val.DoubleVal, true
	case *feasttypes.Value_FloatVal:
		return float64(val.FloatVal), true
	case *feasttypes.Value_Int64Val:
		return float64(val.Int64Val), true
	case *feasttypes.Value_Int32Val:
		return float64(val.Int32Val), true
	case *feasttypes.Value_BoolVal:
		if val.BoolVal {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

var _ core.FeatureService = (*FeatureService)(nil)
