// Package vectormath 提供推荐链路所需的向量运算：余弦相似度、加权平均等。
// 所有函数都对维度做严格校验：维度不一致属于编程/数据错误，必须上抛。
package vectormath

import (
	"fmt"
	"math"

	"github.com/rushteam/learnfeed/core"
)

// Cosine 计算两个等维向量的余弦相似度，取值范围 [-1, 1]。
//
// 约定：
//   - 维度不一致返回 DIMENSION_MISMATCH，绝不静默处理
//   - 任一向量的 L2 范数为零（例如冷启动画像）时，相似度定义为 0（中性），
//     而不是除零错误
func Cosine(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, core.NewDomainError(core.ModuleVector, core.ErrorCodeDimensionMismatch,
			fmt.Sprintf("vector: dimension mismatch %d vs %d", len(a), len(b)))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// 浮点误差可能使 |sim| 略超 1
	if sim > 1 {
		sim = 1
	} else if sim < -1 {
		sim = -1
	}
	return sim, nil
}

// WeightedMean 计算一组等维向量的加权平均。
//
//   - vectors 与 weights 长度必须一致
//   - 向量之间维度必须一致
//   - 权重之和为 0（或输入为空）时返回 nil（由调用方按冷启动处理）
func WeightedMean(vectors [][]float64, weights []float64) ([]float64, error) {
	if len(vectors) != len(weights) {
		return nil, core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput,
			fmt.Sprintf("vector: %d vectors with %d weights", len(vectors), len(weights)))
	}
	if len(vectors) == 0 {
		return nil, nil
	}

	dim := len(vectors[0])
	var totalWeight float64
	sum := make([]float64, dim)

	for i, vec := range vectors {
		if len(vec) != dim {
			return nil, core.NewDomainError(core.ModuleVector, core.ErrorCodeDimensionMismatch,
				fmt.Sprintf("vector: dimension mismatch %d vs %d", len(vec), dim))
		}
		w := weights[i]
		if w <= 0 {
			continue
		}
		for j := range vec {
			sum[j] += vec[j] * w
		}
		totalWeight += w
	}

	if totalWeight == 0 {
		return nil, nil
	}
	for j := range sum {
		sum[j] /= totalWeight
	}
	return sum, nil
}

// Zero 返回指定维度的零向量。
func Zero(dim int) []float64 {
	if dim <= 0 {
		return nil
	}
	return make([]float64, dim)
}

// IsZero 判断向量是否为零向量（或为空）。
func IsZero(v []float64) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// Finite 校验分数是否为有限数。NaN/Inf 属于 bug，调用方必须报错而不是带病传播。
func Finite(score float64) bool {
	return !math.IsNaN(score) && !math.IsInf(score, 0)
}
