package core

import "errors"

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX）
//
// 使用场景：
//   - Store 错误：NOT_FOUND, UNAVAILABLE
//   - Vector 错误：DIMENSION_MISMATCH, NOT_SUPPORTED
//   - 打分错误：INTERNAL_ERROR（NaN/Inf 守卫）
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "DIMENSION_MISMATCH"）
	Message string // 错误消息
	Module  string // 模块名称（如 "store", "vector", "rank"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// IsDomainError 检查错误是否为 DomainError 类型（支持 wrap 链）
func IsDomainError(err error) bool {
	return GetDomainError(err) != nil
}

// GetDomainError 获取 DomainError（支持 wrap 链），如果不是则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// 错误代码常量
const (
	// 通用错误代码
	ErrorCodeNotFound          = "NOT_FOUND"          // 资源不存在
	ErrorCodeNotSupported      = "NOT_SUPPORTED"      // 操作不支持
	ErrorCodeUnavailable       = "UNAVAILABLE"        // 上游服务不可用
	ErrorCodeInvalidInput      = "INVALID_INPUT"      // 输入无效
	ErrorCodeInternalError     = "INTERNAL_ERROR"     // 内部错误（含 NaN/Inf 分数守卫）
	ErrorCodeDimensionMismatch = "DIMENSION_MISMATCH" // 向量维度不一致
)

// 模块名称常量
const (
	ModuleStore   = "store"   // 存储模块
	ModuleVector  = "vector"  // 向量模块
	ModuleRank    = "rank"    // 排序模块
	ModuleProfile = "profile" // 画像模块
	ModuleService = "service" // 服务模块
)

// 通用错误检查函数

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeNotFound
	}
	return false
}

// IsNotSupported 检查错误是否为 NOT_SUPPORTED
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeNotSupported
	}
	return false
}

// IsUnavailable 检查错误是否为 UNAVAILABLE
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeUnavailable
	}
	return false
}

// IsInvalidInput 检查错误是否为 INVALID_INPUT
func IsInvalidInput(err error) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeInvalidInput
	}
	return false
}

// IsDimensionMismatch 检查错误是否为向量维度不一致。
// 维度不一致属于编程/数据错误，必须上抛，绝不静默处理。
func IsDimensionMismatch(err error) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeDimensionMismatch
	}
	return false
}
