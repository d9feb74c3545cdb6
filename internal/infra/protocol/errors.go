package protocol

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ProtocolError 签名会话中止时返回的错误
type ProtocolError struct {
	Type      ErrorType
	Message   string
	SessionID string
	Original  error
}

type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	// ErrTypeData 请求字段缺失或非法，包括禁止的路径
	ErrTypeData
	// ErrTypeDeviceState 设备未初始化或不可用
	ErrTypeDeviceState
	// ErrTypeProtocolViolation 宿主响应形态错误
	ErrTypeProtocolViolation
	// ErrTypeBufferOverflow 未知数据超过声明长度
	ErrTypeBufferOverflow
	// ErrTypeUserRejected 用户拒绝确认
	ErrTypeUserRejected
)

func (e *ProtocolError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] %s", e.Type.String(), e.Message))
	if e.SessionID != "" {
		sb.WriteString(fmt.Sprintf(" [session: %s]", e.SessionID))
	}
	if e.Original != nil {
		sb.WriteString(fmt.Sprintf(": %v", e.Original))
	}
	return sb.String()
}

func (e *ProtocolError) Unwrap() error {
	return e.Original
}

// Is 同类型的 *ProtocolError 视为相等，可配合 errors.Is 使用
func (e *ProtocolError) Is(target error) bool {
	t, ok := target.(*ProtocolError)
	if !ok {
		return false
	}
	return t.Type == e.Type && (t.Message == "" || t.Message == e.Message)
}

func (t ErrorType) String() string {
	switch t {
	case ErrTypeData:
		return "DATA"
	case ErrTypeDeviceState:
		return "DEVICE_STATE"
	case ErrTypeProtocolViolation:
		return "PROTOCOL_VIOLATION"
	case ErrTypeBufferOverflow:
		return "BUFFER_OVERFLOW"
	case ErrTypeUserRejected:
		return "USER_REJECTED"
	default:
		return "UNKNOWN"
	}
}

// TypeOf 错误链中第一个 ProtocolError 的类型
func TypeOf(err error) ErrorType {
	var pe *ProtocolError
	if errors.As(err, &pe) {
		return pe.Type
	}
	return ErrTypeUnknown
}

// IsType err 是否携带类型为 t 的 ProtocolError
func IsType(err error, t ErrorType) bool {
	return err != nil && TypeOf(err) == t
}

// NewDataError creates a new data error
func NewDataError(sessionID string, msg string, err error) *ProtocolError {
	return &ProtocolError{
		Type:      ErrTypeData,
		Message:   msg,
		SessionID: sessionID,
		Original:  err,
	}
}

// NewDeviceStateError creates a new device state error
func NewDeviceStateError(sessionID string, msg string) *ProtocolError {
	return &ProtocolError{
		Type:      ErrTypeDeviceState,
		Message:   msg,
		SessionID: sessionID,
	}
}

// NewProtocolViolation creates a new protocol violation error
func NewProtocolViolation(sessionID string, msg string, err error) *ProtocolError {
	return &ProtocolError{
		Type:      ErrTypeProtocolViolation,
		Message:   msg,
		SessionID: sessionID,
		Original:  err,
	}
}

// NewBufferOverflow creates a new buffer overflow error
func NewBufferOverflow(sessionID string, declared uint32, received uint64) *ProtocolError {
	return &ProtocolError{
		Type:      ErrTypeBufferOverflow,
		Message:   fmt.Sprintf("received %d bytes of a %d byte payload", received, declared),
		SessionID: sessionID,
	}
}

// NewUserRejected creates a new user rejection error
func NewUserRejected(sessionID string, what string) *ProtocolError {
	return &ProtocolError{
		Type:      ErrTypeUserRejected,
		Message:   what + " rejected by user",
		SessionID: sessionID,
	}
}
