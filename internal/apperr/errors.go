package apperr

import (
	"errors"

	goerrors "github.com/go-errors/errors"
)

// Kind 标识错误类别，API 层据此选择状态码。
type Kind string

const (
	KindInvalidInput Kind = "invalid_input"
	KindNotFound     Kind = "not_found"
	KindUnauthorized Kind = "unauthorized"
	KindUnavailable  Kind = "unavailable"
	KindInternal     Kind = "internal"
)

// Error 是领域层返回的带类别错误，Message 面向用户展示。
type Error struct {
	Kind    Kind
	Message string
	Err     error
	Stack   []byte
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New 创建带调用栈的错误。
func New(kind Kind, message string, err error) *Error {
	var stack []byte
	switch {
	case err == nil:
		stack = goerrors.New(message).Stack()
	default:
		var ge *goerrors.Error
		if errors.As(err, &ge) {
			stack = ge.Stack()
		} else {
			stack = goerrors.Wrap(err, 2).Stack()
		}
	}
	return &Error{Kind: kind, Message: message, Err: err, Stack: stack}
}

func InvalidInput(message string, err error) *Error {
	return New(KindInvalidInput, message, err)
}

func NotFound(message string, err error) *Error {
	return New(KindNotFound, message, err)
}

func Unauthorized(message string, err error) *Error {
	return New(KindUnauthorized, message, err)
}

func Unavailable(message string, err error) *Error {
	return New(KindUnavailable, message, err)
}

func Internal(message string, err error) *Error {
	return New(KindInternal, message, err)
}

// KindOf 返回错误链中第一个 *Error 的类别，未分类的错误视为 internal。
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is 判断错误是否属于指定类别。
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// MessageOf 返回可以直接展示给用户的文本。
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
