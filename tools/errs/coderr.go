package errs

import (
	"errors"
	"strconv"
	"strings"

	pkgerrors "github.com/pkg/errors"
)

var DefaultCodeRelation = newCodeRelation()

func NewCodeError(code int, msg string) CodeError {
	return CodeError{
		Code: code,
		Msg:  msg,
	}
}

type CodeError struct {
	Code   int    `json:"code"`
	Msg    string `json:"msg"`
	Detail string `json:"detail,omitempty"`
}

func (e *CodeError) Wrap() error {
	return pkgerrors.WithStack(e.clone())
}

func (e *CodeError) clone() *CodeError {
	return &CodeError{
		Code:   e.Code,
		Msg:    e.Msg,
		Detail: e.Detail,
	}
}

func (e *CodeError) WrapMsg(msg string, kv ...any) error {
	retErr := e.clone()
	if msg != "" || len(kv) > 0 {
		detail := toString(msg, kv)
		if retErr.Detail == "" {
			retErr.Detail = detail
		} else {
			retErr.Detail += ", " + detail
		}
	}
	return pkgerrors.WithStack(retErr)
}

// WrapErr 以 e 的 code 包装一个底层错误，errors.Is/As 可以同时命中两者
func (e *CodeError) WrapErr(cause error, msg string, kv ...any) error {
	if cause == nil {
		return e.WrapMsg(msg, kv...)
	}
	retErr := e.clone()
	detail := toString(msg, kv)
	if detail != "" {
		retErr.Detail = detail
	}
	return pkgerrors.WithStack(&causeError{code: retErr, cause: cause})
}

// Is 判断 err 链上是否存在同 code（或子 code）的 CodeError
func (e *CodeError) Is(err error) bool {
	var codeErr *CodeError
	ok := errors.As(err, &codeErr)
	if !ok {
		if err == nil && e == nil {
			return true
		}
		return false
	}
	if e == nil {
		return false
	}
	code := codeErr.Code
	if e.Code == code {
		return true
	}
	return DefaultCodeRelation.Is(e.Code, code)
}

const initialCapacity = 3

func (e *CodeError) Error() string {
	v := make([]string, 0, initialCapacity)
	v = append(v, strconv.Itoa(e.Code), e.Msg)

	if e.Detail != "" {
		v = append(v, e.Detail)
	}

	return strings.Join(v, " ")
}

type causeError struct {
	code  *CodeError
	cause error
}

func (c *causeError) Error() string { return c.code.Error() + ": " + c.cause.Error() }

func (c *causeError) Unwrap() []error { return []error{c.code, c.cause} }

// Code 取出 err 链上的第一个 CodeError 的 code，没有返回 0
func Code(err error) int {
	var codeErr *CodeError
	if errors.As(err, &codeErr) {
		return codeErr.Code
	}
	return 0
}

func WrapMsg(err error, msg string, kv ...any) error {
	if err == nil {
		return nil
	}
	return pkgerrors.Wrap(err, toString(msg, kv))
}

type CodeRelation interface {
	Add(codes ...int) error
	Is(parent, child int) bool
}

func newCodeRelation() CodeRelation {
	return &codeRelation{m: make(map[int]map[int]struct{})}
}

type codeRelation struct {
	m map[int]map[int]struct{}
}

const minimumCodesLength = 2

func (r *codeRelation) Add(codes ...int) error {
	if len(codes) < minimumCodesLength {
		return New("codes length must be greater than 2", "codes", codes).Wrap()
	}
	for i := 1; i < len(codes); i++ {
		parent := codes[i-1]
		s, ok := r.m[parent]
		if !ok {
			s = make(map[int]struct{})
			r.m[parent] = s
		}
		for _, code := range codes[i:] {
			s[code] = struct{}{}
		}
	}
	return nil
}

func (r *codeRelation) Is(parent, child int) bool {
	if parent == child {
		return true
	}
	s, ok := r.m[parent]
	if !ok {
		return false
	}
	_, ok = s[child]
	return ok
}
