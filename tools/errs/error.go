package errs

import (
	"fmt"
	"strings"

	pkgerrors "github.com/pkg/errors"
)

// Error 不带 code 的普通错误，可附带 kv 上下文
type Error interface {
	error
	Wrap() error
}

type plainError struct {
	s string
}

func (e *plainError) Error() string { return e.s }

func (e *plainError) Wrap() error { return pkgerrors.WithStack(e) }

func New(s string, kv ...any) Error {
	return &plainError{s: toString(s, kv)}
}

func toString(s string, kv []any) string {
	if len(kv) == 0 {
		return s
	}
	var sb strings.Builder
	sb.WriteString(s)
	for i := 0; i < len(kv); i += 2 {
		if sb.Len() > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(fmt.Sprint(kv[i]))
		sb.WriteString("=")
		if i+1 < len(kv) {
			sb.WriteString(fmt.Sprint(kv[i+1]))
		} else {
			sb.WriteString("MISSING")
		}
	}
	return sb.String()
}
