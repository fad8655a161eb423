package safe

import (
	"fmt"
	"reflect"

	"PPClient/logger"
	"PPClient/tools/errs"

	"go.uber.org/zap"
)

// MustNotNil panics if the given value is nil.
// Useful for enforcing required fields during struct initialization.
func MustNotNil(v any, name string) {
	if v == nil {
		panic(fmt.Sprintf("%s must not be nil", name))
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		if rv.IsNil() {
			panic(fmt.Sprintf("%s must not be nil", name))
		}
	}
}

// DefaultString returns s, or the fallback if s is empty.
func DefaultString(s string, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// Go starts a detached goroutine that recovers from panic,
// so that panics don't crash the entire program. name only shows up in logs.
func Go(name string, f func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("[safe.Go] panic recovered", zap.String("task", name), zap.Error(errs.ErrPanic(r)))
			}
		}()
		f()
	}()
}

// Call runs f in the current goroutine and converts a panic into an error.
func Call(f func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errs.ErrPanic(r)
		}
	}()
	f()
	return nil
}
