package errs

import (
	"errors"
	"fmt"
	"strings"
)

const ErrCode_Unknown = 1

type CodeError interface {
	error
	Code() int32
	Print(extras ...string) CodeError
	Printf(format string, args ...any) CodeError
	Wrap(cause error) CodeError
	Is(error) bool
}

func CreateCodeError(code int32, desc string) CodeError {
	return &codeError{
		Errno: code, //  错误码数字
		Desc:  desc, //  错误描述字符串, 如：TICK_RANGE、BACKEND_INVALID
	}
}

// WrapError 把任意error转换为CodeError, 非CodeError的归为Unknown
func WrapError(err error) CodeError {
	if err == nil {
		return nil
	}
	var x *codeError
	if errors.As(err, &x) {
		return x
	}
	return &codeError{Errno: ErrCode_Unknown, Desc: err.Error(), cause: err}
}

type codeError struct {
	Errno int32
	Desc  string
	cause error
}

func (e *codeError) Code() int32 {
	return e.Errno
}

func (e *codeError) Error() string {
	if e.cause != nil && e.cause.Error() != e.Desc {
		return e.Desc + ": " + e.cause.Error()
	}
	return e.Desc
}

func (e *codeError) String() string {
	return fmt.Sprintf("errno: %d, desc: %s", e.Errno, e.Error())
}

func (e *codeError) Unwrap() error {
	return e.cause
}

func (e *codeError) Print(extras ...string) CodeError {
	if len(extras) == 0 {
		return e
	}
	ns := len(e.Desc) + len(extras)
	for _, extra := range extras {
		ns += len(extra)
	}
	builder := strings.Builder{}
	builder.Grow(ns)
	builder.WriteString(e.Desc)
	for _, extra := range extras {
		builder.WriteByte(',')
		builder.WriteString(extra)
	}
	return &codeError{
		Errno: e.Errno,
		Desc:  builder.String(),
		cause: e.cause,
	}
}

func (e *codeError) Printf(format string, args ...any) CodeError {
	if len(format) == 0 {
		return e
	}
	return &codeError{
		Errno: e.Errno,
		Desc:  fmt.Sprintf(e.Desc+","+format, args...),
		cause: e.cause,
	}
}

// Wrap 保留错误码, 附带底层错误, errors.Unwrap可取回cause
func (e *codeError) Wrap(cause error) CodeError {
	if cause == nil {
		return e
	}
	return &codeError{
		Errno: e.Errno,
		Desc:  e.Desc,
		cause: cause,
	}
}

func (e *codeError) Is(target error) bool {
	if x, ok := target.(*codeError); ok {
		return x.Errno == e.Errno
	}
	return false
}
