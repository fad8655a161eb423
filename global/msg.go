package global

import "PPClient/tools/errs"

// Msg 控制接口统一回包
type Msg struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data any    `json:"data,omitempty"`
}

func Sucess(data any) *Msg {
	return &Msg{
		Code: 200,
		Msg:  "",
		Data: data,
	}
}

// Fail err 链上有 CodeError 时用它的 code，否则归为 ErrInternalServer
func Fail(err error) *Msg {
	if errs.Code(err) == 0 {
		err = errs.ErrInternalServer.WrapErr(err, "")
	}
	return &Msg{Code: errs.Code(err), Msg: err.Error()}
}
