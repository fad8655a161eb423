package socket

import (
	"bytes"
	"encoding/json"

	"PPClient/tools/errs"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// 帧格式：{"event": "<name>", "data": <任意 JSON>}
const (
	fieldEvent = "event"
	fieldData  = "data"
)

// Frame 解码后的入站帧，Data 为 JSON 通用值（map[string]any / []any / 标量 / nil）
type Frame struct {
	Event string
	Data  any
}

var unmarshaller = protojson.UnmarshalOptions{DiscardUnknown: true}

var marshaller = protojson.MarshalOptions{
	Indent:          "",
	EmitUnpopulated: false,
}

// EncodeFrame 把事件名和负载打成一帧文本
func EncodeFrame(event string, data any) ([]byte, error) {
	if event == "" {
		return nil, errs.ErrProtocol.WrapMsg("empty event name")
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, errs.ErrProtocol.WrapErr(err, "marshal payload", "event", event)
	}
	v := &structpb.Value{}
	if err := unmarshaller.Unmarshal(raw, v); err != nil {
		return nil, errs.ErrProtocol.WrapErr(err, "payload to struct value", "event", event)
	}
	st := &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldEvent: structpb.NewStringValue(event),
		fieldData:  v,
	}}
	return marshaller.Marshal(st)
}

// ParseFrame 解析一帧；缺 event 字段视为协议错误。
// 非法 UTF-8 字节替换为 U+FFFD，整帧照常投递
func ParseFrame(raw []byte) (*Frame, error) {
	raw = bytes.ToValidUTF8(raw, []byte("\uFFFD"))
	st := &structpb.Struct{}
	if err := unmarshaller.Unmarshal(raw, st); err != nil {
		return nil, errs.ErrProtocol.WrapErr(err, "unmarshal frame")
	}
	event := st.GetFields()[fieldEvent].GetStringValue()
	if event == "" {
		return nil, errs.ErrProtocol.WrapMsg("frame without event name")
	}
	return &Frame{
		Event: event,
		Data:  st.GetFields()[fieldData].AsInterface(),
	}, nil
}
