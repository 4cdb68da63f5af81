package server

import (
	"encoding/json"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/tidwall/gjson"
	"github.com/vmihailenco/msgpack/v5"

	gerrors "github.com/vango-dev/gousse/internal/errors"
)

// Inbound frame types.
const (
	FrameDispatch = "dispatch"
	FrameEmit     = "emit"
	FrameInput    = "input"
	FrameNavigate = "navigate"
)

// Outbound frame types.
const (
	FrameHello  = "hello"
	FrameHTML   = "html"
	FrameReload = "reload"
	FrameError  = "error"
)

// Frame is one live message in either direction.
type Frame struct {
	Type string `json:"type" msgpack:"type"`

	// Event is the DOM event type for dispatch frames and the emitter
	// name for emit frames.
	Event string `json:"event,omitempty" msgpack:"event,omitempty"`

	// Target selects the node with a CSS selector. Path is used when
	// Target is empty: element child indexes starting at the body. With
	// neither, the body is the target.
	Target string `json:"target,omitempty" msgpack:"target,omitempty"`
	Path   []int  `json:"path,omitempty" msgpack:"path,omitempty"`

	Data  any    `json:"data,omitempty" msgpack:"data,omitempty"`
	Value any    `json:"value,omitempty" msgpack:"value,omitempty"`
	URL   string `json:"url,omitempty" msgpack:"url,omitempty"`

	HTML    string `json:"html,omitempty" msgpack:"html,omitempty"`
	Session string `json:"session,omitempty" msgpack:"session,omitempty"`
	Error   string `json:"error,omitempty" msgpack:"error,omitempty"`
}

// Validate checks an inbound frame.
func (f *Frame) Validate() error {
	switch f.Type {
	case FrameDispatch, FrameEmit:
		if f.Event == "" {
			return gerrors.New("G060").WithDetailf("%s frame without event", f.Type)
		}
	case FrameInput:
	case FrameNavigate:
		if f.URL == "" {
			return gerrors.New("G060").WithDetail("navigate frame without url")
		}
	case "":
		return gerrors.New("G060").WithDetail("missing type")
	default:
		return gerrors.New("G061").WithDetail(f.Type)
	}
	return nil
}

// Codec encodes live frames.
type Codec interface {
	Name() string

	// MessageType is the websocket message type frames are sent as.
	MessageType() int

	Encode(f Frame) ([]byte, error)
	Decode(data []byte) (Frame, error)
}

// CodecFor returns the codec named by the codec query parameter. Empty
// and unknown names select JSON.
func CodecFor(name string) Codec {
	if strings.EqualFold(name, "msgpack") {
		return MsgpackCodec{}
	}
	return JSONCodec{}
}

// JSONCodec sends frames as text messages.
type JSONCodec struct{}

func (JSONCodec) Name() string     { return "json" }
func (JSONCodec) MessageType() int { return websocket.TextMessage }

func (JSONCodec) Encode(f Frame) ([]byte, error) {
	return json.Marshal(f)
}

func (JSONCodec) Decode(data []byte) (Frame, error) {
	var f Frame
	if !gjson.ValidBytes(data) {
		return f, gerrors.New("G060").WithDetail("invalid JSON")
	}
	if !gjson.GetBytes(data, "type").Exists() {
		return f, gerrors.New("G060").WithDetail("missing type")
	}
	if err := json.Unmarshal(data, &f); err != nil {
		return f, gerrors.New("G060").Wrap(err)
	}
	return f, nil
}

// MsgpackCodec sends frames as binary messages.
type MsgpackCodec struct{}

func (MsgpackCodec) Name() string     { return "msgpack" }
func (MsgpackCodec) MessageType() int { return websocket.BinaryMessage }

func (MsgpackCodec) Encode(f Frame) ([]byte, error) {
	return msgpack.Marshal(&f)
}

func (MsgpackCodec) Decode(data []byte) (Frame, error) {
	var f Frame
	if err := msgpack.Unmarshal(data, &f); err != nil {
		return f, gerrors.New("G060").Wrap(err)
	}
	return f, nil
}
