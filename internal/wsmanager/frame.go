package wsmanager

import "encoding/json"

// ClientFrame is a client→server frame, per spec.md §6: subscribe,
// unsubscribe, authenticate, or ping.
type ClientFrame struct {
	Type     string   `json:"type"`
	Channels []string `json:"channels,omitempty"`
	Token    string   `json:"token,omitempty"`
}

// ServerFrame is a server→client frame: event, error, or pong.
type ServerFrame struct {
	Type    string `json:"type"`
	Channel string `json:"channel,omitempty"`
	Data    any    `json:"data,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

func encodeFrame(f ServerFrame) []byte {
	data, err := json.Marshal(f)
	if err != nil {
		data, _ = json.Marshal(ServerFrame{Type: "error", Code: "encode_failed", Message: err.Error()})
	}
	return data
}

// MessagePayload is the wire shape for one channel event's data field,
// per spec.md §6: text, json, or binary (base64-encoded by
// encoding/json's default []byte handling).
type MessagePayload struct {
	Type   string          `json:"type"`
	Data   json.RawMessage `json:"data,omitempty"`
	Binary []byte          `json:"-"`
}

// TextPayload builds a {"type":"text","data":"…"} payload.
func TextPayload(text string) MessagePayload {
	data, _ := json.Marshal(text)
	return MessagePayload{Type: "text", Data: data}
}

// JSONPayload builds a {"type":"json","data":<any>} payload.
func JSONPayload(v any) (MessagePayload, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return MessagePayload{}, err
	}
	return MessagePayload{Type: "json", Data: data}, nil
}

// BinaryPayload builds a {"type":"binary","data":"<base64>"} payload;
// json.Marshal base64-encodes []byte fields automatically.
func BinaryPayload(raw []byte) MessagePayload {
	data, _ := json.Marshal(raw)
	return MessagePayload{Type: "binary", Data: data, Binary: raw}
}
