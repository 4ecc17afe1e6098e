package session

import "encoding/json"

// Codec serializes the session data mapping for durable storage. The format
// must round-trip the full structured-value mapping losslessly; backend
// adapters take a Codec at construction and default to JSONCodec.
type Codec interface {
	Marshal(data map[string]any) ([]byte, error)
	Unmarshal(b []byte) (map[string]any, error)
}

// JSONCodec encodes session data as a JSON object.
type JSONCodec struct{}

func (JSONCodec) Marshal(data map[string]any) ([]byte, error) {
	if data == nil {
		data = map[string]any{}
	}
	return json.Marshal(data)
}

func (JSONCodec) Unmarshal(b []byte) (map[string]any, error) {
	var data map[string]any
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, err
	}
	return data, nil
}
