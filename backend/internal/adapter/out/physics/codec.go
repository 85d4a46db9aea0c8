package physics

import (
	"encoding/json"
)

// jsonCodec кодек gRPC поверх JSON. Сообщения солвера - обычные структуры,
// сгенерированный protobuf не нужен.
type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error) { return json.Marshal(v) }

func (jsonCodec) Unmarshal(data []byte, v interface{}) error { return json.Unmarshal(data, v) }

func (jsonCodec) Name() string { return "json" }
