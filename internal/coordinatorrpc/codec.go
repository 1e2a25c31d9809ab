package coordinatorrpc

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// codecName is the content-subtype clients must select with
// grpc.CallContentSubtype so that grpc-go routes both the request and
// response through jsonCodec instead of the default protobuf codec.
const codecName = "json"

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// jsonCodec implements google.golang.org/grpc/encoding.Codec using
// encoding/json. This repository has no protoc/protoc-gen-go-grpc step
// available, so instead of generated .pb.go message types, the RPC
// messages in messages.go are plain JSON-tagged structs and this codec
// is what puts them on the wire. Registering a named codec is a
// supported grpc-go extension point (see
// google.golang.org/grpc/encoding.RegisterCodec), not a workaround.
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return codecName
}
