// Package rpccodec installs a JSON-based grpc-go encoding.Codec in place
// of the default protobuf codec, so internal/rpcproto's hand-authored
// plain-struct messages can ride the real grpc-go transport (HTTP/2
// framing, streaming, status codes) without a protoc/buf toolchain. The
// query-engine binary (cmd/queryengine) forces it on the server via
// grpc.ForceServerCodec, and internal/rpcclient selects it by name via
// grpc.CallContentSubtype.
package rpccodec

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// Name is the content-subtype every client call and server registration
// uses to select this codec.
const Name = "json"

type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return Name
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// Codec returns the shared codec instance, for callers that force it
// explicitly (grpc.ForceServerCodec on the server, grpc.CallContentSubtype
// on the client) rather than relying on content-type negotiation alone.
func Codec() encoding.Codec {
	return jsonCodec{}
}
