package codec

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// ProtobufCodec encodes payloads as a google.protobuf.Value message.
// proto.Message values are marshalled as-is.
type ProtobufCodec struct{}

func (c *ProtobufCodec) Encode(v any) ([]byte, error) {
	if msg, ok := v.(proto.Message); ok {
		return proto.Marshal(msg)
	}

	generic, err := toGeneric(v, false)
	if err != nil {
		return nil, err
	}
	value, err := structpb.NewValue(generic)
	if err != nil {
		return nil, fmt.Errorf("convert %T to protobuf value: %w", v, err)
	}
	return proto.Marshal(value)
}

func (c *ProtobufCodec) ContentType() string {
	return MIMEProtobuf
}

func (c *ProtobufCodec) Name() string {
	return "protobuf"
}
