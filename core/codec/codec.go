package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime"
	"strings"
)

var (
	ErrUnsupportedCodec = errors.New("unsupported codec")
)

// Content types understood by Negotiate
const (
	MIMEJSON     = "application/json"
	MIMEProtobuf = "application/x-protobuf"
	MIMEYAML     = "application/yaml"
	MIMEXYAML    = "application/x-yaml"
)

// Codec encodes response payloads
type Codec interface {
	// Encode encodes a value to bytes
	Encode(v any) ([]byte, error)

	// ContentType is the value sent in the Content-Type header
	ContentType() string

	// Name returns the codec name
	Name() string
}

var (
	jsonCodec     Codec = &JSONCodec{}
	protobufCodec Codec = &ProtobufCodec{}
	yamlCodec     Codec = &YAMLCodec{}
)

// ForContentType returns the codec for a media type.
func ForContentType(mediaType string) (Codec, error) {
	switch mediaType {
	case MIMEJSON:
		return jsonCodec, nil
	case MIMEProtobuf:
		return protobufCodec, nil
	case MIMEYAML, MIMEXYAML:
		return yamlCodec, nil
	default:
		return nil, ErrUnsupportedCodec
	}
}

// Negotiate picks a codec from an Accept header. The first listed media type
// with a codec wins; q-values are ignored. Anything unrecognised gets JSON.
func Negotiate(accept string) Codec {
	if accept == "" {
		return jsonCodec
	}
	for _, part := range strings.Split(accept, ",") {
		mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		if c, err := ForContentType(mediaType); err == nil {
			return c
		}
	}
	return jsonCodec
}

// JSONCodec implements JSON encoding
type JSONCodec struct{}

func (c *JSONCodec) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (c *JSONCodec) ContentType() string {
	return MIMEJSON
}

func (c *JSONCodec) Name() string {
	return "json"
}

// toGeneric reduces v to maps, slices and scalars by way of its JSON form,
// so non-JSON codecs see the same field names as JSON clients. With
// useNumber, numbers stay json.Number to keep large integers exact.
func toGeneric(v any, useNumber bool) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	if useNumber {
		dec.UseNumber()
	}
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}
