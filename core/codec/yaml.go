package codec

import (
	"gopkg.in/yaml.v3"
)

// YAMLCodec implements YAML encoding
type YAMLCodec struct{}

func (c *YAMLCodec) Encode(v any) ([]byte, error) {
	generic, err := toGeneric(v, true)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(generic)
}

func (c *YAMLCodec) ContentType() string {
	return MIMEYAML
}

func (c *YAMLCodec) Name() string {
	return "yaml"
}
