package codec

import (
	"gopkg.in/yaml.v3"
)

// YAMLCodec decodes and encodes YAML documents
type YAMLCodec struct{}

// NewYAMLCodec is the Factory for LocatorYAML
func NewYAMLCodec(string) (Codec, error) {
	return YAMLCodec{}, nil
}

func (YAMLCodec) Name() string { return "yaml" }

func (YAMLCodec) Decode(data []byte, _ string) (any, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func (YAMLCodec) Encode(v any, _ string) ([]byte, error) {
	return yaml.Marshal(v)
}
