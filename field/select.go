package field

import (
	"encoding/json"
)

// Option is a select choice. Key is shown to user, Value is stored.
type Option struct {
	Key   string `yaml:"key" json:"key"`
	Value string `yaml:"value" json:"value"`
}

type Select struct {
	Base
	Options      []Option
	DefaultValue string
}

func newSelect(spec *Spec, _ *Builder) (Definition, error) {
	return &Select{Base: spec.base(), Options: spec.Options, DefaultValue: spec.DefaultValue}, nil
}

func (s *Select) FieldType() string {
	return TypeSelect
}

func (s *Select) Decode(raw json.RawMessage) (any, error) {
	return decodeAs[string](raw)
}

func (s *Select) Encode(value any) (json.RawMessage, error) {
	return encodeAs[string](TypeSelect, value)
}

func (s *Select) IsEmpty(value any) bool {
	v, ok := value.(string)
	return !ok || len(v) < 1
}

func (s *Select) Validate(value any, omitMandatory bool) error {
	if value != nil {
		if _, ok := value.(string); !ok {
			return s.invalid(value, "unexpected type")
		}
	}
	return s.checkMandatory(s.IsEmpty(value), omitMandatory)
}

// Default returns value new elements get.
func (s *Select) Default() any {
	if len(s.DefaultValue) == 0 {
		return nil
	}
	return s.DefaultValue
}

// OptionKey returns display key for stored value.
func (s *Select) OptionKey(value string) (string, bool) {
	for _, o := range s.Options {
		if o.Value == value {
			return o.Key, true
		}
	}
	return "", false
}
