package deferred

import (
	"encoding/json"
	"errors"

	"gopkg.in/yaml.v3"
)

// SerialForm is the persisted form of a Callable. Only the source is kept,
// the executable is derived from it when deserializing.
type SerialForm struct {
	Source string `json:"source" yaml:"source"`
}

// Serialize returns the serial form of c.
func (c *Callable) Serialize() SerialForm {
	return SerialForm{Source: c.Source()}
}

// Deserialize compiles the source of form and returns the resulting
// Callable, exactly as New does.
func Deserialize(form SerialForm, opts ...Option) (*Callable, error) {
	return New(form.Source, opts...)
}

// Decode decodes data with the named codec and deserializes the result.
func Decode(codecName string, data []byte, opts ...Option) (*Callable, error) {
	codec, err := LookupCodec(codecName)
	if err != nil {
		return nil, err
	}
	form, err := codec.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return Deserialize(form, opts...)
}

// Encode serializes c and encodes the result with the named codec.
func (c *Callable) Encode(codecName string) ([]byte, error) {
	codec, err := LookupCodec(codecName)
	if err != nil {
		return nil, err
	}
	return codec.Marshal(c.Serialize())
}

// MarshalJSON implements json.Marshaler.
func (c *Callable) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Serialize())
}

// UnmarshalJSON implements json.Unmarshaler. The source is compiled as in
// SetSource.
func (c *Callable) UnmarshalJSON(b []byte) error {
	form, err := jsonCodec{}.Unmarshal(b)
	if err != nil {
		return err
	}
	_, err = c.SetSource(form.Source)
	return err
}

// MarshalYAML implements yaml.Marshaler.
func (c *Callable) MarshalYAML() (any, error) {
	return c.Serialize(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler. The source is compiled as in
// SetSource.
func (c *Callable) UnmarshalYAML(value *yaml.Node) error {
	var raw rawForm
	if err := value.Decode(&raw); err != nil {
		return err
	}
	form, err := raw.form()
	if err != nil {
		return err
	}
	_, err = c.SetSource(form.Source)
	return err
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (c *Callable) MarshalBinary() ([]byte, error) {
	return binaryCodec{}.Marshal(c.Serialize())
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler. The source is
// compiled as in SetSource.
func (c *Callable) UnmarshalBinary(b []byte) error {
	form, err := binaryCodec{}.Unmarshal(b)
	if err != nil {
		return err
	}
	_, err = c.SetSource(form.Source)
	return err
}

// MarshalText implements encoding.TextMarshaler, the text is the source.
func (c *Callable) MarshalText() ([]byte, error) {
	return []byte(c.Source()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler, the text is the source
// and it is compiled as in SetSource.
func (c *Callable) UnmarshalText(b []byte) error {
	_, err := c.SetSource(string(b))
	return err
}

// rawForm distinguishes a missing source from an empty one.
type rawForm struct {
	Source *string `json:"source" yaml:"source"`
}

var errMissingSource = errors.New("missing source field")

func (r rawForm) form() (SerialForm, error) {
	if r.Source == nil {
		return SerialForm{}, errMissingSource
	}
	return SerialForm{Source: *r.Source}, nil
}
