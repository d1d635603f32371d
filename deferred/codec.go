package deferred

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// A Codec encodes and decodes the serial form of a Callable.
type Codec interface {
	Name() string
	Marshal(SerialForm) ([]byte, error)
	Unmarshal([]byte) (SerialForm, error)
}

var (
	codecsMu sync.RWMutex
	codecs   = map[string]Codec{
		"json":   jsonCodec{},
		"yaml":   yamlCodec{},
		"binary": binaryCodec{},
	}
)

// RegisterCodec makes a codec available by its name. It panics if c is nil or
// if a codec is already registered with that name.
func RegisterCodec(c Codec) {
	codecsMu.Lock()
	defer codecsMu.Unlock()

	if c == nil {
		panic("deferred: RegisterCodec codec is nil")
	}
	if _, dup := codecs[c.Name()]; dup {
		panic("deferred: RegisterCodec called twice for codec " + c.Name())
	}
	codecs[c.Name()] = c
}

// LookupCodec returns the codec registered with name.
func LookupCodec(name string) (Codec, error) {
	codecsMu.RLock()
	defer codecsMu.RUnlock()

	c, ok := codecs[name]
	if !ok {
		return nil, fmt.Errorf("unknown codec: %s", name)
	}
	return c, nil
}

// Codecs returns the sorted names of the registered codecs.
func Codecs() []string {
	codecsMu.RLock()
	defer codecsMu.RUnlock()

	names := make([]string, 0, len(codecs))
	for name := range codecs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(f SerialForm) ([]byte, error) { return json.Marshal(f) }

func (jsonCodec) Unmarshal(b []byte) (SerialForm, error) {
	var raw rawForm
	if err := json.Unmarshal(b, &raw); err != nil {
		return SerialForm{}, fmt.Errorf("json: %w", err)
	}
	return raw.form()
}

type yamlCodec struct{}

func (yamlCodec) Name() string { return "yaml" }

func (yamlCodec) Marshal(f SerialForm) ([]byte, error) { return yaml.Marshal(f) }

func (yamlCodec) Unmarshal(b []byte) (SerialForm, error) {
	var raw rawForm
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return SerialForm{}, fmt.Errorf("yaml: %w", err)
	}
	return raw.form()
}

// The binary form is the magic "SRCF", a version byte, the uvarint length of
// the source and the source bytes.
var binaryMagic = []byte("SRCF")

const binaryVersion = 1

type binaryCodec struct{}

func (binaryCodec) Name() string { return "binary" }

func (binaryCodec) Marshal(f SerialForm) ([]byte, error) {
	b := make([]byte, 0, len(binaryMagic)+1+binary.MaxVarintLen64+len(f.Source))
	b = append(b, binaryMagic...)
	b = append(b, binaryVersion)
	b = binary.AppendUvarint(b, uint64(len(f.Source)))
	b = append(b, f.Source...)
	return b, nil
}

var errInvalidBinary = errors.New("binary: invalid serial form")

func (binaryCodec) Unmarshal(b []byte) (SerialForm, error) {
	if !bytes.HasPrefix(b, binaryMagic) {
		return SerialForm{}, errInvalidBinary
	}
	b = b[len(binaryMagic):]
	if len(b) == 0 {
		return SerialForm{}, errInvalidBinary
	}
	if v := b[0]; v != binaryVersion {
		return SerialForm{}, fmt.Errorf("binary: unsupported version %d", v)
	}
	b = b[1:]

	n, sz := binary.Uvarint(b)
	if sz <= 0 || uint64(len(b)-sz) != n {
		return SerialForm{}, errInvalidBinary
	}
	return SerialForm{Source: string(b[sz:])}, nil
}
