package deferred_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mna/srcfn/deferred"
	"github.com/mna/srcfn/lang/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestCodecs(t *testing.T) {
	assert.Equal(t, []string{"binary", "json", "yaml"}, deferred.Codecs())

	src := "|i| i ** 2 # \"quoted\" <html>\n"
	c, err := deferred.New(src)
	require.NoError(t, err)

	for _, name := range deferred.Codecs() {
		t.Run(name, func(t *testing.T) {
			b, err := c.Encode(name)
			require.NoError(t, err)

			c2, err := deferred.Decode(name, b)
			require.NoError(t, err)
			assert.Equal(t, src, c2.Source())

			v, err := c2.Call(context.Background(), types.Int(4))
			require.NoError(t, err)
			assert.Equal(t, types.Int(16), v)
		})
	}
}

func TestCodecFormats(t *testing.T) {
	c, err := deferred.New("|i| i")
	require.NoError(t, err)

	b, err := c.Encode("json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"source": "|i| i"}`, string(b))

	b, err = c.Encode("yaml")
	require.NoError(t, err)
	assert.Equal(t, "source: '|i| i'\n", string(b))

	b, err = c.Encode("binary")
	require.NoError(t, err)
	assert.Equal(t, append([]byte("SRCF\x01\x05"), "|i| i"...), b)
}

func TestCodecErrors(t *testing.T) {
	cases := []struct {
		codec string
		data  string
		err   string
	}{
		{"xml", "", "unknown codec: xml"},
		{"json", "{", "json: "},
		{"json", `{"src": "|i| i"}`, "missing source field"},
		{"yaml", "source: [", "yaml: "},
		{"yaml", "other: 1", "missing source field"},
		{"binary", "", "invalid serial form"},
		{"binary", "SRCF\x02\x00", "unsupported version 2"},
		{"binary", "SRCF\x01\x05|i|", "invalid serial form"},
	}
	for _, c := range cases {
		t.Run(c.codec+" "+c.data, func(t *testing.T) {
			_, err := deferred.Decode(c.codec, []byte(c.data))
			require.Error(t, err)
			assert.ErrorContains(t, err, c.err)
			assert.NotErrorIs(t, err, deferred.ErrCompile)
		})
	}

	// a well-formed serial form with an invalid source is a compile error
	_, err := deferred.Decode("json", []byte(`{"source": "|i| i +"}`))
	assert.ErrorIs(t, err, deferred.ErrCompile)
}

type record struct {
	Name string             `json:"name" yaml:"name"`
	Fn   *deferred.Callable `json:"fn" yaml:"fn"`
}

func TestEmbeddedMarshalers(t *testing.T) {
	ctx := context.Background()
	c, err := deferred.New("|i| i * 10")
	require.NoError(t, err)
	rec := record{Name: "tenfold", Fn: c}

	t.Run("json", func(t *testing.T) {
		b, err := json.Marshal(rec)
		require.NoError(t, err)
		assert.JSONEq(t, `{"name": "tenfold", "fn": {"source": "|i| i * 10"}}`, string(b))

		var got record
		require.NoError(t, json.Unmarshal(b, &got))
		v, err := got.Fn.Call(ctx, types.Int(2))
		require.NoError(t, err)
		assert.Equal(t, types.Int(20), v)
	})

	t.Run("yaml", func(t *testing.T) {
		b, err := yaml.Marshal(rec)
		require.NoError(t, err)

		var got record
		require.NoError(t, yaml.Unmarshal(b, &got))
		assert.Equal(t, c.Source(), got.Fn.Source())
		v, err := got.Fn.Call(ctx, types.Int(3))
		require.NoError(t, err)
		assert.Equal(t, types.Int(30), v)
	})

	t.Run("binary", func(t *testing.T) {
		b, err := c.MarshalBinary()
		require.NoError(t, err)
		var got deferred.Callable
		require.NoError(t, got.UnmarshalBinary(b))
		assert.Equal(t, c.Source(), got.Source())
	})

	t.Run("text", func(t *testing.T) {
		b, err := c.MarshalText()
		require.NoError(t, err)
		assert.Equal(t, "|i| i * 10", string(b))

		var got deferred.Callable
		require.NoError(t, got.UnmarshalText(b))
		assert.Equal(t, c.Source(), got.Source())

		err = got.UnmarshalText([]byte("|i| i +"))
		assert.ErrorIs(t, err, deferred.ErrCompile)
		assert.Equal(t, c.Source(), got.Source())
	})
}
