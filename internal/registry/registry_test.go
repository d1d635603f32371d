package registry

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := New()
	require.NoError(t, err)

	var tick int64
	r.now = func() time.Time {
		tick++
		return time.Unix(tick, 0)
	}
	return r
}

func TestRegister(t *testing.T) {
	r := newTestRegistry(t)

	id1, err := r.Register("srcfn", "1.0")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id1)

	e, err := r.Lookup("srcfn")
	require.NoError(t, err)
	assert.Equal(t, "1.0", e.Version)
	assert.Equal(t, id1, e.UUID())
	assert.Equal(t, time.Unix(1, 0), e.Registered)

	// same version is a no-op
	id2, err := r.Register("srcfn", "1.0")
	require.NoError(t, err)
	assert.Equal(t, id1, id2)
	e, err = r.Lookup("srcfn")
	require.NoError(t, err)
	assert.Equal(t, time.Unix(1, 0), e.Registered)

	// new version keeps the ID
	id3, err := r.Register("srcfn", "1.1")
	require.NoError(t, err)
	assert.Equal(t, id1, id3)
	e, err = r.LookupID(id1)
	require.NoError(t, err)
	assert.Equal(t, "1.1", e.Version)
	assert.Equal(t, time.Unix(2, 0), e.Registered)
}

func TestRegisterInvalid(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.Register("", "1")
	require.Error(t, err)
}

func TestLookupNotFound(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.Lookup("nope")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = r.LookupID(uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestList(t *testing.T) {
	r := newTestRegistry(t)

	entries, err := r.List()
	require.NoError(t, err)
	assert.Empty(t, entries)

	for _, name := range []string{"srcfn/lang", "bytecode", "srcfn"} {
		_, err := r.Register(name, "1")
		require.NoError(t, err)
	}

	entries, err = r.List()
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"bytecode", "srcfn", "srcfn/lang"}, names)
}

func TestEntryIsolation(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.Register("srcfn", "1")
	require.NoError(t, err)

	e, err := r.Lookup("srcfn")
	require.NoError(t, err)
	e.Version = "changed"

	e, err = r.Lookup("srcfn")
	require.NoError(t, err)
	assert.Equal(t, "1", e.Version)
}
