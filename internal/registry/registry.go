// Package registry keeps an in-memory record of the modules known to the
// running srcfn process, along with their version. Registration is best
// effort: callers log and ignore its errors.
package registry

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	memdb "github.com/hashicorp/go-memdb"
)

const (
	table     = "module"
	nameIndex = "id"
	uuidIndex = "uuid"
)

// ErrNotFound is returned by Lookup when no module is registered under the
// requested name.
var ErrNotFound = errors.New("module not registered")

// Entry is a registered module.
type Entry struct {
	ID         string // UUID in its canonical string form
	Name       string
	Version    string
	Registered time.Time
}

// UUID returns the parsed ID of the entry.
func (e *Entry) UUID() uuid.UUID {
	return uuid.MustParse(e.ID)
}

func (e *Entry) String() string {
	return fmt.Sprintf("%s %s %s", e.Name, e.Version, e.ID)
}

// Registry is a module registry backed by an in-memory database. It is safe
// for concurrent use.
type Registry struct {
	db  *memdb.MemDB
	now func() time.Time
}

func schema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			table: {
				Name: table,
				Indexes: map[string]*memdb.IndexSchema{
					nameIndex: {
						Name:    nameIndex,
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "Name"},
					},
					uuidIndex: {
						Name:    uuidIndex,
						Unique:  true,
						Indexer: &memdb.UUIDFieldIndex{Field: "ID"},
					},
				},
			},
		},
	}
}

// New returns an empty registry.
func New() (*Registry, error) {
	db, err := memdb.NewMemDB(schema())
	if err != nil {
		return nil, err
	}
	return &Registry{db: db, now: time.Now}, nil
}

// Register records the module name at the given version and returns its
// ID. Registering a known name updates its version and keeps its ID.
func (r *Registry) Register(name, version string) (uuid.UUID, error) {
	if name == "" {
		return uuid.Nil, errors.New("registry: empty module name")
	}

	txn := r.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(table, nameIndex, name)
	if err != nil {
		return uuid.Nil, err
	}

	var entry Entry
	if raw != nil {
		entry = *raw.(*Entry)
		if entry.Version == version {
			return entry.UUID(), nil
		}
		entry.Version = version
	} else {
		id, err := uuid.NewRandom()
		if err != nil {
			return uuid.Nil, err
		}
		entry = Entry{ID: id.String(), Name: name, Version: version}
	}
	entry.Registered = r.now()

	if err := txn.Insert(table, &entry); err != nil {
		return uuid.Nil, err
	}
	txn.Commit()
	return entry.UUID(), nil
}

// Lookup returns the entry registered under name.
func (r *Registry) Lookup(name string) (*Entry, error) {
	return r.first(nameIndex, name)
}

// LookupID returns the entry registered with the given ID.
func (r *Registry) LookupID(id uuid.UUID) (*Entry, error) {
	return r.first(uuidIndex, id.String())
}

func (r *Registry) first(index, key string) (*Entry, error) {
	txn := r.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(table, index, key)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	e := *raw.(*Entry)
	return &e, nil
}

// List returns all registered modules sorted by name.
func (r *Registry) List() ([]*Entry, error) {
	txn := r.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(table, nameIndex)
	if err != nil {
		return nil, err
	}

	var entries []*Entry
	for raw := it.Next(); raw != nil; raw = it.Next() {
		e := *raw.(*Entry)
		entries = append(entries, &e)
	}
	return entries, nil
}
