package pebble

import (
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
)

// KVStore implements db.KVStore on top of a pebble database.
type KVStore struct {
	db *pebble.DB
}

// NewKVStore opens an in-memory pebble instance, used by tests and
// throwaway engines.
func NewKVStore() (*KVStore, error) {
	pdb, err := pebble.Open("", &pebble.Options{FS: vfs.NewMem()})
	if err != nil {
		return nil, err
	}
	return &KVStore{db: pdb}, nil
}

// NewPersistentKVStore opens, or creates, an on-disk pebble database at path.
func NewPersistentKVStore(path string) (*KVStore, error) {
	pdb, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &KVStore{db: pdb}, nil
}

func (p *KVStore) Get(key []byte) ([]byte, error) {
	value, closer, err := p.db.Get(key)
	if err == pebble.ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close() //nolint:errcheck // value already copied out

	result := make([]byte, len(value))
	copy(result, value)
	return result, nil
}

func (p *KVStore) Put(key, value []byte) error {
	return p.db.Set(key, value, pebble.Sync)
}

func (p *KVStore) Delete(key []byte) error {
	return p.db.Delete(key, pebble.Sync)
}

func (p *KVStore) Close() error {
	return p.db.Close()
}
