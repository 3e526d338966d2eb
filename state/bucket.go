package state

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"tokenvault/storage"
)

// Bucket is a prefixed table of RLP-encoded records over a key-value
// database. Raw keys are prefix||logicalKey, so iterating the prefix yields
// records in ascending logical-key order — the order the listing operations
// expose.
type Bucket struct {
	db     storage.Database
	prefix []byte
}

// NewBucket creates a bucket under the given prefix. Prefixes must be unique
// per logical table and must not be a prefix of one another; the suite uses
// a trailing '/' separator to guarantee that.
func NewBucket(db storage.Database, prefix string) *Bucket {
	return &Bucket{db: db, prefix: []byte(prefix)}
}

func (b *Bucket) rawKey(key []byte) []byte {
	buf := make([]byte, len(b.prefix)+len(key))
	copy(buf, b.prefix)
	copy(buf[len(b.prefix):], key)
	return buf
}

// Set encodes record with RLP and stores it under key.
func (b *Bucket) Set(key []byte, record interface{}) error {
	encoded, err := rlp.EncodeToBytes(record)
	if err != nil {
		return fmt.Errorf("state: encode record: %w", err)
	}
	return b.db.Put(b.rawKey(key), encoded)
}

// Get decodes the record stored under key into out. The boolean reports
// whether the key was present.
func (b *Bucket) Get(key []byte, out interface{}) (bool, error) {
	data, ok, err := b.db.Get(b.rawKey(key))
	if err != nil || !ok {
		return false, err
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, fmt.Errorf("state: decode record: %w", err)
	}
	return true, nil
}

// Has reports whether a record exists under key.
func (b *Bucket) Has(key []byte) (bool, error) {
	_, ok, err := b.db.Get(b.rawKey(key))
	return ok, err
}

// Delete removes the record stored under key.
func (b *Bucket) Delete(key []byte) error {
	return b.db.Delete(b.rawKey(key))
}

// Iterate walks every record in ascending logical-key order, invoking fn
// with the logical key and raw encoded value. Returning stop=true ends the
// walk early.
func (b *Bucket) Iterate(fn func(key, value []byte) (stop bool, err error)) error {
	it := b.db.NewIterator(b.prefix)
	defer it.Release()
	for it.Next() {
		key := bytes.TrimPrefix(it.Key(), b.prefix)
		stop, err := fn(key, it.Value())
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
	return nil
}

// Keys returns up to limit logical keys strictly greater than startAfter in
// ascending order. A nil startAfter starts from the beginning; limit <= 0
// means no cap.
func (b *Bucket) Keys(startAfter []byte, limit int) ([][]byte, error) {
	var keys [][]byte
	err := b.Iterate(func(key, _ []byte) (bool, error) {
		if startAfter != nil && bytes.Compare(key, startAfter) <= 0 {
			return false, nil
		}
		keys = append(keys, append([]byte(nil), key...))
		return limit > 0 && len(keys) >= limit, nil
	})
	return keys, err
}

// Singleton is a single versionless RLP-encoded slot, used for config and
// supply records.
type Singleton struct {
	db  storage.Database
	key []byte
}

// NewSingleton creates a singleton slot under the given key.
func NewSingleton(db storage.Database, key string) *Singleton {
	return &Singleton{db: db, key: []byte(key)}
}

// Set encodes record with RLP and stores it.
func (s *Singleton) Set(record interface{}) error {
	encoded, err := rlp.EncodeToBytes(record)
	if err != nil {
		return fmt.Errorf("state: encode singleton: %w", err)
	}
	return s.db.Put(s.key, encoded)
}

// Get decodes the slot into out, reporting presence.
func (s *Singleton) Get(out interface{}) (bool, error) {
	data, ok, err := s.db.Get(s.key)
	if err != nil || !ok {
		return false, err
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, fmt.Errorf("state: decode singleton: %w", err)
	}
	return true, nil
}
