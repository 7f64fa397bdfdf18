package index

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"go.etcd.io/bbolt"
)

var (
	bucketMeta    = []byte("meta")
	bucketVectors = []byte("vectors")

	keyDimension   = []byte("dimension")
	keyCount       = []byte("count")
	keyFingerprint = []byte("fingerprint")
)

var ErrCorrupt = errors.New("index file is corrupt")

type storedVector struct {
	ID     int       `json:"id"`
	Vector []float32 `json:"v"`
}

// Save writes the index to a new bbolt file at path. An existing file at
// path is replaced. fingerprint names the record set the vectors belong to
// and is handed back by Load through FlatL2.Fingerprint.
func Save(path string, x *FlatL2, fingerprint string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove previous index file: %w", err)
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return fmt.Errorf("failed to open index file: %w", err)
	}
	defer db.Close()

	return db.Update(func(tx *bbolt.Tx) error {
		meta, err := tx.CreateBucket(bucketMeta)
		if err != nil {
			return err
		}
		if err := meta.Put(keyDimension, encodeUint(uint64(x.dim))); err != nil {
			return err
		}
		if err := meta.Put(keyCount, encodeUint(uint64(x.Len()))); err != nil {
			return err
		}
		if fingerprint != "" {
			if err := meta.Put(keyFingerprint, []byte(fingerprint)); err != nil {
				return err
			}
		}

		vecs, err := tx.CreateBucket(bucketVectors)
		if err != nil {
			return err
		}
		for i := range x.vectors {
			data, err := json.Marshal(storedVector{ID: x.ids[i], Vector: x.vectors[i]})
			if err != nil {
				return err
			}
			if err := vecs.Put(encodeUint(uint64(i)), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// Load reads an index file written by Save. The file is opened read-only and
// closed before returning; the vectors are served from memory.
func Load(path string) (*FlatL2, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("index file %s: %w", path, err)
	}

	db, err := bbolt.Open(path, 0o400, &bbolt.Options{ReadOnly: true, Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open index file: %w", err)
	}
	defer db.Close()

	var x *FlatL2
	err = db.View(func(tx *bbolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		vecs := tx.Bucket(bucketVectors)
		if meta == nil || vecs == nil {
			return fmt.Errorf("%w: missing buckets", ErrCorrupt)
		}

		dim, ok := decodeUint(meta.Get(keyDimension))
		if !ok {
			return fmt.Errorf("%w: missing dimension", ErrCorrupt)
		}
		count, ok := decodeUint(meta.Get(keyCount))
		if !ok {
			return fmt.Errorf("%w: missing count", ErrCorrupt)
		}

		x = NewFlatL2(int(dim))
		x.fingerprint = string(meta.Get(keyFingerprint))
		next := uint64(0)
		err := vecs.ForEach(func(k, v []byte) error {
			pos, ok := decodeUint(k)
			if !ok || pos != next {
				return fmt.Errorf("%w: unexpected position key", ErrCorrupt)
			}
			next++

			var sv storedVector
			if err := json.Unmarshal(v, &sv); err != nil {
				return fmt.Errorf("%w: position %d: %v", ErrCorrupt, pos, err)
			}
			return x.Add(sv.ID, sv.Vector)
		})
		if err != nil {
			return err
		}

		if uint64(x.Len()) != count {
			return fmt.Errorf("%w: header count %d, found %d vectors", ErrCorrupt, count, x.Len())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return x, nil
}

func encodeUint(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func decodeUint(b []byte) (uint64, bool) {
	if len(b) != 8 {
		return 0, false
	}
	return binary.BigEndian.Uint64(b), true
}
