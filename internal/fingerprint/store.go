package fingerprint

import (
	"encoding/json"
	"fmt"
	"strconv"

	badger "github.com/dgraph-io/badger/v3"
	"golang.org/x/sync/singleflight"

	"reelmatch/pkg/logger"
)

// Store persists fingerprints in an embedded Badger database, keyed by
// content signature. A record that fails to decode, or that carries a stale
// version tag, is treated as a cache miss and recomputed; the store never
// surfaces corruption to callers.
type Store struct {
	db    *badger.DB
	log   *logger.Logger
	group singleflight.Group
}

// frameRecord is the persisted form of a frame fingerprint. Hashes are
// stored as 16-digit hex strings so the payload survives any JSON tooling
// that would mangle large integers.
type frameRecord struct {
	Version  string   `json:"ver"`
	HashBits int      `json:"bits"`
	Hashes   []string `json:"hashes"`
}

type audioRecord struct {
	Version string    `json:"ver"`
	Vector  []float64 `json:"vec"`
}

// OpenStore opens (or creates) the fingerprint database under dir.
func OpenStore(dir string, log *logger.Logger) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening fingerprint store: %w", err)
	}
	return &Store{db: db, log: log}, nil
}

// Close flushes and closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// FrameHashes returns the cached frame fingerprint for sig, computing and
// persisting it via compute on a miss. Concurrent requests for the same
// signature share a single computation.
func (s *Store) FrameHashes(sig string, compute func() ([]uint64, error)) ([]uint64, error) {
	key := "frames:" + sig

	if hashes, ok := s.loadFrames(key); ok {
		return hashes, nil
	}

	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		// Another goroutine may have finished while this one waited.
		if hashes, ok := s.loadFrames(key); ok {
			return hashes, nil
		}

		hashes, err := compute()
		if err != nil {
			return nil, err
		}

		rec := frameRecord{Version: Version, HashBits: 64, Hashes: make([]string, len(hashes))}
		for i, h := range hashes {
			rec.Hashes[i] = fmt.Sprintf("%016x", h)
		}
		if err := s.put(key, rec); err != nil {
			s.log.Warnf("failed to persist frame fingerprint %s: %v", sig, err)
		}
		return hashes, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]uint64), nil
}

// AudioVector returns the cached audio fingerprint for sig, computing it on
// a miss. A nil vector means the media has no usable audio; absence is not
// persisted, so a later repair of the file gets a fresh attempt.
func (s *Store) AudioVector(sig string, compute func() ([]float64, error)) ([]float64, error) {
	key := "audio:" + sig

	if vec, ok := s.loadAudio(key); ok {
		return vec, nil
	}

	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		if vec, ok := s.loadAudio(key); ok {
			return vec, nil
		}

		vec, err := compute()
		if err != nil {
			return nil, err
		}
		if len(vec) > 0 {
			if err := s.put(key, audioRecord{Version: Version, Vector: vec}); err != nil {
				s.log.Warnf("failed to persist audio fingerprint %s: %v", sig, err)
			}
		}
		return vec, nil
	})
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	return v.([]float64), nil
}

func (s *Store) loadFrames(key string) ([]uint64, bool) {
	raw, ok := s.get(key)
	if !ok {
		return nil, false
	}

	var rec frameRecord
	if err := json.Unmarshal(raw, &rec); err != nil || rec.Version != Version {
		s.log.Debugf("stale or corrupt frame record %s, recomputing", key)
		return nil, false
	}

	hashes := make([]uint64, len(rec.Hashes))
	for i, hs := range rec.Hashes {
		h, err := strconv.ParseUint(hs, 16, 64)
		if err != nil {
			s.log.Debugf("corrupt hash in record %s, recomputing", key)
			return nil, false
		}
		hashes[i] = h
	}
	return hashes, true
}

func (s *Store) loadAudio(key string) ([]float64, bool) {
	raw, ok := s.get(key)
	if !ok {
		return nil, false
	}

	var rec audioRecord
	if err := json.Unmarshal(raw, &rec); err != nil || rec.Version != Version || len(rec.Vector) == 0 {
		s.log.Debugf("stale or corrupt audio record %s, recomputing", key)
		return nil, false
	}
	return rec.Vector, true
}

func (s *Store) get(key string) ([]byte, bool) {
	var raw []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			raw = append([]byte(nil), val...)
			return nil
		})
	})
	if err != nil {
		return nil, false
	}
	return raw, true
}

func (s *Store) put(key string, rec interface{}) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), raw)
	})
}
