// Package storage persists the fitted dropout-risk pipeline as a single
// artifact file. It uses BoltDB as the container: preprocessing state, the
// target rule, training metadata and every tree of the forest are stored as
// JSON values in their own buckets, so a reader can load or inspect one
// section without decoding the rest.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"dropout-risk/internal/ml"

	"go.etcd.io/bbolt"
)

// FormatVersion is written to every artifact and checked on load.
const FormatVersion = "1"

const (
	metaBucket     = "meta"     // format version and save time
	pipelineBucket = "pipeline" // preprocessing, target, metadata, forest header
	treesBucket    = "trees"    // one key per tree, in forest order
)

const (
	keyFormat       = "format_version"
	keySavedAt      = "saved_at"
	keyPreprocessor = "preprocessor"
	keyTarget       = "target"
	keyMetadata     = "metadata"
	keyForest       = "forest"
)

var (
	ErrMissingSection = errors.New("artifact section missing")
	ErrFormatVersion  = errors.New("unsupported artifact format version")
)

// forestHeader is the forest without its trees.
type forestHeader struct {
	Params      ml.ForestParams `json:"params"`
	NumFeatures int             `json:"num_features"`
	Importances []float64       `json:"importances"`
	TreeCount   int             `json:"tree_count"`
}

// Store wraps an open artifact database.
type Store struct {
	db *bbolt.DB
}

// Open opens or creates an artifact file. A read-only store never creates
// the file and shares the lock with other readers.
func Open(path string, readOnly bool) (*Store, error) {
	if readOnly {
		if _, err := os.Stat(path); err != nil {
			return nil, err
		}
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second, ReadOnly: readOnly})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection gracefully.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Save writes the pipeline to path. The file is built next to the target
// and renamed into place, so readers never observe a half written artifact.
func Save(path string, p *ml.Pipeline) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid pipeline: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create artifact directory: %w", err)
		}
	}

	tmp := path + ".tmp"
	if err := os.Remove(tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to clear temporary artifact: %w", err)
	}

	store, err := Open(tmp, false)
	if err != nil {
		return err
	}

	if err := store.writePipeline(p); err != nil {
		store.Close()
		os.Remove(tmp)
		return err
	}
	if err := store.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close artifact: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to move artifact into place: %w", err)
	}
	return nil
}

// Load reads and validates a pipeline. Every failure is reported as an
// *ml.ArtifactLoadError.
func Load(path string) (*ml.Pipeline, error) {
	store, err := Open(path, true)
	if err != nil {
		return nil, &ml.ArtifactLoadError{Path: path, Err: err}
	}
	defer store.Close()

	p, err := store.readPipeline()
	if err != nil {
		return nil, &ml.ArtifactLoadError{Path: path, Err: err}
	}
	if err := p.Validate(); err != nil {
		return nil, &ml.ArtifactLoadError{Path: path, Err: err}
	}
	return p, nil
}

func (s *Store) writePipeline(p *ml.Pipeline) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		meta, err := tx.CreateBucketIfNotExists([]byte(metaBucket))
		if err != nil {
			return fmt.Errorf("create meta bucket: %w", err)
		}
		if err := meta.Put([]byte(keyFormat), []byte(FormatVersion)); err != nil {
			return err
		}
		if err := putJSON(meta, keySavedAt, time.Now().UTC()); err != nil {
			return err
		}

		b, err := tx.CreateBucketIfNotExists([]byte(pipelineBucket))
		if err != nil {
			return fmt.Errorf("create pipeline bucket: %w", err)
		}
		if err := putJSON(b, keyPreprocessor, p.Preprocessor); err != nil {
			return err
		}
		if err := putJSON(b, keyTarget, p.Target); err != nil {
			return err
		}
		if err := putJSON(b, keyMetadata, p.Metadata); err != nil {
			return err
		}
		header := forestHeader{
			Params:      p.Forest.Params,
			NumFeatures: p.Forest.NumFeatures,
			Importances: p.Forest.Importances,
			TreeCount:   len(p.Forest.Trees),
		}
		if err := putJSON(b, keyForest, header); err != nil {
			return err
		}

		return writeTrees(tx, p.Forest.Trees)
	})
}

func (s *Store) readPipeline() (*ml.Pipeline, error) {
	p := &ml.Pipeline{}

	err := s.db.View(func(tx *bbolt.Tx) error {
		meta := tx.Bucket([]byte(metaBucket))
		if meta == nil {
			return fmt.Errorf("%w: %s", ErrMissingSection, metaBucket)
		}
		if v := string(meta.Get([]byte(keyFormat))); v != FormatVersion {
			return fmt.Errorf("%w: %q", ErrFormatVersion, v)
		}

		b := tx.Bucket([]byte(pipelineBucket))
		if b == nil {
			return fmt.Errorf("%w: %s", ErrMissingSection, pipelineBucket)
		}
		if err := getJSON(b, keyPreprocessor, &p.Preprocessor); err != nil {
			return err
		}
		if err := getJSON(b, keyTarget, &p.Target); err != nil {
			return err
		}
		if err := getJSON(b, keyMetadata, &p.Metadata); err != nil {
			return err
		}

		var header forestHeader
		if err := getJSON(b, keyForest, &header); err != nil {
			return err
		}

		trees, err := readTrees(tx)
		if err != nil {
			return err
		}
		if len(trees) != header.TreeCount {
			return fmt.Errorf("artifact holds %d trees, header declares %d", len(trees), header.TreeCount)
		}

		p.Forest = &ml.Forest{
			Params:      header.Params,
			NumFeatures: header.NumFeatures,
			Importances: header.Importances,
			Trees:       trees,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// SavedAt returns when the artifact was written.
func (s *Store) SavedAt() (time.Time, error) {
	var t time.Time
	err := s.db.View(func(tx *bbolt.Tx) error {
		meta := tx.Bucket([]byte(metaBucket))
		if meta == nil {
			return fmt.Errorf("%w: %s", ErrMissingSection, metaBucket)
		}
		return getJSON(meta, keySavedAt, &t)
	})
	return t, err
}

func putJSON(b *bbolt.Bucket, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return b.Put([]byte(key), data)
}

func getJSON(b *bbolt.Bucket, key string, v interface{}) error {
	data := b.Get([]byte(key))
	if data == nil {
		return fmt.Errorf("%w: %s", ErrMissingSection, key)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}
