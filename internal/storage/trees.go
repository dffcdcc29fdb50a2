package storage

import (
	"bytes"
	"encoding/json"
	"fmt"

	"dropout-risk/internal/ml"

	"go.etcd.io/bbolt"
)

const treeKeyPrefix = "tree_"

// treeKey zero-pads the index so byte order matches forest order.
func treeKey(i int) []byte {
	return []byte(fmt.Sprintf("%s%06d", treeKeyPrefix, i))
}

func writeTrees(tx *bbolt.Tx, trees []*ml.Tree) error {
	if tx.Bucket([]byte(treesBucket)) != nil {
		if err := tx.DeleteBucket([]byte(treesBucket)); err != nil {
			return fmt.Errorf("clear trees bucket: %w", err)
		}
	}
	b, err := tx.CreateBucket([]byte(treesBucket))
	if err != nil {
		return fmt.Errorf("create trees bucket: %w", err)
	}
	// trees are appended in key order
	b.FillPercent = 1.0

	for i, tree := range trees {
		data, err := json.Marshal(tree)
		if err != nil {
			return fmt.Errorf("marshal tree %d: %w", i, err)
		}
		if err := b.Put(treeKey(i), data); err != nil {
			return err
		}
	}
	return nil
}

func readTrees(tx *bbolt.Tx) ([]*ml.Tree, error) {
	b := tx.Bucket([]byte(treesBucket))
	if b == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingSection, treesBucket)
	}

	var trees []*ml.Tree
	prefix := []byte(treeKeyPrefix)
	c := b.Cursor()

	for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
		if !bytes.Equal(k, treeKey(len(trees))) {
			return nil, fmt.Errorf("unexpected tree key %q", k)
		}
		var tree ml.Tree
		if err := json.Unmarshal(v, &tree); err != nil {
			return nil, fmt.Errorf("decode %s: %w", k, err)
		}
		trees = append(trees, &tree)
	}
	return trees, nil
}

// TreeCount reports how many trees the artifact holds without decoding them.
func (s *Store) TreeCount() (int, error) {
	n := 0
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(treesBucket))
		if b == nil {
			return fmt.Errorf("%w: %s", ErrMissingSection, treesBucket)
		}
		n = b.Stats().KeyN
		return nil
	})
	return n, err
}
