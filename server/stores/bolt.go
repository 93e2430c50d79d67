package stores

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/BagasRo/predictions"
	"go.etcd.io/bbolt"
)

var predictionsBucket = []byte(predictions.CollectionName)

// BoltStore implements predictions.DocumentStore on a local bbolt file.
type BoltStore struct {
	db *bbolt.DB
}

// NewBoltStore wraps an open database and makes sure the bucket exists.
func NewBoltStore(db *bbolt.DB) (*BoltStore, error) {
	err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(predictionsBucket)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s bucket: %w", predictions.CollectionName, err)
	}
	return &BoltStore{db: db}, nil
}

// OpenBoltStore opens (or creates) the database file at path.
func OpenBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database %s: %w", path, err)
	}
	store, err := NewBoltStore(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *BoltStore) Set(ctx context.Context, id string, data predictions.Document) error {
	encoded, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(predictionsBucket).Put([]byte(id), encoded)
	})
}

func (s *BoltStore) Get(ctx context.Context, id string) (predictions.Document, error) {
	var doc predictions.Document
	err := s.db.View(func(tx *bbolt.Tx) error {
		val := tx.Bucket(predictionsBucket).Get([]byte(id))
		if val == nil {
			return predictions.ErrNotFound
		}
		// val is only valid inside the transaction.
		var err error
		doc, err = decodeDocument(val)
		return err
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *BoltStore) Delete(ctx context.Context, id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(predictionsBucket).Delete([]byte(id))
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

var _ predictions.DocumentStore = (*BoltStore)(nil)
