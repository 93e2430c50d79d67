package stores

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/datastore"
	"github.com/BagasRo/predictions"
	"google.golang.org/api/option"
)

const predictionKind = predictions.CollectionName

// predictionEntity is the Datastore shape of a document. The payload is
// kept as JSON because entities cannot hold arbitrary nested maps.
type predictionEntity struct {
	Data      string    `datastore:"data,noindex"`
	UpdatedAt time.Time `datastore:"updated_at"`
}

// datastoreClient is the subset of *datastore.Client the store uses.
type datastoreClient interface {
	Put(ctx context.Context, key *datastore.Key, src any) (*datastore.Key, error)
	Get(ctx context.Context, key *datastore.Key, dst any) error
	Delete(ctx context.Context, key *datastore.Key) error
	Close() error
}

// DatastoreStore implements predictions.DocumentStore using Google Cloud
// Datastore (Firestore in Datastore mode).
type DatastoreStore struct {
	client datastoreClient
	now    func() time.Time
}

// NewDatastoreStore creates a DatastoreStore with the given client.
func NewDatastoreStore(client *datastore.Client) *DatastoreStore {
	return &DatastoreStore{client: client, now: time.Now}
}

// OpenDatastoreStore creates the client for projectID and databaseID.
// No request is made until the first operation.
func OpenDatastoreStore(ctx context.Context, projectID, databaseID string, opts ...option.ClientOption) (*DatastoreStore, error) {
	if projectID == "" {
		return nil, errors.New("projectID must be provided to create a datastore client")
	}
	if databaseID == DefaultDatabaseID {
		databaseID = ""
	}
	client, err := datastore.NewClientWithDatabase(ctx, projectID, databaseID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create datastore client: %w", err)
	}
	return NewDatastoreStore(client), nil
}

func (s *DatastoreStore) key(id string) *datastore.Key {
	return datastore.NameKey(predictionKind, id, nil)
}

func (s *DatastoreStore) Set(ctx context.Context, id string, data predictions.Document) error {
	encoded, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	entity := predictionEntity{Data: string(encoded), UpdatedAt: s.now().UTC()}
	_, err = s.client.Put(ctx, s.key(id), &entity)
	return err
}

func (s *DatastoreStore) Get(ctx context.Context, id string) (predictions.Document, error) {
	var entity predictionEntity
	err := s.client.Get(ctx, s.key(id), &entity)
	if errors.Is(err, datastore.ErrNoSuchEntity) {
		return nil, predictions.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	doc, err := decodeDocument([]byte(entity.Data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode document %s: %w", id, err)
	}
	return doc, nil
}

// Delete removes the entity. Datastore does not report missing keys.
func (s *DatastoreStore) Delete(ctx context.Context, id string) error {
	return s.client.Delete(ctx, s.key(id))
}

func (s *DatastoreStore) Close() error {
	return s.client.Close()
}

var _ predictions.DocumentStore = (*DatastoreStore)(nil)
