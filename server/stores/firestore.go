package stores

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/BagasRo/predictions"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// DefaultDatabaseID names the project's default database.
const DefaultDatabaseID = "(default)"

// FirestoreStore implements predictions.DocumentStore on a Firestore
// collection.
type FirestoreStore struct {
	client     *firestore.Client
	collection *firestore.CollectionRef
}

// NewFirestoreStore binds client to the predictions collection.
func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{
		client:     client,
		collection: client.Collection(predictions.CollectionName),
	}
}

// OpenFirestoreStore creates the client for projectID and databaseID.
// Connectivity is checked lazily by the first operation.
func OpenFirestoreStore(ctx context.Context, projectID, databaseID string, opts ...option.ClientOption) (*FirestoreStore, error) {
	if projectID == "" {
		return nil, errors.New("projectID must be provided to create a firestore client")
	}
	if databaseID == "" {
		databaseID = DefaultDatabaseID
	}
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	return NewFirestoreStore(client), nil
}

// Collection returns the predictions collection for advanced callers.
func (s *FirestoreStore) Collection() *firestore.CollectionRef {
	return s.collection
}

func (s *FirestoreStore) Set(ctx context.Context, id string, data predictions.Document) error {
	_, err := s.collection.Doc(id).Set(ctx, map[string]any(data))
	return err
}

func (s *FirestoreStore) Get(ctx context.Context, id string) (predictions.Document, error) {
	snap, err := s.collection.Doc(id).Get(ctx)
	if err != nil {
		return nil, firestoreError(err)
	}
	if !snap.Exists() {
		return nil, predictions.ErrNotFound
	}
	return predictions.Document(snap.Data()), nil
}

// Delete removes the document. Firestore deletes succeed for missing
// documents unless a precondition is given.
func (s *FirestoreStore) Delete(ctx context.Context, id string) error {
	_, err := s.collection.Doc(id).Delete(ctx)
	return err
}

func (s *FirestoreStore) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

// firestoreError maps a missing document to predictions.ErrNotFound.
func firestoreError(err error) error {
	if status.Code(err) == codes.NotFound {
		return predictions.ErrNotFound
	}
	return err
}

var _ predictions.DocumentStore = (*FirestoreStore)(nil)
