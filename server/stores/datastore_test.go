package stores

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/datastore"
	"github.com/BagasRo/predictions"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

// fakeDatastoreClient keeps entities by key name.
type fakeDatastoreClient struct {
	entities map[string]predictionEntity
	err      error
	closed   bool
}

func newFakeDatastoreClient() *fakeDatastoreClient {
	return &fakeDatastoreClient{entities: make(map[string]predictionEntity)}
}

func (f *fakeDatastoreClient) Put(ctx context.Context, key *datastore.Key, src any) (*datastore.Key, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.entities[key.Name] = *src.(*predictionEntity)
	return key, nil
}

func (f *fakeDatastoreClient) Get(ctx context.Context, key *datastore.Key, dst any) error {
	if f.err != nil {
		return f.err
	}
	e, ok := f.entities[key.Name]
	if !ok {
		return datastore.ErrNoSuchEntity
	}
	*dst.(*predictionEntity) = e
	return nil
}

func (f *fakeDatastoreClient) Delete(ctx context.Context, key *datastore.Key) error {
	if f.err != nil {
		return f.err
	}
	delete(f.entities, key.Name)
	return nil
}

func (f *fakeDatastoreClient) Close() error {
	f.closed = true
	return nil
}

func TestDatastoreStore_Fake(t *testing.T) {
	client := newFakeDatastoreClient()
	store := &DatastoreStore{client: client, now: time.Now}

	testDocumentStore(t, store, "")

	require.NoError(t, store.Close())
	assert.True(t, client.closed)
}

func TestDatastoreStore_EntityShape(t *testing.T) {
	client := newFakeDatastoreClient()
	fixed := time.Date(2024, 12, 1, 10, 0, 0, 0, time.FixedZone("WIB", 7*3600))
	store := &DatastoreStore{client: client, now: func() time.Time { return fixed }}

	err := store.Set(context.Background(), "pred-1", predictions.Document{"label": "cat"})
	require.NoError(t, err)

	e, ok := client.entities["pred-1"]
	require.True(t, ok)
	assert.JSONEq(t, `{"label":"cat"}`, e.Data)
	assert.Equal(t, fixed.UTC(), e.UpdatedAt)
	assert.Equal(t, time.UTC, e.UpdatedAt.Location())
}

func TestDatastoreStore_ClientErrors(t *testing.T) {
	ctx := context.Background()
	client := newFakeDatastoreClient()
	client.err = errors.New("rpc error: code = PermissionDenied")
	store := &DatastoreStore{client: client, now: time.Now}

	err := store.Set(ctx, "pred-1", predictions.Document{"label": "cat"})
	assert.EqualError(t, err, "rpc error: code = PermissionDenied")

	_, err = store.Get(ctx, "pred-1")
	assert.EqualError(t, err, "rpc error: code = PermissionDenied")
	assert.NotErrorIs(t, err, predictions.ErrNotFound)

	err = store.Delete(ctx, "pred-1")
	assert.Error(t, err)
}

func TestDatastoreStore_CorruptPayload(t *testing.T) {
	client := newFakeDatastoreClient()
	client.entities["pred-1"] = predictionEntity{Data: "{not json"}
	store := &DatastoreStore{client: client, now: time.Now}

	_, err := store.Get(context.Background(), "pred-1")
	assert.ErrorContains(t, err, "failed to decode document pred-1")
}

func TestOpenDatastoreStore_RequiresProject(t *testing.T) {
	_, err := OpenDatastoreStore(context.Background(), "", "")
	assert.ErrorContains(t, err, "projectID must be provided")
}

// setupDatastoreStore connects to the Datastore emulator.
func setupDatastoreStore(t *testing.T) *DatastoreStore {
	t.Helper()
	ctx := context.Background()
	godotenv.Load("../../.env.test")

	host := os.Getenv("DATASTORE_EMULATOR_HOST")
	if host == "" {
		t.Skip("Skipping Datastore tests: DATASTORE_EMULATOR_HOST not set. Run 'gcloud beta emulators datastore start' first.")
	}

	// The project ID doesn't matter when using the emulator
	client, err := datastore.NewClient(ctx, "test-project-predictions", option.WithEndpoint(host))
	require.NoError(t, err)
	store := NewDatastoreStore(client)

	q := datastore.NewQuery(predictionKind).KeysOnly()
	keys, err := client.GetAll(ctx, q, nil)
	if err == nil && len(keys) > 0 {
		_ = client.DeleteMulti(ctx, keys)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func TestDatastoreStore_Emulator(t *testing.T) {
	store := setupDatastoreStore(t)
	testDocumentStore(t, store, "ds-")
}
