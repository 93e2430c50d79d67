// Package predictions provides access to the "predictions" document
// collection. Every operation returns a Result instead of an error, so a
// failed remote call never propagates past the operation boundary.
package predictions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
)

// CollectionName is the collection every backend binds to.
const CollectionName = "predictions"

// Document is an opaque structured payload. No schema is enforced.
type Document map[string]any

// DocumentStore is implemented by every backend in server/stores.
//
// Set replaces the whole document. Get returns ErrNotFound when the
// document does not exist. Delete succeeds whether or not it existed.
type DocumentStore interface {
	Set(ctx context.Context, id string, data Document) error
	Get(ctx context.Context, id string) (Document, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

var (
	// ErrNotFound is returned when the requested document does not exist.
	ErrNotFound = errors.New("Dokumen tidak ditemukan")
	// ErrRemoteFailure marks any error surfaced by the backing store.
	ErrRemoteFailure = errors.New("remote store failure")
	// ErrInvalidID is returned for ids the document store cannot address.
	ErrInvalidID = errors.New("invalid document id")
)

// Fallback messages used when a backend error carries no text.
const (
	msgStoreFailed  = "Gagal menyimpan data"
	msgGetFailed    = "Gagal membaca data"
	msgDeleteFailed = "Gagal menghapus data"
)

// RemoteError wraps a backend error. It matches both ErrRemoteFailure and
// the underlying cause with errors.Is.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return e.Err.Error()
}

func (e *RemoteError) Unwrap() []error {
	return []error{ErrRemoteFailure, e.Err}
}

// Result is the envelope returned by every operation. Data is only set on
// successful reads. Err carries the error kind and is not serialised.
type Result struct {
	Success bool     `json:"success"`
	Data    Document `json:"data,omitempty"`
	Error   string   `json:"error,omitempty"`
	Err     error    `json:"-"`
}

// MarshalJSON emits data on every successful result that carries a
// document, including an empty one.
func (r Result) MarshalJSON() ([]byte, error) {
	out := struct {
		Success bool      `json:"success"`
		Data    *Document `json:"data,omitempty"`
		Error   string    `json:"error,omitempty"`
	}{Success: r.Success, Error: r.Error}
	if r.Success && r.Data != nil {
		out.Data = &r.Data
	}
	return json.Marshal(out)
}

// NotFound reports whether the result is the not-found outcome of Get.
func (r Result) NotFound() bool {
	return errors.Is(r.Err, ErrNotFound)
}

func ok(data Document) Result {
	return Result{Success: true, Data: data}
}

func failed(err error, fallback string) Result {
	msg := err.Error()
	if msg == "" {
		msg = fallback
	}
	return Result{Success: false, Error: msg, Err: err}
}

// Service runs the store, get and delete operations against a DocumentStore.
// It is safe for concurrent use when the backend is.
type Service struct {
	store  DocumentStore
	logger *slog.Logger
}

// NewService creates a Service over store. A nil logger uses slog.Default().
func NewService(store DocumentStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		logger: logger.With("collection", CollectionName),
	}
}

// Backend returns the underlying store for callers that need direct access.
func (s *Service) Backend() DocumentStore {
	return s.store
}

// Store upserts data at id, replacing any existing document.
func (s *Service) Store(ctx context.Context, id string, data Document) (res Result) {
	if err := validateID(id); err != nil {
		s.logger.Error("rejected document id", "id", id, "error", err)
		return failed(err, msgStoreFailed)
	}
	if data == nil {
		data = Document{}
	}
	defer s.recoverInto(&res, "store", id, msgStoreFailed)

	if err := s.store.Set(ctx, id, data); err != nil {
		err = &RemoteError{Op: "store", Err: err}
		s.logger.Error("failed to store document", "id", id, "error", err)
		return failed(err, msgStoreFailed)
	}
	s.logger.Info("stored document", "id", id, "data", data)
	return ok(nil)
}

// Get fetches the document at id. A missing document is a failed Result
// whose Err is ErrNotFound, not a remote failure.
func (s *Service) Get(ctx context.Context, id string) (res Result) {
	if err := validateID(id); err != nil {
		s.logger.Error("rejected document id", "id", id, "error", err)
		return failed(err, msgGetFailed)
	}
	defer s.recoverInto(&res, "get", id, msgGetFailed)

	data, err := s.store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		s.logger.Warn("document not found", "id", id)
		return failed(ErrNotFound, msgGetFailed)
	}
	if err != nil {
		err = &RemoteError{Op: "get", Err: err}
		s.logger.Error("failed to get document", "id", id, "error", err)
		return failed(err, msgGetFailed)
	}
	if data == nil {
		data = Document{}
	}
	s.logger.Info("retrieved document", "id", id, "data", data)
	return ok(data)
}

// Delete removes the document at id. Deleting a missing document succeeds.
func (s *Service) Delete(ctx context.Context, id string) (res Result) {
	if err := validateID(id); err != nil {
		s.logger.Error("rejected document id", "id", id, "error", err)
		return failed(err, msgDeleteFailed)
	}
	defer s.recoverInto(&res, "delete", id, msgDeleteFailed)

	if err := s.store.Delete(ctx, id); err != nil {
		err = &RemoteError{Op: "delete", Err: err}
		s.logger.Error("failed to delete document", "id", id, "error", err)
		return failed(err, msgDeleteFailed)
	}
	s.logger.Info("deleted document", "id", id)
	return ok(nil)
}

// recoverInto turns a backend panic into a failed Result.
func (s *Service) recoverInto(res *Result, op, id, fallback string) {
	if r := recover(); r != nil {
		err := &RemoteError{Op: op, Err: fmt.Errorf("panic: %v", r)}
		s.logger.Error("backend panicked", "op", op, "id", id, "error", err)
		*res = failed(err, fallback)
	}
}
