package stores

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/BagasRo/predictions"
	"github.com/BagasRo/predictions/pkg/credentials"
	"google.golang.org/api/option"
)

// Backend names accepted by Open.
const (
	BackendFirestore = "firestore"
	BackendDatastore = "datastore"
	BackendBolt      = "bolt"
	BackendMemory    = "memory"
)

// Backends lists the accepted backend names, the default first.
func Backends() []string {
	return []string{BackendFirestore, BackendDatastore, BackendBolt, BackendMemory}
}

// Config selects and parameterises a backend.
type Config struct {
	Backend    string
	DatabaseID string
	BoltPath   string

	// Credentials is required by the firestore and datastore backends.
	Credentials *credentials.ServiceAccount

	// ClientOptions are appended after the credential options, e.g. an
	// emulator endpoint.
	ClientOptions []option.ClientOption
}

// Open constructs the backend described by cfg. It is called once at
// startup; the returned store is shared by every operation.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (predictions.DocumentStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	backend := strings.ToLower(strings.TrimSpace(cfg.Backend))
	if backend == "" {
		backend = BackendFirestore
	}

	switch backend {
	case BackendFirestore, BackendDatastore:
		if cfg.Credentials == nil {
			return nil, fmt.Errorf("%s backend requires credentials: %w", backend, credentials.ErrConfigMissing)
		}
		opts, err := cfg.Credentials.ClientOptions(ctx)
		if err != nil {
			return nil, err
		}
		opts = append(opts, cfg.ClientOptions...)

		projectID := cfg.Credentials.ProjectID
		logger.Info("opening document store",
			"backend", backend,
			"project", projectID,
			"database", databaseOrDefault(cfg.DatabaseID),
			"client_email", cfg.Credentials.ClientEmail,
		)
		if backend == BackendFirestore {
			store, err := OpenFirestoreStore(ctx, projectID, cfg.DatabaseID, opts...)
			if err != nil {
				return nil, err
			}
			return store, nil
		}
		store, err := OpenDatastoreStore(ctx, projectID, cfg.DatabaseID, opts...)
		if err != nil {
			return nil, err
		}
		return store, nil

	case BackendBolt:
		path := cfg.BoltPath
		if path == "" {
			path = "predictions.db"
		}
		logger.Info("opening document store", "backend", backend, "path", path)
		store, err := OpenBoltStore(path)
		if err != nil {
			return nil, err
		}
		return store, nil

	case BackendMemory:
		logger.Info("opening document store", "backend", backend)
		return NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("%w %q, must be one of %s", ErrUnknownBackend, cfg.Backend, strings.Join(Backends(), ", "))
}

var ErrUnknownBackend = errors.New("unknown backend")

func databaseOrDefault(id string) string {
	if id == "" {
		return DefaultDatabaseID
	}
	return id
}
