package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/BagasRo/predictions"
	"github.com/BagasRo/predictions/pkg/credentials"
	"github.com/BagasRo/predictions/server/stores"
	"github.com/alecthomas/kong"
)

type cliCtx struct {
	context.Context
	Logger *slog.Logger
	Out    io.Writer
	In     io.Reader
}

type cli struct {
	Debug     bool             `help:"Enable debug logging" env:"PREDICTIONS_DEBUG"`
	LogFormat string           `help:"Log output format" enum:"text,json" default:"text" env:"PREDICTIONS_LOG_FORMAT"`
	Version   kong.VersionFlag `help:"Show version"`

	Serve  ServeCmd  `cmd:"" help:"Serve the predictions HTTP API"`
	Store  StoreCmd  `cmd:"" help:"Store a prediction document"`
	Get    GetCmd    `cmd:"" help:"Get a prediction document"`
	Delete DeleteCmd `cmd:"" help:"Delete a prediction document"`
}

func Execute(version string) {
	var cli cli
	ctx := kong.Parse(&cli,
		kong.UsageOnError(),
		kong.Name("predictions"),
		kong.Description("predictions stores, reads and deletes prediction documents"),
		kong.Vars{
			"version":  version,
			"backends": strings.Join(stores.Backends(), ","),
		},
	)

	logger := newLogger(os.Stderr, cli.LogFormat, cli.Debug)
	slog.SetDefault(logger)

	err := ctx.Run(&cliCtx{
		Context: context.Background(),
		Logger:  logger,
		Out:     os.Stdout,
		In:      os.Stdin,
	})
	ctx.FatalIfErrorf(err)
}

func newLogger(w io.Writer, format string, debug bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if debug {
		opts.Level = slog.LevelDebug
	}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// StoreFlags select the backend. They are shared by every command.
type StoreFlags struct {
	Backend  string `help:"Document store backend (${backends})" enum:"${backends}" default:"firestore" env:"PREDICTIONS_BACKEND"`
	Database string `help:"Firestore / Datastore database ID" default:"(default)" env:"FIRESTORE_DATABASE"`
	BoltPath string `help:"Database file for the bolt backend" default:"predictions.db" env:"PREDICTIONS_BOLT_PATH" type:"path"`
}

func (f StoreFlags) needsCredentials() bool {
	return f.Backend == stores.BackendFirestore || f.Backend == stores.BackendDatastore
}

// openService loads credentials when the backend needs them and opens the
// store. Configuration errors are returned before any operation can run.
func (f StoreFlags) openService(ctx *cliCtx) (*predictions.Service, error) {
	cfg := stores.Config{
		Backend:    f.Backend,
		DatabaseID: f.Database,
		BoltPath:   f.BoltPath,
	}
	if f.needsCredentials() {
		sa, err := credentials.Load()
		if err != nil {
			return nil, err
		}
		ctx.Logger.Debug("loaded service account", "account", sa.String())
		cfg.Credentials = &sa
	}

	store, err := stores.Open(ctx, cfg, ctx.Logger)
	if err != nil {
		return nil, err
	}
	return predictions.NewService(store, ctx.Logger), nil
}
