package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/BagasRo/predictions"
	"github.com/BagasRo/predictions/pkg/credentials"
	"github.com/BagasRo/predictions/testutl"
	"github.com/alecthomas/assert/v2"
)

func newTestCtx(in string) (*cliCtx, *bytes.Buffer) {
	var out bytes.Buffer
	return &cliCtx{
		Context: context.Background(),
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Out:     &out,
		In:      strings.NewReader(in),
	}, &out
}

func boltFlags(t *testing.T) StoreFlags {
	t.Helper()
	return StoreFlags{Backend: "bolt", BoltPath: filepath.Join(t.TempDir(), "predictions.db")}
}

func decodeResult(t *testing.T, out *bytes.Buffer) predictions.Result {
	t.Helper()
	var res predictions.Result
	assert.NoError(t, json.Unmarshal(out.Bytes(), &res))
	return res
}

func TestDocumentCommands(t *testing.T) {
	flags := boltFlags(t)

	ctx, out := newTestCtx(`{"label": "cat", "score": 0.92}`)
	err := (&StoreCmd{StoreFlags: flags, ID: "pred-1", File: "-"}).Run(ctx)
	assert.NoError(t, err)
	assert.Equal(t, predictions.Result{Success: true}, decodeResult(t, out))

	ctx, out = newTestCtx("")
	err = (&GetCmd{StoreFlags: flags, ID: "pred-1"}).Run(ctx)
	assert.NoError(t, err)
	res := decodeResult(t, out)
	assert.True(t, res.Success)
	assert.Equal(t, predictions.Document{"label": "cat", "score": 0.92}, res.Data)

	ctx, out = newTestCtx("")
	err = (&DeleteCmd{StoreFlags: flags, ID: "pred-1"}).Run(ctx)
	assert.NoError(t, err)
	assert.True(t, decodeResult(t, out).Success)

	ctx, out = newTestCtx("")
	err = (&GetCmd{StoreFlags: flags, ID: "pred-1"}).Run(ctx)
	assert.IsError(t, err, predictions.ErrNotFound)
	res = decodeResult(t, out)
	assert.False(t, res.Success)
	assert.Equal(t, "Dokumen tidak ditemukan", res.Error)
}

func TestStoreCmd_FromFile(t *testing.T) {
	flags := boltFlags(t)
	file := filepath.Join(t.TempDir(), "pred.json")
	assert.NoError(t, os.WriteFile(file, []byte(`{"result": "Non-cancer"}`), 0600))

	ctx, _ := newTestCtx("")
	assert.NoError(t, (&StoreCmd{StoreFlags: flags, ID: "pred-2", File: file}).Run(ctx))

	ctx, out := newTestCtx("")
	assert.NoError(t, (&GetCmd{StoreFlags: flags, ID: "pred-2"}).Run(ctx))
	assert.Equal(t, predictions.Document{"result": "Non-cancer"}, decodeResult(t, out).Data)
}

func TestStoreCmd_BadInput(t *testing.T) {
	flags := boltFlags(t)

	ctx, _ := newTestCtx("not json")
	err := (&StoreCmd{StoreFlags: flags, ID: "pred-1", File: "-"}).Run(ctx)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "error decoding document")

	ctx, _ = newTestCtx("null")
	err = (&StoreCmd{StoreFlags: flags, ID: "pred-1", File: "-"}).Run(ctx)
	assert.EqualError(t, err, "error decoding document: must be a JSON object")

	ctx, _ = newTestCtx("")
	err = (&StoreCmd{StoreFlags: flags, ID: "pred-1", File: filepath.Join(t.TempDir(), "missing.json")}).Run(ctx)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "error opening document file")
}

func TestInvalidIDFails(t *testing.T) {
	ctx, out := newTestCtx("")
	err := (&DeleteCmd{StoreFlags: boltFlags(t), ID: "a/b"}).Run(ctx)
	assert.IsError(t, err, predictions.ErrInvalidID)
	assert.False(t, decodeResult(t, out).Success)
}

func TestMissingCredentialsBlockOperations(t *testing.T) {
	t.Setenv(credentials.EnvVar, "")

	for _, backend := range []string{"firestore", "datastore"} {
		ctx, out := newTestCtx("{}")
		err := (&StoreCmd{StoreFlags: StoreFlags{Backend: backend}, ID: "pred-1", File: "-"}).Run(ctx)
		assert.IsError(t, err, credentials.ErrConfigMissing)
		assert.Zero(t, out.Len())
	}
}

func TestMalformedCredentialsBlockOperations(t *testing.T) {
	t.Setenv(credentials.EnvVar, "{not json")

	ctx, out := newTestCtx("")
	err := (&GetCmd{StoreFlags: StoreFlags{Backend: "firestore"}, ID: "pred-1"}).Run(ctx)
	assert.IsError(t, err, credentials.ErrConfigMalformed)
	assert.NotIsError(t, err, credentials.ErrConfigMissing)
	assert.Zero(t, out.Len())
}

func TestServeCmd(t *testing.T) {
	addr := testutl.Addr()
	ctx, cancel := context.WithCancel(context.Background())
	cliContext := &cliCtx{
		Context: ctx,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Out:     io.Discard,
	}

	done := make(chan error, 1)
	go func() {
		done <- (&ServeCmd{StoreFlags: StoreFlags{Backend: "memory"}, Addr: addr, Rate: 100, Burst: 100}).Run(cliContext)
	}()

	var resp *http.Response
	var err error
	for i := 0; i < 50; i++ {
		resp, err = http.Get("http://" + addr + "/healthz")
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	assert.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop")
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, "json", true).Debug("hello", "id", "pred-1")
	assert.Contains(t, buf.String(), `"msg":"hello"`)

	buf.Reset()
	newLogger(&buf, "text", false).Debug("hidden")
	assert.Zero(t, buf.Len())
}
