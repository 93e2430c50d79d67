package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/BagasRo/predictions"
)

type StoreCmd struct {
	StoreFlags `embed:""`

	ID   string `arg:"" help:"Document ID"`
	File string `arg:"" help:"JSON file holding the document, or - for stdin" default:"-"`
}

func (c *StoreCmd) Run(ctx *cliCtx) error {
	data, err := c.readDocument(ctx.In)
	if err != nil {
		return err
	}
	svc, err := c.openService(ctx)
	if err != nil {
		return err
	}
	defer svc.Backend().Close()

	return printResult(ctx.Out, "store", svc.Store(ctx, c.ID, data))
}

func (c *StoreCmd) readDocument(stdin io.Reader) (predictions.Document, error) {
	var r io.Reader = stdin
	if c.File != "-" {
		f, err := os.Open(c.File)
		if err != nil {
			return nil, fmt.Errorf("error opening document file %q: %w", c.File, err)
		}
		defer f.Close()
		r = f
	}
	var data predictions.Document
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("error decoding document: %w", err)
	}
	if data == nil {
		return nil, errors.New("error decoding document: must be a JSON object")
	}
	return data, nil
}

type GetCmd struct {
	StoreFlags `embed:""`

	ID string `arg:"" help:"Document ID"`
}

func (c *GetCmd) Run(ctx *cliCtx) error {
	svc, err := c.openService(ctx)
	if err != nil {
		return err
	}
	defer svc.Backend().Close()

	return printResult(ctx.Out, "get", svc.Get(ctx, c.ID))
}

type DeleteCmd struct {
	StoreFlags `embed:""`

	ID string `arg:"" help:"Document ID"`
}

func (c *DeleteCmd) Run(ctx *cliCtx) error {
	svc, err := c.openService(ctx)
	if err != nil {
		return err
	}
	defer svc.Backend().Close()

	return printResult(ctx.Out, "delete", svc.Delete(ctx, c.ID))
}

// printResult writes res as indented JSON. A failed result becomes the
// command's error so the process exits non-zero.
func printResult(w io.Writer, op string, res predictions.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("%s failed: %w", op, res.Err)
	}
	return nil
}
