package commands

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/BagasRo/predictions/server"
	"golang.org/x/time/rate"
)

const shutdownTimeout = 10 * time.Second

type ServeCmd struct {
	StoreFlags `embed:""`

	Addr    string   `help:"Address to listen on" default:":8080" env:"PREDICTIONS_ADDR"`
	Rate    float64  `help:"Requests per second allowed per client IP" default:"5" env:"PREDICTIONS_RATE"`
	Burst   int      `help:"Request burst allowed per client IP" default:"20" env:"PREDICTIONS_BURST"`
	Origins []string `help:"Allowed CORS origins" env:"PREDICTIONS_ALLOWED_ORIGINS"`
}

func (c *ServeCmd) Run(ctx *cliCtx) error {
	svc, err := c.openService(ctx)
	if err != nil {
		return err
	}
	defer svc.Backend().Close()

	srv := server.NewServer(svc, ctx.Logger, server.Options{
		Addr:           c.Addr,
		RateLimit:      rate.Limit(c.Rate),
		RateBurst:      c.Burst,
		AllowedOrigins: c.Origins,
	})

	sigCtx, stop := signal.NotifyContext(ctx.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-sigCtx.Done():
	}

	ctx.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
