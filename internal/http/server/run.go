package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dropDatabas3/hellojohn-admin/internal/observability/logger"
)

// RunOptions configura el http.Server del BFF.
type RunOptions struct {
	Addr            string
	ShutdownTimeout time.Duration
	// SweepEvery expira sesiones ociosas del registry. 0 = 1m.
	SweepEvery time.Duration
}

// Run sirve h hasta que ctx se cancele y luego hace shutdown ordenado.
func Run(ctx context.Context, d Deps, opts RunOptions) error {
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	if opts.SweepEvery <= 0 {
		opts.SweepEvery = time.Minute
	}
	log := logger.L().With(logger.Component("bff"))

	srv := &http.Server{
		Addr:              opts.Addr,
		Handler:           New(d),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go d.Registry.Run(sweepCtx, opts.SweepEvery)

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("console listening", logger.String("addr", opts.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		log.Info("shutdown signal received")
		shCtx, cancel := context.WithTimeout(context.Background(), opts.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shCtx); err != nil {
			_ = srv.Close()
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		log.Info("server stopped")
		return nil
	}
}
