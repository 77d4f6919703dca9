package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"kinly/internal/markdown"
	"kinly/internal/storage/fs"
	"kinly/internal/web"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	cfg := a.cfg
	slog.Info("startup", "build_version", version, "driver", cfg.DBDriver, "taxonomy", cfg.Taxonomy)

	if err := os.MkdirAll(cfg.DataPath, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	lock, err := fs.AcquireFileLockWithTimeout(cfg.LockPath(), 2*time.Second)
	if errors.Is(err, fs.ErrLocked) {
		return fmt.Errorf("data dir %s is in use by another kinly server", cfg.DataPath)
	}
	if err != nil {
		return fmt.Errorf("lock data dir: %w", err)
	}
	defer func() {
		if err := lock.Release(); err != nil {
			slog.Warn("release data lock", "path", lock.Path(), "err", err)
		}
	}()

	openCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	st, err := a.openStore(openCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	accounts, err := a.accounts(st)
	if err != nil {
		return err
	}
	portfolio, err := a.portfolio(st)
	if err != nil {
		return err
	}
	srv, err := web.NewServer(web.Options{
		Accounts:            accounts,
		Portfolio:           portfolio,
		Store:               st,
		Markdown:            markdown.New(markdown.DefaultStyle),
		CreateRedirectDelay: cfg.CreateRedirectDelay,
		SecureCookies:       strings.HasPrefix(cfg.PublicBaseURL(), "https://"),
		Version:             version,
	})
	if err != nil {
		return err
	}

	httpSrv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("listening", "addr", cfg.ListenAddr, "base_url", cfg.PublicBaseURL())
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
