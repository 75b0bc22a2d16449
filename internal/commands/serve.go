package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/klabast/wb-services/festival-calendar/internal/app"
	"github.com/klabast/wb-services/festival-calendar/internal/events"
	"github.com/klabast/wb-services/festival-calendar/internal/festival"
	"github.com/klabast/wb-services/festival-calendar/internal/lunar"
)

const shutdownTimeout = 10 * time.Second

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Starts the calendar API. Event editing is protected with Basic Auth
when an auth file exists (see hash-password).`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := app.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = servePort
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	logger := app.NewLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := lunar.NewService(lunar.Options{
		Loader:    cfg.Loader(),
		EpochYear: cfg.EpochYear,
		Logger:    logger,
	})

	catalog, err := festival.NewCatalog(cfg.FestivalsFile, cfg.LunarFestivalsFile, logger)
	if err != nil {
		return fmt.Errorf("load festivals: %w", err)
	}

	store, err := events.Open(cfg.StoreDriver, cfg.StorePath, logger)
	if err != nil {
		return fmt.Errorf("open event store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("close event store", "error", err)
		}
	}()

	authPath, err := app.AuthFilePath(cfg.AuthFile)
	if err != nil {
		return err
	}
	auth, err := app.LoadAuth(authPath, logger)
	if err != nil {
		return fmt.Errorf("load auth: %w", err)
	}

	srv := app.NewServer(app.Deps{
		Lunar:      svc,
		Catalog:    catalog,
		Store:      store,
		Auth:       auth,
		Logger:     logger,
		WriteRPS:   cfg.WriteRPS,
		WriteBurst: cfg.WriteBurst,
	}).HTTPServer(fmt.Sprintf(":%d", cfg.Port))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cal := svc.Resolve(gctx)
		logger.Info("lunar calendar ready", "mode", cal.Mode().String())
		return nil
	})
	g.Go(func() error {
		if err := catalog.Watch(gctx); err != nil {
			logger.Error("festival data watcher stopped", "error", err)
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("starting festival calendar",
			"addr", srv.Addr,
			"store", cfg.StoreDriver,
			"store_path", cfg.StorePath,
			"auth", auth.Enabled(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
