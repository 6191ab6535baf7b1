package cli

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/convsuite/convsuite/internal/api"
	"github.com/convsuite/convsuite/internal/db"
	"github.com/convsuite/convsuite/internal/livelog"
	"github.com/convsuite/convsuite/internal/watcher"
	"github.com/convsuite/convsuite/internal/worker"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the conversion service (API, workers, directory watcher)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log.Println("starting convsuite")
		log.Printf("  watch dirs:  %v", cfg.WatchDirs)
		log.Printf("  watch rules: %v", cfg.WatchRules)
		log.Printf("  db path:     %s", cfg.DBPath)
		log.Printf("  http port:   %d", cfg.HTTPPort)
		log.Printf("  max workers: %d", cfg.MaxWorkers)

		registry, locator := buildRegistry(cfg)
		for _, info := range locator.CheckAll() {
			if info.Available {
				log.Printf("  tool %s: %s", info.Name, info.Path)
			} else {
				log.Printf("  tool %s: not found", info.Name)
			}
		}

		conn, err := db.Open(cfg.DBPath)
		if err != nil {
			return err
		}

		queue := worker.NewQueue(256)
		logs := livelog.NewManager()
		pool := worker.NewPool(cfg, conn, queue, registry, logs)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		pool.Run(ctx)

		var w *watcher.Watcher
		if len(cfg.WatchDirs) > 0 && len(cfg.WatchRules) > 0 {
			w, err = watcher.NewRecursiveWatcher(cfg, conn, queue)
			if err != nil {
				return err
			}
			defer w.Close()
			go func() {
				if err := w.Start(ctx); err != nil {
					log.Printf("watcher stopped: %v", err)
				}
			}()
		} else {
			log.Println("watcher disabled (no watch dirs or rules configured)")
		}

		server := api.NewServer(cfg, conn, queue, registry, locator, logs, w)
		httpServer := &http.Server{Addr: cfg.HTTPAddr(), Handler: server.Router}
		go func() {
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatalf("http server: %v", err)
			}
		}()
		log.Printf("listening on %s", cfg.HTTPAddr())

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		log.Println("shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("http shutdown: %v", err)
		}
		cancel()
		pool.Drain(shutdownCtx)
		log.Println("shutdown complete")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
