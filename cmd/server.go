package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jyoonje/collabview-plugin/internal/eligibility"
	"github.com/jyoonje/collabview-plugin/internal/files"
	"github.com/jyoonje/collabview-plugin/internal/host"
	"github.com/jyoonje/collabview-plugin/internal/notify"
	"github.com/jyoonje/collabview-plugin/internal/plugin"
	"github.com/jyoonje/collabview-plugin/internal/redirect"
	"github.com/jyoonje/collabview-plugin/internal/resolver"
	"github.com/jyoonje/collabview-plugin/internal/server"
)

var serverPort int

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the viewer panel server",
	Long: `Starts the collabview server: the file preview host, the viewer side panel,
the viewer-redirect endpoint and the websocket channel that opens the panel
in connected browser windows.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = serverPort
		}
		log := newLogger(cfg)

		database, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		policy, err := eligibility.NewPolicy(cfg.Eligibility.Extensions, cfg.Eligibility.Deny)
		if err != nil {
			return err
		}
		client, err := resolver.New(resolver.Options{
			Endpoint:  cfg.ViewerEndpoint(),
			Authority: cfg.Viewer.Authority,
			Timeout:   cfg.ViewerTimeout(),
		})
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		hub := notify.NewHub(log)
		registry := host.NewRegistry(log)
		p, err := plugin.Initialize(registry, host.NewStore(log), plugin.Options{
			Resolver:     client,
			Policy:       policy,
			Notifier:     hub,
			UseNotifier:  cfg.Viewer.UseNotifier,
			SlotID:       cfg.Viewer.SlotID,
			PanelTitle:   cfg.Viewer.PanelTitle,
			EmptyMessage: cfg.Viewer.EmptyMessage,
			Logger:       log,
			BaseContext:  ctx,
		})
		if err != nil {
			return fmt.Errorf("initializing viewer plugin: %w", err)
		}

		fileStore := files.NewStore(database)
		redirectHandler, err := redirect.New(redirect.Options{
			CollabviewURL: cfg.Collabview.URL,
			DisposableKey: cfg.Collabview.DisposableKey,
			FileDir:       cfg.Collabview.FileDir,
			Files:         fileStore,
			Links:         redirect.NewLinkStore(database),
			Logger:        log,
		})
		if err != nil {
			return err
		}

		srv := server.New(server.Config{Port: cfg.Server.Port, AllowAll: cfg.Server.AllowAll}, log)
		r := srv.Router()
		host.RegisterRoutes(r, registry, fileStore)
		files.RegisterRoutes(r, fileStore)
		redirectHandler.RegisterRoutes(r)
		p.RegisterRoutes(r)

		if cfg.Collabview.URL == "" {
			log.Warn("collabview.url is not set, viewer-redirect will fail until it is configured")
		}
		log.Info("collabview server starting",
			slog.String("version", Version),
			slog.Int("port", cfg.Server.Port),
			slog.String("database", cfg.DatabasePath()),
			slog.String("viewer_endpoint", cfg.ViewerEndpoint()))

		g, gctx := errgroup.WithContext(ctx)
		g.Go(srv.Start)
		g.Go(func() error {
			<-gctx.Done()
			log.Info("shutting down server")

			registry.UnmountAll()
			p.Close()
			hub.Close()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
		return g.Wait()
	},
}

func init() {
	serverCmd.Flags().IntVar(&serverPort, "port", 8065, "port to listen on (overrides server.port)")
	rootCmd.AddCommand(serverCmd)
}
