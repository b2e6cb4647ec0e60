package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmorrell-dev/sidekick/pkg/bridge"
	"github.com/jmorrell-dev/sidekick/pkg/config"
	"github.com/jmorrell-dev/sidekick/pkg/llm"
	"github.com/jmorrell-dev/sidekick/pkg/session"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the editor bridge server",
	Long: `Serves the local HTTP and WebSocket bridge that editor extensions use
to talk to sidekick. Binds to localhost only.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "port to listen on (default: from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	store, err := session.OpenStore(cfg)
	if err != nil {
		return err
	}
	manager := session.NewManager(cfg, store, llm.NewClient(cfg), nil)

	port := servePort
	if port == 0 {
		port = cfg.BridgePort
	}
	server := bridge.NewServer(manager, port)

	// Graceful shutdown on interrupt.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stop
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}()

	return server.Start()
}
