package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/paletten-gigant/graphrag-chat/internal/chat"
	"github.com/paletten-gigant/graphrag-chat/internal/db"
	"github.com/paletten-gigant/graphrag-chat/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web chat interface",
	Long:  `Starts the web chat server with the browser UI, REST API, and websocket chat, backed by the configured GraphRAG backend.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if servePort != 0 {
			cfg.Server.Port = servePort
		}

		reg, err := newRegistry(cfg)
		if err != nil {
			return err
		}

		dbPath := filepath.Join(cfg.Server.DataDir, "graphrag-chat.db")
		database, err := db.Open(dbPath)
		if err != nil {
			return fmt.Errorf("opening database %s: %w", dbPath, err)
		}
		defer database.Close()

		srv := server.New(cfg, newClient(cfg), reg, chat.NewStore(database))

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			srv.Shutdown(context.Background())
		}()

		fmt.Printf("Serving %s on http://localhost:%d (backend %s, %d documents)\n",
			cfg.AppTitle, cfg.Server.Port, cfg.APIBaseURL, reg.Len())
		return srv.Start()
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
