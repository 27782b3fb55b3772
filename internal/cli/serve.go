package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sprite-ai/beautyscan/internal/analyzer"
	"github.com/sprite-ai/beautyscan/internal/api"
)

// shutdownTimeout bounds how long in-flight analyses may finish on exit.
const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start an HTTP server that analyzes images with the provider key kept on
the server.

Endpoints:
  GET  /health       — Health check
  POST /api/analyze  — Analyze {"image": "<base64 jpeg>"}, streams SCORE:/POSITIVE:/TIP: lines
  GET  /api/ws       — WebSocket delivering typed analysis events`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("addr", "a", "127.0.0.1", "address to listen on")
	serveCmd.Flags().IntP("port", "p", 6142, "port to listen on")
	serveCmd.Flags().Int("cache-size", 64, "number of analyses to remember per image (0 disables)")
}

func runServe(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")
	port, _ := cmd.Flags().GetInt("port")
	cacheSize, _ := cmd.Flags().GetInt("cache-size")

	a, err := newAnalyzer(cmd.Context())
	if err != nil {
		// Keep serving so clients get a clear configuration error per request.
		log.Printf("analysis disabled: %v", err)
		a = nil
	} else if cacheSize > 0 {
		cached, err := analyzer.NewCached(a, cacheSize)
		if err != nil {
			return err
		}
		a = cached
	}

	listen := fmt.Sprintf("%s:%d", addr, port)
	srv := api.New(listen, a)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.ListenAndServe)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Printf("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
