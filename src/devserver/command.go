package devserver

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"git.gdb.dev/gdb/board/src/config"
	"git.gdb.dev/gdb/board/src/db"
	"git.gdb.dev/gdb/board/src/jobs"
	"git.gdb.dev/gdb/board/src/logging"
	"git.gdb.dev/gdb/board/src/website"
	"github.com/spf13/cobra"
)

func init() {
	var memory bool
	var seedPosts int
	var addr string

	devserverCommand := &cobra.Command{
		Use:   "devserver",
		Short: "Run a local stand-in for the board's GraphQL service",
		Run: func(cmd *cobra.Command, args []string) {
			defer logging.LogPanics(nil)
			ctx := context.Background()

			var store Store
			if memory {
				logging.Info().Msg("Using the in-memory store")
				store = NewMemoryStore()
			} else {
				conn, err := db.WaitForPool(ctx, config.Config.Postgres)
				if err != nil {
					logging.Fatal().Err(err).Msg("Failed to connect to Postgres")
				}
				defer conn.Close()
				store = NewPostgresStore(conn)
			}

			if seedPosts > 0 {
				if err := Seed(ctx, store, seedPosts); err != nil {
					logging.Fatal().Err(err).Msg("Failed to seed the store")
				}
			}

			server := &http.Server{
				Addr:    addr,
				Handler: NewServer(store).Handler(),
			}
			serverJob := jobs.Go("dev API server", func(job *jobs.Job) {
				job.Logger.Info().Str("addr", addr).Msg("Serving the dev API")
				err := server.ListenAndServe()
				if !errors.Is(err, http.ErrServerClosed) {
					job.Logger.Error().Err(err).Msg("Dev API shut down unexpectedly")
				}
			})

			signals := make(chan os.Signal, 1)
			signal.Notify(signals, os.Interrupt)
			select {
			case <-signals:
			case <-serverJob.Finished():
				return
			}

			logging.Info().Msg("Shutting down the dev API")
			timeoutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			if err := server.Shutdown(timeoutCtx); err != nil {
				logging.Warn().Err(err).Msg("Dev API did not shut down gracefully")
			}
			<-serverJob.Finished()
		},
	}
	devserverCommand.Flags().BoolVar(&memory, "memory", false, "Keep data in memory instead of Postgres")
	devserverCommand.Flags().IntVar(&seedPosts, "seed", 0, "Seed this many lorem ipsum posts on startup")
	devserverCommand.Flags().StringVar(&addr, "addr", config.Config.DevAPI.Addr, "Address to listen on")

	website.WebsiteCommand.AddCommand(devserverCommand)
}
