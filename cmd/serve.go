package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/yumyai/selscan/logger"
	"github.com/yumyai/selscan/pkg/codeml"
	"github.com/yumyai/selscan/pkg/handler"
)

const shutdownTimeout = 30 * time.Second

// serveCmd exposes qc, lrt and fit over HTTP.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the QC, LRT and codeml fit HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmps, err := loadComparisons(cfg.LRT)
	if err != nil {
		return err
	}
	models, err := fitModels()
	if err != nil {
		return err
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	} else {
		logger.Warn("No result store configured (--db), runs are not recorded")
	}

	app := &handler.AppContext{
		Store:        store,
		Options:      cfg.QC,
		Comparisons:  cmps,
		Labels:       tableLabels(cfg.LRT, cmps),
		FitModels:    models,
		FitWorkDir:   cfg.Codeml.WorkDir,
		FitJobs:      handler.NewFitJobManager(ctx),
		MaxBodyBytes: cfg.Serve.MaxBodyBytes,
	}
	app.FitJobs.Retention = cfg.Serve.JobRetention
	if runner, err := codeml.NewRunner(cfg.Codeml.Binary); err != nil {
		logger.Warn("codeml not available, /api/v1/fit is disabled", zap.Error(err))
	} else {
		app.Fitter = runner
	}

	srv := &http.Server{
		Addr:              cfg.Serve.Addr,
		Handler:           handler.NewServer(app, logger.L()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("Server starting on " + cfg.Serve.Addr + "...")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		app.FitJobs.Shutdown()
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Error starting server:", zap.String("error message", err.Error()))
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err = srv.Shutdown(shutdownCtx)
	app.FitJobs.Shutdown()
	return err
}

// set flags
func init() {
	serveCmd.Flags().StringP("addr", "a", "0.0.0.0:8080", "listen address")
	viper.BindPFlag("serve.addr", serveCmd.Flags().Lookup("addr"))

	rootCmd.AddCommand(serveCmd)
}
