package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"bidhouse/api"
)

func main() {
	args := ParseArgs()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: args.Level()}))
	slog.SetDefault(logger)
	if err := args.Load(); err != nil {
		logger.Error("Invalid arguments", slog.Any("error", err))
		os.Exit(1)
	}

	if err := run(args, logger); err != nil {
		logger.Error("Server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(args Args, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gin.SetMode(gin.ReleaseMode)
	server, err := api.NewServer(args.ServerConfig, api.WithServerLogger(logger))
	if err != nil {
		return err
	}
	defer server.Close()
	router, err := server.Router()
	if err != nil {
		return err
	}
	if err := server.Start(); err != nil {
		return err
	}

	// SSE 連線在關閉時需要被取消，否則 Shutdown 會一直等待
	baseCtx, cancelRequests := context.WithCancel(context.Background())
	defer cancelRequests()
	httpServer := &http.Server{
		Addr:              args.ServerURL,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Listening", slog.String("addr", args.ServerURL))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	cancelRequests()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), args.ShutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
