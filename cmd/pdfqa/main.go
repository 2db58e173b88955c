package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"pdfqa/internal/config"
	"pdfqa/internal/controller"
	"pdfqa/internal/handlers"
	"pdfqa/internal/logging"
	"pdfqa/internal/middleware"
	"pdfqa/internal/router"
	"pdfqa/internal/services"
	"pdfqa/internal/tui"
	"pdfqa/internal/websocket"
)

const usage = `Usage: pdfqa [-backend URL] [-addr HOST:PORT] [command]

Commands:
  tui                  interactive terminal client (default)
  serve                local web page on -addr
  index FILE           index one PDF
  ask [-plan=false] Q  ask one question
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()

	fs := flag.NewFlagSet("pdfqa", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	fs.StringVar(&cfg.BackendURL, "backend", cfg.BackendURL, "backend base URL")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "web page listen address")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	cfg.BackendURL = strings.TrimRight(cfg.BackendURL, "/")
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "invalid configuration: %v\n", err)
		return 2
	}

	command, rest := "tui", []string(nil)
	if fs.NArg() > 0 {
		command, rest = fs.Arg(0), fs.Args()[1:]
	}

	// ──── Step 2: Logging ────
	closeLog := logging.Init(cfg.Logging, command == "tui")
	defer closeLog()

	// ──── Step 3: Backend Client + Controller ────
	backend := services.NewBackendClient(cfg.BackendURL, cfg.RequestTimeout)
	display := controller.NewDisplay(cfg.EnablePlanning)
	ctrl := controller.New(backend, display)

	logrus.WithFields(logrus.Fields{"command": command, "backend": backend.BaseURL()}).Debug("starting")

	switch command {
	case "tui":
		return runTUI(ctx, cfg, ctrl, display, stderr)
	case "serve":
		return runServe(ctx, cfg, ctrl, display, backend, stderr)
	case "index":
		return runIndex(ctx, ctrl, display, rest, stdout, stderr)
	case "ask":
		return runAsk(ctx, cfg, ctrl, display, rest, stdout, stderr)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", command)
		fs.Usage()
		return 2
	}
}

func runTUI(ctx context.Context, cfg *config.Config, ctrl *controller.Controller, display *controller.Display, stderr io.Writer) int {
	model := tui.New(ctx, ctrl, display, tui.Options{
		BackendURL:  cfg.BackendURL,
		ShowContext: cfg.ShowContext,
		Planning:    cfg.EnablePlanning,
	})
	if err := tui.Run(ctx, model); err != nil {
		fmt.Fprintf(stderr, "terminal UI error: %v\n", err)
		return 1
	}
	return 0
}

func runServe(ctx context.Context, cfg *config.Config, ctrl *controller.Controller, display *controller.Display, backend *services.BackendClient, stderr io.Writer) int {
	limiter := middleware.NewRateLimiter(30, time.Minute)
	defer limiter.Stop()

	// ──── Live display updates ────
	wsHub := websocket.NewHub(display.Snapshot)
	defer wsHub.Close()
	display.OnChange(wsHub.Publish)

	pageHandler := handlers.NewPageHandler(ctrl, display, backend, cfg.BackendURL, cfg.ShowContext, cfg.MaxUploadBytes())
	pageHandler.SetLive(true)
	server := &http.Server{
		Addr:        cfg.Addr,
		Handler:     router.New(pageHandler, limiter, wsHub),
		ReadTimeout: 15 * time.Second,
		// uploads and QA calls run inside the request
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		logrus.Info("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logrus.WithError(err).Warn("server shutdown did not complete")
		}
	}()

	logrus.WithFields(logrus.Fields{"addr": cfg.Addr, "backend": cfg.BackendURL}).Infof("✓ pdfqa ready on http://%s", cfg.Addr)

	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		fmt.Fprintf(stderr, "server error: %v\n", err)
		return 1
	}
	return 0
}

func runIndex(ctx context.Context, ctrl *controller.Controller, display *controller.Display, args []string, stdout, stderr io.Writer) int {
	if len(args) > 1 {
		fmt.Fprint(stderr, usage)
		return 2
	}
	path := ""
	if len(args) == 1 {
		path = args[0]
	}

	err := ctrl.SubmitIndex(ctx, controller.FileUpload(path))
	if err == nil {
		printNotifications(display, stdout)
	} else {
		printNotifications(display, stderr)
	}
	return exitCode(err)
}

func runAsk(ctx context.Context, cfg *config.Config, ctrl *controller.Controller, display *controller.Display, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("ask", flag.ContinueOnError)
	fs.SetOutput(stderr)
	plan := fs.Bool("plan", cfg.EnablePlanning, "ask the backend to plan sub-questions")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	err := ctrl.SubmitQuestion(ctx, strings.Join(fs.Args(), " "), *plan)
	printNotifications(display, stderr)
	if err == nil {
		printRegions(display.Snapshot(), cfg.ShowContext, stdout)
	}
	return exitCode(err)
}

func printNotifications(display *controller.Display, w io.Writer) {
	for _, n := range display.TakeNotifications() {
		fmt.Fprintln(w, n)
	}
}

func printRegions(state controller.DisplayState, showContext bool, w io.Writer) {
	fmt.Fprintf(w, "Plan:\n%s\n\n", state.Plan)
	fmt.Fprintln(w, "Sub-questions:")
	for _, item := range state.SubQuestions {
		fmt.Fprintln(w, item)
	}
	fmt.Fprintf(w, "\nAnswer:\n%s\n", state.Answer)
	if showContext {
		fmt.Fprintf(w, "\nContext:\n%s\n", state.Context)
	}
}

func exitCode(err error) int {
	var validation *controller.ValidationError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &validation):
		return 2
	default:
		return 1
	}
}
