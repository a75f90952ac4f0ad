// Command hds runs the scheduler simulation with a line oriented console.
//
// Usage:
//
//	hds -config config.yaml [-console] [-batch]
//
// With -batch the command exits once every job has finished.
//
// Console commands: print_dl, print_stats, help, quit.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/viant/hds"
	"github.com/viant/hds/internal/logging"
	"github.com/viant/hds/service/messaging"
	"github.com/viant/hds/service/stats"
	"github.com/viant/hds/tracing"
	"go.uber.org/zap"
)

const version = "0.1.0"

func main() {
	configURL := flag.String("config", "config.yaml", "configuration file URL")
	console := flag.Bool("console", false, "mirror log output to stderr")
	batch := flag.Bool("batch", false, "exit once every job has finished")
	flag.Parse()

	if err := run(*configURL, *console, *batch, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "hds: %v\n", err)
		os.Exit(1)
	}
}

func run(configURL string, console, batch bool, in io.Reader, out io.Writer) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := hds.LoadConfig(ctx, configURL)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogFilename, cfg.LogLevel, console)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	for _, skipped := range cfg.Skipped {
		logger.Warn("process record skipped", zap.String("reason", skipped))
	}

	if cfg.TraceFile != "" {
		if err = tracing.Init("hds", version, cfg.TraceFile); err != nil {
			return fmt.Errorf("failed to init tracing: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = tracing.Shutdown(shutdownCtx)
		}()
	}

	srv, err := hds.New(cfg, hds.WithLogger(logger))
	if err != nil {
		return err
	}
	if err = srv.Start(ctx); err != nil {
		return err
	}
	go printSnapshots(ctx, srv.Snapshots(), out, logger)

	quit := make(chan struct{})
	go readCommands(ctx, srv, in, out, quit)

	var done <-chan struct{}
	if batch {
		done = srv.Done()
	}
	select {
	case <-ctx.Done():
	case <-quit:
	case <-done:
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// printSnapshots writes published snapshots to out. A snapshot that could not
// be written is returned to the queue for another attempt.
func printSnapshots(ctx context.Context, snapshots messaging.Queue[stats.Snapshot], out io.Writer, logger *zap.Logger) {
	for {
		message, err := snapshots.Consume(ctx)
		if err != nil {
			return
		}
		snapshot := message.T()
		if _, err = fmt.Fprintf(out, "--- %s\n%s\n", snapshot.Time.Format("15:04:05"), strings.Join(snapshot.Lines, "\n")); err != nil {
			logger.Warn("failed to print snapshot", zap.Error(err))
			_ = message.Nack(err)
			continue
		}
		_ = message.Ack()
	}
}

func readCommands(ctx context.Context, srv *hds.Service, in io.Reader, out io.Writer, quit chan<- struct{}) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		command := strings.TrimSpace(scanner.Text())
		switch command {
		case "":
			continue
		case "quit", "exit":
			close(quit)
			return
		case "help":
			fmt.Fprintf(out, "commands: %s, %s, help, quit\n", stats.CommandPrintJobs, stats.CommandPrintStats)
			continue
		}
		lines, err := srv.Execute(ctx, command)
		if err != nil {
			fmt.Fprintf(out, "%v\n", err)
			continue
		}
		for _, line := range lines {
			fmt.Fprintln(out, line)
		}
	}
}
