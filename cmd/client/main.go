// crossx - консольный клиент комнат: создать или войти по коду, делиться текстом
// и изображениями, пока комната не истечет.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"crossx/internal/client"
	"crossx/internal/clock"
	"crossx/pkg/logger"

	"github.com/spf13/pflag"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		serverURL string
		create    bool
		join      string
		stateFile string
		logLevel  string
		timeout   time.Duration
		intervals = client.DefaultIntervals()
	)

	flagSet := pflag.NewFlagSet("crossx", pflag.ContinueOnError)
	flagSet.StringVar(&serverURL, "server", envOr("CROSSX_SERVER", "http://localhost:3001"), "room server base URL")
	flagSet.BoolVar(&create, "create", false, "create a new room on start")
	flagSet.StringVar(&join, "join", "", "join an existing room by code")
	flagSet.StringVar(&stateFile, "state-file", defaultStateFile(), "file that remembers the current room between runs")
	flagSet.StringVar(&logLevel, "log-level", "error", "log level (debug, info, warn, error)")
	flagSet.DurationVar(&timeout, "timeout", 30*time.Second, "HTTP request timeout")
	flagSet.DurationVar(&intervals.Text, "text-interval", intervals.Text, "text poll interval")
	flagSet.DurationVar(&intervals.Images, "images-interval", intervals.Images, "image poll interval")
	flagSet.DurationVar(&intervals.Presence, "presence-interval", intervals.Presence, "room presence poll interval")
	flagSet.DurationVar(&intervals.Countdown, "countdown-interval", intervals.Countdown, "local countdown step")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}
	if create && join != "" {
		return errors.New("--create and --join are mutually exclusive")
	}

	log := logger.NewWithWriter(os.Stderr, logLevel, false)
	view := newView(os.Stdout)

	reconciler := client.NewReconciler(
		client.NewHTTPClient(serverURL, timeout),
		client.NewFileLocation(stateFile),
		clock.Real(),
		log,
		client.WithIntervals(intervals),
		client.WithOnChange(view.Render),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loopErr := make(chan error, 1)
	go func() { loopErr <- reconciler.Run(ctx) }()

	<-reconciler.Ready()

	if _, err := reconciler.Resume(ctx); err != nil {
		view.Error(err)
	}

	switch {
	case create:
		if _, err := reconciler.Create(ctx); err != nil {
			view.Error(err)
		}
	case join != "":
		if err := reconciler.Join(ctx, join); err != nil {
			view.Error(err)
		}
	}

	view.Help()

	lines := make(chan string)
	go readLines(os.Stdin, lines)

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-loopErr:
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if quit := handleLine(ctx, reconciler, view, line); quit {
				return nil
			}
		}
	}
}

// handleLine выполняет одну команду пользователя; true - выход
func handleLine(ctx context.Context, r *client.Reconciler, view *view, line string) bool {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return false
	}

	if !strings.HasPrefix(line, "/") {
		if err := r.ShareText(ctx, line); err != nil {
			view.Error(err)
		}
		return false
	}

	command, arg, _ := strings.Cut(strings.TrimPrefix(line, "/"), " ")
	arg = strings.TrimSpace(arg)

	var err error
	switch command {
	case "create":
		_, err = r.Create(ctx)
	case "join":
		err = r.Join(ctx, arg)
	case "upload":
		err = upload(ctx, r, arg)
	case "text":
		view.Text(r.State())
	case "images":
		view.Images(r.State())
	case "close":
		err = r.CloseRoom(ctx)
	case "leave", "back":
		err = r.Leave(ctx)
	case "help":
		view.Help()
	case "quit", "exit":
		return true
	default:
		view.Error(fmt.Errorf("unknown command /%s", command))
	}
	if err != nil {
		view.Error(err)
	}
	return false
}

func upload(ctx context.Context, r *client.Reconciler, path string) error {
	if path == "" {
		return errors.New("usage: /upload <path>")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	_, err = r.UploadImage(ctx, filepath.Base(path), data)
	return err
}

func readLines(f *os.File, out chan<- string) {
	defer close(out)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	for scanner.Scan() {
		out <- scanner.Text()
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultStateFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ".crossx-room"
	}
	return filepath.Join(dir, "crossx", "room")
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, "Usage: crossx [flags]\n\nShare text and images through short-lived rooms.\n\nFlags:\n")
	flagSet.PrintDefaults()
}
