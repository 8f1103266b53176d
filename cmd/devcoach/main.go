package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/kylemclaren/devcoach/internal/ai"
	"github.com/kylemclaren/devcoach/internal/checkin"
	"github.com/kylemclaren/devcoach/internal/config"
	"github.com/kylemclaren/devcoach/internal/history"
	"github.com/kylemclaren/devcoach/internal/notify"
	"github.com/kylemclaren/devcoach/internal/scheduler"
	"github.com/kylemclaren/devcoach/internal/shell"
	"github.com/kylemclaren/devcoach/internal/storage"
	"github.com/kylemclaren/devcoach/internal/task"
	"github.com/kylemclaren/devcoach/internal/version"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version", "--version", "-v":
			fmt.Println(version.Info())
			return
		case "help", "--help", "-h":
			printHelp()
			return
		case "daemon":
			if err := runDaemon(); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
			printHelp()
			os.Exit(1)
		}
	}

	app, sched, cleanup, err := buildApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	sched.Start()
	defer sched.Stop()

	if err := shell.Run(app); err != nil {
		fmt.Fprintf(os.Stderr, "Error running shell: %v\n", err)
		os.Exit(1)
	}
}

// buildApp wires the data directory, stores, scheduler and shell
// dependencies. cleanup flushes command history.
func buildApp() (*shell.App, *scheduler.Scheduler, func(), error) {
	dataDir, err := resolveDataDir()
	if err != nil {
		return nil, nil, nil, err
	}
	config.LoadEnvFile(dataDir)

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	})
	if lvl, err := log.ParseLevel(os.Getenv("DEVCOACH_LOG")); err == nil {
		logger.SetLevel(lvl)
	}
	logFile, err := os.OpenFile(filepath.Join(dataDir, "devcoach.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err == nil {
		logger.SetOutput(logFile)
	}

	dir := storage.Open(dataDir, logger)
	cfg := config.NewManager(dir, logger)
	tasks := task.NewStore(dir, logger)
	daily := checkin.NewLog(dir, logger)
	notifier := notify.NewDesktop(logger)
	webhook := notify.NewWebhook(logger)

	sched := scheduler.New(cfg, tasks, daily, notifier, webhook, logger)
	registry := checkin.NewRegistry(cfg, sched, logger)
	if err := registry.Rebuild(); err != nil {
		logger.Error("failed to schedule check-ins", "err", err)
	}

	hist := history.Load(dir, cfg.Get().MaxHistory, logger)

	app := &shell.App{
		Cfg:        cfg,
		Tasks:      tasks,
		Registry:   registry,
		Daily:      daily,
		Sched:      sched,
		Notifier:   notifier,
		History:    hist,
		Log:        logger,
		NewCoach:   newCoach,
		DataPath:   dir.Path(),
		MemoryOnly: dir.MemoryOnly(),
	}
	cleanup := func() {
		_ = hist.Flush()
		if logFile != nil {
			_ = logFile.Close()
		}
	}
	return app, sched, cleanup, nil
}

// runDaemon runs the scheduler without the interactive shell, for
// service managers. Coaching messages go to the log and the OS
// notifier.
func runDaemon() error {
	app, sched, cleanup, err := buildApp()
	if err != nil {
		return err
	}
	defer cleanup()

	sched.SetEcho(func(message string) {
		app.Log.Info("check-in delivered", "message", message)
	})
	sched.Start()
	defer sched.Stop()

	fmt.Println("devcoach daemon started")
	fmt.Printf("PID: %d\n", os.Getpid())
	fmt.Printf("Data: %s\n", app.DataPath)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	fmt.Println("\nShutting down...")
	return nil
}

func newCoach(apiKey string) scheduler.Coach {
	return ai.NewClient(apiKey)
}

func resolveDataDir() (string, error) {
	if dir := os.Getenv("DEVCOACH_DATA"); dir != "" {
		return dir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(homeDir, ".devcoach"), nil
}

func printHelp() {
	fmt.Println(`devcoach - personal productivity coach with scheduled AI check-ins

Usage:
  devcoach              Launch the interactive shell
  devcoach daemon       Run the check-in scheduler in the foreground
  devcoach version      Show version information
  devcoach help         Show this help message

Environment Variables:
  DEVCOACH_DATA         Override data directory (default: ~/.devcoach)
  DEVCOACH_AI_API_KEY   AI API key (also read from GEMINI_API_KEY)

Inside the shell, type /help for commands.`)
}
