package daemonrun

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"taggenius/internal/blueprint"
	"taggenius/internal/config"
	"taggenius/internal/daemon"
	"taggenius/internal/ipc"
	"taggenius/internal/jobs"
	"taggenius/internal/logging"
	"taggenius/internal/services/lexicon"
	"taggenius/internal/services/llm"
	"taggenius/internal/worker"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel string
}

// Run starts the taggenius daemon runtime loop and blocks until the process
// receives SIGINT or SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("prepare directories: %w", err)
	}

	if opts.LogLevel != "" {
		cfg.Logging.Level = opts.LogLevel
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	pidPath := filepath.Join(cfg.Paths.LogDir, "taggeniusd.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	ledger, err := jobs.Open(cfg)
	if err != nil {
		logger.Error("open job ledger", logging.Error(err))
		return err
	}

	cache, err := blueprint.Open(cfg, logger)
	if err != nil {
		logger.Error("open blueprint cache", logging.Error(err))
		ledger.Close()
		return err
	}

	var classifierOpts []llm.Option
	if cfg.Lexicon.Enabled {
		classifierOpts = append(classifierOpts, llm.WithEnricher(lexicon.NewClient(cfg.Lexicon, logger)))
		logger.Info("lexicon enrichment enabled", logging.String("base_url", cfg.Lexicon.BaseURL))
	}
	classifier := llm.NewClient(cfg.LLM, classifierOpts...)
	wk := worker.NewManager(cfg, ledger, cache, classifier, logger)

	d, err := daemon.New(cfg, ledger, cache, wk, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	ipcServer, err := ipc.NewServer(signalCtx, cfg.SocketPath(), d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(signalCtx); err != nil {
		logger.Warn("daemon start failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "daemon_start_failed"),
			logging.String(logging.FieldErrorHint, "check configuration and data directory access"),
		)
	}

	<-signalCtx.Done()
	logger.Info("taggenius daemon shutting down")
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
