package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/yourusername/build-fetch-go/api"
	"github.com/yourusername/build-fetch-go/internal/app"
	"github.com/yourusername/build-fetch-go/internal/domain"
	"github.com/yourusername/build-fetch-go/internal/infrastructure"
	"github.com/yourusername/build-fetch-go/pkg/logger"
)

const version = "1.0.0"

var (
	configPath = flag.String("config", "", "Path to config file")
	foreground = flag.Bool("foreground", false, "Run in the foreground instead of detaching")
	serverMode = flag.Bool("server-mode", false, "Internal flag: run in server mode (called by daemon)")
	initConfig = flag.String("init-config", "", "Write the default config to this path and exit")
)

func main() {
	flag.Parse()

	if *initConfig != "" {
		if err := app.SaveConfig(domain.DefaultConfig(), *initConfig); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Config written to %s\n", *initConfig)
		return
	}

	if !*serverMode && !*foreground {
		startAsDaemon()
		return
	}

	runServer()
}

// startAsDaemon re-executes the binary in server mode as a detached process
func startAsDaemon() {
	execPath, err := os.Executable()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to get executable path: %v\n", err)
		os.Exit(1)
	}

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "/"
	}

	args := []string{"-server-mode"}
	if *configPath != "" {
		args = append(args, "-config", *configPath)
	}
	cmd := exec.Command(execPath, args...)
	cmd.Dir = cwd
	cmd.Env = os.Environ()
	detach(cmd)

	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open %s: %v\n", os.DevNull, err)
		os.Exit(1)
	}
	cmd.Stdin = devNull
	cmd.Stdout = devNull
	cmd.Stderr = devNull

	if err := cmd.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start daemon: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Server started as daemon (PID: %d)\n", cmd.Process.Pid)
	os.Exit(0)
}

func runServer() {
	config, err := app.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, closeLog, err := logger.New(logger.Config{
		Level:      config.Logging.Level,
		Format:     config.Logging.Format,
		OutputPath: config.Logging.OutputPath,
		Component:  "server",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	multiLog, err := logger.NewMultiLogger(logger.MultiLoggerConfig{
		Level:   config.Logging.Level,
		LogsDir: config.Logging.LogsDir,
	})
	if err != nil {
		log.Fatal("Failed to initialize category logs", zap.Error(err))
	}
	defer multiLog.Close()

	log.Info("Starting build fetch server",
		zap.String("version", version),
		zap.String("host", config.Server.Host),
		zap.Int("port", config.Server.Port),
		zap.String("install_dir", config.Download.InstallDir),
		zap.String("manifest_url", config.Manifest.BaseURL))

	if err := createDirectories(config); err != nil {
		log.Fatal("Failed to create directories", zap.Error(err))
	}

	repo, err := infrastructure.NewSQLiteJobRepository(config.Store.DatabasePath)
	if err != nil {
		log.Fatal("Failed to initialize repository", zap.Error(err))
	}
	defer repo.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := infrastructure.NewMetrics(registry)

	hub := infrastructure.NewEventHub(64, log)
	sinks := infrastructure.Sinks{hub}
	if config.Notification.Enabled {
		sinks = append(sinks, infrastructure.NewNotificationService(&config.Notification, log))
	}

	httpClient := infrastructure.NewHTTPClient(&config.HTTP)
	streamingClient := infrastructure.NewStreamingClient(&config.HTTP)
	manifests := infrastructure.NewManifestClient(config.Manifest.BaseURL, httpClient, config.HTTP.UserAgent, log)

	simple := infrastructure.NewSimpleDownloader(streamingClient, config.HTTP.UserAgent, config.Download.BufferSize, metrics, log)
	manifest := infrastructure.NewManifestDownloader(manifests, metrics, log)

	regs := app.NewRegistries()
	extractionMgr := app.NewExtractionManager(regs.Extractions, infrastructure.NewZipExtractor(log),
		sinks, metrics, config.Progress.Interval, log, multiLog)
	downloadMgr := app.NewDownloadManager(regs.Downloads, simple, manifest, extractionMgr,
		repo, sinks, metrics, config.Progress.Interval, log, multiLog)
	runner := app.NewJobRunner(downloadMgr, extractionMgr, repo, multiLog)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := runner.Start(ctx); err != nil {
		log.Fatal("Failed to start job runner", zap.Error(err))
	}

	router := api.SetupRouter(api.RouterDeps{
		Runner:      runner,
		Downloads:   downloadMgr,
		Extractions: extractionMgr,
		Versions:    manifests,
		Hub:         hub,
		Gatherer:    registry,
		InstallDir:  config.Download.InstallDir,
		LogsDir:     config.Logging.LogsDir,
		Logger:      log,
		MultiLogger: multiLog,
	})

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Info("Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("HTTP server failed", zap.Error(err))
	}

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Stop accepting requests first so no job is admitted after the runner stops
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	if err := runner.Stop(); err != nil {
		log.Error("Error stopping job runner", zap.Error(err))
	}

	log.Info("Server exited")
}

func createDirectories(config *domain.Config) error {
	dirs := []string{
		config.Download.InstallDir,
		config.Logging.LogsDir,
		filepath.Dir(config.Store.DatabasePath),
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
