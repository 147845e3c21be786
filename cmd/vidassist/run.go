package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/benaskins/vidassist/internal/audit"
	"github.com/benaskins/vidassist/internal/commands"
	"github.com/benaskins/vidassist/internal/config"
	"github.com/benaskins/vidassist/internal/dialog"
	"github.com/benaskins/vidassist/internal/files"
	"github.com/benaskins/vidassist/internal/gpu"
	"github.com/benaskins/vidassist/internal/host"
	"github.com/benaskins/vidassist/internal/logutil"
	"github.com/benaskins/vidassist/internal/shell"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the backend",
	Long:  "Start the host runtime: register the fs, dialog and shell plugins and the application commands, then serve the invoke bridge until interrupted.",
	RunE:  runHost,
}

var apiAddr string

func init() {
	runCmd.Flags().StringVar(&apiAddr, "api-addr", "", "Optional TCP address for the invoke bridge (e.g. 127.0.0.1:9090)")
	rootCmd.AddCommand(runCmd)
}

func runHost(cmd *cobra.Command, args []string) error {
	cfgPath := resolvedConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := logutil.Setup(cfg.LogLevel, cfg.LogFormat); err != nil {
		return err
	}

	addr := apiAddr
	if addr == "" {
		addr = cfg.APIAddr
	}

	auditPath, err := auditLogPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(auditPath), 0700); err != nil {
		return fmt.Errorf("creating home dir: %w", err)
	}
	auditLog, err := audit.NewLogger(auditPath)
	if err != nil {
		return err
	}
	defer auditLog.Close()

	slog.Info("vidassist starting", "config", cfgPath, "version", host.Version)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	detector := gpu.NewDetector(cfg.NcnnTool)

	app := host.New(host.Options{
		SocketPath: resolvedSocketPath(),
		TCPAddr:    addr,
		ConfigPath: cfgPath,
	}).
		Plugin(shell.New(cfg.ShellAllow, auditLog)).
		Plugin(dialog.New(auditLog)).
		Plugin(files.New(cfg.FSScope, auditLog)).
		OnConfig(func(c *config.Config) { detector.SetTool(c.NcnnTool) })

	for name, handler := range commands.New(detector).Map() {
		app.Handle(name, handler)
	}

	if err := app.Run(ctx); err != nil {
		return fmt.Errorf("running host: %w", err)
	}
	return nil
}
