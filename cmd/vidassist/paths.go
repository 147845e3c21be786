package main

import (
	"os"
	"path/filepath"

	"github.com/benaskins/vidassist/internal/config"
)

func resolvedConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultPath()
}

func resolvedSocketPath() string {
	if socketPath != "" {
		return socketPath
	}
	dir, err := config.Home()
	if err != nil {
		return filepath.Join(os.TempDir(), "vidassist.sock")
	}
	return filepath.Join(dir, "vidassist.sock")
}

func auditLogPath() (string, error) {
	dir, err := config.Home()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "audit.log"), nil
}
