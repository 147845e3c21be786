package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/benaskins/vidassist/internal/config"
)

type checkResult struct {
	Path      string   `json:"path"`
	Valid     bool     `json:"valid"`
	Exists    bool     `json:"exists"`
	LogLevel  string   `json:"log_level,omitempty"`
	FSScope   []string `json:"fs_scope,omitempty"`
	ShellKeys int      `json:"shell_aliases"`
	NcnnTool  string   `json:"ncnn_tool,omitempty"`
	Error     string   `json:"error,omitempty"`
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the backend configuration",
}

var configCheckCmd = &cobra.Command{
	Use:   "check [file]",
	Short: "Validate the configuration file",
	Long:  "Parse and validate the YAML configuration. Checks the given file or the default (~/.vidassist/config.yaml).",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigCheck,
}

func init() {
	configCmd.AddCommand(configCheckCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigCheck(cmd *cobra.Command, args []string) error {
	path := resolvedConfigPath()
	if len(args) > 0 {
		path = args[0]
	}

	res := checkResult{Path: path}
	if _, err := os.Stat(path); err == nil {
		res.Exists = true
	}

	cfg, err := config.Load(path)
	if err != nil {
		res.Error = err.Error()
	} else {
		res.Valid = true
		res.LogLevel = cfg.LogLevel
		res.FSScope = cfg.FSScope
		res.ShellKeys = len(cfg.ShellAllow)
		res.NcnnTool = cfg.NcnnTool
	}

	if jsonOut {
		if err := printJSON(res); err != nil {
			return err
		}
	} else if res.Valid {
		note := ""
		if !res.Exists {
			note = " (file missing, using defaults)"
		}
		fmt.Printf("OK    %s%s\n", res.Path, note)
		fmt.Printf("      log level %s, %d fs scope root(s), %d shell alias(es), ncnn tool %s\n",
			res.LogLevel, len(res.FSScope), res.ShellKeys, res.NcnnTool)
	} else {
		fmt.Fprintf(os.Stderr, "FAIL  %s\n      %v\n", res.Path, res.Error)
	}

	if !res.Valid {
		return fmt.Errorf("configuration invalid")
	}
	return nil
}
