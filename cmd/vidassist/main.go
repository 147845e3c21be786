package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "vidassist",
	Short:         "Native backend for the AI Video Processing Assistant",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	configPath string
	socketPath string
	jsonOut    bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.vidassist/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&socketPath, "socket", "", "invoke bridge socket (default ~/.vidassist/vidassist.sock)")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "print JSON output")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
