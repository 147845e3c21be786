package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/benaskins/vidassist/internal/commands"
	"github.com/benaskins/vidassist/internal/gpu"
	"github.com/benaskins/vidassist/internal/ipc"
	"github.com/benaskins/vidassist/internal/tuning"
)

func apiClient() *ipc.Client {
	return ipc.NewUnixClient(resolvedSocketPath())
}

// greet command
var greetCmd = &cobra.Command{
	Use:   "greet <name>",
	Short: "Ask the backend for a greeting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var greeting string
		if err := apiClient().Invoke(cmd.Context(), commands.Greet, map[string]string{"name": args[0]}, &greeting); err != nil {
			return err
		}
		fmt.Println(greeting)
		return nil
	},
}

// gpus command
var gpusCmd = &cobra.Command{
	Use:   "gpus",
	Short: "List display adapters reported by the system",
	RunE: func(cmd *cobra.Command, args []string) error {
		local, _ := cmd.Flags().GetBool("local")

		var gpus []gpu.Descriptor
		var err error
		if local {
			gpus, err = gpu.ListSystem(cmd.Context())
		} else {
			err = apiClient().Invoke(cmd.Context(), commands.ListSystemGPUs, nil, &gpus)
		}
		if err != nil {
			return err
		}

		if jsonOut {
			return printJSON(gpus)
		}
		if len(gpus) == 0 {
			fmt.Println("No GPUs reported")
			return nil
		}
		rows := make([][]string, 0, len(gpus))
		for _, g := range gpus {
			rows = append(rows, []string{g.Name, formatVRAM(g.VRAMMB)})
		}
		printTable([]string{"GPU", "VRAM"}, rows)
		return nil
	},
}

// devices command
var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List Vulkan devices usable by the ncnn tools",
	RunE: func(cmd *cobra.Command, args []string) error {
		refresh, _ := cmd.Flags().GetBool("refresh")

		var devices []gpu.Device
		if err := apiClient().Invoke(cmd.Context(), commands.DetectGPUDevices, map[string]bool{"forceRefresh": refresh}, &devices); err != nil {
			return err
		}

		if jsonOut {
			return printJSON(devices)
		}
		if len(devices) == 0 {
			fmt.Println("No Vulkan devices found")
			return nil
		}
		rows := make([][]string, 0, len(devices))
		for _, d := range devices {
			ncnn := tuning.Ncnn(d.VRAMMB)
			rows = append(rows, []string{
				strconv.Itoa(d.ID), d.Name, formatVRAM(d.VRAMMB),
				strconv.Itoa(ncnn.TileSize), ncnn.ThreadSpec,
			})
		}
		printTable([]string{"ID", "DEVICE", "VRAM", "TILE", "THREADS"}, rows)
		return nil
	},
}

// recommend command
var recommendCmd = &cobra.Command{
	Use:       "recommend <ncnn|rife>",
	Short:     "Show recommended runtime settings for a GPU",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"ncnn", "rife"},
	RunE: func(cmd *cobra.Command, args []string) error {
		gpuID, _ := cmd.Flags().GetInt("gpu")
		uhd, _ := cmd.Flags().GetBool("uhd")
		req := map[string]any{"gpuId": gpuID, "uhd": uhd}

		switch args[0] {
		case "ncnn":
			var rt tuning.NcnnRuntime
			if err := apiClient().Invoke(cmd.Context(), commands.RecommendNcnnRuntime, req, &rt); err != nil {
				return err
			}
			if jsonOut {
				return printJSON(rt)
			}
			fmt.Printf("tile size: %d\nthreads:   %s\n", rt.TileSize, rt.ThreadSpec)
		case "rife":
			var rt tuning.RifeRuntime
			if err := apiClient().Invoke(cmd.Context(), commands.RecommendRifeRuntime, req, &rt); err != nil {
				return err
			}
			if jsonOut {
				return printJSON(rt)
			}
			fmt.Printf("threads: %s\n", rt.ThreadSpec)
		default:
			return fmt.Errorf("unknown runtime %q (want ncnn or rife)", args[0])
		}
		return nil
	},
}

// invoke command
var invokeCmd = &cobra.Command{
	Use:   "invoke <command> [json-args]",
	Short: "Invoke any backend command",
	Long:  `Invoke a command by name, e.g. vidassist invoke 'plugin:fs|exists' '{"path":"/tmp"}'.`,
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var req any
		if len(args) == 2 {
			raw := json.RawMessage(args[1])
			if !json.Valid(raw) {
				return fmt.Errorf("arguments are not valid JSON")
			}
			req = raw
		}
		var result json.RawMessage
		if err := apiClient().Invoke(cmd.Context(), args[0], req, &result); err != nil {
			return err
		}
		var v any
		if err := json.Unmarshal(result, &v); err != nil {
			return err
		}
		return printJSON(v)
	},
}

// commands command
var commandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "List commands served by the backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := apiClient().Commands(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOut {
			return printJSON(names)
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return nil
	},
}

func init() {
	gpusCmd.Flags().Bool("local", false, "query the system directly instead of the running backend")
	devicesCmd.Flags().Bool("refresh", false, "probe again instead of using the cached device list")
	recommendCmd.Flags().Int("gpu", -1, "device id (-1 picks the device with the most VRAM)")
	recommendCmd.Flags().Bool("uhd", false, "use the 4K profile (rife only)")

	rootCmd.AddCommand(greetCmd)
	rootCmd.AddCommand(gpusCmd)
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(recommendCmd)
	rootCmd.AddCommand(invokeCmd)
	rootCmd.AddCommand(commandsCmd)
}
