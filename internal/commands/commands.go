// Package commands holds the application commands the front end invokes.
package commands

import (
	"context"
	"fmt"

	"github.com/benaskins/vidassist/internal/gpu"
	"github.com/benaskins/vidassist/internal/ipc"
	"github.com/benaskins/vidassist/internal/tuning"
)

// Command names as seen by the front end.
const (
	Greet                = "greet"
	ListSystemGPUs       = "list_system_gpus"
	DetectGPUDevices     = "detect_gpu_devices"
	RecommendNcnnRuntime = "recommend_ncnn_runtime"
	RecommendRifeRuntime = "recommend_rife_runtime"
)

// Greeting returns the welcome line shown on the front end's home page.
func Greeting(name string) string {
	return fmt.Sprintf("Hello, %s! Welcome to AI Video Processing Assistant.", name)
}

type greetArgs struct {
	Name string `json:"name"`
}

type detectArgs struct {
	ForceRefresh bool `json:"forceRefresh"`
}

type recommendArgs struct {
	GPUID *int `json:"gpuId"`
	UHD   bool `json:"uhd"`
}

// gpuID treats an omitted id as "pick automatically".
func (a recommendArgs) gpuID() int {
	if a.GPUID == nil {
		return -1
	}
	return *a.GPUID
}

// DeviceSource supplies probed GPU devices; *gpu.Detector implements it.
type DeviceSource interface {
	Devices(ctx context.Context, forceRefresh bool) ([]gpu.Device, error)
}

// Handlers serves the application commands.
type Handlers struct {
	detector   DeviceSource
	listSystem func(context.Context) ([]gpu.Descriptor, error)
}

// New creates the handlers. detector backs the device probe commands.
func New(detector DeviceSource) *Handlers {
	return &Handlers{detector: detector, listSystem: gpu.ListSystem}
}

// Map returns the commands keyed by name.
func (h *Handlers) Map() map[string]ipc.Handler {
	return map[string]ipc.Handler{
		Greet:                ipc.Typed(h.greet),
		ListSystemGPUs:       ipc.Typed(h.listSystemGPUs),
		DetectGPUDevices:     ipc.Typed(h.detectGPUDevices),
		RecommendNcnnRuntime: ipc.Typed(h.recommendNcnn),
		RecommendRifeRuntime: ipc.Typed(h.recommendRife),
	}
}

func (h *Handlers) greet(ctx context.Context, args greetArgs) (string, error) {
	return Greeting(args.Name), nil
}

func (h *Handlers) listSystemGPUs(ctx context.Context, _ struct{}) ([]gpu.Descriptor, error) {
	return h.listSystem(ctx)
}

func (h *Handlers) detectGPUDevices(ctx context.Context, args detectArgs) ([]gpu.Device, error) {
	devices, err := h.detector.Devices(ctx, args.ForceRefresh)
	if err != nil {
		return nil, err
	}
	if devices == nil {
		devices = []gpu.Device{}
	}
	return devices, nil
}

// devicesOrNone swallows probe failures: a recommendation for an unknown
// GPU is still useful.
func (h *Handlers) devicesOrNone(ctx context.Context) []gpu.Device {
	devices, err := h.detector.Devices(ctx, false)
	if err != nil {
		return nil
	}
	return devices
}

func (h *Handlers) recommendNcnn(ctx context.Context, args recommendArgs) (tuning.NcnnRuntime, error) {
	target := tuning.Target(h.devicesOrNone(ctx), args.gpuID())
	return tuning.Ncnn(tuning.VRAM(target)), nil
}

func (h *Handlers) recommendRife(ctx context.Context, args recommendArgs) (tuning.RifeRuntime, error) {
	target := tuning.Target(h.devicesOrNone(ctx), args.gpuID())
	return tuning.Rife(tuning.VRAM(target), args.UHD), nil
}
