package gpu

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Probe file names passed to the ncnn tool. The files never exist; the tool
// prints its device table before failing on the missing input.
const (
	probeInput  = "__ai_video_gpu_probe_input__.png"
	probeOutput = "__ai_video_gpu_probe_output__.png"
)

// Detector probes Vulkan devices through an ncnn tool and caches the result.
type Detector struct {
	tool       string
	listSystem func(context.Context) ([]Descriptor, error)
	logger     *slog.Logger

	mu      sync.Mutex
	devices []Device
	cached  bool
}

// NewDetector creates a detector that probes with the given ncnn binary.
func NewDetector(tool string) *Detector {
	return &Detector{
		tool:       tool,
		listSystem: ListSystem,
		logger:     slog.With("component", "gpu"),
	}
}

// Devices returns the cached device list, probing on first use or when
// forceRefresh is set. A failed probe leaves the cache empty so the next call
// retries.
func (d *Detector) Devices(ctx context.Context, forceRefresh bool) ([]Device, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cached && !forceRefresh {
		return d.devices, nil
	}

	devices, err := d.probe(ctx)
	if err != nil {
		d.devices, d.cached = nil, false
		return nil, err
	}
	d.devices, d.cached = devices, true
	return devices, nil
}

// Reset drops the cached device list.
func (d *Detector) Reset() {
	d.mu.Lock()
	d.devices, d.cached = nil, false
	d.mu.Unlock()
}

// SetTool changes the ncnn binary used by later probes and drops the cache.
func (d *Detector) SetTool(tool string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if tool == d.tool {
		return
	}
	d.tool = tool
	d.devices, d.cached = nil, false
}

func (d *Detector) probe(ctx context.Context) ([]Device, error) {
	stdout, stderr, err := run(ctx, d.tool,
		"-v", "-i", probeInput, "-o", probeOutput, "-s", "1", "-n", "0")
	if err != nil {
		// The tool exits non-zero on the missing probe file; only a spawn
		// failure means there is nothing to parse.
		if _, ok := exitCode(err); !ok {
			return nil, fmt.Errorf("running %s: %w", d.tool, err)
		}
	}

	devices := ParseNcnnDevices(string(stdout) + "\n" + string(stderr))

	systems, err := d.listSystem(ctx)
	if err != nil {
		d.logger.Warn("system GPU query failed, VRAM unknown", "error", err)
		systems = nil
	}

	out := make([]Device, 0, len(devices))
	for _, dev := range devices {
		dev.VRAMMB = ResolveVRAM(dev.Name, systems)
		out = append(out, dev)
	}
	return out, nil
}
