// Package tuning picks ncnn and RIFE runtime settings from available VRAM.
package tuning

import (
	"fmt"
	"math"
	"runtime"

	"github.com/benaskins/vidassist/internal/gpu"
)

// NcnnRuntime holds the tile size and -j thread spec for the ncnn upscalers.
type NcnnRuntime struct {
	TileSize   int    `json:"tileSize"`
	ThreadSpec string `json:"threadSpec"`
}

// RifeRuntime holds the -j thread spec for rife-ncnn-vulkan.
type RifeRuntime struct {
	ThreadSpec string `json:"threadSpec"`
}

var ncnnTiers = []struct {
	minMB uint64
	rt    NcnnRuntime
}{
	{16384, NcnnRuntime{512, "2:8:2"}},
	{12288, NcnnRuntime{384, "2:6:2"}},
	{8192, NcnnRuntime{320, "2:5:2"}},
	{6144, NcnnRuntime{256, "2:4:2"}},
	{4096, NcnnRuntime{192, "1:3:2"}},
}

// Ncnn returns upscaler settings for a GPU with the given VRAM. Unknown VRAM
// gets a middle-of-the-road tile; small cards get the smallest one.
func Ncnn(vramMB *uint64) NcnnRuntime {
	if vramMB == nil || *vramMB == 0 {
		return NcnnRuntime{TileSize: 256, ThreadSpec: "1:2:2"}
	}
	for _, tier := range ncnnTiers {
		if *vramMB >= tier.minMB {
			return tier.rt
		}
	}
	return NcnnRuntime{TileSize: 128, ThreadSpec: "1:2:2"}
}

// Rife returns interpolator settings. uhd selects the 4K profile, which keeps
// fewer frames in flight.
func Rife(vramMB *uint64, uhd bool) RifeRuntime {
	return rife(vramMB, uhd, runtime.NumCPU())
}

func rife(vramMB *uint64, uhd bool, cores int) RifeRuntime {
	if cores <= 0 {
		cores = 8
	}
	reserved := 2
	if uhd {
		reserved = 4
	}
	maxProc := max(2, cores-reserved)

	var mb uint64
	if vramMB != nil {
		mb = *vramMB
	}

	var procThreads int
	switch {
	case uhd && mb >= 12288:
		procThreads = 4
	case uhd:
		procThreads = 3
	case mb == 0:
		procThreads = 6
	case mb >= 16384:
		procThreads = 8
	case mb >= 12288:
		procThreads = 7
	case mb >= 8192:
		procThreads = 6
	case mb >= 6144:
		procThreads = 5
	case mb >= 4096:
		procThreads = 4
	default:
		procThreads = 3
	}

	proc := clamp(procThreads, 2, maxProc)
	loadDiv, saveDiv := 1.8, 1.6
	if uhd {
		loadDiv, saveDiv = 2, 2
	}
	load := clamp(int(math.Ceil(float64(proc)/loadDiv)), 1, 6)
	save := clamp(int(math.Ceil(float64(proc)/saveDiv)), 2, 8)

	return RifeRuntime{ThreadSpec: fmt.Sprintf("%d:%d:%d", load, proc, save)}
}

func clamp(v, lo, hi int) int {
	return min(hi, max(lo, v))
}

// Target picks the device a job will run on. A non-negative id selects that
// device exactly. Otherwise the device with the most known VRAM wins, falling
// back to the first device. It returns nil when nothing matches.
func Target(devices []gpu.Device, id int) *gpu.Device {
	if len(devices) == 0 {
		return nil
	}
	if id >= 0 {
		for i := range devices {
			if devices[i].ID == id {
				return &devices[i]
			}
		}
		return nil
	}

	var best *gpu.Device
	for i := range devices {
		d := &devices[i]
		if d.VRAMMB == nil {
			continue
		}
		if best == nil || *d.VRAMMB > *best.VRAMMB {
			best = d
		}
	}
	if best == nil {
		return &devices[0]
	}
	return best
}

// VRAM returns the device's VRAM, or nil for no device.
func VRAM(d *gpu.Device) *uint64 {
	if d == nil {
		return nil
	}
	return d.VRAMMB
}
