package commands

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/benaskins/vidassist/internal/gpu"
	"github.com/benaskins/vidassist/internal/tuning"
)

type fakeDevices struct {
	devices []gpu.Device
	err     error
	refresh []bool
}

func (f *fakeDevices) Devices(ctx context.Context, forceRefresh bool) ([]gpu.Device, error) {
	f.refresh = append(f.refresh, forceRefresh)
	return f.devices, f.err
}

func mb(v uint64) *uint64 { return &v }

func invoke(t *testing.T, h *Handlers, name, args string) (any, error) {
	t.Helper()
	handler, ok := h.Map()[name]
	if !ok {
		t.Fatalf("no command %s", name)
	}
	return handler(context.Background(), json.RawMessage(args))
}

func TestGreetEmbedsNameVerbatim(t *testing.T) {
	t.Parallel()
	h := New(&fakeDevices{})

	for _, name := range []string{"Ada", "", "  spaced  ", "名前", `quote"d`, "%s {}"} {
		args, _ := json.Marshal(map[string]string{"name": name})
		out, err := invoke(t, h, Greet, string(args))
		if err != nil {
			t.Fatalf("greet(%q): %v", name, err)
		}
		want := "Hello, " + name + "! Welcome to AI Video Processing Assistant."
		if out != want {
			t.Errorf("greet(%q) = %q, want %q", name, out, want)
		}
	}
}

func TestGreetBadArgs(t *testing.T) {
	t.Parallel()
	if _, err := invoke(t, New(&fakeDevices{}), Greet, `{"name": 5}`); err == nil {
		t.Error("expected error for non-string name")
	}
}

func TestListSystemGPUs(t *testing.T) {
	t.Parallel()
	h := New(&fakeDevices{})
	h.listSystem = func(context.Context) ([]gpu.Descriptor, error) {
		return []gpu.Descriptor{{Name: "RTX 4090", VRAMMB: mb(24564)}}, nil
	}

	out, err := invoke(t, h, ListSystemGPUs, "")
	if err != nil {
		t.Fatalf("list_system_gpus: %v", err)
	}
	data, _ := json.Marshal(out)
	if string(data) != `[{"name":"RTX 4090","vramMb":24564}]` {
		t.Errorf("serialized = %s", data)
	}
}

func TestListSystemGPUsError(t *testing.T) {
	t.Parallel()
	h := New(&fakeDevices{})
	h.listSystem = func(context.Context) ([]gpu.Descriptor, error) {
		return nil, &gpu.ExitError{Code: 1, Stderr: "Get-CimInstance : Access denied"}
	}

	_, err := invoke(t, h, ListSystemGPUs, "{}")
	if err == nil || err.Error() != "Get-CimInstance : Access denied" {
		t.Errorf("error = %v", err)
	}
}

func TestDetectGPUDevices(t *testing.T) {
	t.Parallel()
	src := &fakeDevices{}
	h := New(src)

	out, err := invoke(t, h, DetectGPUDevices, `{"forceRefresh":true}`)
	if err != nil {
		t.Fatalf("detect_gpu_devices: %v", err)
	}
	if data, _ := json.Marshal(out); string(data) != "[]" {
		t.Errorf("serialized = %s, want []", data)
	}
	if len(src.refresh) != 1 || !src.refresh[0] {
		t.Errorf("forceRefresh not passed through: %v", src.refresh)
	}

	src.err = errors.New("running waifu2x-ncnn-vulkan: not found")
	if _, err := invoke(t, h, DetectGPUDevices, ""); err == nil {
		t.Error("expected probe error")
	}
}

func TestRecommendNcnnRuntime(t *testing.T) {
	t.Parallel()
	h := New(&fakeDevices{devices: []gpu.Device{
		{ID: 0, Name: "iGPU", VRAMMB: mb(1024)},
		{ID: 1, Name: "dGPU", VRAMMB: mb(12288)},
	}})

	out, err := invoke(t, h, RecommendNcnnRuntime, `{}`)
	if err != nil {
		t.Fatalf("recommend_ncnn_runtime: %v", err)
	}
	if got := out.(tuning.NcnnRuntime); got.TileSize != 384 || got.ThreadSpec != "2:6:2" {
		t.Errorf("auto = %+v", got)
	}

	out, _ = invoke(t, h, RecommendNcnnRuntime, `{"gpuId":0}`)
	if got := out.(tuning.NcnnRuntime); got.TileSize != 128 {
		t.Errorf("gpu 0 = %+v", got)
	}

	out, _ = invoke(t, h, RecommendNcnnRuntime, `{"gpuId":9}`)
	if got := out.(tuning.NcnnRuntime); got.TileSize != 256 {
		t.Errorf("unknown gpu = %+v", got)
	}
}

func TestRecommendRifeRuntimeProbeFailure(t *testing.T) {
	t.Parallel()
	h := New(&fakeDevices{err: errors.New("probe failed")})

	out, err := invoke(t, h, RecommendRifeRuntime, `{"gpuId":-1,"uhd":true}`)
	if err != nil {
		t.Fatalf("recommend_rife_runtime: %v", err)
	}
	spec := out.(tuning.RifeRuntime).ThreadSpec
	if strings.Count(spec, ":") != 2 {
		t.Errorf("thread spec = %q", spec)
	}
}
