package gpu

import "testing"

func u64(v uint64) *uint64 { return &v }

func TestParseNcnnDevices(t *testing.T) {
	t.Parallel()
	output := "\x1b[0m[1 Intel(R) UHD Graphics 630]  queueC=0[1]  queueG=0[1]\r\n" +
		"[0 NVIDIA GeForce RTX 3080]  queueC=2[8]  queueG=0[16]\n" +
		"[0 NVIDIA GeForce RTX 3080]  buglssc=0  bugsbn1=0\n" +
		"  [2 llvmpipe (LLVM 15.0.7, 256 bits)]  fp16-p/s/a=1/1/1\n" +
		"__ai_video_gpu_probe_input__.png: no such file\n" +
		"[x not a device]\n"

	devices := ParseNcnnDevices(output)
	if len(devices) != 3 {
		t.Fatalf("expected 3 devices, got %d: %+v", len(devices), devices)
	}
	want := []struct {
		id   int
		name string
	}{
		{0, "NVIDIA GeForce RTX 3080"},
		{1, "Intel(R) UHD Graphics 630"},
		{2, "llvmpipe (LLVM 15.0.7, 256 bits)"},
	}
	for i, w := range want {
		if devices[i].ID != w.id || devices[i].Name != w.name {
			t.Errorf("device %d = %+v, want %d %q", i, devices[i], w.id, w.name)
		}
	}
}

func TestParseNcnnDevicesNone(t *testing.T) {
	t.Parallel()
	if devices := ParseNcnnDevices("vkCreateInstance failed -9\n"); len(devices) != 0 {
		t.Errorf("expected no devices, got %+v", devices)
	}
}

func TestResolveVRAM(t *testing.T) {
	t.Parallel()
	systems := []Descriptor{
		{Name: "NVIDIA GeForce RTX 3080", VRAMMB: u64(4095)},
		{Name: "Intel(R) UHD Graphics", VRAMMB: u64(1024)},
		{Name: "AMD Radeon(TM) Graphics"},
	}

	tests := []struct {
		name string
		want *uint64
	}{
		{"nvidia geforce rtx-3080", u64(4095)},
		{"Intel(R) UHD Graphics 630", u64(1024)},
		{"GeForce RTX 3080", u64(4095)},
		{"AMD Radeon(TM) Graphics", nil},
		{"Apple M2", nil},
		{"---", nil},
	}
	for _, tt := range tests {
		got := ResolveVRAM(tt.name, systems)
		switch {
		case tt.want == nil && got != nil:
			t.Errorf("ResolveVRAM(%q) = %d, want nil", tt.name, *got)
		case tt.want != nil && got == nil:
			t.Errorf("ResolveVRAM(%q) = nil, want %d", tt.name, *tt.want)
		case tt.want != nil && *got != *tt.want:
			t.Errorf("ResolveVRAM(%q) = %d, want %d", tt.name, *got, *tt.want)
		}
	}
}
