package gpu

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Device is a Vulkan device as numbered by the ncnn tools, with VRAM taken
// from the matching system adapter when one is found.
type Device struct {
	ID     int     `json:"id"`
	Name   string  `json:"name"`
	VRAMMB *uint64 `json:"vramMb"`
}

var (
	ncnnDeviceRe = regexp.MustCompile(`^\[(\d+)\s+([^\]]+)\]`)
	ansiEscapeRe = regexp.MustCompile(`\x1b\[[^@-~]*[@-~]?`)
	nonAlnumRe   = regexp.MustCompile(`[^a-z0-9]+`)
)

// ParseNcnnDevices extracts the device list from ncnn verbose output.
// Lines look like "[0 NVIDIA GeForce RTX 3080]  queueC=2[8] ...".
// Duplicate id/name pairs are collapsed and the result is sorted by id.
func ParseNcnnDevices(output string) []Device {
	seen := make(map[string]bool)
	var devices []Device

	for _, line := range strings.Split(ansiEscapeRe.ReplaceAllString(output, ""), "\n") {
		m := ncnnDeviceRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		id, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		name := strings.TrimSpace(m[2])
		key := m[1] + ":" + name
		if seen[key] {
			continue
		}
		seen[key] = true
		devices = append(devices, Device{ID: id, Name: name})
	}

	sort.SliceStable(devices, func(i, j int) bool { return devices[i].ID < devices[j].ID })
	return devices
}

func normalizeName(name string) string {
	return nonAlnumRe.ReplaceAllString(strings.ToLower(name), "")
}

// ResolveVRAM finds the system adapter matching a device name. An exact
// normalized match wins; otherwise the first adapter whose normalized name
// contains, or is contained in, the device name is used.
func ResolveVRAM(name string, systems []Descriptor) *uint64 {
	want := normalizeName(name)
	if want == "" {
		return nil
	}

	for _, s := range systems {
		if normalizeName(s.Name) == want {
			return s.VRAMMB
		}
	}
	for _, s := range systems {
		have := normalizeName(s.Name)
		if strings.Contains(have, want) || strings.Contains(want, have) {
			return s.VRAMMB
		}
	}
	return nil
}
