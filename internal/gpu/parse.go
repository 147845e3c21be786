package gpu

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ParseSystemJSON decodes the output of the video controller query.
//
// The query emits either an array of objects or, for a single adapter, a bare
// object. Entries without a non-blank string Name are dropped. AdapterRAM may
// be a number or a numeric string holding a byte count.
func ParseSystemJSON(text string) ([]Descriptor, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, fmt.Errorf("parsing GPU query output: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing GPU query output: trailing data after JSON value")
	}

	var entries []any
	if array, ok := value.([]any); ok {
		entries = array
	} else {
		entries = []any{value}
	}

	gpus := make([]Descriptor, 0, len(entries))
	for _, entry := range entries {
		d, ok := descriptorFrom(entry)
		if !ok {
			continue
		}
		gpus = append(gpus, d)
	}
	return gpus, nil
}

func descriptorFrom(entry any) (Descriptor, bool) {
	obj, ok := entry.(map[string]any)
	if !ok {
		return Descriptor{}, false
	}
	name, ok := obj["Name"].(string)
	if !ok {
		return Descriptor{}, false
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Descriptor{}, false
	}

	d := Descriptor{Name: name}
	if bytes, ok := adapterBytes(obj["AdapterRAM"]); ok {
		mb := bytes / bytesPerMB
		d.VRAMMB = &mb
	}
	return d, true
}

// adapterBytes accepts unsigned integers only; negative, fractional and
// exponent forms are treated as unknown.
func adapterBytes(raw any) (uint64, bool) {
	var text string
	switch v := raw.(type) {
	case json.Number:
		text = v.String()
	case string:
		text = v
	default:
		return 0, false
	}
	n, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
