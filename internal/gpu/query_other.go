//go:build !windows

package gpu

import "context"

// listSystem reports no adapters. The CIM query is Windows-only.
func listSystem(ctx context.Context) ([]Descriptor, error) {
	return []Descriptor{}, nil
}
