//go:build windows

package gpu

import "context"

const videoControllerQuery = "Get-CimInstance Win32_VideoController | Select-Object Name,AdapterRAM | ConvertTo-Json -Compress"

func listSystem(ctx context.Context) ([]Descriptor, error) {
	return runQuery(ctx, "powershell", "-NoProfile", "-Command", videoControllerQuery)
}
