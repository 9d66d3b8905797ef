package util

import (
	"os"
	"runtime"
)

// SystemInfo contains information about the host system.
type SystemInfo struct {
	Hostname string
	NumCPU   int
	OS       string
	Arch     string
}

// GetSystemInfo collects system information.
func GetSystemInfo() SystemInfo {
	hostname, _ := os.Hostname()
	return SystemInfo{
		Hostname: hostname,
		NumCPU:   runtime.NumCPU(),
		OS:       runtime.GOOS,
		Arch:     runtime.GOARCH,
	}
}

// LogicalCores returns the number of logical CPU cores.
func LogicalCores() int {
	return runtime.NumCPU()
}

// DefaultWorkers returns the default number of concurrent encodes, 1 or 2.
func DefaultWorkers() int {
	return max(1, min(2, LogicalCores()/4))
}
