package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// HealthSnapshot is a point-in-time view of the process and its on-disk
// artifacts: the plan database and the exported calendars.
type HealthSnapshot struct {
	HeapAllocMB  uint64
	HeapSysMB    uint64
	GCRuns       uint32
	Goroutines   int
	DatabaseSize string
	ExportsSize  string
}

// Snapshot collects process health plus the size of the data artifacts.
// Missing paths report as "0 B" rather than failing the snapshot.
func Snapshot(databasePath, exportsPath string) HealthSnapshot {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return HealthSnapshot{
		HeapAllocMB:  m.Alloc / 1024 / 1024,
		HeapSysMB:    m.Sys / 1024 / 1024,
		GCRuns:       m.NumGC,
		Goroutines:   runtime.NumGoroutine(),
		DatabaseSize: humanSize(fileSize(databasePath)),
		ExportsSize:  humanSize(dirSize(exportsPath)),
	}
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

func dirSize(path string) int64 {
	var size int64
	_ = filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size
}

func humanSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
