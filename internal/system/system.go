// Package system holds process-level helpers: buffer reuse, resource
// snapshots for the performance report and deck discovery.
package system

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// Stats is a point-in-time resource snapshot of this process.
type Stats struct {
	RSSBytes   uint64
	CPUPercent float64
	Goroutines int
}

// Snapshot reads the current process stats. Failures degrade to zero
// values; the report is informational only.
func Snapshot() Stats {
	st := Stats{Goroutines: runtime.NumGoroutine()}

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return st
	}
	if mem, err := proc.MemoryInfo(); err == nil && mem != nil {
		st.RSSBytes = mem.RSS
	}
	if cpu, err := proc.CPUPercent(); err == nil {
		st.CPUPercent = cpu
	}
	return st
}

// String formats the snapshot for the performance report.
func (s Stats) String() string {
	return fmt.Sprintf("RSS: %.1f MB | CPU: %.1f%% | Goroutines: %d",
		float64(s.RSSBytes)/(1024*1024), s.CPUPercent, s.Goroutines)
}

// FindLatestDeck returns the most recently modified deck YAML in dir.
// Used when the render command is invoked without an explicit deck file.
func FindLatestDeck(dir string) (string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var latestFile string
	var latestTime time.Time

	for _, f := range files {
		if f.IsDir() {
			continue
		}
		name := strings.ToLower(f.Name())
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestFile = filepath.Join(dir, f.Name())
		}
	}

	if latestFile == "" {
		return "", fmt.Errorf("no deck files found in %s", dir)
	}
	return latestFile, nil
}
