// Package system sizes the processing worker pool from machine resources.
package system

import (
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

const (
	// cpuShare and ramShare cap how much of the machine batch processing
	// may claim; the rest stays free for whatever else is running.
	cpuShare = 0.80
	ramShare = 0.80

	// ramPerFileMB is the working-set estimate for one document being
	// rendered and cleaned.
	ramPerFileMB = 300

	// maxWorkers bounds the pool regardless of hardware; past this the
	// PDF renderer becomes the bottleneck anyway.
	maxWorkers = 16
)

// Workers returns the worker count for processing fileCount documents in
// parallel: limited by CPU share, by available RAM at 300MB per file, by
// the file count itself, and by the hard cap. Always at least 1. Resource
// probing failures degrade to a single worker rather than erroring out.
func Workers(fileCount int) int {
	if fileCount < 1 {
		fileCount = 1
	}

	cpuWorkers := 1
	if n, err := cpu.Counts(true); err == nil && n > 0 {
		cpuWorkers = int(float64(n) * cpuShare)
		if cpuWorkers < 1 {
			cpuWorkers = 1
		}
	}

	ramWorkers := 1
	if vm, err := mem.VirtualMemory(); err == nil {
		budgetMB := float64(vm.Available) / (1024 * 1024) * ramShare
		ramWorkers = int(budgetMB / ramPerFileMB)
		if ramWorkers < 1 {
			ramWorkers = 1
		}
	}

	workers := cpuWorkers
	if ramWorkers < workers {
		workers = ramWorkers
	}
	if fileCount < workers {
		workers = fileCount
	}
	if workers > maxWorkers {
		workers = maxWorkers
	}
	return workers
}
