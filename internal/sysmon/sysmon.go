// Package sysmon samples the machine and Go runtime resources reported in
// verbose mode and used to derive default worker counts.
package sysmon

import (
	"runtime"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

// Stats holds a single snapshot of system-wide and process resource usage.
type Stats struct {
	CPUPercent float64 // 0.0 .. 100.0
	MemPercent float64 // 0.0 .. 100.0

	LogicalCPUs  int
	PhysicalCPUs int

	HeapAlloc  uint64 // bytes in use by this process's heap
	NumGC      uint32
	Goroutines int
}

// Sample collects a single snapshot. CPU uses interval=0 (delta since the
// previous call). Fields that cannot be read are left at zero, except the
// CPU counts, which fall back to runtime.NumCPU.
func Sample() Stats {
	var s Stats
	if pcts, err := cpu.Percent(0, false); err == nil && len(pcts) > 0 {
		s.CPUPercent = pcts[0]
	}
	if vmem, err := mem.VirtualMemory(); err == nil && vmem != nil {
		s.MemPercent = vmem.UsedPercent
	}
	s.LogicalCPUs, s.PhysicalCPUs = CPUCounts()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	s.HeapAlloc = m.HeapAlloc
	s.NumGC = m.NumGC
	s.Goroutines = runtime.NumGoroutine()
	return s
}

// CPUCounts returns the logical and physical core counts.
func CPUCounts() (logical, physical int) {
	logical, physical = runtime.NumCPU(), 0
	if n, err := cpu.Counts(true); err == nil && n > 0 {
		logical = n
	}
	if n, err := cpu.Counts(false); err == nil && n > 0 {
		physical = n
	}
	if physical == 0 {
		physical = logical
	}
	return logical, physical
}
