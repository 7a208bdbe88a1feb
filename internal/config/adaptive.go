package config

import "github.com/agbru/picalc/internal/sysmon"

// DefaultWorkers returns the default thread and process counts: one thread
// per logical CPU and one process per physical core, never less than one.
func DefaultWorkers() (threads, processes int) {
	logical, physical := sysmon.CPUCounts()
	return max(1, logical), max(1, physical)
}
