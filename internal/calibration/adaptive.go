// This file generates the worker counts to benchmark from the hardware.

package calibration

import (
	"slices"

	"github.com/agbru/picalc/internal/sysmon"
)

// GenerateWorkerCounts returns the worker counts to benchmark for a machine
// with the given number of logical CPUs: powers of two up to twice the CPU
// count, plus the physical and logical core counts themselves.
//
// Counts beyond 2×CPUs are never useful for a CPU-bound sum; the upper end is
// kept to show the scheduling overhead.
func GenerateWorkerCounts(logical, physical int) []int {
	logical = max(1, logical)
	counts := []int{1}
	for n := 2; n <= 2*logical; n *= 2 {
		counts = append(counts, n)
	}
	counts = append(counts, logical)
	if physical > 0 {
		counts = append(counts, physical)
	}
	slices.Sort(counts)
	return slices.Compact(counts)
}

// GenerateQuickWorkerCounts is a reduced set for a fast calibration.
func GenerateQuickWorkerCounts(logical int) []int {
	logical = max(1, logical)
	if logical == 1 {
		return []int{1}
	}
	counts := []int{1, max(1, logical/2), logical}
	slices.Sort(counts)
	return slices.Compact(counts)
}

// DefaultWorkerCounts derives the counts from the current machine.
func DefaultWorkerCounts(quick bool) []int {
	logical, physical := sysmon.CPUCounts()
	if quick {
		return GenerateQuickWorkerCounts(logical)
	}
	return GenerateWorkerCounts(logical, physical)
}
