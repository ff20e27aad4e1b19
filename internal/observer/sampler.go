package observer

import (
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/process"

	"github.com/ourovoros-io/dyno/internal/model"
)

// runSampler refreshes process-specific kernel stats for pid at a cadence
// of max(MinFrame, work_time) and sends one model.BenchmarkFrame per
// refresh over out. It learns the CPU count once before the loop starts
// and exits when the process is gone, or either stop channel is closed.
func runSampler(pid int, epoch, phaseEpoch time.Time, out chan<- model.BenchmarkFrame, stopPerf, stopReadline <-chan struct{}, wg *sync.WaitGroup, logger observerLogger) {
	defer wg.Done()

	cpuCount, err := cpu.Counts(true)
	if err != nil || cpuCount == 0 {
		cpuCount = 1
	}

	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		logger.Warn("sampler: process not found, no frames will be recorded", "pid", pid, "error", err)
		return
	}

	var lastDiskRead, lastDiskWrite uint64
	haveLastDisk := false

	for {
		select {
		case <-stopPerf:
			return
		case <-stopReadline:
			return
		default:
		}

		tickStart := time.Now()

		cpuPct, err := proc.CPUPercent()
		if err != nil {
			return
		}
		memInfo, err := proc.MemoryInfo()
		if err != nil {
			return
		}

		frame := model.BenchmarkFrame{
			Timestamp:          elapsedMillis(epoch, tickStart),
			RelativeTimestamp:  elapsedMillis(phaseEpoch, tickStart),
			CPUUsage:           cpuPct / (100.0 * float64(cpuCount)),
			MemoryUsage:        memInfo.RSS,
			VirtualMemoryUsage: memInfo.VMS,
		}

		if io, ioErr := proc.IOCounters(); ioErr == nil && io != nil {
			frame.DiskTotalRead = io.ReadBytes
			frame.DiskTotalWritten = io.WriteBytes
			if haveLastDisk {
				frame.DiskRead = saturatingSub(io.ReadBytes, lastDiskRead)
				frame.DiskWritten = saturatingSub(io.WriteBytes, lastDiskWrite)
			} else {
				frame.DiskRead = io.ReadBytes
				frame.DiskWritten = io.WriteBytes
			}
			lastDiskRead, lastDiskWrite = io.ReadBytes, io.WriteBytes
			haveLastDisk = true
		}

		select {
		case out <- frame:
		case <-stopPerf:
			return
		case <-stopReadline:
			return
		}

		workTime := time.Since(tickStart)
		sleepFor := MinFrame
		if workTime > sleepFor {
			sleepFor = workTime
		}

		select {
		case <-time.After(sleepFor):
		case <-stopPerf:
			return
		case <-stopReadline:
			return
		}
	}
}

func saturatingSub(a, b uint64) uint64 {
	if a < b {
		return 0
	}
	return a - b
}
