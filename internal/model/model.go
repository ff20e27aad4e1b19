// Package model defines dyno's benchmark data model: the record types the
// observation engine populates and the orchestrator persists.
package model

import "encoding/json"

// Cpu is a per-CPU hardware record snapshotted once per invocation.
type Cpu struct {
	Name         string `json:"name"`
	Vendor       string `json:"vendor_id"`
	Brand        string `json:"brand"`
	FrequencyMHz uint64 `json:"frequency"`

	// CPUUsage is a transient, non-serialized snapshot of instantaneous
	// per-core usage at probe time; it is not part of the JSON round-trip
	// invariant because it is a point-in-time reading, not a stored fact.
	CPUUsage float64 `json:"-"`
}

// SystemSpecs captures host hardware/OS facts exactly once per invocation.
type SystemSpecs struct {
	Cpus               []Cpu   `json:"cpus"`
	PhysicalCoreCount  int     `json:"physical_core_count"`
	TotalMemory        uint64  `json:"total_memory"`
	FreeMemory         uint64  `json:"free_memory"`
	AvailableMemory    uint64  `json:"available_memory"`
	UsedMemory         uint64  `json:"used_memory"`
	TotalSwap          uint64  `json:"total_swap"`
	UsedSwap           uint64  `json:"used_swap"`
	UptimeSeconds      uint64  `json:"uptime"`
	BootTimeSeconds    uint64  `json:"boot_time"`
	LoadAverageOne     float64 `json:"load_average_one"`
	LoadAverageFive    float64 `json:"load_average_five"`
	LoadAverageFifteen float64 `json:"load_average_fifteen"`
	HostName           string  `json:"host_name"`
	KernelVersion      string  `json:"kernel_version"`
	OSLongVersion      string  `json:"os_long_version"`

	// GlobalCPUUsage is a transient aggregate reading, excluded from the
	// round-trip equality invariant the same way Cpu.CPUUsage is.
	GlobalCPUUsage float64 `json:"-"`
}

// BenchmarkPhase is a named sub-interval of a compilation delimited by
// in-band "/dyno start"/"/dyno stop" markers. EndTime is nil until the
// matching stop marker has been observed.
type BenchmarkPhase struct {
	Name      string `json:"name"`
	StartTime int64  `json:"start_time"`
	EndTime   *int64 `json:"end_time"`
}

// Closed reports whether the phase has received its matching stop marker.
func (p *BenchmarkPhase) Closed() bool { return p.EndTime != nil }

// BenchmarkFrame is a single resource-usage sample of the compiler process.
type BenchmarkFrame struct {
	Timestamp          int64   `json:"timestamp"`
	RelativeTimestamp  int64   `json:"relative_timestamp"`
	CPUUsage           float64 `json:"cpu_usage"`
	MemoryUsage        uint64  `json:"memory_usage"`
	VirtualMemoryUsage uint64  `json:"virtual_memory_usage"`
	DiskTotalWritten   uint64  `json:"disk_total_written"`
	DiskWritten        uint64  `json:"disk_written"`
	DiskTotalRead      uint64  `json:"disk_total_read"`
	DiskRead           uint64  `json:"disk_read"`
}

// Benchmark is the per-project record mutated exclusively by the
// observation engine between its run entry and return, then frozen as
// the orchestrator snapshots it into a Benchmarks.
type Benchmark struct {
	Name           string           `json:"name"`
	Path           string           `json:"path"`
	StartTime      int64            `json:"start_time"`
	EndTime        int64            `json:"end_time"`
	Phases         []BenchmarkPhase `json:"phases"`
	Frames         []BenchmarkFrame `json:"frames"`
	AsmInformation json.RawMessage  `json:"asm_information,omitempty"`
	HyperfineJSON  json.RawMessage  `json:"hyperfine_json,omitempty"`
}

// Benchmarks is the top-level artifact written to runs/ for one invocation.
type Benchmarks struct {
	TotalTime     int64       `json:"total_time"`
	SystemSpecs   SystemSpecs `json:"system_specs"`
	Benchmarks    []Benchmark `json:"benchmarks"`
	ForcVersion   string      `json:"forc_version"`
	ForcBinaryMD5 string      `json:"forc_binary_md5"`
	Timestamp     string      `json:"timestamp"`
}

// MetricDelta is an (absolute_delta, percent_delta) pair for one metric,
// computed by the regression calculator between two runs.
type MetricDelta struct {
	AbsoluteDelta float64 `json:"absolute_delta"`
	PercentDelta  float64 `json:"percent_delta"`
}

// Stats holds per-metric deltas for one project between two runs.
type Stats struct {
	CPUUsage           MetricDelta `json:"cpu_usage"`
	MemoryUsage        MetricDelta `json:"memory_usage"`
	VirtualMemoryUsage MetricDelta `json:"virtual_memory_usage"`
	DiskTotalWritten   MetricDelta `json:"disk_total_written"`
	DiskWritten        MetricDelta `json:"disk_written"`
	DiskTotalRead      MetricDelta `json:"disk_total_read"`
	DiskRead           MetricDelta `json:"disk_read"`
	BytecodeSize       MetricDelta `json:"bytecode_size"`
	DataSectionSize    MetricDelta `json:"data_section_size"`
	WallTime           MetricDelta `json:"wall_time"`
}

// CollectionEntry pairs a project path with its computed Stats.
type CollectionEntry struct {
	ProjectPath string `json:"project_path"`
	Stats       Stats  `json:"stats"`
}

// Collection is the ordered list of per-project regression stats written
// to stats/ for one invocation.
type Collection struct {
	Entries []CollectionEntry `json:"entries"`
}
