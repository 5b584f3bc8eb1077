package api

import (
	"runtime"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/mubashirhassanpk/react-static-magic/internal/config"
	"github.com/mubashirhassanpk/react-static-magic/internal/database"
	"github.com/mubashirhassanpk/react-static-magic/internal/storage"
)

// SystemHandler reports process and host health for operators
type SystemHandler struct {
	db      *database.Connection
	storage *storage.Service
	config  *config.Config
}

// NewSystemHandler creates a new system handler
func NewSystemHandler(db *database.Connection, storageService *storage.Service, cfg *config.Config) *SystemHandler {
	return &SystemHandler{
		db:      db,
		storage: storageService,
		config:  cfg,
	}
}

// SystemInfo represents system-wide runtime information
type SystemInfo struct {
	// Process info
	Uptime       int64  `json:"uptime_seconds"`
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutines"`

	// Go memory stats
	MemoryAllocMB      uint64 `json:"memory_alloc_mb"`
	MemoryTotalAllocMB uint64 `json:"memory_total_alloc_mb"`
	MemorySysMB        uint64 `json:"memory_sys_mb"`
	NumGC              uint32 `json:"num_gc"`

	// Host stats (best effort; omitted where the platform refuses)
	Host   *HostInfo   `json:"host,omitempty"`
	CPU    *CPUInfo    `json:"cpu,omitempty"`
	Memory *MemoryInfo `json:"memory,omitempty"`
	Disk   *DiskInfo   `json:"disk,omitempty"`

	// Service stats
	Database *DatabaseInfo `json:"database,omitempty"`
	Storage  *StorageInfo  `json:"storage,omitempty"`
}

// HostInfo describes the host machine
type HostInfo struct {
	Hostname        string `json:"hostname"`
	OS              string `json:"os"`
	Platform        string `json:"platform"`
	PlatformVersion string `json:"platform_version"`
	KernelVersion   string `json:"kernel_version"`
	UptimeSeconds   uint64 `json:"uptime_seconds"`
}

// CPUInfo describes CPU usage
type CPUInfo struct {
	Cores        int     `json:"cores"`
	UsagePercent float64 `json:"usage_percent"`
	Load1        float64 `json:"load_1"`
	Load5        float64 `json:"load_5"`
	Load15       float64 `json:"load_15"`
}

// MemoryInfo describes system memory usage
type MemoryInfo struct {
	TotalMB     uint64  `json:"total_mb"`
	AvailableMB uint64  `json:"available_mb"`
	UsedMB      uint64  `json:"used_mb"`
	UsedPercent float64 `json:"used_percent"`
}

// DiskInfo describes disk usage of the artifact volume
type DiskInfo struct {
	Path        string  `json:"path"`
	TotalGB     float64 `json:"total_gb"`
	FreeGB      float64 `json:"free_gb"`
	UsedPercent float64 `json:"used_percent"`
}

// DatabaseInfo describes database connection pool usage
type DatabaseInfo struct {
	AcquiredConns     int32   `json:"acquired_conns"`
	IdleConns         int32   `json:"idle_conns"`
	MaxConns          int32   `json:"max_conns"`
	TotalConns        int32   `json:"total_conns"`
	AcquireCount      int64   `json:"acquire_count"`
	AcquireDurationMS float64 `json:"acquire_duration_ms"`
}

// StorageInfo describes stored object counts and sizes
type StorageInfo struct {
	Provider    string  `json:"provider"`
	Buckets     int     `json:"buckets"`
	Objects     int     `json:"objects"`
	TotalSizeMB float64 `json:"total_size_mb"`
}

var startTime = time.Now()

// GetSystemInfo returns system runtime information
// GET /api/v1/admin/system
func (h *SystemHandler) GetSystemInfo(c *fiber.Ctx) error {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	info := SystemInfo{
		Uptime:       int64(time.Since(startTime).Seconds()),
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),

		MemoryAllocMB:      m.Alloc / 1024 / 1024,
		MemoryTotalAllocMB: m.TotalAlloc / 1024 / 1024,
		MemorySysMB:        m.Sys / 1024 / 1024,
		NumGC:              m.NumGC,
	}

	if hostStat, err := host.Info(); err == nil {
		info.Host = &HostInfo{
			Hostname:        hostStat.Hostname,
			OS:              hostStat.OS,
			Platform:        hostStat.Platform,
			PlatformVersion: hostStat.PlatformVersion,
			KernelVersion:   hostStat.KernelVersion,
			UptimeSeconds:   hostStat.Uptime,
		}
	}

	cpuInfo := &CPUInfo{}
	if cores, err := cpu.Counts(true); err == nil {
		cpuInfo.Cores = cores
	}
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		cpuInfo.UsagePercent = percents[0]
	}
	if avg, err := load.Avg(); err == nil {
		cpuInfo.Load1 = avg.Load1
		cpuInfo.Load5 = avg.Load5
		cpuInfo.Load15 = avg.Load15
	}
	if cpuInfo.Cores > 0 {
		info.CPU = cpuInfo
	}

	if vmStat, err := mem.VirtualMemory(); err == nil {
		info.Memory = &MemoryInfo{
			TotalMB:     vmStat.Total / 1024 / 1024,
			AvailableMB: vmStat.Available / 1024 / 1024,
			UsedMB:      vmStat.Used / 1024 / 1024,
			UsedPercent: vmStat.UsedPercent,
		}
	}

	// Disk usage matters most for the local provider, which fills the
	// artifact volume; for s3 the root filesystem is still worth a look
	diskPath := "/"
	if h.config != nil && h.config.Storage.Provider == "local" && h.config.Storage.LocalPath != "" {
		diskPath = h.config.Storage.LocalPath
	}
	if usage, err := disk.Usage(diskPath); err == nil {
		info.Disk = &DiskInfo{
			Path:        diskPath,
			TotalGB:     float64(usage.Total) / 1024 / 1024 / 1024,
			FreeGB:      float64(usage.Free) / 1024 / 1024 / 1024,
			UsedPercent: usage.UsedPercent,
		}
	}

	if h.db != nil {
		stats := h.db.Stats()
		info.Database = &DatabaseInfo{
			AcquiredConns:     stats.AcquiredConns(),
			IdleConns:         stats.IdleConns(),
			MaxConns:          stats.MaxConns(),
			TotalConns:        stats.TotalConns(),
			AcquireCount:      stats.AcquireCount(),
			AcquireDurationMS: float64(stats.AcquireDuration().Milliseconds()),
		}
	}

	if h.storage != nil {
		storageInfo := &StorageInfo{Provider: h.storage.GetProviderName()}
		for _, bucket := range []string{h.storage.UploadBucket(), h.storage.OutputBucket()} {
			result, err := h.storage.Provider.List(c.Context(), bucket, &storage.ListOptions{MaxKeys: 10000})
			if err != nil {
				continue
			}
			storageInfo.Buckets++
			storageInfo.Objects += len(result.Objects)
			for _, obj := range result.Objects {
				storageInfo.TotalSizeMB += float64(obj.Size) / 1024 / 1024
			}
		}
		info.Storage = storageInfo
	}

	return c.JSON(info)
}
