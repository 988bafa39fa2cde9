package utils

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

var systemMetricsRegistered bool

// RegisterSystemMetrics exposes host CPU and memory usage as gauges sampled
// at scrape time. Safe to call more than once.
func RegisterSystemMetrics() {
	if systemMetricsRegistered {
		return
	}
	systemMetricsRegistered = true

	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "system_cpu_usage_percent",
		Help: "Host CPU usage since the previous scrape",
	}, GetCPUUsage)

	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "system_memory_used_percent",
		Help: "Host memory in use",
	}, GetMemoryUsage)
}

// GetCPUUsage returns CPU usage as a percentage since the last call.
func GetCPUUsage() float64 {
	percentage, err := cpu.Percent(0, false)
	if err != nil || len(percentage) == 0 {
		return 0
	}
	return percentage[0]
}

func GetMemoryUsage() float64 {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0
	}
	return vm.UsedPercent
}
