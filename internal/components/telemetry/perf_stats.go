package telemetry

import (
	"context"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"go.opentelemetry.io/otel"
)

const report_perf_stats_cpu = "perf-stats.cpu"

// InstrumentPerfStats records process gauges every interval until ctx is
// done, long crawls use it to keep an eye on memory growth.
func InstrumentPerfStats(ctx context.Context, interval time.Duration, tel API) {
	meter := otel.Meter("utac-backend/perf_stats")
	cpuGauge, _ := meter.Float64Gauge("cpu_usage")
	memoryGauge, _ := meter.Int64Gauge("allocated_mb")
	goroutineGauge, _ := meter.Int64Gauge("goroutine_count")

	go func() {
		var memStats runtime.MemStats
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				runtime.ReadMemStats(&memStats)

				cpuUsage, err := cpu.PercentWithContext(ctx, 0, false)
				if err != nil {
					tel.ReportWarning(report_perf_stats_cpu, err)
				} else if len(cpuUsage) > 0 {
					cpuGauge.Record(ctx, cpuUsage[0])
				}

				allocated := int64(memStats.Alloc / 1_000_000)
				memoryGauge.Record(ctx, allocated)
				goroutineGauge.Record(ctx, int64(runtime.NumGoroutine()))
				tel.ReportCount("perf-stats.allocated-mb", allocated)
			case <-ctx.Done():
				return
			}
		}
	}()
}
