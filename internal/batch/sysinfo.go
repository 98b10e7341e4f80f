package batch

import (
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/sirupsen/logrus"
)

// logRunStart records the run size and host memory headroom. Batch runs
// hold a decoded image per worker; the available-memory figure is the
// first thing to check when a large run slows down.
func (e *Engine) logRunStart(files int, s Settings) {
	fields := logrus.Fields{
		"files":   files,
		"mode":    s.Mode.Kind.String(),
		"effect":  s.Effect.String(),
		"workers": s.Workers,
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		fields["mem_used_pct"] = vm.UsedPercent
		fields["mem_available_mb"] = vm.Available / (1024 * 1024)
	}
	e.log.WithFields(fields).Info("starting batch run")
}
