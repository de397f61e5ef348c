package utils

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/process"
)

// Measurement is the outcome of a timed operation
type Measurement struct {
	Duration time.Duration
	// PeakRSS is the larger of the resident set sizes sampled at start and stop, in bytes.
	// Zero when the platform does not expose process memory.
	PeakRSS uint64
}

// PeakRSSMB returns PeakRSS in mebibytes
func (m Measurement) PeakRSSMB() float64 {
	return float64(m.PeakRSS) / (1024 * 1024)
}

// Timer measures the duration and resident memory of an operation
type Timer struct {
	start    time.Time
	name     string
	log      zerolog.Logger
	proc     *process.Process
	startRSS uint64
}

// NewTimer creates a new timer with the given name and samples current memory
func NewTimer(name string, log zerolog.Logger) *Timer {
	t := &Timer{
		start: time.Now(),
		name:  name,
		log:   log,
	}
	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		t.proc = proc
		t.startRSS = t.sampleRSS()
	}
	return t
}

func (t *Timer) sampleRSS() uint64 {
	if t.proc == nil {
		return 0
	}
	info, err := t.proc.MemoryInfo()
	if err != nil || info == nil {
		return 0
	}
	return info.RSS
}

// Stop stops the timer, logs the measurement and returns it
func (t *Timer) Stop() Measurement {
	m := Measurement{Duration: time.Since(t.start), PeakRSS: t.startRSS}
	if rss := t.sampleRSS(); rss > m.PeakRSS {
		m.PeakRSS = rss
	}

	t.log.Info().
		Str("operation", t.name).
		Dur("duration_ms", m.Duration).
		Float64("peak_rss_mb", m.PeakRSSMB()).
		Msg("Performance measurement")

	if m.Duration > 30*time.Second {
		t.log.Warn().
			Str("operation", t.name).
			Dur("duration", m.Duration).
			Msg("Slow operation detected (>30s)")
	}
	return m
}
