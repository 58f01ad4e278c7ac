// Package probe runs the start-up checks of the server.
package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// DefaultTimeout bounds a single check when the probe sets none.
const DefaultTimeout = 5 * time.Second

// CheckFunc performs one check and returns nil when it passes.
type CheckFunc func(ctx context.Context) error

// Probe is a single start-up check.
type Probe struct {
	Name     string
	Check    CheckFunc
	Critical bool // A failure prevents start-up
	Timeout  time.Duration
}

// Result holds the outcome of a single probe.
type Result struct {
	Probe    Probe
	Error    error
	Duration time.Duration
}

// Run executes the probes in order, each under its own timeout.
func Run(ctx context.Context, probes []Probe) []Result {
	results := make([]Result, len(probes))
	for i, p := range probes {
		timeout := p.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		start := time.Now()
		checkCtx, cancel := context.WithTimeout(ctx, timeout)
		err := p.Check(checkCtx)
		cancel()
		results[i] = Result{Probe: p, Error: err, Duration: time.Since(start)}
	}
	return results
}

// AnalyzeResults logs every result and joins the errors of failed critical probes.
func AnalyzeResults(results []Result) error {
	var critical []error
	for _, r := range results {
		if r.Error == nil {
			slog.Info("Startup check passed", "check", r.Probe.Name, "duration", r.Duration.Round(time.Millisecond))
			continue
		}
		slog.Error("Startup check failed", "check", r.Probe.Name, "critical", r.Probe.Critical, "error", r.Error)
		if r.Probe.Critical {
			critical = append(critical, fmt.Errorf("%s: %w", r.Probe.Name, r.Error))
		}
	}
	return errors.Join(critical...)
}

// Pinger is anything that can verify its backing connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Ping checks a connection such as the survey database.
func Ping(name string, p Pinger) Probe {
	return Probe{Name: name, Check: p.Ping, Critical: true}
}

// WritableDir checks that dir exists, is a directory, and accepts new files.
func WritableDir(name, dir string, critical bool) Probe {
	return Probe{
		Name:     name,
		Critical: critical,
		Check: func(ctx context.Context) error {
			info, err := os.Stat(dir)
			if err != nil {
				return err
			}
			if !info.IsDir() {
				return fmt.Errorf("%s is not a directory", dir)
			}
			f, err := os.CreateTemp(dir, ".probe-*")
			if err != nil {
				return fmt.Errorf("%s is not writable: %w", dir, err)
			}
			name := f.Name()
			f.Close()
			return os.Remove(filepath.Clean(name))
		},
	}
}
