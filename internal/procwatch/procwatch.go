// Package procwatch answers "is the target application running?" and requests
// a forceful stop of a running instance before files are replaced.
// Uses gopsutil for process table access.
package procwatch

import (
	"context"
	"strings"

	"github.com/shirou/gopsutil/v3/process"
)

// StopResult is the outcome of a single termination attempt.
type StopResult int

const (
	StopOK       StopResult = iota // process found and kill requested
	StopNotFound                   // no matching process in the table
	StopDenied                     // kill request rejected by the OS
)

func (r StopResult) String() string {
	switch r {
	case StopOK:
		return "stopped"
	case StopNotFound:
		return "not found"
	case StopDenied:
		return "denied"
	default:
		return "unknown"
	}
}

// Proc is the slice of process behavior the watcher needs.
type Proc interface {
	Name(ctx context.Context) (string, error)
	Kill(ctx context.Context) error
}

// Lister enumerates live processes. The default implementation wraps
// gopsutil; tests substitute a fixed table.
type Lister func(ctx context.Context) ([]Proc, error)

// gopsProc adapts *process.Process to Proc.
type gopsProc struct{ p *process.Process }

func (g gopsProc) Name(ctx context.Context) (string, error) {
	return g.p.NameWithContext(ctx)
}

func (g gopsProc) Kill(ctx context.Context) error {
	return g.p.KillWithContext(ctx)
}

func systemLister(ctx context.Context) ([]Proc, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Proc, 0, len(procs))
	for _, p := range procs {
		out = append(out, gopsProc{p})
	}
	return out, nil
}

// Watcher implements both the inspector and terminator roles.
type Watcher struct {
	list Lister
}

// New returns a Watcher over the live process table.
func New() *Watcher {
	return &Watcher{list: systemLister}
}

// NewWithLister returns a Watcher over a caller-supplied process table.
func NewWithLister(list Lister) *Watcher {
	return &Watcher{list: list}
}

// IsRunning reports whether any process matches imageName exactly
// (case-insensitive, as image names are on Windows). A query-provider
// failure reports false: a false negative only means a later file write
// fails on a locked file, while a false positive would block the install.
func (w *Watcher) IsRunning(ctx context.Context, imageName string) bool {
	procs, err := w.list(ctx)
	if err != nil {
		return false
	}
	for _, p := range procs {
		// Individual process errors are skipped; a single
		// inaccessible process must not fail the whole query.
		name, err := p.Name(ctx)
		if err != nil {
			continue
		}
		if strings.EqualFold(name, imageName) {
			return true
		}
	}
	return false
}

// RequestStop makes a single synchronous attempt to kill every process
// matching imageName. No retry; the file-copy step has its own
// close-running-instances fallback.
func (w *Watcher) RequestStop(ctx context.Context, imageName string) StopResult {
	procs, err := w.list(ctx)
	if err != nil {
		return StopNotFound
	}

	found := false
	denied := false
	for _, p := range procs {
		name, err := p.Name(ctx)
		if err != nil {
			continue
		}
		if !strings.EqualFold(name, imageName) {
			continue
		}
		found = true
		if err := p.Kill(ctx); err != nil {
			denied = true
		}
	}

	switch {
	case !found:
		return StopNotFound
	case denied:
		return StopDenied
	default:
		return StopOK
	}
}
