// Package loader fetches the sections of a page in parallel. Optional
// sections fall back to a default when their fetch fails; required sections
// fail the whole load.
package loader

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/erazemk/auberge/internal/metrics"
)

// Mode tells a view whether a load is user visible.
type Mode int

const (
	// Visible loads raise the view's loading flag.
	Visible Mode = iota
	// Silent loads come from polling and leave the loading flag alone.
	Silent
)

func (m Mode) String() string {
	if m == Silent {
		return "silent"
	}
	return "visible"
}

// Report lists the sections that fell back to their default.
type Report struct {
	Degraded map[string]error
}

// OK reports whether every section loaded.
func (r Report) OK() bool {
	return len(r.Degraded) == 0
}

type section struct {
	name     string
	required bool
	fetch    func(ctx context.Context) error
	commit   func(failed bool)
}

// Loader collects sections and runs them together.
type Loader struct {
	page     string
	logger   *slog.Logger
	sections []section
}

// New creates a loader. page identifies the caller in logs and metrics.
func New(page string) *Loader {
	return &Loader{page: page, logger: slog.Default()}
}

// WithLogger replaces the logger.
func (l *Loader) WithLogger(logger *slog.Logger) *Loader {
	l.logger = logger
	return l
}

// Section registers an optional section. If fetch fails, dst receives fallback.
func Section[T any](l *Loader, name string, dst *T, fetch func(context.Context) (T, error), fallback T) {
	var result T
	l.sections = append(l.sections, section{
		name: name,
		fetch: func(ctx context.Context) error {
			v, err := fetch(ctx)
			if err == nil {
				result = v
			}
			return err
		},
		commit: func(failed bool) {
			if failed {
				*dst = fallback
				return
			}
			*dst = result
		},
	})
}

// Required registers a section whose failure fails the load.
func Required[T any](l *Loader, name string, dst *T, fetch func(context.Context) (T, error)) {
	var result T
	l.sections = append(l.sections, section{
		name:     name,
		required: true,
		fetch: func(ctx context.Context) error {
			v, err := fetch(ctx)
			if err == nil {
				result = v
			}
			return err
		},
		commit: func(bool) { *dst = result },
	})
}

// Run fetches all sections concurrently. Destinations are written only after
// every fetch returned, so a failed required section leaves all of them
// untouched.
func (l *Loader) Run(ctx context.Context) (Report, error) {
	var (
		mu       sync.Mutex
		failures = map[string]error{}
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, s := range l.sections {
		g.Go(func() error {
			err := s.fetch(gctx)
			if err == nil {
				return nil
			}
			if s.required {
				return fmt.Errorf("%s: loading %s: %w", l.page, s.name, err)
			}
			mu.Lock()
			failures[s.name] = err
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	report := Report{Degraded: map[string]error{}}
	for _, s := range l.sections {
		err, failed := failures[s.name]
		if failed {
			l.logger.Warn("section degraded", "page", l.page, "section", s.name, "error", err)
			metrics.IncrementSectionFailure(l.page + "." + s.name)
			report.Degraded[s.name] = err
		}
		s.commit(failed)
	}
	return report, nil
}
