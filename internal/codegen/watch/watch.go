// Package watch regenerates bindings whenever the Rust source changes.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	poller "github.com/radovskyb/watcher"
	"golang.org/x/sync/errgroup"

	"github.com/flixcor/lightningcss.net/internal/codegen/generator"
)

const (
	DefaultPollingPeriod = 500 * time.Millisecond
	MinPollingPeriod     = time.Millisecond
)

// Emitter is the part of generator.Emitter the watcher drives.
type Emitter interface {
	Emit(ctx context.Context, req generator.Request) (*generator.Result, error)
}

type Params struct {
	Logger        *slog.Logger
	PollingPeriod time.Duration

	// OnEmit, if set, is called after every emission attempt.
	OnEmit func(*generator.Result, error)
}

// Run emits once and then re-emits on every write to req.Source until ctx is
// done. Emission failures are logged and do not stop the loop; a failure of
// the underlying poller does.
func Run(ctx context.Context, em Emitter, req generator.Request, params Params) error {
	if params.PollingPeriod == 0 {
		params.PollingPeriod = DefaultPollingPeriod
	}
	if params.PollingPeriod < MinPollingPeriod {
		return fmt.Errorf("polling period %s is shorter than %s", params.PollingPeriod, MinPollingPeriod)
	}
	logger := params.Logger

	source, err := filepath.Abs(req.Source)
	if err != nil {
		return fmt.Errorf("resolve source path: %w", err)
	}

	emit := func() {
		res, err := em.Emit(ctx, req)
		if err != nil {
			logger.Error("Failed to generate bindings", "source", req.Source, "error", err)
		}
		if params.OnEmit != nil {
			params.OnEmit(res, err)
		}
	}
	emit()

	delegate := poller.New()
	// The poller reports Create for files that already exist when Add races
	// with Start, so both ops mean "changed".
	delegate.FilterOps(poller.Write, poller.Create)
	// Watching the directory keeps the loop alive across editors that save by
	// replacing the file.
	if err := delegate.Add(filepath.Dir(source)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(source), err)
	}

	logger.Info("Watching source for changes", "source", req.Source, "output", req.Destination, "period", params.PollingPeriod)

	grp, gctx := errgroup.WithContext(ctx)
	stopped := make(chan struct{})

	grp.Go(func() error {
		defer close(stopped)
		return delegate.Start(params.PollingPeriod)
	})

	grp.Go(func() error {
		// Close is a no-op until Start is running.
		delegate.Wait()

		done := gctx.Done()
		for {
			select {
			case event := <-delegate.Event:
				if event.IsDir() || event.Path != source || done == nil {
					continue
				}
				logger.Debug("Source changed", "op", event.Op.String(), "path", event.Path)
				emit()

			case err := <-delegate.Error:
				logger.Warn("File watcher error", "error", err)

			case <-done:
				done = nil
				// Start may be blocked delivering an event, keep draining while it shuts down.
				go delegate.Close()

			case <-delegate.Closed:
				return nil

			case <-stopped:
				return nil
			}
		}
	})

	if err := grp.Wait(); err != nil {
		return fmt.Errorf("file watcher: %w", err)
	}
	logger.Info("Stopped watching", "source", req.Source)
	return nil
}
