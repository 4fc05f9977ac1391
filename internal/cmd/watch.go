package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"

	"github.com/flixcor/lightningcss.net/internal/codegen/watch"
)

type Watch struct {
	Binding `embed:""`
	Period  time.Duration `help:"Polling period for source changes" default:"500ms" env:"BINDGEN_WATCH_PERIOD"`
}

// Run is called by Kong when the watch command is executed.
func (w *Watch) Run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return w.Execute(ctx, afero.NewOsFs(), logger)
}

// Execute regenerates the bindings on every source change until ctx is done.
func (w *Watch) Execute(ctx context.Context, fsys afero.Fs, logger *slog.Logger) error {
	em, err := w.emitter(fsys, logger)
	if err != nil {
		return err
	}
	return watch.Run(ctx, em, w.Request(), watch.Params{
		Logger:        logger,
		PollingPeriod: w.Period,
	})
}
