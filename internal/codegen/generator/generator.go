// Package generator implements the binding emitter: it renders C# bindings for a
// Rust source file through a backend and replaces the destination file in one
// atomic step.
package generator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"slices"

	"github.com/spf13/afero"

	"github.com/flixcor/lightningcss.net/internal/codegen/common"
	"github.com/flixcor/lightningcss.net/internal/codegen/generator/csharp"
)

// Request describes one generation step.
type Request struct {
	Source      string // Rust source declaring the extern "C" surface
	Destination string // generated C# file, replaced on success
	LibraryName string // native library name used by every DllImport
	CSharp      csharp.Options
}

// Rendered is the in-memory output of a backend.
type Rendered struct {
	Content   []byte
	Functions int // -1 when the backend cannot tell
	Types     int
}

// Backend turns a request into the content of the destination file.
type Backend interface {
	Name() string
	Render(ctx context.Context, fsys afero.Fs, req Request) (*Rendered, error)
}

// Result summarizes a successful emit or check.
type Result struct {
	Path      string `json:"path"`
	Bytes     int    `json:"bytes"`
	Digest    string `json:"digest"`
	Functions int    `json:"functions"`
	Types     int    `json:"types"`
}

type BackendFactory func(logger *slog.Logger, command []string) (Backend, error)

var backends = map[string]BackendFactory{
	"native": func(logger *slog.Logger, _ []string) (Backend, error) {
		return NewNative(logger), nil
	},
	"external": func(logger *slog.Logger, command []string) (Backend, error) {
		b, err := NewExternal(logger, command)
		if err != nil {
			return nil, err
		}
		return b, nil
	},
}

// NewBackend looks up a backend by name.
func NewBackend(name string, logger *slog.Logger, command []string) (Backend, error) {
	factory, ok := backends[name]
	if !ok {
		var supported []string
		for k := range backends {
			supported = append(supported, k)
		}
		slices.Sort(supported)
		return nil, fmt.Errorf("unsupported backend '%s' (supported: %v)", name, supported)
	}
	return factory(logger, command)
}

type Emitter struct {
	fs      afero.Fs
	backend Backend
	logger  *slog.Logger
}

func New(fsys afero.Fs, backend Backend, logger *slog.Logger) *Emitter {
	return &Emitter{
		fs:      fsys,
		backend: backend,
		logger:  logger,
	}
}

// Emit renders the bindings and replaces req.Destination with them. The
// destination is only touched after rendering succeeded, and then through a
// temp file in the same directory followed by a rename, so a failure never
// leaves it truncated.
func (e *Emitter) Emit(ctx context.Context, req Request) (*Result, error) {
	out, err := e.render(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := e.write(req.Destination, out.Content); err != nil {
		return nil, err
	}

	res := e.result(req, out)
	e.logger.Info("Generated bindings",
		"output", res.Path,
		"backend", e.backend.Name(),
		"functions", res.Functions,
		"types", res.Types,
		"bytes", res.Bytes,
		"digest", res.Digest)
	return res, nil
}

// Check renders the bindings and compares them with req.Destination without
// writing anything. It returns an error wrapping ErrStale when the file is
// missing or differs.
func (e *Emitter) Check(ctx context.Context, req Request) (*Result, error) {
	out, err := e.render(ctx, req)
	if err != nil {
		return nil, err
	}
	res := e.result(req, out)

	current, err := afero.ReadFile(e.fs, req.Destination)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return res, fmt.Errorf("%w: %s does not exist", ErrStale, req.Destination)
		}
		return nil, &OutputError{Path: req.Destination, Err: err}
	}
	if !bytes.Equal(current, out.Content) {
		return res, fmt.Errorf("%w: %s differs from the generated output (want digest %s, have %s)",
			ErrStale, req.Destination, res.Digest, common.Digest(current))
	}

	e.logger.Info("Bindings are up to date", "output", res.Path, "digest", res.Digest)
	return res, nil
}

func (e *Emitter) render(ctx context.Context, req Request) (*Rendered, error) {
	if req.Source == "" {
		return nil, &InputError{Err: errors.New("source path is required")}
	}
	if req.Destination == "" {
		return nil, &InputError{Err: errors.New("destination path is required")}
	}
	opts := req.CSharp
	opts.LibraryName = req.LibraryName
	if err := opts.Validate(); err != nil {
		return nil, &InputError{Err: err}
	}

	e.logger.Debug("Rendering bindings", "backend", e.backend.Name(), "source", req.Source, "library", req.LibraryName)
	out, err := e.backend.Render(ctx, e.fs, req)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Emitter) result(req Request, out *Rendered) *Result {
	return &Result{
		Path:      req.Destination,
		Bytes:     len(out.Content),
		Digest:    common.Digest(out.Content),
		Functions: out.Functions,
		Types:     out.Types,
	}
}

func (e *Emitter) write(dest string, data []byte) error {
	dir := filepath.Dir(dest)
	if _, err := e.fs.Stat(dir); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return &OutputError{Path: dest, Err: err}
		}
		e.logger.Debug("Creating output directory", "dir", dir)
		if err := e.fs.MkdirAll(dir, 0o755); err != nil {
			return &OutputError{Path: dest, Err: fmt.Errorf("create directory %s: %w", dir, err)}
		}
	}

	perm := fs.FileMode(0o644)
	if fi, err := e.fs.Stat(dest); err == nil {
		if fi.IsDir() {
			return &OutputError{Path: dest, Err: errors.New("destination is a directory")}
		}
		perm = fi.Mode().Perm()
	}

	tmp, err := afero.TempFile(e.fs, dir, "."+filepath.Base(dest)+".*.tmp")
	if err != nil {
		return &OutputError{Path: dest, Err: fmt.Errorf("create temp file: %w", err)}
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = e.fs.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return &OutputError{Path: dest, Err: fmt.Errorf("write temp file: %w", err)}
	}
	if err := tmp.Close(); err != nil {
		return &OutputError{Path: dest, Err: fmt.Errorf("close temp file: %w", err)}
	}
	if err := e.fs.Chmod(tmpName, perm); err != nil {
		return &OutputError{Path: dest, Err: fmt.Errorf("chmod temp file: %w", err)}
	}
	if err := e.fs.Rename(tmpName, dest); err != nil {
		return &OutputError{Path: dest, Err: fmt.Errorf("replace destination: %w", err)}
	}
	committed = true
	return nil
}
