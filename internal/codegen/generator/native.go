package generator

import (
	"context"
	"log/slog"

	"github.com/spf13/afero"

	"github.com/flixcor/lightningcss.net/internal/codegen/generator/csharp"
	"github.com/flixcor/lightningcss.net/internal/codegen/meta"
	"github.com/flixcor/lightningcss.net/internal/codegen/scanner"
)

// Native scans the Rust source in process and renders it with the C# generator.
type Native struct {
	logger *slog.Logger
}

func NewNative(logger *slog.Logger) *Native {
	return &Native{logger: logger}
}

func (n *Native) Name() string { return "native" }

func (n *Native) Render(ctx context.Context, fsys afero.Fs, req Request) (*Rendered, error) {
	src, err := afero.ReadFile(fsys, req.Source)
	if err != nil {
		return nil, &InputError{Path: req.Source, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, err := scanner.ScanSource(req.Source, src)
	if err != nil {
		return nil, &InputError{Path: req.Source, Err: err}
	}
	md := meta.New(req.Source, res)
	n.logger.Debug("Scanned source",
		"source", req.Source,
		"functions", len(md.Functions),
		"structs", len(md.Structs),
		"enums", len(md.Enums),
		"skipped", len(md.Skipped))

	opts := req.CSharp
	opts.LibraryName = req.LibraryName
	out, err := csharp.Generate(n.logger, md, opts)
	if err != nil {
		return nil, &ToolError{Tool: n.Name(), Err: err}
	}
	return &Rendered{Content: out, Functions: len(md.Functions), Types: md.TypeCount()}, nil
}
