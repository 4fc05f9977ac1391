package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"

	"github.com/flixcor/lightningcss.net/internal/codegen/generator"
	"github.com/flixcor/lightningcss.net/internal/codegen/generator/csharp"
)

// Binding holds the options shared by every command that emits bindings.
type Binding struct {
	Input            string   `help:"Rust source file declaring the extern \"C\" surface" default:"./src/lib.rs" env:"BINDGEN_INPUT"`
	Output           string   `help:"Generated C# file, replaced on success" default:"../dotnet/NativeMethods.g.cs" env:"BINDGEN_OUTPUT"`
	DllName          string   `help:"Native library name used by every DllImport" default:"lightningcss_cs_bindings" env:"BINDGEN_DLL_NAME"`
	Namespace        string   `help:"C# namespace of the generated file" default:"CsBindgen" env:"BINDGEN_NAMESPACE"`
	ClassName        string   `help:"Name of the static class holding the imports" default:"NativeMethods" env:"BINDGEN_CLASS_NAME"`
	Accessibility    string   `help:"Accessibility of generated types" default:"internal" enum:"internal,public" env:"BINDGEN_ACCESSIBILITY"`
	MethodPrefix     string   `help:"Prefix prepended to every C# method name" env:"BINDGEN_METHOD_PREFIX"`
	EntryPointPrefix string   `help:"Prefix prepended to every native entry point" env:"BINDGEN_ENTRY_POINT_PREFIX"`
	MethodCasing     string   `help:"Casing of C# method names" default:"none" enum:"none,pascal" env:"BINDGEN_METHOD_CASING"`
	Backend          string   `help:"Generator backend: native or external" default:"native" enum:"native,external" env:"BINDGEN_BACKEND"`
	Tool             []string `help:"External generator command, one argument per flag ({source}, {name}, {namespace}, {class} are substituted)" sep:"none" env:"BINDGEN_TOOL"`
}

// Request converts the flags into an emitter request.
func (b *Binding) Request() generator.Request {
	return generator.Request{
		Source:      b.Input,
		Destination: b.Output,
		LibraryName: b.DllName,
		CSharp: csharp.Options{
			Namespace:        b.Namespace,
			ClassName:        b.ClassName,
			Accessibility:    b.Accessibility,
			MethodPrefix:     b.MethodPrefix,
			EntryPointPrefix: b.EntryPointPrefix,
			MethodCasing:     b.MethodCasing,
		},
	}
}

func (b *Binding) emitter(fsys afero.Fs, logger *slog.Logger) (*generator.Emitter, error) {
	backend, err := generator.NewBackend(b.Backend, logger, b.Tool)
	if err != nil {
		return nil, err
	}
	return generator.New(fsys, backend, logger), nil
}

type Generate struct {
	Binding `embed:""`
	Check   bool `help:"Fail if the output file is missing or out of date instead of writing it" env:"BINDGEN_CHECK"`
}

// Run is called by Kong when the generate command is executed.
func (g *Generate) Run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	_, err := g.Execute(ctx, afero.NewOsFs(), logger)
	return err
}

// Execute emits (or checks) the bindings on fsys.
func (g *Generate) Execute(ctx context.Context, fsys afero.Fs, logger *slog.Logger) (*generator.Result, error) {
	em, err := g.emitter(fsys, logger)
	if err != nil {
		return nil, err
	}
	if g.Check {
		return em.Check(ctx, g.Request())
	}
	return em.Emit(ctx, g.Request())
}
