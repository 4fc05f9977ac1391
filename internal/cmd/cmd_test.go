package cmd_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flixcor/lightningcss.net/internal/cmd"
	"github.com/flixcor/lightningcss.net/internal/codegen/generator"
)

func fixtureFs(t *testing.T) afero.Fs {
	t.Helper()
	src, err := os.ReadFile(filepath.Join("..", "codegen", "scanner", "testdata", "lib.rs"))
	require.NoError(t, err)
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/rust/src/lib.rs", src, 0o644))
	return fsys
}

func newGenerate() *cmd.Generate {
	return &cmd.Generate{Binding: cmd.Binding{
		Input:         "/rust/src/lib.rs",
		Output:        "/dotnet/NativeMethods.g.cs",
		DllName:       "lightningcss_cs_bindings",
		Namespace:     "CsBindgen",
		ClassName:     "NativeMethods",
		Accessibility: "internal",
		MethodCasing:  "none",
		Backend:       "native",
	}}
}

func TestGenerateExecute(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)}))
	fsys := fixtureFs(t)
	ctx := context.Background()

	g := newGenerate()
	g.Check = true
	_, err := g.Execute(ctx, fsys, logger)
	assert.ErrorIs(t, err, generator.ErrStale)

	g.Check = false
	res, err := g.Execute(ctx, fsys, logger)
	require.NoError(t, err)
	assert.Equal(t, "/dotnet/NativeMethods.g.cs", res.Path)

	data, err := afero.ReadFile(fsys, "/dotnet/NativeMethods.g.cs")
	require.NoError(t, err)
	assert.Contains(t, string(data), `[DllImport("lightningcss_cs_bindings", EntryPoint = "lightningcss_minify"`)
	assert.Contains(t, string(data), "namespace CsBindgen")

	g.Check = true
	checked, err := g.Execute(ctx, fsys, logger)
	require.NoError(t, err)
	assert.Equal(t, res.Digest, checked.Digest)

	require.NoError(t, afero.WriteFile(fsys, "/dotnet/NativeMethods.g.cs", []byte("// edited\n"), 0o644))
	_, err = g.Execute(ctx, fsys, logger)
	assert.ErrorIs(t, err, generator.ErrStale)
}

func TestGenerateRequest(t *testing.T) {
	g := newGenerate()
	g.MethodPrefix = "Css"
	g.MethodCasing = "pascal"
	req := g.Request()
	assert.Equal(t, "/rust/src/lib.rs", req.Source)
	assert.Equal(t, "/dotnet/NativeMethods.g.cs", req.Destination)
	assert.Equal(t, "lightningcss_cs_bindings", req.LibraryName)
	assert.Equal(t, "Css", req.CSharp.MethodPrefix)
	assert.Equal(t, "pascal", req.CSharp.MethodCasing)
}

func TestGenerateExternalWithoutTool(t *testing.T) {
	g := newGenerate()
	g.Backend = "external"
	_, err := g.Execute(context.Background(), fixtureFs(t), slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)})))
	assert.ErrorContains(t, err, "requires a command")
}

func TestScanExecute(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{format: "json", want: `"entryPoint": "lightningcss_version"`},
		{format: "yaml", want: "entrypoint: lightningcss_version"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var out bytes.Buffer
			s := &cmd.Scan{Input: "/rust/src/lib.rs", Format: tt.format}
			require.NoError(t, s.Execute(fixtureFs(t), &out, slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)}))))
			assert.Contains(t, out.String(), tt.want)
			assert.Contains(t, out.String(), "lightningcss_minify")
		})
	}

	s := &cmd.Scan{Input: "/missing.rs", Format: "json"}
	assert.Error(t, s.Execute(afero.NewMemMapFs(), &bytes.Buffer{}, slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)}))))
}

func TestConfigInit(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		command string
		keys    map[string]any
	}{
		{
			command: "generate",
			keys: map[string]any{
				"input":    "./src/lib.rs",
				"dll_name": "lightningcss_cs_bindings",
				"backend":  "native",
				"check":    false,
			},
		},
		{
			command: "watch",
			keys: map[string]any{
				"output":        "../dotnet/NativeMethods.g.cs",
				"method_casing": "none",
				"period":        "500ms",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			c := &cmd.ConfigInit{Command: tt.command, Format: "json", Output: filepath.Join(dir, tt.command, "bindgen.json")}
			path, err := c.Execute()
			require.NoError(t, err)

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			var got map[string]any
			require.NoError(t, json.Unmarshal(data, &got))
			for k, v := range tt.keys {
				assert.Equal(t, v, got[k], k)
			}

			_, err = c.Execute()
			assert.ErrorContains(t, err, "use --force")
			c.Force = true
			_, err = c.Execute()
			assert.NoError(t, err)
		})
	}
}

func TestConfigInitFormats(t *testing.T) {
	dir := t.TempDir()
	for _, format := range []string{"yaml", "toml"} {
		t.Run(format, func(t *testing.T) {
			c := &cmd.ConfigInit{Command: "generate", Format: format, Output: filepath.Join(dir, "bindgen."+format)}
			path, err := c.Execute()
			require.NoError(t, err)
			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Contains(t, string(data), "lightningcss_cs_bindings")
		})
	}

	c := &cmd.ConfigInit{Command: "generate", Format: "ini", Output: filepath.Join(dir, "bindgen.ini")}
	_, err := c.Execute()
	assert.ErrorContains(t, err, "unsupported format")
}

func TestConfigInitGlobal(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)
	t.Setenv("AppData", home)

	c := &cmd.ConfigInit{Command: "generate", Format: "toml", Global: true}
	path, err := c.Execute()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "lightningcss-bindgen", "config.toml"), path)
	assert.FileExists(t, path)

	c.Output = filepath.Join(home, "other.toml")
	_, err = c.Execute()
	assert.ErrorContains(t, err, "mutually exclusive")
}
