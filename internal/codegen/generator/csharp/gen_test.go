package csharp

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flixcor/lightningcss.net/internal/codegen/meta"
	"github.com/flixcor/lightningcss.net/internal/codegen/scanner"
)

func generate(t *testing.T, src string, opts Options) (string, error) {
	t.Helper()
	res, err := scanner.ScanSource("lib.rs", []byte(src))
	require.NoError(t, err)
	out, err := Generate(slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)})), meta.New("src/lib.rs", res), opts)
	return string(out), err
}

func TestGenerateLayout(t *testing.T) {
	src := "/// Adds.\n#[no_mangle]\npub extern \"C\" fn add(a: i32, b: i32) -> i32 { a + b }\n"

	out, err := generate(t, src, Options{LibraryName: "examplelib"})
	require.NoError(t, err)

	want := `// <auto-generated>
// This code is generated by lightningcss-bindgen from lib.rs. DO NOT EDIT.
// </auto-generated>
#pragma warning disable CS8500
#pragma warning disable CS8981
using System;
using System.Runtime.InteropServices;

namespace CsBindgen
{
    internal static unsafe partial class NativeMethods
    {
        public const string DllName = "examplelib";

        /// <summary>
        /// Adds.
        /// </summary>
        [DllImport("examplelib", EntryPoint = "add", CallingConvention = CallingConvention.Cdecl, ExactSpelling = true)]
        internal static extern int add(int a, int b);
    }
}
`
	assert.Equal(t, want, out)
}

func TestGenerateFixture(t *testing.T) {
	res, err := scanner.ScanFile(afero.NewOsFs(), filepath.Join("..", "..", "scanner", "testdata", "lib.rs"))
	require.NoError(t, err)

	raw, err := Generate(slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)})), meta.New("src/lib.rs", res), Options{
		LibraryName: "lightningcss_cs_bindings",
		Namespace:   "LightningCss.Native",
	})
	require.NoError(t, err)
	out := string(raw)

	for _, want := range []string{
		"namespace LightningCss.Native",
		`public const nuint ERROR_MESSAGE_CAPACITY = 256;`,
		`public const string VERSION = "1.0\t\"beta\"";`,
		`public const uint MAX_TARGETS = 0x10000;`,
		`public const float DEFAULT_RATIO = 1.5f;`,
		`internal static extern StyleSheet* lightningcss_minify(byte* source, Targets* targets, MinifyMode mode, ErrorInfo* error);`,
		`internal static extern void lightningcss_free(StyleSheet* sheet);`,
		`[DllImport("lightningcss_cs_bindings", EntryPoint = "lightningcss_version", CallingConvention = CallingConvention.Cdecl, ExactSpelling = true)]`,
		`internal static extern uint version();`,
		`internal static extern void lightningcss_set_callback(delegate* unmanaged[Cdecl]<void*, nuint, bool> cb, void* arg1);`,
		"    [StructLayout(LayoutKind.Sequential)]\n    internal unsafe partial struct Targets\n    {\n        public uint chrome;",
		"        /// <summary>\n        /// Safari &lt;= 15 needs prefixes.\n        /// </summary>\n        public uint safari;",
		"[StructLayout(LayoutKind.Sequential, Pack = 2)]",
		"        [MarshalAs(UnmanagedType.U1)]\n        public bool has_location;",
		"public fixed byte message[256];",
		"[StructLayout(LayoutKind.Explicit)]",
		"        [FieldOffset(0)]\n        public long @int;",
		"        [FieldOffset(0)]\n        public double @float;",
		"public void* _0;",
		"    internal unsafe partial struct StyleSheet\n    {\n    }",
		"    internal enum MinifyMode : byte\n    {\n        /// <summary>\n        /// No minification.\n        /// </summary>\n        None = 0,\n        Whitespace,\n        Full = 1<<2,\n    }",
	} {
		assert.Contains(t, out, want)
	}

	assert.NotContains(t, out, "rust_abi_export")
	assert.NotContains(t, out, "host_log")
	assert.NotContains(t, out, "host_alloc")
	assert.NotContains(t, out, "COMPUTED")
	assert.NotContains(t, out, "LayoutKind.Sequential)]\n    internal unsafe partial struct StyleSheet")
}

func TestGenerateLibraryNameAtEveryImport(t *testing.T) {
	src := `
#[no_mangle] pub extern "C" fn a() {}
#[no_mangle] pub extern "C" fn b() {}
#[export_name = "c"] pub extern "C" fn c_impl() {}
`
	out, err := generate(t, src, Options{LibraryName: "examplelib"})
	require.NoError(t, err)

	imports := 0
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "[DllImport(") {
			imports++
			assert.Contains(t, line, `[DllImport("examplelib",`)
		}
	}
	assert.Equal(t, 3, imports)
	assert.Contains(t, out, `public const string DllName = "examplelib";`)
}

func TestGenerateOptions(t *testing.T) {
	src := `
#[no_mangle] pub extern "C" fn parse_style_sheet(ok: bool) -> bool { ok }
#[no_mangle] pub extern "system" fn win_only() {}
`
	out, err := generate(t, src, Options{
		LibraryName:      "examplelib",
		ClassName:        "Interop",
		Accessibility:    "public",
		MethodPrefix:     "Css",
		EntryPointPrefix: "lcss_",
		MethodCasing:     CasingPascal,
	})
	require.NoError(t, err)

	assert.Contains(t, out, "public static unsafe partial class Interop")
	assert.Contains(t, out, `EntryPoint = "lcss_parse_style_sheet"`)
	assert.Contains(t, out, "        [return: MarshalAs(UnmanagedType.U1)]\n        public static extern bool CssParseStyleSheet([MarshalAs(UnmanagedType.U1)] bool ok);")
	assert.Contains(t, out, "CallingConvention = CallingConvention.Winapi")
	assert.Contains(t, out, "public static extern void CssWinOnly();")
}

func TestGenerateTypeMapping(t *testing.T) {
	tests := []struct {
		name string
		decl string
		want string
	}{
		{"c_char pointer", "fn f(s: *const c_char)", "void f(byte* s)"},
		{"void pointer", "fn f(p: *mut core::ffi::c_void)", "void f(void* p)"},
		{"pointer to pointer", "fn f(p: *mut *const u8)", "void f(byte** p)"},
		{"non null", "fn f(p: NonNull<u16>)", "void f(ushort* p)"},
		{"optional box", "fn f(p: Option<Box<i64>>)", "void f(long* p)"},
		{"optional reference", "fn f(p: Option<&mut f64>)", "void f(double* p)"},
		{"native ints", "fn f(a: usize, b: isize)", "void f(nuint a, nint b)"},
		{"c long", "fn f(a: c_long) -> c_ulong", "CULong f(CLong a)"},
		{"128 bit", "fn f(a: i128) -> u128", "UInt128 f(Int128 a)"},
		{"keyword param", "fn f(string: i32, object: u8)", "void f(int @string, byte @object)"},
		{"never returns", "fn f() -> !", "void f()"},
		{"unit returns", "fn f() -> ()", "void f()"},
		{"system fn pointer", `fn f(cb: extern "system" fn(i32))`, "void f(delegate* unmanaged<int, void> cb)"},
		{"unknown type is opaque", "fn f(p: *mut Parser)", "void f(Parser* p)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := generate(t, "#[no_mangle] pub extern \"C\" "+tt.decl+" { loop {} }", Options{LibraryName: "examplelib"})
			require.NoError(t, err)
			assert.Contains(t, out, "internal static extern "+tt.want+";")
		})
	}
}

func TestGenerateOpaqueOrder(t *testing.T) {
	src := `
pub struct Second;
#[no_mangle] pub extern "C" fn f(a: *mut First, b: *mut Second, c: *mut First) {}
`
	out, err := generate(t, src, Options{LibraryName: "examplelib"})
	require.NoError(t, err)

	first := strings.Index(out, "partial struct First")
	second := strings.Index(out, "partial struct Second")
	require.Positive(t, first)
	require.Positive(t, second)
	assert.Less(t, first, second)
	assert.Equal(t, 1, strings.Count(out, "partial struct First"))
}

func TestGenerateStructArrays(t *testing.T) {
	src := `
const N: usize = 2;
#[repr(C)] pub struct Point { x: f32, y: f32 }
#[repr(C)] pub struct Shape { points: [Point; N], ptrs: [*mut u8; 2], flags: [bool; 4], _marker: PhantomData<u8> }
#[no_mangle] pub extern "C" fn area(s: *const Shape) -> f32 { 0.0 }
`
	out, err := generate(t, src, Options{LibraryName: "examplelib"})
	require.NoError(t, err)

	assert.Contains(t, out, "        public Point points_0;\n        public Point points_1;\n")
	assert.Contains(t, out, "        public byte* ptrs_0;\n        public byte* ptrs_1;\n")
	assert.Contains(t, out, "        public fixed bool flags[4];\n")
	assert.NotContains(t, out, "_marker")
	assert.NotContains(t, out, "partial struct Point\n    {\n    }")
}

func TestGenerateUnsupported(t *testing.T) {
	tests := []struct {
		name string
		src  string
		item string
		typ  string
	}{
		{
			name: "slice parameter",
			src:  `#[no_mangle] pub extern "C" fn f(s: &[u8]) {}`,
			item: "f",
			typ:  "&[u8]",
		},
		{
			name: "str reference",
			src:  `#[no_mangle] pub extern "C" fn f(s: &str) {}`,
			item: "f",
			typ:  "&str",
		},
		{
			name: "tuple return",
			src:  `#[no_mangle] pub extern "C" fn f() -> (i32, i32) { (1, 2) }`,
			item: "f",
			typ:  "(i32, i32)",
		},
		{
			name: "trait object",
			src:  `#[no_mangle] pub extern "C" fn f(x: *mut dyn Fn()) {}`,
			item: "f",
			typ:  "dyn Fn()",
		},
		{
			name: "rust fn pointer",
			src:  `#[no_mangle] pub extern "C" fn f(cb: fn(i32)) {}`,
			item: "f",
			typ:  `extern "Rust" fn(i32)`,
		},
		{
			name: "unresolved array length",
			src:  `#[repr(C)] pub struct S { data: [u8; LEN] }`,
			item: "S.data",
			typ:  "[u8; LEN]",
		},
		{
			name: "generic wrapper",
			src:  `#[no_mangle] pub extern "C" fn f(v: Vec<u8>) {}`,
			item: "f",
			typ:  "Vec<u8>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := generate(t, tt.src, Options{LibraryName: "examplelib"})
			require.Error(t, err)

			var unsupportedErr *UnsupportedError
			require.True(t, errors.As(err, &unsupportedErr), "expected *UnsupportedError, got %T", err)
			assert.Equal(t, tt.item, unsupportedErr.Item)
			assert.Equal(t, tt.typ, unsupportedErr.Type)
		})
	}
}

func TestGenerateDeterministic(t *testing.T) {
	res, err := scanner.ScanFile(afero.NewOsFs(), filepath.Join("..", "..", "scanner", "testdata", "lib.rs"))
	require.NoError(t, err)
	md := meta.New("src/lib.rs", res)
	opts := Options{LibraryName: "examplelib"}

	first, err := Generate(slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)})), md, opts)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Generate(slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)})), md, opts)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr string
	}{
		{name: "defaults", opts: Options{LibraryName: "lib"}},
		{name: "dotted library name", opts: Options{LibraryName: "libfoo.so.1"}},
		{name: "empty library name", opts: Options{}, wantErr: "library name must not be empty"},
		{name: "quote in library name", opts: Options{LibraryName: `a"b`}, wantErr: "invalid library name"},
		{name: "bad namespace", opts: Options{LibraryName: "lib", Namespace: "A..B"}, wantErr: "invalid namespace"},
		{name: "keyword class", opts: Options{LibraryName: "lib", ClassName: "class"}, wantErr: "invalid class name"},
		{name: "bad accessibility", opts: Options{LibraryName: "lib", Accessibility: "private"}, wantErr: "invalid accessibility"},
		{name: "bad casing", opts: Options{LibraryName: "lib", MethodCasing: "camel"}, wantErr: "invalid method casing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestNormalizeNumbers(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1_000u32", "1000"},
		{"0xFF_u8", "0xFF"},
		{"0o17", "15"},
		{"0b1010", "0b1010"},
		{"2.5e3f64", "2.5e3"},
		{"1<<4|BASE", "1<<4|BASE"},
		{"-(1_0i64)", "-(10)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeNumbers(tt.in), tt.in)
	}
}

func TestEscapeString(t *testing.T) {
	assert.Equal(t, `a\\b\"c\n\t\0`, escapeString("a\\b\"c\n\t\x00"))
	assert.Equal(t, `\u0007`, escapeString("\a"))
	assert.Equal(t, `\U0001F600`, escapeString("\U0001F600"))
	assert.Equal(t, "é", escapeString("é"))
}

func TestGenerateSkipsExternBlockImports(t *testing.T) {
	src := `
extern "C" { fn malloc(size: usize) -> *mut u8; }
#[no_mangle] pub extern "C" fn lightningcss_alloc(size: usize) -> *mut u8 { malloc(size) }
`
	out, err := generate(t, src, Options{LibraryName: "examplelib"})
	require.NoError(t, err)

	assert.NotContains(t, out, `EntryPoint = "malloc"`)
	assert.Contains(t, out, `EntryPoint = "lightningcss_alloc"`)
	assert.Equal(t, 1, strings.Count(out, "[DllImport("))
}

func TestGenerateEnumConstReferences(t *testing.T) {
	src := `
const BIT_A: u32 = 1 << 0;
#[repr(u32)] pub enum Flags { A = BIT_A, B = 2 }
#[repr(u8)] pub enum Small { X = BIT_A as u8, Y = UNKNOWN }
`
	out, err := generate(t, src, Options{LibraryName: "examplelib", ClassName: "Interop"})
	require.NoError(t, err)

	assert.Contains(t, out, "        public const uint BIT_A = 1<<0;\n")
	assert.Contains(t, out, "        A = Interop.BIT_A,\n        B = 2,\n")
	assert.Contains(t, out, "        X = (byte)Interop.BIT_A,\n")
	assert.Contains(t, out, "        Y = UNKNOWN,\n")
}

func TestGenerateKeywordTypeNames(t *testing.T) {
	src := `
#[repr(C)] pub struct event { pub code: i32 }
#[repr(u8)] pub enum params { A }
pub struct string;
#[no_mangle] pub extern "C" fn dispatch(e: *mut event, p: params, s: *const string) {}
`
	out, err := generate(t, src, Options{LibraryName: "examplelib"})
	require.NoError(t, err)

	assert.Contains(t, out, "internal unsafe partial struct @event\n")
	assert.Contains(t, out, "internal enum @params : byte\n")
	assert.Contains(t, out, "internal unsafe partial struct @string\n")
	assert.Contains(t, out, "internal static extern void dispatch(@event* e, @params p, @string* s);")
}

func TestGenerateSkipsNonLiteralConsts(t *testing.T) {
	src := `
const LEN: usize = helper(4);
const BASE: usize = 4;
const DOUBLE: usize = BASE * 2;
`
	out, err := generate(t, src, Options{LibraryName: "examplelib"})
	require.NoError(t, err)

	assert.NotContains(t, out, "helper")
	assert.Contains(t, out, "public const nuint BASE = 4;")
	assert.Contains(t, out, "public const nuint DOUBLE = BASE*2;")
}
