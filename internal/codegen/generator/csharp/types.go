package csharp

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/flixcor/lightningcss.net/internal/codegen/common"
	"github.com/flixcor/lightningcss.net/internal/codegen/meta"
	"github.com/flixcor/lightningcss.net/internal/codegen/scanner"
)

// UnsupportedError reports a Rust construct that has no C# P/Invoke equivalent.
type UnsupportedError struct {
	Item   string // Rust item being bound (function, struct or const name)
	Type   string // offending Rust type
	Reason string
}

func (e *UnsupportedError) Error() string {
	if e.Item == "" {
		return fmt.Sprintf("cannot bind type %s: %s", e.Type, e.Reason)
	}
	return fmt.Sprintf("%s: cannot bind type %s: %s", e.Item, e.Type, e.Reason)
}

func unsupported(t *scanner.Type, reason string) error {
	return &UnsupportedError{Type: t.String(), Reason: reason}
}

var primitives = map[string]string{
	"i8":    "sbyte",
	"i16":   "short",
	"i32":   "int",
	"i64":   "long",
	"i128":  "Int128",
	"isize": "nint",
	"u8":    "byte",
	"u16":   "ushort",
	"u32":   "uint",
	"u64":   "ulong",
	"u128":  "UInt128",
	"usize": "nuint",
	"f32":   "float",
	"f64":   "double",
	"bool":  "bool",
	"char":  "uint",

	"c_char":      "byte",
	"c_schar":     "sbyte",
	"c_uchar":     "byte",
	"c_short":     "short",
	"c_ushort":    "ushort",
	"c_int":       "int",
	"c_uint":      "uint",
	"c_long":      "CLong",
	"c_ulong":     "CULong",
	"c_longlong":  "long",
	"c_ulonglong": "ulong",
	"c_float":     "float",
	"c_double":    "double",
	"c_void":      "void",

	"size_t":    "nuint",
	"ssize_t":   "nint",
	"intptr_t":  "nint",
	"uintptr_t": "nuint",
	"ptrdiff_t": "nint",
	"int8_t":    "sbyte",
	"int16_t":   "short",
	"int32_t":   "int",
	"int64_t":   "long",
	"uint8_t":   "byte",
	"uint16_t":  "ushort",
	"uint32_t":  "uint",
	"uint64_t":  "ulong",
}

// fixedBufferTypes are the element types C# allows in fixed-size buffers.
var fixedBufferTypes = map[string]bool{
	"bool": true, "byte": true, "short": true, "int": true, "long": true,
	"sbyte": true, "ushort": true, "uint": true, "ulong": true, "float": true, "double": true,
}

// enumUnderlying maps #[repr(int)] to a C# enum base type. C# has no native-sized
// enum base, so isize/usize use the 64-bit types.
var enumUnderlying = map[string]string{
	"u8": "byte", "u16": "ushort", "u32": "uint", "u64": "ulong", "usize": "ulong",
	"i8": "sbyte", "i16": "short", "i32": "int", "i64": "long", "isize": "long",
}

type typeMapper struct {
	md         *meta.Metadata
	opaque     []string
	seenOpaque map[string]bool
}

func newTypeMapper(md *meta.Metadata) *typeMapper {
	return &typeMapper{md: md, seenOpaque: make(map[string]bool)}
}

// resolve follows type aliases declared in the scanned file.
func (m *typeMapper) resolve(t *scanner.Type) *scanner.Type {
	for i := 0; t != nil && t.Kind == scanner.KindPath && len(t.Generics) == 0 && i < 32; i++ {
		a := m.md.Alias(t.Name)
		if a == nil {
			return t
		}
		t = a.Target
	}
	return t
}

func (m *typeMapper) isBool(t *scanner.Type) bool {
	t = m.resolve(t)
	return t != nil && t.Kind == scanner.KindPath && t.Name == "bool" && len(t.Generics) == 0
}

func (m *typeMapper) isVoid(t *scanner.Type) bool {
	t = m.resolve(t)
	if t.IsVoid() {
		return true
	}
	return t.Kind == scanner.KindPath && t.Name == "c_void"
}

func (m *typeMapper) addOpaque(name string) {
	if !m.seenOpaque[name] {
		m.seenOpaque[name] = true
		m.opaque = append(m.opaque, name)
	}
}

// csType maps a Rust type to its C# spelling.
func (m *typeMapper) csType(t *scanner.Type) (string, error) {
	t = m.resolve(t)
	if t.IsVoid() {
		return "void", nil
	}
	switch t.Kind {
	case scanner.KindPath:
		return m.pathType(t)
	case scanner.KindPointer, scanner.KindReference:
		return m.pointerTo(t, t.Elem)
	case scanner.KindFnPointer:
		return m.fnPointer(t)
	case scanner.KindArray:
		return "", unsupported(t, "arrays are only supported as struct fields")
	case scanner.KindSlice:
		return "", unsupported(t, "slices are not FFI-safe, pass a pointer and a length")
	case scanner.KindTuple:
		return "", unsupported(t, "tuples are not FFI-safe")
	default:
		return "", unsupported(t, "trait objects and qualified paths are not FFI-safe")
	}
}

func (m *typeMapper) pointerTo(t, elem *scanner.Type) (string, error) {
	if m.isVoid(elem) {
		return "void*", nil
	}
	inner := m.resolve(elem)
	if inner.Kind == scanner.KindSlice || (inner.Kind == scanner.KindPath && inner.Name == "str") {
		return "", unsupported(t, "pointers to unsized types are fat pointers")
	}
	cs, err := m.csType(inner)
	if err != nil {
		return "", err
	}
	return cs + "*", nil
}

func (m *typeMapper) pathType(t *scanner.Type) (string, error) {
	if len(t.Generics) == 0 {
		if cs, ok := primitives[t.Name]; ok {
			return cs, nil
		}
		name := common.EscapeIdentifier(t.Name)
		if m.md.Enum(t.Name) != nil {
			return name, nil
		}
		if s := m.md.Struct(t.Name); s != nil && s.HasLayout() && !s.Unit {
			return name, nil
		}
		m.addOpaque(t.Name)
		return name, nil
	}

	arg := t.Generics[0]
	switch t.Name {
	case "Option":
		inner := m.resolve(arg)
		switch {
		case inner.Kind == scanner.KindPointer, inner.Kind == scanner.KindReference, inner.Kind == scanner.KindFnPointer:
			return m.csType(inner)
		case inner.Kind == scanner.KindPath && (inner.Name == "NonNull" || inner.Name == "Box"):
			return m.csType(inner)
		}
		return "", unsupported(t, "Option is only FFI-safe around pointers and fn pointers")
	case "NonNull", "Box":
		return m.pointerTo(t, arg)
	case "ManuallyDrop", "MaybeUninit", "Cell", "UnsafeCell":
		return m.csType(arg)
	}
	return "", unsupported(t, "generic types cannot cross the C ABI")
}

func (m *typeMapper) fnPointer(t *scanner.Type) (string, error) {
	var prefix string
	switch {
	case t.ABI == "C" || t.ABI == "C-unwind" || t.ABI == "cdecl":
		prefix = "delegate* unmanaged[Cdecl]<"
	case strings.HasPrefix(t.ABI, "system"):
		prefix = "delegate* unmanaged<"
	default:
		return "", unsupported(t, fmt.Sprintf("fn pointers with the %s ABI cannot be called from C#", t.ABI))
	}
	args := make([]string, 0, len(t.Params)+1)
	for _, p := range t.Params {
		cs, err := m.csType(p)
		if err != nil {
			return "", err
		}
		args = append(args, cs)
	}
	ret, err := m.csType(t.Return)
	if err != nil {
		return "", err
	}
	args = append(args, ret)
	return prefix + strings.Join(args, ", ") + ">", nil
}

// arrayLen evaluates an array length: an integer literal or an integer const.
func (m *typeMapper) arrayLen(t *scanner.Type) (int, error) {
	expr := t.Len
	for i := 0; i < 8; i++ {
		lit, ok := integerLiteral(expr)
		if ok {
			n, err := strconv.ParseInt(lit, 0, 64)
			if err == nil && n >= 0 {
				return int(n), nil
			}
		}
		c := m.md.Const(expr)
		if c == nil {
			break
		}
		expr = c.Value
	}
	return 0, unsupported(t, fmt.Sprintf("array length %q is not an integer constant", t.Len))
}

var (
	numberPattern = regexp.MustCompile(`\b(0x[0-9a-fA-F_]+|0o[0-7_]+|0b[01_]+|[0-9][0-9_]*(?:\.[0-9][0-9_]*)?(?:[eE][+-]?[0-9_]+)?)(u8|u16|u32|u64|u128|usize|i8|i16|i32|i64|i128|isize|f32|f64)?\b`)
	intPattern    = regexp.MustCompile(`^(0x[0-9a-fA-F]+|0o[0-7]+|0b[01]+|[0-9]+)$`)
	identPattern  = regexp.MustCompile(`\b[A-Za-z_][A-Za-z0-9_]*\b`)
)

// normalizeNumbers rewrites Rust number literals inside expr as C# literals:
// suffixes and digit separators are dropped and octal becomes decimal.
func normalizeNumbers(expr string) string {
	return numberPattern.ReplaceAllStringFunc(expr, func(lit string) string {
		sub := numberPattern.FindStringSubmatch(lit)
		digits := strings.ReplaceAll(sub[1], "_", "")
		if strings.HasPrefix(digits, "0o") {
			if n, err := strconv.ParseUint(digits, 0, 64); err == nil {
				return strconv.FormatUint(n, 10)
			}
		}
		return digits
	})
}

// integerLiteral reports whether expr is a single integer literal and returns
// it in a form strconv.ParseInt(s, 0, 64) accepts.
func integerLiteral(expr string) (string, bool) {
	sub := numberPattern.FindStringSubmatch(expr)
	if sub == nil || sub[0] != expr {
		return "", false
	}
	digits := strings.ReplaceAll(sub[1], "_", "")
	if !intPattern.MatchString(digits) {
		return "", false
	}
	return digits, true
}
