package scanner

import (
	"strings"
)

// TypeKind classifies a parsed Rust type expression.
type TypeKind string

const (
	KindPath        TypeKind = "path"
	KindPointer     TypeKind = "pointer"
	KindReference   TypeKind = "reference"
	KindArray       TypeKind = "array"
	KindSlice       TypeKind = "slice"
	KindTuple       TypeKind = "tuple"
	KindUnit        TypeKind = "unit"
	KindNever       TypeKind = "never"
	KindFnPointer   TypeKind = "fn"
	KindUnsupported TypeKind = "unsupported"
)

// Type is a Rust type expression as written in the source.
type Type struct {
	Kind     TypeKind `json:"kind"`
	Name     string   `json:"name,omitempty"`     // last path segment (e.g. "c_char", "Option")
	Path     string   `json:"path,omitempty"`     // full path as written (e.g. "std::ffi::c_char")
	Generics []*Type  `json:"generics,omitempty"` // generic arguments of the last segment
	Mutable  bool     `json:"mutable,omitempty"`  // *mut / &mut
	Elem     *Type    `json:"elem,omitempty"`     // pointee, referent or array element
	Len      string   `json:"len,omitempty"`      // array length expression
	Elems    []*Type  `json:"elems,omitempty"`    // tuple members
	Params   []*Type  `json:"params,omitempty"`   // fn pointer parameters
	Return   *Type    `json:"return,omitempty"`   // fn pointer return, nil for ()
	ABI      string   `json:"abi,omitempty"`      // fn pointer ABI
	Raw      string   `json:"raw,omitempty"`      // source text for unsupported types
}

// IsVoid reports whether t is (), ! or absent.
func (t *Type) IsVoid() bool {
	return t == nil || t.Kind == KindUnit || t.Kind == KindNever
}

// String renders the type back to Rust syntax.
func (t *Type) String() string {
	if t == nil {
		return "()"
	}
	switch t.Kind {
	case KindPath:
		s := t.Path
		if s == "" {
			s = t.Name
		}
		if len(t.Generics) > 0 {
			args := make([]string, len(t.Generics))
			for i, g := range t.Generics {
				args[i] = g.String()
			}
			s += "<" + strings.Join(args, ", ") + ">"
		}
		return s
	case KindPointer:
		if t.Mutable {
			return "*mut " + t.Elem.String()
		}
		return "*const " + t.Elem.String()
	case KindReference:
		if t.Mutable {
			return "&mut " + t.Elem.String()
		}
		return "&" + t.Elem.String()
	case KindArray:
		return "[" + t.Elem.String() + "; " + t.Len + "]"
	case KindSlice:
		return "[" + t.Elem.String() + "]"
	case KindTuple:
		parts := make([]string, len(t.Elems))
		for i, e := range t.Elems {
			parts[i] = e.String()
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case KindUnit:
		return "()"
	case KindNever:
		return "!"
	case KindFnPointer:
		params := make([]string, len(t.Params))
		for i, p := range t.Params {
			params[i] = p.String()
		}
		s := "extern \"" + t.ABI + "\" fn(" + strings.Join(params, ", ") + ")"
		if !t.Return.IsVoid() {
			s += " -> " + t.Return.String()
		}
		return s
	default:
		return t.Raw
	}
}

// Param is a single function parameter.
type Param struct {
	Name string `json:"name"`
	Type *Type  `json:"type"`
}

// Function is an exported extern function.
type Function struct {
	Name       string   `json:"name"`
	EntryPoint string   `json:"entryPoint"` // exported symbol, differs from Name with #[export_name]
	ABI        string   `json:"abi"`
	Params     []Param  `json:"params"`
	Return     *Type    `json:"return,omitempty"`
	Docs       []string `json:"docs,omitempty"`
	Line       int      `json:"line"`
}

// Field is a struct or union member.
type Field struct {
	Name string   `json:"name"`
	Type *Type    `json:"type"`
	Docs []string `json:"docs,omitempty"`
}

// Repr captures the #[repr(...)] attributes relevant to layout.
type Repr struct {
	C           bool   `json:"c,omitempty"`
	Transparent bool   `json:"transparent,omitempty"`
	Packed      int    `json:"packed,omitempty"` // 0 when not packed
	Int         string `json:"int,omitempty"`    // u8, i32, ... for enums
}

// Struct is a struct or union declaration.
type Struct struct {
	Name   string   `json:"name"`
	Union  bool     `json:"union,omitempty"`
	Repr   Repr     `json:"repr"`
	Fields []Field  `json:"fields"`
	Tuple  bool     `json:"tuple,omitempty"`
	Unit   bool     `json:"unit,omitempty"`
	Docs   []string `json:"docs,omitempty"`
	Line   int      `json:"line"`
}

// HasLayout reports whether the struct has a C-compatible layout.
func (s *Struct) HasLayout() bool {
	return s.Repr.C || s.Repr.Transparent
}

// Variant is a fieldless enum member.
type Variant struct {
	Name  string   `json:"name"`
	Value string   `json:"value,omitempty"` // discriminant expression, empty when implicit
	Docs  []string `json:"docs,omitempty"`
}

// Enum is a C-like enum declaration.
type Enum struct {
	Name     string    `json:"name"`
	Repr     Repr      `json:"repr"`
	Variants []Variant `json:"variants"`
	Docs     []string  `json:"docs,omitempty"`
	Line     int       `json:"line"`
}

// Alias is a `type A = B;` declaration.
type Alias struct {
	Name   string `json:"name"`
	Target *Type  `json:"target"`
	Line   int    `json:"line"`
}

// Const is a `const NAME: T = literal;` declaration.
type Const struct {
	Name  string   `json:"name"`
	Type  *Type    `json:"type"`
	Value string   `json:"value"`
	Docs  []string `json:"docs,omitempty"`
	Line  int      `json:"line"`
}

// Skipped records an item the scanner saw but could not bind.
type Skipped struct {
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Reason string `json:"reason"`
	Line   int    `json:"line"`
}

// Result is everything discovered in one source file, in source order.
type Result struct {
	Functions []Function `json:"functions"`
	Structs   []Struct   `json:"structs"`
	Enums     []Enum     `json:"enums"`
	Aliases   []Alias    `json:"aliases"`
	Consts    []Const    `json:"consts"`
	Skipped   []Skipped  `json:"skipped,omitempty"`
}
