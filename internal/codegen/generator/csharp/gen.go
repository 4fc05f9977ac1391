package csharp

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/flixcor/lightningcss.net/internal/codegen/common"
	"github.com/flixcor/lightningcss.net/internal/codegen/meta"
	"github.com/flixcor/lightningcss.net/internal/codegen/scanner"
)

// Options controls the shape of the generated NativeMethods file.
type Options struct {
	LibraryName      string
	Namespace        string
	ClassName        string
	Accessibility    string // "internal" or "public"
	MethodPrefix     string
	EntryPointPrefix string
	MethodCasing     string // "none" or "pascal"
}

const (
	DefaultNamespace     = "CsBindgen"
	DefaultClassName     = "NativeMethods"
	DefaultAccessibility = "internal"
	CasingNone           = "none"
	CasingPascal         = "pascal"
)

// WithDefaults fills unset options.
func (o Options) WithDefaults() Options {
	if o.Namespace == "" {
		o.Namespace = DefaultNamespace
	}
	if o.ClassName == "" {
		o.ClassName = DefaultClassName
	}
	if o.Accessibility == "" {
		o.Accessibility = DefaultAccessibility
	}
	if o.MethodCasing == "" {
		o.MethodCasing = CasingNone
	}
	return o
}

// Validate checks the options after defaults are applied.
func (o Options) Validate() error {
	o = o.WithDefaults()
	if err := common.ValidateLibraryName(o.LibraryName); err != nil {
		return err
	}
	if err := common.ValidateIdentifier("namespace", o.Namespace, true); err != nil {
		return err
	}
	if err := common.ValidateIdentifier("class name", o.ClassName, false); err != nil {
		return err
	}
	if o.MethodPrefix != "" {
		if err := common.ValidateIdentifier("method prefix", o.MethodPrefix, false); err != nil {
			return err
		}
	}
	switch o.Accessibility {
	case "internal", "public":
	default:
		return fmt.Errorf("invalid accessibility %q (supported: internal, public)", o.Accessibility)
	}
	switch o.MethodCasing {
	case CasingNone, CasingPascal:
	default:
		return fmt.Errorf("invalid method casing %q (supported: %s, %s)", o.MethodCasing, CasingNone, CasingPascal)
	}
	return nil
}

type fileData struct {
	Tool          string
	Source        string
	Namespace     string
	ClassName     string
	Accessibility string
	LibraryName   string
	Consts        []constData
	Methods       []methodData
	Structs       []structData
	Opaque        []string
	Enums         []enumData
}

type constData struct {
	Name  string
	Decl  string // "const int", "static readonly Int128", ...
	Value string
	Docs  []string
}

type methodData struct {
	Name              string
	EntryPoint        string // C# string literal body, already escaped
	CallingConvention string
	Return            string
	ReturnBool        bool
	Params            string
	Docs              []string
}

type structData struct {
	Name   string
	Layout string
	Pack   int
	Fields []fieldData
	Docs   []string
}

type fieldData struct {
	Name  string
	Type  string
	Union bool
	Bool  bool
	Fixed bool
	Len   int
	Docs  []string
}

type enumData struct {
	Name       string
	Underlying string
	Members    []memberData
	Docs       []string
}

type memberData struct {
	Name  string
	Value string
	Docs  []string
}

// Generate renders the C# bindings for md.
func Generate(logger *slog.Logger, md *meta.Metadata, opts Options) ([]byte, error) {
	opts = opts.WithDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	for _, s := range md.Skipped {
		logger.Warn("Skipping item", "name", s.Name, "kind", s.Kind, "reason", s.Reason, "line", s.Line)
	}

	m := newTypeMapper(md)
	data := fileData{
		Tool:          common.ToolName,
		Source:        filepath.Base(md.Source),
		Namespace:     opts.Namespace,
		ClassName:     opts.ClassName,
		Accessibility: opts.Accessibility,
		LibraryName:   opts.LibraryName,
	}

	for _, c := range md.Consts {
		cd, ok, err := buildConst(m, c)
		if err != nil {
			return nil, withItem(err, c.Name)
		}
		if !ok {
			logger.Debug("Skipping constant without a C# constant type", "name", c.Name, "type", c.Type.String())
			continue
		}
		data.Consts = append(data.Consts, cd)
	}

	for _, fn := range md.Functions {
		method, err := buildMethod(m, fn, opts)
		if err != nil {
			return nil, withItem(err, fn.Name)
		}
		data.Methods = append(data.Methods, method)
	}

	for _, s := range md.Structs {
		if !s.HasLayout() || s.Unit {
			continue
		}
		sd, err := buildStruct(m, s)
		if err != nil {
			return nil, err
		}
		data.Structs = append(data.Structs, sd)
	}

	for _, e := range md.Enums {
		data.Enums = append(data.Enums, buildEnum(m, e, opts.ClassName))
	}

	for _, name := range m.opaque {
		data.Opaque = append(data.Opaque, common.EscapeIdentifier(name))
	}

	var buf bytes.Buffer
	if err := fileTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("executing template: %w", err)
	}

	logger.Debug("Generated C# bindings",
		"functions", len(data.Methods),
		"structs", len(data.Structs),
		"enums", len(data.Enums),
		"opaque", len(data.Opaque),
		"consts", len(data.Consts))
	return buf.Bytes(), nil
}

func withItem(err error, item string) error {
	var ue *UnsupportedError
	if errors.As(err, &ue) && ue.Item == "" {
		ue.Item = item
	}
	return err
}

// constDecl holds the declaration keywords for C# types that allow const.
var constDecl = map[string]string{
	"sbyte": "const sbyte", "byte": "const byte", "short": "const short", "ushort": "const ushort",
	"int": "const int", "uint": "const uint", "long": "const long", "ulong": "const ulong",
	"nint": "const nint", "nuint": "const nuint", "float": "const float", "double": "const double",
	"bool": "const bool",
}

func buildConst(m *typeMapper, c scanner.Const) (constData, bool, error) {
	cd := constData{Name: common.EscapeIdentifier(c.Name), Docs: c.Docs}

	if strings.HasPrefix(c.Value, `"`) {
		s, err := strconv.Unquote(c.Value)
		if err != nil {
			return cd, false, fmt.Errorf("constant %s: %w", c.Name, err)
		}
		cd.Decl = "const string"
		cd.Value = `"` + escapeString(s) + `"`
		return cd, true, nil
	}

	t := m.resolve(c.Type)
	if t.Kind != scanner.KindPath || len(t.Generics) > 0 {
		return cd, false, nil
	}
	cs, ok := primitives[t.Name]
	if !ok || cs == "void" {
		return cd, false, nil
	}

	value := normalizeNumbers(c.Value)
	if cs != "bool" {
		value = strings.ReplaceAll(value, "!", "~")
	}
	switch cs {
	case "float":
		if _, isLit := floatLiteral(value); isLit {
			value += "f"
		} else {
			value = "(float)(" + value + ")"
		}
	case "CLong", "CULong":
		value = "new " + cs + "(" + value + ")"
	case "Int128", "UInt128":
		value = "(" + cs + ")(" + value + ")"
	}

	if decl, ok := constDecl[cs]; ok {
		cd.Decl = decl
	} else {
		cd.Decl = "static readonly " + cs
	}
	cd.Value = value
	return cd, true, nil
}

func floatLiteral(s string) (float64, bool) {
	digits := strings.TrimPrefix(s, "-")
	if digits == "" || digits[0] < '0' || digits[0] > '9' {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}

func buildMethod(m *typeMapper, fn scanner.Function, opts Options) (methodData, error) {
	name := opts.MethodPrefix + fn.Name
	if opts.MethodCasing == CasingPascal {
		name = opts.MethodPrefix + common.ToPascalCase(fn.Name)
	}
	md := methodData{
		Name:              common.EscapeIdentifier(name),
		EntryPoint:        escapeString(opts.EntryPointPrefix + fn.EntryPoint),
		CallingConvention: "Cdecl",
		Docs:              fn.Docs,
	}
	if strings.HasPrefix(fn.ABI, "system") {
		md.CallingConvention = "Winapi"
	}

	ret, err := m.csType(fn.Return)
	if err != nil {
		return md, err
	}
	md.Return = ret
	md.ReturnBool = m.isBool(fn.Return)

	params := make([]string, 0, len(fn.Params))
	for _, p := range fn.Params {
		cs, err := m.csType(p.Type)
		if err != nil {
			return md, err
		}
		param := cs + " " + common.EscapeIdentifier(p.Name)
		if m.isBool(p.Type) {
			param = "[MarshalAs(UnmanagedType.U1)] " + param
		}
		params = append(params, param)
	}
	md.Params = strings.Join(params, ", ")
	return md, nil
}

func buildStruct(m *typeMapper, s scanner.Struct) (structData, error) {
	sd := structData{
		Name:   common.EscapeIdentifier(s.Name),
		Layout: "Sequential",
		Pack:   s.Repr.Packed,
		Docs:   s.Docs,
	}
	if s.Union {
		sd.Layout = "Explicit"
	}

	for _, f := range s.Fields {
		item := s.Name + "." + f.Name
		t := m.resolve(f.Type)
		if t.Kind == scanner.KindPath && t.Name == "PhantomData" {
			continue
		}
		name := common.EscapeIdentifier(f.Name)

		if t.Kind != scanner.KindArray {
			cs, err := m.csType(t)
			if err != nil {
				return sd, withItem(err, item)
			}
			sd.Fields = append(sd.Fields, fieldData{
				Name:  name,
				Type:  cs,
				Union: s.Union,
				Bool:  m.isBool(t),
				Docs:  f.Docs,
			})
			continue
		}

		n, err := m.arrayLen(t)
		if err != nil {
			return sd, withItem(err, item)
		}
		elem, err := m.csType(t.Elem)
		if err != nil {
			return sd, withItem(err, item)
		}
		if fixedBufferTypes[elem] {
			sd.Fields = append(sd.Fields, fieldData{
				Name:  name,
				Type:  elem,
				Union: s.Union,
				Fixed: true,
				Len:   n,
				Docs:  f.Docs,
			})
			continue
		}
		if s.Union && n > 1 {
			return sd, &UnsupportedError{Item: item, Type: t.String(), Reason: "arrays of non-primitive elements are not supported in unions"}
		}
		// C# has no fixed buffers of structs or pointers, so spell out each element.
		for i := 0; i < n; i++ {
			fd := fieldData{
				Name:  fmt.Sprintf("%s_%d", f.Name, i),
				Type:  elem,
				Union: s.Union,
				Bool:  m.isBool(t.Elem),
			}
			if i == 0 {
				fd.Docs = f.Docs
			}
			sd.Fields = append(sd.Fields, fd)
		}
	}
	return sd, nil
}

func buildEnum(m *typeMapper, e scanner.Enum, class string) enumData {
	ed := enumData{
		Name:       common.EscapeIdentifier(e.Name),
		Underlying: "int",
		Docs:       e.Docs,
	}
	if u, ok := enumUnderlying[e.Repr.Int]; ok {
		ed.Underlying = u
	}
	for _, v := range e.Variants {
		value := ""
		if v.Value != "" {
			value = strings.ReplaceAll(normalizeNumbers(v.Value), "!", "~")
			value = m.qualifyConsts(value, class, ed.Underlying)
		}
		ed.Members = append(ed.Members, memberData{
			Name:  common.EscapeIdentifier(v.Name),
			Value: value,
			Docs:  v.Docs,
		})
	}
	return ed
}

// qualifyConsts rewrites references to Rust constants in an enum discriminant.
// Enums live at namespace level while constants are members of the class, so
// each reference is qualified and, when its type differs, cast to underlying.
func (m *typeMapper) qualifyConsts(expr, class, underlying string) string {
	return identPattern.ReplaceAllStringFunc(expr, func(name string) string {
		c := m.md.Const(name)
		if c == nil {
			return name
		}
		t := m.resolve(c.Type)
		cs, ok := primitives[t.Name]
		if t.Kind != scanner.KindPath || !ok {
			return name
		}
		ref := class + "." + common.EscapeIdentifier(name)
		if cs != underlying {
			ref = "(" + underlying + ")" + ref
		}
		return ref
	})
}
