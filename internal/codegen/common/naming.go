package common

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/iancoleman/strcase"
)

// libraryNamePattern accepts the names DllImport resolves: "lightningcss_cs_bindings",
// "libfoo.so.1", "__Internal".
var libraryNamePattern = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_.\-]*$`)

// ValidateLibraryName checks that name can be embedded verbatim as the native
// library reference in generated code.
func ValidateLibraryName(name string) error {
	if name == "" {
		return fmt.Errorf("library name must not be empty")
	}
	if !libraryNamePattern.MatchString(name) {
		return fmt.Errorf("invalid library name %q: allowed characters are letters, digits, '_', '.', '-'", name)
	}
	return nil
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateIdentifier checks a C# identifier; dotted names are allowed when dotted is set.
func ValidateIdentifier(kind, s string, dotted bool) error {
	parts := []string{s}
	if dotted {
		parts = strings.Split(s, ".")
	}
	for _, p := range parts {
		if !identPattern.MatchString(p) || IsCSharpKeyword(p) {
			return fmt.Errorf("invalid %s %q", kind, s)
		}
	}
	return nil
}

// ToPascalCase converts snake_case symbol names to PascalCase, keeping
// a leading underscore run intact ("__private_fn" -> "__PrivateFn").
func ToPascalCase(s string) string {
	trimmed := strings.TrimLeft(s, "_")
	if trimmed == "" {
		return s
	}
	return s[:len(s)-len(trimmed)] + strcase.ToCamel(trimmed)
}

var csharpKeywords = map[string]bool{
	"abstract": true, "as": true, "base": true, "bool": true, "break": true,
	"byte": true, "case": true, "catch": true, "char": true, "checked": true,
	"class": true, "const": true, "continue": true, "decimal": true, "default": true,
	"delegate": true, "do": true, "double": true, "else": true, "enum": true,
	"event": true, "explicit": true, "extern": true, "false": true, "finally": true,
	"fixed": true, "float": true, "for": true, "foreach": true, "goto": true,
	"if": true, "implicit": true, "in": true, "int": true, "interface": true,
	"internal": true, "is": true, "lock": true, "long": true, "namespace": true,
	"new": true, "null": true, "object": true, "operator": true, "out": true,
	"override": true, "params": true, "private": true, "protected": true, "public": true,
	"readonly": true, "ref": true, "return": true, "sbyte": true, "sealed": true,
	"short": true, "sizeof": true, "stackalloc": true, "static": true, "string": true,
	"struct": true, "switch": true, "this": true, "throw": true, "true": true,
	"try": true, "typeof": true, "uint": true, "ulong": true, "unchecked": true,
	"unsafe": true, "ushort": true, "using": true, "virtual": true, "void": true,
	"volatile": true, "while": true,
}

func IsCSharpKeyword(s string) bool { return csharpKeywords[s] }

// EscapeIdentifier prefixes C# keywords with '@' so they can be used as names.
func EscapeIdentifier(s string) string {
	if csharpKeywords[s] {
		return "@" + s
	}
	return s
}
