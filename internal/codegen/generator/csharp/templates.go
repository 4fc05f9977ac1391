package csharp

import (
	"fmt"
	"strings"
	"text/template"
	"unicode"
)

var fileTemplate = template.Must(template.New("nativemethods").Funcs(template.FuncMap{
	"doc": docComment,
}).Parse(nativeMethodsTemplate))

const nativeMethodsTemplate = `// <auto-generated>
// This code is generated by {{.Tool}} from {{.Source}}. DO NOT EDIT.
// </auto-generated>
#pragma warning disable CS8500
#pragma warning disable CS8981
using System;
using System.Runtime.InteropServices;

namespace {{.Namespace}}
{
    {{.Accessibility}} static unsafe partial class {{.ClassName}}
    {
        public const string DllName = "{{.LibraryName}}";
{{range .Consts}}
{{doc "        " .Docs}}        public {{.Decl}} {{.Name}} = {{.Value}};
{{end}}{{range .Methods}}
{{doc "        " .Docs}}        [DllImport("{{$.LibraryName}}", EntryPoint = "{{.EntryPoint}}", CallingConvention = CallingConvention.{{.CallingConvention}}, ExactSpelling = true)]
{{if .ReturnBool}}        [return: MarshalAs(UnmanagedType.U1)]
{{end}}        {{$.Accessibility}} static extern {{.Return}} {{.Name}}({{.Params}});
{{end}}    }
{{range .Structs}}
{{doc "    " .Docs}}    [StructLayout(LayoutKind.{{.Layout}}{{if .Pack}}, Pack = {{.Pack}}{{end}})]
    {{$.Accessibility}} unsafe partial struct {{.Name}}
    {
{{range .Fields}}{{doc "        " .Docs}}{{if .Union}}        [FieldOffset(0)]
{{end}}{{if and .Bool (not .Fixed)}}        [MarshalAs(UnmanagedType.U1)]
{{end}}        public {{if .Fixed}}fixed {{end}}{{.Type}} {{.Name}}{{if .Fixed}}[{{.Len}}]{{end}};
{{end}}    }
{{end}}{{range .Opaque}}
    {{$.Accessibility}} unsafe partial struct {{.}}
    {
    }
{{end}}{{range .Enums}}
{{doc "    " .Docs}}    {{$.Accessibility}} enum {{.Name}} : {{.Underlying}}
    {
{{range .Members}}{{doc "        " .Docs}}        {{.Name}}{{if .Value}} = {{.Value}}{{end}},
{{end}}    }
{{end}}}
`

var xmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// docComment renders Rust doc lines as a C# XML summary, one line per input line.
func docComment(indent string, docs []string) string {
	if len(docs) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(indent + "/// <summary>\n")
	for _, line := range strings.Split(strings.Join(docs, "\n"), "\n") {
		line = strings.TrimRight(xmlEscaper.Replace(line), " \t\r")
		if line == "" {
			b.WriteString(indent + "///\n")
			continue
		}
		b.WriteString(indent + "/// " + line + "\n")
	}
	b.WriteString(indent + "/// </summary>\n")
	return b.String()
}

// escapeString escapes s for use inside a regular C# string literal.
func escapeString(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case 0:
			b.WriteString(`\0`)
		default:
			switch {
			case r > 0xFFFF:
				fmt.Fprintf(&b, `\U%08X`, r)
			case !unicode.IsPrint(r):
				fmt.Fprintf(&b, `\u%04X`, r)
			default:
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}
