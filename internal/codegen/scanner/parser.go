package scanner

import (
	"fmt"
	"strconv"
	"strings"
)

var closers = map[string]string{"(": ")", "[": "]", "{": "}"}

type parser struct {
	file      string
	toks      []token
	pos       int
	externABI string // set while inside an extern "C" { ... } block
	res       *Result
}

type attrs struct {
	noMangle   bool
	exportName string
	repr       Repr
}

type qualifiers struct {
	extern bool
	abi    string
}

func (p *parser) peek() token { return p.peekN(0) }

func (p *parser) peekN(n int) token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) isPunct(s string) bool {
	t := p.peek()
	return t.kind == tokPunct && t.text == s
}

func (p *parser) isKeyword(s string) bool {
	t := p.peek()
	return t.kind == tokIdent && t.text == s
}

func (p *parser) errorf(t token, format string, args ...any) error {
	return &SyntaxError{File: p.file, Line: t.line, Col: t.col, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) expectPunct(s string) error {
	t := p.next()
	if t.kind != tokPunct || t.text != s {
		return p.errorf(t, "expected %q, found %s", s, describe(t))
	}
	return nil
}

func (p *parser) expectIdent() (token, error) {
	t := p.next()
	if t.kind != tokIdent {
		return t, p.errorf(t, "expected identifier, found %s", describe(t))
	}
	return t, nil
}

func describe(t token) string {
	switch t.kind {
	case tokEOF:
		return "end of file"
	case tokString:
		return "string literal"
	case tokNumber:
		return "number " + t.text
	default:
		return strconv.Quote(t.text)
	}
}

func (p *parser) skip(name, kind, reason string, line int) {
	p.res.Skipped = append(p.res.Skipped, Skipped{Name: name, Kind: kind, Reason: reason, Line: line})
}

// skipGroup consumes a balanced (), [] or {} group and returns the tokens inside it.
func (p *parser) skipGroup() ([]token, error) {
	open := p.next()
	stack := []string{closers[open.text]}
	var inner []token
	for {
		t := p.next()
		if t.kind == tokEOF {
			return nil, p.errorf(open, "unclosed %q", open.text)
		}
		if t.kind == tokPunct {
			if c, ok := closers[t.text]; ok {
				stack = append(stack, c)
			} else if t.text == ")" || t.text == "]" || t.text == "}" {
				if t.text != stack[len(stack)-1] {
					return nil, p.errorf(t, "mismatched %q", t.text)
				}
				stack = stack[:len(stack)-1]
				if len(stack) == 0 {
					return inner, nil
				}
			}
		}
		inner = append(inner, t)
	}
}

// skipAngles consumes a <...> generic parameter or argument list.
func (p *parser) skipAngles() error {
	open := p.next()
	depth := 1
	for depth > 0 {
		t := p.peek()
		switch {
		case t.kind == tokEOF:
			return p.errorf(open, "unclosed \"<\"")
		case t.kind == tokPunct && t.text == "<":
			depth++
			p.next()
		case t.kind == tokPunct && t.text == ">":
			depth--
			p.next()
		case t.kind == tokPunct && (t.text == "(" || t.text == "[" || t.text == "{"):
			if _, err := p.skipGroup(); err != nil {
				return err
			}
		default:
			p.next()
		}
	}
	return nil
}

// skipItem consumes tokens up to and including a top-level ';' or a top-level {} group.
func (p *parser) skipItem() error {
	first := true
	for {
		t := p.peek()
		switch {
		case t.kind == tokEOF:
			return nil
		case t.kind == tokPunct && t.text == ";":
			p.next()
			return nil
		case t.kind == tokPunct && t.text == "{":
			_, err := p.skipGroup()
			return err
		case t.kind == tokPunct && (t.text == "(" || t.text == "["):
			if _, err := p.skipGroup(); err != nil {
				return err
			}
		case t.kind == tokPunct && (t.text == ")" || t.text == "]" || t.text == "}"):
			if first {
				return p.errorf(t, "unexpected %q", t.text)
			}
			return nil
		default:
			p.next()
		}
		first = false
	}
}

// skipWhere consumes a where clause, stopping before the body or terminator.
func (p *parser) skipWhere() error {
	if !p.isKeyword("where") {
		return nil
	}
	for {
		t := p.peek()
		switch {
		case t.kind == tokEOF:
			return p.errorf(t, "unterminated where clause")
		case t.kind == tokPunct && (t.text == "{" || t.text == ";"):
			return nil
		case t.kind == tokPunct && t.text == "<":
			if err := p.skipAngles(); err != nil {
				return err
			}
		case t.kind == tokPunct && (t.text == "(" || t.text == "["):
			if _, err := p.skipGroup(); err != nil {
				return err
			}
		default:
			p.next()
		}
	}
}

func (p *parser) parseItems() error {
	for p.peek().kind != tokEOF {
		if err := p.parseItem(); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) parseOuter() (docs []string, a attrs, err error) {
	for {
		switch {
		case p.peek().kind == tokDoc:
			docs = append(docs, p.next().text)
		case p.isPunct("#"):
			doc, err := p.parseAttribute(&a)
			if err != nil {
				return nil, a, err
			}
			if doc != "" {
				docs = append(docs, doc)
			}
		default:
			return docs, a, nil
		}
	}
}

// parseAttribute consumes #[...] or #![...] and records what the emitter cares about.
// A #[doc = "..."] attribute is returned as a doc line.
func (p *parser) parseAttribute(a *attrs) (string, error) {
	hash := p.next()
	inner := false
	if p.isPunct("!") {
		p.next()
		inner = true
	}
	if !p.isPunct("[") {
		return "", p.errorf(hash, "expected \"[\" after \"#\"")
	}
	body, err := p.skipGroup()
	if err != nil {
		return "", err
	}
	if inner || len(body) == 0 {
		return "", nil
	}
	// #[unsafe(no_mangle)] and #[unsafe(export_name = "x")]
	if body[0].text == "unsafe" && len(body) > 2 && body[1].text == "(" {
		body = body[2 : len(body)-1]
	}
	switch body[0].text {
	case "no_mangle":
		a.noMangle = true
	case "export_name":
		if len(body) >= 3 && body[2].kind == tokString {
			a.exportName = body[2].text
		}
	case "repr":
		parseRepr(body[1:], &a.repr)
	case "doc":
		if len(body) >= 3 && body[2].kind == tokString {
			return strings.TrimPrefix(body[2].text, " "), nil
		}
	}
	return "", nil
}

func parseRepr(toks []token, r *Repr) {
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		if t.kind != tokIdent {
			continue
		}
		switch t.text {
		case "C":
			r.C = true
		case "transparent":
			r.Transparent = true
		case "packed":
			r.Packed = 1
			if i+2 < len(toks) && toks[i+1].text == "(" && toks[i+2].kind == tokNumber {
				if n, err := strconv.Atoi(toks[i+2].text); err == nil {
					r.Packed = n
				}
			}
		case "u8", "u16", "u32", "u64", "i8", "i16", "i32", "i64", "usize", "isize":
			r.Int = t.text
		}
	}
}

func (p *parser) parseVisibility() error {
	if !p.isKeyword("pub") {
		return nil
	}
	p.next()
	if p.isPunct("(") {
		_, err := p.skipGroup()
		return err
	}
	return nil
}

func (p *parser) parseItem() error {
	docs, a, err := p.parseOuter()
	if err != nil {
		return err
	}
	if p.peek().kind == tokEOF || (p.externABI != "" && p.isPunct("}")) {
		return nil
	}
	start := p.peek()
	if err := p.parseVisibility(); err != nil {
		return err
	}

	var q qualifiers
	for {
		t := p.peek()
		if t.kind != tokIdent {
			break
		}
		next := p.peekN(1)
		switch {
		case t.text == "unsafe" || t.text == "async":
			p.next()
			continue
		case t.text == "const" && next.kind == tokIdent &&
			(next.text == "fn" || next.text == "unsafe" || next.text == "extern" || next.text == "async"):
			p.next()
			continue
		case t.text == "extern":
			p.next()
			q.extern = true
			q.abi = "C"
			if p.peek().kind == tokString {
				q.abi = p.next().text
			}
			if p.isKeyword("crate") {
				return p.skipItem()
			}
			if p.isPunct("{") {
				return p.parseExternBlock(q.abi)
			}
			continue
		}
		break
	}

	kw := p.peek()
	if kw.kind != tokIdent {
		return p.skipItem()
	}
	switch kw.text {
	case "fn":
		return p.parseFn(docs, a, q, start.line)
	case "struct":
		return p.parseStruct(docs, a, false, start.line)
	case "union":
		if p.peekN(1).kind == tokIdent {
			return p.parseStruct(docs, a, true, start.line)
		}
	case "enum":
		return p.parseEnum(docs, a, start.line)
	case "type":
		return p.parseAlias(start.line)
	case "const":
		return p.parseConst(docs, start.line)
	}
	return p.skipItem()
}

func (p *parser) parseExternBlock(abi string) error {
	open := p.next() // {
	prev := p.externABI
	p.externABI = abi
	defer func() { p.externABI = prev }()
	for !p.isPunct("}") {
		if p.peek().kind == tokEOF {
			return p.errorf(open, "unclosed extern block")
		}
		if err := p.parseItem(); err != nil {
			return err
		}
	}
	p.next()
	return nil
}

func isCABI(abi string) bool {
	switch abi {
	case "C", "C-unwind", "system", "system-unwind", "cdecl":
		return true
	}
	return false
}

func (p *parser) parseFn(docs []string, a attrs, q qualifiers, line int) error {
	p.next() // fn
	nameTok, err := p.expectIdent()
	if err != nil {
		return err
	}
	generic := false
	if p.isPunct("<") {
		generic = true
		if err := p.skipAngles(); err != nil {
			return err
		}
	}
	params, variadic, err := p.parseParams()
	if err != nil {
		return err
	}
	var ret *Type
	if p.isPunct("->") {
		p.next()
		if ret, err = p.parseType(); err != nil {
			return err
		}
	}
	if err := p.skipWhere(); err != nil {
		return err
	}
	switch {
	case p.isPunct("{"):
		if _, err := p.skipGroup(); err != nil {
			return err
		}
	case p.isPunct(";"):
		p.next()
	default:
		return p.errorf(p.peek(), "expected function body or \";\", found %s", describe(p.peek()))
	}

	name := nameTok.text
	// extern blocks declare functions the library imports from its host
	if p.externABI != "" {
		p.skip(name, "fn", "declared in an extern block (imported, not exported)", line)
		return nil
	}
	abi := q.abi
	marked := a.noMangle || a.exportName != ""
	switch {
	case !marked:
		return nil
	case !q.extern:
		p.skip(name, "fn", "exported with the Rust ABI, not extern \"C\"", line)
		return nil
	case !isCABI(abi):
		p.skip(name, "fn", fmt.Sprintf("unsupported ABI %q", abi), line)
		return nil
	case generic:
		p.skip(name, "fn", "generic functions cannot be exported", line)
		return nil
	case variadic:
		p.skip(name, "fn", "variadic functions are not supported", line)
		return nil
	}

	entry := name
	if a.exportName != "" {
		entry = a.exportName
	}
	if ret != nil && ret.Kind == KindUnit {
		ret = nil
	}
	p.res.Functions = append(p.res.Functions, Function{
		Name:       name,
		EntryPoint: entry,
		ABI:        abi,
		Params:     params,
		Return:     ret,
		Docs:       docs,
		Line:       line,
	})
	return nil
}

func (p *parser) parseParams() ([]Param, bool, error) {
	if err := p.expectPunct("("); err != nil {
		return nil, false, err
	}
	var params []Param
	variadic := false
	for !p.isPunct(")") {
		if _, _, err := p.parseOuter(); err != nil {
			return nil, false, err
		}
		if p.isPunct(".") {
			for p.isPunct(".") {
				p.next()
			}
			variadic = true
		} else {
			var name string
			for !p.isPunct(":") {
				t := p.peek()
				if t.kind == tokEOF || (t.kind == tokPunct && (t.text == ")" || t.text == ",")) {
					return nil, false, p.errorf(t, "expected parameter pattern followed by \":\"")
				}
				if t.kind == tokIdent && t.text != "mut" && t.text != "ref" {
					name = t.text
				}
				p.next()
			}
			p.next() // :
			typ, err := p.parseType()
			if err != nil {
				return nil, false, err
			}
			if name == "" || name == "_" {
				name = fmt.Sprintf("arg%d", len(params))
			}
			params = append(params, Param{Name: name, Type: typ})
		}
		if p.isPunct(",") {
			p.next()
		} else if !p.isPunct(")") {
			return nil, false, p.errorf(p.peek(), "expected \",\" or \")\", found %s", describe(p.peek()))
		}
	}
	p.next()
	return params, variadic, nil
}

func (p *parser) parseStruct(docs []string, a attrs, union bool, line int) error {
	kind := "struct"
	if union {
		kind = "union"
	}
	p.next()
	nameTok, err := p.expectIdent()
	if err != nil {
		return err
	}
	if p.isPunct("<") {
		if err := p.skipAngles(); err != nil {
			return err
		}
		p.skip(nameTok.text, kind, "generic types cannot cross the C ABI", line)
		return p.skipItem()
	}
	if err := p.skipWhere(); err != nil {
		return err
	}
	s := Struct{Name: nameTok.text, Union: union, Repr: a.repr, Docs: docs, Line: line}
	switch {
	case p.isPunct(";"):
		p.next()
		s.Unit = true
	case p.isPunct("{"):
		p.next()
		for !p.isPunct("}") {
			fdocs, _, err := p.parseOuter()
			if err != nil {
				return err
			}
			if p.isPunct("}") {
				break
			}
			if err := p.parseVisibility(); err != nil {
				return err
			}
			fname, err := p.expectIdent()
			if err != nil {
				return err
			}
			if err := p.expectPunct(":"); err != nil {
				return err
			}
			typ, err := p.parseType()
			if err != nil {
				return err
			}
			s.Fields = append(s.Fields, Field{Name: fname.text, Type: typ, Docs: fdocs})
			if p.isPunct(",") {
				p.next()
			} else if !p.isPunct("}") {
				return p.errorf(p.peek(), "expected \",\" or \"}\", found %s", describe(p.peek()))
			}
		}
		p.next()
	case p.isPunct("("):
		p.next()
		s.Tuple = true
		for !p.isPunct(")") {
			fdocs, _, err := p.parseOuter()
			if err != nil {
				return err
			}
			if err := p.parseVisibility(); err != nil {
				return err
			}
			typ, err := p.parseType()
			if err != nil {
				return err
			}
			s.Fields = append(s.Fields, Field{Name: fmt.Sprintf("_%d", len(s.Fields)), Type: typ, Docs: fdocs})
			if p.isPunct(",") {
				p.next()
			} else if !p.isPunct(")") {
				return p.errorf(p.peek(), "expected \",\" or \")\", found %s", describe(p.peek()))
			}
		}
		p.next()
		if err := p.skipWhere(); err != nil {
			return err
		}
		if err := p.expectPunct(";"); err != nil {
			return err
		}
	default:
		return p.errorf(p.peek(), "expected struct body, found %s", describe(p.peek()))
	}
	p.res.Structs = append(p.res.Structs, s)
	return nil
}

func (p *parser) parseEnum(docs []string, a attrs, line int) error {
	p.next()
	nameTok, err := p.expectIdent()
	if err != nil {
		return err
	}
	if p.isPunct("<") {
		if err := p.skipAngles(); err != nil {
			return err
		}
		p.skip(nameTok.text, "enum", "generic types cannot cross the C ABI", line)
		return p.skipItem()
	}
	if err := p.skipWhere(); err != nil {
		return err
	}
	if err := p.expectPunct("{"); err != nil {
		return err
	}
	e := Enum{Name: nameTok.text, Repr: a.repr, Docs: docs, Line: line}
	dataful := false
	for !p.isPunct("}") {
		vdocs, _, err := p.parseOuter()
		if err != nil {
			return err
		}
		vname, err := p.expectIdent()
		if err != nil {
			return err
		}
		v := Variant{Name: vname.text, Docs: vdocs}
		if p.isPunct("(") || p.isPunct("{") {
			dataful = true
			if _, err := p.skipGroup(); err != nil {
				return err
			}
		}
		if p.isPunct("=") {
			p.next()
			expr, err := p.collectUntil(",", "}")
			if err != nil {
				return err
			}
			v.Value = joinTokens(stripCasts(expr))
		}
		e.Variants = append(e.Variants, v)
		if p.isPunct(",") {
			p.next()
		} else if !p.isPunct("}") {
			return p.errorf(p.peek(), "expected \",\" or \"}\", found %s", describe(p.peek()))
		}
	}
	p.next()
	if dataful {
		p.skip(e.Name, "enum", "variants carry data", line)
		return nil
	}
	p.res.Enums = append(p.res.Enums, e)
	return nil
}

func (p *parser) parseAlias(line int) error {
	p.next() // type
	nameTok, err := p.expectIdent()
	if err != nil {
		return err
	}
	if p.isPunct("<") {
		if err := p.skipAngles(); err != nil {
			return err
		}
		p.skip(nameTok.text, "type", "generic aliases are not supported", line)
		return p.skipItem()
	}
	// extern { type Opaque; }
	if p.isPunct(";") {
		p.next()
		p.res.Structs = append(p.res.Structs, Struct{Name: nameTok.text, Unit: true, Line: line})
		return nil
	}
	if err := p.expectPunct("="); err != nil {
		return err
	}
	target, err := p.parseType()
	if err != nil {
		return err
	}
	if err := p.expectPunct(";"); err != nil {
		return err
	}
	p.res.Aliases = append(p.res.Aliases, Alias{Name: nameTok.text, Target: target, Line: line})
	return nil
}

func (p *parser) parseConst(docs []string, line int) error {
	p.next() // const
	nameTok := p.next()
	if nameTok.kind != tokIdent {
		return p.errorf(nameTok, "expected constant name, found %s", describe(nameTok))
	}
	if err := p.expectPunct(":"); err != nil {
		return err
	}
	typ, err := p.parseType()
	if err != nil {
		return err
	}
	if err := p.expectPunct("="); err != nil {
		return err
	}
	expr, err := p.collectUntil(";")
	if err != nil {
		return err
	}
	if err := p.expectPunct(";"); err != nil {
		return err
	}
	if nameTok.text == "_" {
		return nil
	}
	value, ok := constValue(expr, p.isConst)
	if !ok {
		p.skip(nameTok.text, "const", "value is not a literal expression", line)
		return nil
	}
	p.res.Consts = append(p.res.Consts, Const{Name: nameTok.text, Type: typ, Value: value, Docs: docs, Line: line})
	return nil
}

// collectUntil gathers tokens up to (not including) one of the stop
// punctuations found outside any nested group.
func (p *parser) collectUntil(stops ...string) ([]token, error) {
	var out []token
	for {
		t := p.peek()
		if t.kind == tokEOF {
			return nil, p.errorf(t, "unexpected end of file")
		}
		if t.kind == tokPunct {
			for _, s := range stops {
				if t.text == s {
					return out, nil
				}
			}
			if _, ok := closers[t.text]; ok {
				open := p.peek()
				inner, err := p.skipGroup()
				if err != nil {
					return nil, err
				}
				out = append(out, open)
				out = append(out, inner...)
				out = append(out, token{kind: tokPunct, text: closers[open.text]})
				continue
			}
		}
		out = append(out, p.next())
	}
}

// stripCasts drops `as T` suffixes, which have no meaning in a C# constant.
func stripCasts(toks []token) []token {
	out := make([]token, 0, len(toks))
	for i := 0; i < len(toks); i++ {
		if toks[i].kind == tokIdent && toks[i].text == "as" && i+1 < len(toks) {
			i++
			continue
		}
		out = append(out, toks[i])
	}
	return out
}

func (p *parser) isConst(name string) bool {
	for _, c := range p.res.Consts {
		if c.Name == name {
			return true
		}
	}
	return false
}

// constValue renders a literal expression: numbers, true/false, operators and
// references to constants scanned earlier in the file. Calls and unknown names
// are rejected.
func constValue(toks []token, known func(string) bool) (string, bool) {
	toks = stripCasts(toks)
	if len(toks) == 0 {
		return "", false
	}
	if len(toks) == 1 && toks[0].kind == tokString {
		return strconv.Quote(toks[0].text), true
	}
	for i, t := range toks {
		switch t.kind {
		case tokNumber:
		case tokIdent:
			if i+1 < len(toks) && toks[i+1].kind == tokPunct && toks[i+1].text == "(" {
				return "", false
			}
			if t.text != "true" && t.text != "false" && !known(t.text) {
				return "", false
			}
		case tokPunct:
			if !strings.Contains("-+*/%()|&^<>!~", t.text) {
				return "", false
			}
		default:
			return "", false
		}
	}
	return joinTokens(toks), true
}

// joinTokens re-renders an expression, separating adjacent words with a space.
func joinTokens(toks []token) string {
	var b strings.Builder
	for i, t := range toks {
		word := t.kind == tokIdent || t.kind == tokNumber
		if i > 0 {
			prev := toks[i-1]
			if word && (prev.kind == tokIdent || prev.kind == tokNumber) {
				b.WriteByte(' ')
			}
		}
		switch t.kind {
		case tokString:
			b.WriteString(strconv.Quote(t.text))
		case tokChar:
			b.WriteString("'" + t.text + "'")
		default:
			b.WriteString(t.text)
		}
	}
	return b.String()
}

func (p *parser) parseType() (*Type, error) {
	t := p.peek()
	switch {
	case t.kind == tokPunct && t.text == "*":
		p.next()
		mut := false
		switch {
		case p.isKeyword("mut"):
			mut = true
		case p.isKeyword("const"):
		default:
			return nil, p.errorf(p.peek(), "expected \"const\" or \"mut\" after \"*\"")
		}
		p.next()
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return &Type{Kind: KindPointer, Mutable: mut, Elem: elem}, nil
	case t.kind == tokPunct && t.text == "&":
		p.next()
		if p.peek().kind == tokLifetime {
			p.next()
		}
		mut := false
		if p.isKeyword("mut") {
			p.next()
			mut = true
		}
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return &Type{Kind: KindReference, Mutable: mut, Elem: elem}, nil
	case t.kind == tokPunct && t.text == "[":
		p.next()
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if p.isPunct(";") {
			p.next()
			expr, err := p.collectUntil("]")
			if err != nil {
				return nil, err
			}
			p.next()
			return &Type{Kind: KindArray, Elem: elem, Len: joinTokens(stripCasts(expr))}, nil
		}
		if err := p.expectPunct("]"); err != nil {
			return nil, err
		}
		return &Type{Kind: KindSlice, Elem: elem}, nil
	case t.kind == tokPunct && t.text == "(":
		p.next()
		if p.isPunct(")") {
			p.next()
			return &Type{Kind: KindUnit}, nil
		}
		var elems []*Type
		trailing := false
		for !p.isPunct(")") {
			e, err := p.parseType()
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
			trailing = false
			if p.isPunct(",") {
				p.next()
				trailing = true
			} else if !p.isPunct(")") {
				return nil, p.errorf(p.peek(), "expected \",\" or \")\" in tuple type")
			}
		}
		p.next()
		if len(elems) == 1 && !trailing {
			return elems[0], nil
		}
		return &Type{Kind: KindTuple, Elems: elems}, nil
	case t.kind == tokPunct && t.text == "!":
		p.next()
		return &Type{Kind: KindNever}, nil
	case t.kind == tokIdent && (t.text == "fn" || t.text == "unsafe" || t.text == "extern" || t.text == "for"):
		return p.parseFnPointer()
	case t.kind == tokIdent && (t.text == "dyn" || t.text == "impl"):
		return p.parseUnsupported()
	case t.kind == tokPunct && t.text == "<":
		return p.parseUnsupported()
	case t.kind == tokIdent || (t.kind == tokPunct && t.text == "::"):
		return p.parsePath()
	}
	return nil, p.errorf(t, "expected type, found %s", describe(t))
}

func (p *parser) parsePath() (*Type, error) {
	var segs []string
	if p.isPunct("::") {
		p.next()
	}
	typ := &Type{Kind: KindPath}
	for {
		seg, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		segs = append(segs, seg.text)
		typ.Generics = nil
		if p.isPunct("::") && p.peekN(1).kind == tokPunct && p.peekN(1).text == "<" {
			p.next()
		}
		if p.isPunct("<") {
			if typ.Generics, err = p.parseGenericArgs(); err != nil {
				return nil, err
			}
		}
		if p.isPunct("::") && p.peekN(1).kind == tokIdent {
			p.next()
			continue
		}
		break
	}
	typ.Name = segs[len(segs)-1]
	typ.Path = strings.Join(segs, "::")
	return typ, nil
}

func (p *parser) parseGenericArgs() ([]*Type, error) {
	p.next() // <
	var args []*Type
	for !p.isPunct(">") {
		switch {
		case p.peek().kind == tokLifetime:
			p.next()
		case p.peek().kind == tokIdent && p.peekN(1).kind == tokPunct && p.peekN(1).text == "=":
			// associated type binding, e.g. Output = T
			p.next()
			p.next()
			if _, err := p.parseType(); err != nil {
				return nil, err
			}
		default:
			arg, err := p.parseType()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
		}
		if p.isPunct(",") {
			p.next()
		} else if !p.isPunct(">") {
			return nil, p.errorf(p.peek(), "expected \",\" or \">\" in generic arguments, found %s", describe(p.peek()))
		}
	}
	p.next()
	return args, nil
}

func (p *parser) parseFnPointer() (*Type, error) {
	if p.isKeyword("for") {
		p.next()
		if !p.isPunct("<") {
			return nil, p.errorf(p.peek(), "expected \"<\" after \"for\"")
		}
		if err := p.skipAngles(); err != nil {
			return nil, err
		}
	}
	if p.isKeyword("unsafe") {
		p.next()
	}
	abi := "Rust"
	if p.isKeyword("extern") {
		p.next()
		abi = "C"
		if p.peek().kind == tokString {
			abi = p.next().text
		}
	}
	if !p.isKeyword("fn") {
		return nil, p.errorf(p.peek(), "expected \"fn\", found %s", describe(p.peek()))
	}
	p.next()
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	fn := &Type{Kind: KindFnPointer, ABI: abi}
	for !p.isPunct(")") {
		if p.peek().kind == tokIdent && p.peekN(1).kind == tokPunct && p.peekN(1).text == ":" {
			p.next()
			p.next()
		}
		param, err := p.parseType()
		if err != nil {
			return nil, err
		}
		fn.Params = append(fn.Params, param)
		if p.isPunct(",") {
			p.next()
		} else if !p.isPunct(")") {
			return nil, p.errorf(p.peek(), "expected \",\" or \")\" in fn pointer type")
		}
	}
	p.next()
	if p.isPunct("->") {
		p.next()
		ret, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if ret.Kind != KindUnit {
			fn.Return = ret
		}
	}
	return fn, nil
}

// parseUnsupported consumes trait objects, impl Trait and qualified paths so
// the item can still be reported with its source text.
func (p *parser) parseUnsupported() (*Type, error) {
	var toks []token
	for {
		t := p.peek()
		if t.kind == tokEOF {
			return nil, p.errorf(t, "unexpected end of file in type")
		}
		if t.kind == tokPunct {
			if t.text == "<" {
				start := p.pos
				if err := p.skipAngles(); err != nil {
					return nil, err
				}
				toks = append(toks, p.toks[start:p.pos]...)
				continue
			}
			if t.text == "(" || t.text == "[" {
				start := p.pos
				if _, err := p.skipGroup(); err != nil {
					return nil, err
				}
				toks = append(toks, p.toks[start:p.pos]...)
				continue
			}
			if t.text != "::" && t.text != "+" {
				break
			}
		}
		toks = append(toks, p.next())
	}
	return &Type{Kind: KindUnsupported, Raw: joinTokens(toks)}, nil
}
