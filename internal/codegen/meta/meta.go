package meta

import "github.com/flixcor/lightningcss.net/internal/codegen/scanner"

// Metadata holds all scanned information needed for code generation.
// Shared between the emitter and language-specific generators.
type Metadata struct {
	Source    string             `json:"source"`
	Functions []scanner.Function `json:"functions"`
	Structs   []scanner.Struct   `json:"structs"`
	Enums     []scanner.Enum     `json:"enums"`
	Aliases   []scanner.Alias    `json:"aliases"`
	Consts    []scanner.Const    `json:"consts"`
	Skipped   []scanner.Skipped  `json:"skipped,omitempty"`

	structs map[string]*scanner.Struct
	enums   map[string]*scanner.Enum
	aliases map[string]*scanner.Alias
	consts  map[string]*scanner.Const
}

// New builds Metadata from a scan result. The first declaration of a name wins.
func New(source string, r *scanner.Result) *Metadata {
	md := &Metadata{
		Source:    source,
		Functions: r.Functions,
		Structs:   r.Structs,
		Enums:     r.Enums,
		Aliases:   r.Aliases,
		Consts:    r.Consts,
		Skipped:   r.Skipped,
		structs:   make(map[string]*scanner.Struct),
		enums:     make(map[string]*scanner.Enum),
		aliases:   make(map[string]*scanner.Alias),
		consts:    make(map[string]*scanner.Const),
	}
	for i := range md.Structs {
		if _, ok := md.structs[md.Structs[i].Name]; !ok {
			md.structs[md.Structs[i].Name] = &md.Structs[i]
		}
	}
	for i := range md.Enums {
		if _, ok := md.enums[md.Enums[i].Name]; !ok {
			md.enums[md.Enums[i].Name] = &md.Enums[i]
		}
	}
	for i := range md.Aliases {
		if _, ok := md.aliases[md.Aliases[i].Name]; !ok {
			md.aliases[md.Aliases[i].Name] = &md.Aliases[i]
		}
	}
	for i := range md.Consts {
		if _, ok := md.consts[md.Consts[i].Name]; !ok {
			md.consts[md.Consts[i].Name] = &md.Consts[i]
		}
	}
	return md
}

func (md *Metadata) Struct(name string) *scanner.Struct { return md.structs[name] }
func (md *Metadata) Enum(name string) *scanner.Enum     { return md.enums[name] }
func (md *Metadata) Alias(name string) *scanner.Alias   { return md.aliases[name] }
func (md *Metadata) Const(name string) *scanner.Const   { return md.consts[name] }

// TypeCount is the number of declared structs and enums.
func (md *Metadata) TypeCount() int {
	return len(md.Structs) + len(md.Enums)
}
