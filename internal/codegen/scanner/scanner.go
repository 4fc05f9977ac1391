// Package scanner discovers the symbols a Rust source file exports over the C
// ABI: #[no_mangle] extern "C" functions, extern blocks, #[repr(C)] layouts,
// C-like enums, type aliases and literal constants.
//
// The scanner works on a single file and does not expand macros or resolve
// modules. Items it recognizes but cannot bind are reported in Result.Skipped.
package scanner

import (
	"fmt"

	"github.com/spf13/afero"
)

// ScanSource scans Rust source text. name is only used in error positions.
func ScanSource(name string, src []byte) (*Result, error) {
	toks, err := tokenize(name, string(src))
	if err != nil {
		return nil, err
	}
	p := &parser{file: name, toks: toks, res: &Result{}}
	if err := p.parseItems(); err != nil {
		return nil, err
	}
	return p.res, nil
}

// ScanFile reads and scans a Rust source file.
func ScanFile(fsys afero.Fs, path string) (*Result, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return ScanSource(path, data)
}
