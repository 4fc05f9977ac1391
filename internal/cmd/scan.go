package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/afero"
	yaml "gopkg.in/yaml.v3"

	"github.com/flixcor/lightningcss.net/internal/codegen/meta"
	"github.com/flixcor/lightningcss.net/internal/codegen/scanner"
)

// Scan prints what the scanner discovers in a Rust source file.
type Scan struct {
	Input  string `help:"Rust source file to scan" default:"./src/lib.rs" env:"BINDGEN_INPUT"`
	Format string `help:"Output format" enum:"json,yaml" default:"json"`
}

func (s *Scan) Run(logger *slog.Logger) error {
	return s.Execute(afero.NewOsFs(), os.Stdout, logger)
}

func (s *Scan) Execute(fsys afero.Fs, w io.Writer, logger *slog.Logger) error {
	res, err := scanner.ScanFile(fsys, s.Input)
	if err != nil {
		return err
	}
	md := meta.New(s.Input, res)
	for _, sk := range md.Skipped {
		logger.Debug("Skipped item", "item", sk.Name, "kind", sk.Kind, "reason", sk.Reason)
	}

	var data []byte
	switch s.Format {
	case "yaml":
		data, err = yaml.Marshal(md)
	default:
		data, err = json.MarshalIndent(md, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("encode scan result: %w", err)
	}
	_, err = w.Write(data)
	return err
}
