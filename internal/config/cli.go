// Package config declares the command-line surface of bindgen.
package config

import (
	"github.com/alecthomas/kong"

	"github.com/flixcor/lightningcss.net/internal/cmd"
)

type LogConfig struct {
	Level  string `help:"Log level" default:"info" enum:"trace,debug,info,warn,error" env:"BINDGEN_LOG_LEVEL"`
	File   string `help:"Also write logs to this file" env:"BINDGEN_LOG_FILE"`
	Format string `help:"Log format; auto picks text on a terminal and json otherwise" default:"auto" enum:"auto,text,json" env:"BINDGEN_LOG_FORMAT"`
}

type CLI struct {
	ConfigFile string           `name:"config" help:"Configuration file (json, yaml or toml)" env:"BINDGEN_CONFIG" placeholder:"PATH"`
	Log        LogConfig        `embed:"" prefix:"log."`
	Version    kong.VersionFlag `help:"Print version and exit"`

	Generate cmd.Generate      `cmd:"" default:"1" help:"Generate C# bindings from a Rust source file"`
	Watch    cmd.Watch         `cmd:"" help:"Regenerate the bindings whenever the Rust source changes"`
	Scan     cmd.Scan          `cmd:"" help:"Print the symbols discovered in a Rust source file"`
	Config   cmd.ConfigCommand `cmd:"" help:"Configuration helpers"`
}
