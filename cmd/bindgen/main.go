package main

import (
	"os"
	"strings"

	"github.com/alecthomas/kong"
	kongtoml "github.com/alecthomas/kong-toml"
	kongyaml "github.com/alecthomas/kong-yaml"

	"github.com/flixcor/lightningcss.net/internal/codegen/common"
	"github.com/flixcor/lightningcss.net/internal/config"
	"github.com/flixcor/lightningcss.net/internal/console"
	"github.com/flixcor/lightningcss.net/internal/configpaths"
	"github.com/flixcor/lightningcss.net/internal/log"
)

func main() {

	userCfg := findUserConfig(os.Args[1:])
	jsonPaths, yamlPaths, tomlPaths := configpaths.ConfigCandidatePaths(userCfg)

	version, err := common.GetVersion()
	if err != nil {
		version = common.Version
	}

	var cli config.CLI
	ctx := kong.Parse(&cli,
		kong.Name("bindgen"),
		kong.Description("Generate C# P/Invoke bindings for the extern \"C\" surface of a Rust library"),
		kong.UsageOnError(),
		kong.Vars{"version": common.ToolName + " " + version},
		// Load configuration from JSON/YAML/TOML in priority order; flags/env override config values.
		kong.Configuration(kong.JSON, jsonPaths...),
		kong.Configuration(kongyaml.Loader, yamlPaths...),
		kong.Configuration(kongtoml.Loader, tomlPaths...),
	)

	// scan prints its result on stdout
	logger, closeFiles, err := log.SetupLogger(log.Options{
		Level:         cli.Log.Level,
		File:          cli.Log.File,
		Format:        cli.Log.Format,
		ReserveStdout: ctx.Command() == "scan",
	})
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to setup logger: " + err.Error() + "\n")
		os.Exit(2)
	}
	defer func() {
		for _, c := range closeFiles {
			_ = c.Close()
		}
	}()

	ctx.Bind(logger)

	err = ctx.Run()
	if err != nil {
		logger.Error("bindgen failed", "command", ctx.Command(), "error", err)
	}
	if console.LaunchedFromExplorer() {
		console.Pause(os.Stdout, os.Stdin)
	}
	if err != nil {
		for _, c := range closeFiles {
			_ = c.Close()
		}
		os.Exit(1)
	}
}

func findUserConfig(args []string) string {
	for i := 0; i < len(args); i++ {
		a := args[i]
		if strings.HasPrefix(a, "--config=") {
			return a[len("--config="):]
		}
		if a == "--config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	if v := os.Getenv("BINDGEN_CONFIG"); v != "" {
		return v
	}
	return ""
}
