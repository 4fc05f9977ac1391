package generator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/spf13/afero"
)

// External runs a third-party generator and takes its stdout as the generated
// file. Arguments may reference the request through placeholders:
//
//	{source}     source path
//	{name}       library name
//	{namespace}  C# namespace
//	{class}      C# class name
type External struct {
	command []string
	logger  *slog.Logger
}

func NewExternal(logger *slog.Logger, command []string) (*External, error) {
	if len(command) == 0 || command[0] == "" {
		return nil, errors.New("external backend requires a command (--tool)")
	}
	return &External{command: command, logger: logger}, nil
}

func (x *External) Name() string { return "external" }

func (x *External) Render(ctx context.Context, fsys afero.Fs, req Request) (*Rendered, error) {
	if _, err := fsys.Stat(req.Source); err != nil {
		return nil, &InputError{Path: req.Source, Err: err}
	}

	opts := req.CSharp.WithDefaults()
	replacer := strings.NewReplacer(
		"{source}", req.Source,
		"{name}", req.LibraryName,
		"{namespace}", opts.Namespace,
		"{class}", opts.ClassName,
	)
	args := make([]string, len(x.command))
	for i, arg := range x.command {
		args[i] = replacer.Replace(arg)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	x.logger.Debug("Running external generator", "command", args)
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w: %w", ctxErr, err)
		}
		return nil, &ToolError{Tool: args[0], Err: err, Stderr: strings.TrimSpace(stderr.String())}
	}
	if stdout.Len() == 0 {
		return nil, &ToolError{Tool: args[0], Err: errors.New("generator produced no output"), Stderr: strings.TrimSpace(stderr.String())}
	}
	if stderr.Len() > 0 {
		x.logger.Warn("External generator wrote to stderr", "tool", args[0], "stderr", strings.TrimSpace(stderr.String()))
	}
	return &Rendered{Content: stdout.Bytes(), Functions: -1, Types: -1}, nil
}
