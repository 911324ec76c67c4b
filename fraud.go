// Package fraud generates cmocka mock functions from C header declarations.
//
// This is the public API entry point. Implementation lives in fraud/run.
package fraud

import (
	"context"
	"io"

	"github.com/toejough/fraud/fraud/run"
)

// Config describes one generation run.
type Config = run.Config

// FileSystem abstracts the file operations a run needs.
type FileSystem = run.FileSystem

// Generate parses cfg.Headers, renders a mock for every declared function,
// and writes the expanded template to cfg.Output on the local filesystem.
// The success line is written to out.
func Generate(ctx context.Context, cfg Config, out io.Writer) error {
	return run.Generate(ctx, cfg, run.OSFileSystem{}, out)
}

// GenerateWith is Generate with an explicit filesystem.
func GenerateWith(ctx context.Context, cfg Config, fileSys FileSystem, out io.Writer) error {
	return run.Generate(ctx, cfg, fileSys, out)
}
