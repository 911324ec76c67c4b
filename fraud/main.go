// fraud is a tool to generate cmocka mocks for C headers.
// To use it, install it with `go install github.com/toejough/fraud/fraud@latest` and run
//
//	fraud -t mocks.fraud -o mock_header.c header.h
//
// The template is copied to the output file with the "** INCLUDES" line replaced by one
// `#include <path>` line per -i flag and the "** MOCKS" line replaced by a mock for every
// function declared in the headers.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/toejough/fraud/fraud/run"
)

// main is the entry point of the fraud tool.
func main() {
	if os.Args == nil {
		return
	}

	err := run.Run(context.Background(), os.Args, run.OSFileSystem{}, os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
