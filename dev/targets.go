//go:build targ

package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/akedrou/textdiff"
	"github.com/toejough/targ"
	"github.com/toejough/targ/file"
	"github.com/toejough/targ/sh"
)

// Types

// goldenCase is one generator invocation whose output is checked in.
type goldenCase struct {
	golden string
	args   []string
}

// Build builds the local fraud binary.
func Build() error {
	fmt.Println("Building fraud...")

	if err := os.MkdirAll("bin", 0o755); err != nil {
		return fmt.Errorf("failed to create bin directory: %w", err)
	}

	return sh.Run("go", "build", "-o", "bin/fraud", "./fraud")
}

// Check runs all checks & fixes on the code, in order of correctness.
func Check() error {
	fmt.Println("Checking...")

	return targ.Deps(
		Tidy,       // clean up the module dependencies
		FixImports, // fix imports before anything reads them
		Modernize,  // no use doing anything else to old code patterns
		Test,       // does our code work?
		Golden,     // does the binary still produce the checked-in mocks?
		Lint,
	)
}

// CheckForFail runs all checks on the code for determining whether any fail.
func CheckForFail() error {
	fmt.Println("Checking...")

	// Checks from fastest to slowest
	return targ.Deps(
		LintForFail,
		TestForFail,
		GoldenCheck,
	)
}

// Clean cleans up the dev env.
func Clean() {
	fmt.Println("Cleaning...")
	os.Remove("coverage.out")
	os.RemoveAll("bin")
}

// FixImports fixes the import blocks.
func FixImports() error {
	fmt.Println("Fixing imports...")
	return sh.Run("goimports", "-w", ".")
}

// Fuzz runs each fuzz test for a short while.
func Fuzz() error {
	fmt.Println("Running fuzz tests...")

	for _, pkg := range []string{"./fraud/run/5_generate"} {
		names, err := output("go", "test", "-list=^Fuzz", pkg)
		if err != nil {
			return err
		}

		for _, name := range strings.Fields(names) {
			if !strings.HasPrefix(name, "Fuzz") {
				continue
			}

			err := sh.Run("go", "test", "-run=^$", "-fuzz=^"+name+"$", "-fuzztime=20s", pkg)
			if err != nil {
				return err
			}
		}
	}

	return nil
}

// Golden regenerates the checked-in mocks with the local binary.
func Golden() error {
	fmt.Println("Regenerating golden files...")

	return forEachGolden(func(tc goldenCase, got []byte) error {
		return os.WriteFile(tc.golden, got, 0o600)
	})
}

// GoldenCheck fails if the local binary no longer produces the checked-in mocks.
func GoldenCheck() error {
	fmt.Println("Checking golden files...")

	return forEachGolden(func(tc goldenCase, got []byte) error {
		want, err := os.ReadFile(tc.golden)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", tc.golden, err)
		}

		if !bytes.Equal(got, want) {
			fmt.Print(textdiff.Unified(tc.golden+" (checked in)", tc.golden+" (generated)", string(want), string(got)))

			return fmt.Errorf("%s is out of date; run targ golden", tc.golden)
		}

		return nil
	})
}

// Lint lints the codebase.
func Lint() error {
	fmt.Println("Linting...")
	return sh.Run("golangci-lint", "run")
}

// LintForFail lints the codebase purely to find out whether anything fails.
func LintForFail() error {
	fmt.Println("Linting to check for overall pass/fail...")

	return sh.Run(
		"golangci-lint", "run",
		"--fix=false",
		"--max-issues-per-linter=1",
		"--max-same-issues=1",
		"--allow-parallel-runners",
	)
}

// Modernize updates the codebase to use modern Go patterns.
func Modernize() error {
	fmt.Println("Modernizing codebase...")

	return sh.Run("go", "run", "golang.org/x/tools/go/analysis/passes/modernize/cmd/modernize@latest",
		"-fix", "./...")
}

// Mutate runs the mutation tests.
func Mutate() error {
	fmt.Println("Running mutation tests...")

	if err := targ.Deps(TestForFail); err != nil {
		return err
	}

	return sh.Run(
		"go",
		"test",
		"-timeout=6000s",
		"-tags=mutation",
		"-ooze.v",
		"./dev/...",
		"-run=TestMutation",
	)
}

// Test runs the unit tests.
func Test() error {
	fmt.Println("Running unit tests...")

	// Use -count=1 to disable caching so coverage is regenerated
	return sh.Run(
		"go",
		"test",
		"-timeout=2m",
		"-race",
		"-count=1",
		"-coverprofile=coverage.out",
		"-coverpkg=./fraud/...",
		"-cover",
		"./...",
	)
}

// TestForFail runs the unit tests purely to find out whether any fail.
func TestForFail() error {
	fmt.Println("Running unit tests for overall pass/fail...")

	return sh.Run(
		"go",
		"test",
		"-timeout=30s",
		"./...",
		"-failfast",
	)
}

// Tidy tidies up go.mod.
func Tidy() error {
	fmt.Println("Tidying go.mod...")
	return sh.Run("go", "mod", "tidy")
}

// Watch re-runs Check whenever files change.
func Watch(ctx context.Context) error {
	fmt.Println("Watching...")

	return file.Watch(ctx, []string{"**/*.go", "**/*.h", "**/*.fraud"}, file.WatchOptions{}, func(changes file.ChangeSet) error {
		if !hasRelevantChanges(changes) {
			return nil
		}

		fmt.Println("Change detected...")

		targ.ResetDeps() // Clear execution cache so targets run again

		err := Check()
		if err != nil {
			fmt.Println("continuing to watch after check failure (see errors above)")
		} else {
			fmt.Println("continuing to watch after all checks passed!")
		}

		return nil // Don't stop watching on error
	})
}

// forEachGolden builds the binary, runs every golden case into a scratch
// directory, and hands the generated bytes to fn.
func forEachGolden(fn func(tc goldenCase, got []byte) error) error {
	if err := targ.Deps(Build); err != nil {
		return err
	}

	scratch, err := os.MkdirTemp("", "fraud-golden")
	if err != nil {
		return fmt.Errorf("failed to create scratch dir: %w", err)
	}
	defer os.RemoveAll(scratch)

	for _, tc := range goldenCases() {
		outFile := filepath.Join(scratch, filepath.Base(tc.golden)+".c")
		args := append([]string{"-o", outFile}, tc.args...)

		cmd := exec.Command("../../bin/fraud", args...)
		cmd.Dir = "fraud/run"
		cmd.Stderr = os.Stderr

		if err := cmd.Run(); err != nil {
			return fmt.Errorf("generating %s: %w", tc.golden, err)
		}

		got, err := os.ReadFile(outFile)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", outFile, err)
		}

		if err := fn(tc, got); err != nil {
			return err
		}
	}

	return nil
}

// goldenCases mirrors TestRun_Golden in fraud/run.
func goldenCases() []goldenCase {
	return []goldenCase{
		{
			golden: "fraud/run/testdata/simple.golden",
			args:   []string{"-t", "testdata/mocks.fraud", "-i", "first.h", "-i", "second.h", "testdata/simple.h"},
		},
		{
			golden: "fraud/run/testdata/ops.golden",
			args:   []string{"-t", "testdata/mocks.fraud", "--struct", "ops", "testdata/ops.h"},
		},
	}
}

// hasRelevantChanges returns true if the changeset contains files we care about.
// Filters out build artifacts that Check() itself creates.
func hasRelevantChanges(changes file.ChangeSet) bool {
	allFiles := append(append(changes.Added, changes.Removed...), changes.Modified...)

	for _, f := range allFiles {
		if strings.HasSuffix(f, "coverage.out") || strings.HasPrefix(f, "bin/") {
			continue
		}

		return true
	}

	return false
}

// output runs a command and captures stdout only (stderr goes to os.Stderr).
func output(command string, args ...string) (string, error) {
	buf := &bytes.Buffer{}
	cmd := exec.Command(command, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = buf
	cmd.Stderr = os.Stderr
	err := cmd.Run()

	return strings.TrimSuffix(buf.String(), "\n"), err
}
