// Package output expands mock templates and writes the generated file.
package output

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// Template directive markers. A template line starting with one of these is
// replaced by generated content.
const (
	IncludesMarker = "** INCLUDES"
	MocksMarker    = "** MOCKS"
)

// Writer interface for writing generated code.
type Writer interface {
	WriteFile(name string, data []byte, perm os.FileMode) error
}

// Directives holds the content that replaces each directive line.
type Directives struct {
	Includes string
	Mocks    string
}

// Includes is the registered include list. Registration prepends, so the
// most recently registered path is emitted first.
type Includes struct {
	paths []string
}

// DefaultTemplate is the skeleton used when no template is supplied: the
// cmocka prerequisites, the mocked headers, and the directive lines.
func DefaultTemplate(headers []string) string {
	var buf strings.Builder

	buf.WriteString("#include <stdarg.h>\n")
	buf.WriteString("#include <stddef.h>\n")
	buf.WriteString("#include <stdint.h>\n")
	buf.WriteString("#include <setjmp.h>\n")
	buf.WriteString("#include <string.h>\n")
	buf.WriteString("#include <cmocka.h>\n\n")
	buf.WriteString(IncludesMarker + "\n")

	for _, h := range headers {
		buf.WriteString("#include \"" + h + "\"\n")
	}

	buf.WriteString("\n" + MocksMarker + "\n")

	return buf.String()
}

// Expand copies tmpl to out line by line, replacing directive lines. Other
// lines, terminators included, are copied unchanged.
func Expand(tmpl io.Reader, out io.Writer, d Directives) error {
	reader := bufio.NewReader(tmpl)

	for {
		line, readErr := reader.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return errors.Errorf("reading template: %w", readErr)
		}

		if line != "" {
			err := expandLine(line, out, d)
			if err != nil {
				return err
			}
		}

		if readErr != nil {
			return nil
		}
	}
}

// Paths returns the include paths in emission order.
func (i *Includes) Paths() []string {
	return append([]string(nil), i.paths...)
}

// Register prepends path. Empty paths are ignored.
func (i *Includes) Register(path string) {
	if path == "" {
		return
	}

	i.paths = append([]string{path}, i.paths...)
}

// String renders one "#include <path>" line per path.
func (i *Includes) String() string {
	var buf strings.Builder

	for _, p := range i.paths {
		buf.WriteString("#include <" + p + ">\n")
	}

	return buf.String()
}

// WriteGeneratedCode writes code to filename and reports success on out.
func WriteGeneratedCode(code string, filename string, fileWriter Writer, out io.Writer) error {
	const generatedFilePermissions = 0o600

	err := fileWriter.WriteFile(filename, []byte(code), generatedFilePermissions)
	if err != nil {
		return errors.Errorf("error writing %s: %w", filename, err)
	}

	_, _ = fmt.Fprintf(out, "%s written successfully.\n", filename)

	return nil
}

func expandLine(line string, out io.Writer, d Directives) error {
	text := line

	switch {
	case strings.HasPrefix(line, IncludesMarker):
		text = d.Includes
	case strings.HasPrefix(line, MocksMarker):
		text = d.Mocks
	}

	_, err := io.WriteString(out, text)
	if err != nil {
		return errors.Errorf("writing output: %w", err)
	}

	return nil
}
