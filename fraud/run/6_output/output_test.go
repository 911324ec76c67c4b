package output_test

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	. "github.com/onsi/gomega"
	output "github.com/toejough/fraud/fraud/run/6_output"
	"pgregory.net/rapid"
)

//nolint:funlen // table-driven test
func TestExpand(t *testing.T) {
	t.Parallel()

	directives := output.Directives{
		Includes: "#include <a.h>\n",
		Mocks:    "void\nf(\n\t\tvoid) {\n}\n\n",
	}

	tests := []struct {
		name     string
		tmpl     string
		expected string
	}{
		{
			name:     "no directives",
			tmpl:     "#include <cmocka.h>\n\nint x;\n",
			expected: "#include <cmocka.h>\n\nint x;\n",
		},
		{
			name:     "both directives",
			tmpl:     "/* head */\n** INCLUDES\n\n** MOCKS\n/* tail */\n",
			expected: "/* head */\n#include <a.h>\n\nvoid\nf(\n\t\tvoid) {\n}\n\n/* tail */\n",
		},
		{
			name:     "marker is a prefix match",
			tmpl:     "** MOCKS go here\n",
			expected: directives.Mocks,
		},
		{
			name:     "marker must start the line",
			tmpl:     " ** MOCKS\n",
			expected: " ** MOCKS\n",
		},
		{
			name:     "repeated directives expand independently",
			tmpl:     "** MOCKS\n--\n** MOCKS\n",
			expected: directives.Mocks + "--\n" + directives.Mocks,
		},
		{
			name:     "last line without terminator",
			tmpl:     "a\nb",
			expected: "a\nb",
		},
		{
			name:     "crlf copied as is",
			tmpl:     "a\r\nb\r\n",
			expected: "a\r\nb\r\n",
		},
		{
			name:     "empty template",
			tmpl:     "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := NewWithT(t)

			var out bytes.Buffer

			err := output.Expand(strings.NewReader(tt.tmpl), &out, directives)
			g.Expect(err).NotTo(HaveOccurred())
			g.Expect(out.String()).To(Equal(tt.expected))
		})
	}
}

// TestExpand_NoDirectives_Property verifies a template without directive
// lines is copied byte for byte.
func TestExpand_NoDirectives_Property(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(rt *rapid.T) {
		lines := rapid.SliceOf(rapid.StringMatching(`[^\n*]{0,40}`)).Draw(rt, "lines")
		tmpl := strings.Join(lines, "\n")

		if rapid.Bool().Draw(rt, "trailingNewline") {
			tmpl += "\n"
		}

		var out bytes.Buffer

		err := output.Expand(strings.NewReader(tmpl), &out, output.Directives{Includes: "X", Mocks: "Y"})
		if err != nil {
			rt.Fatalf("Expand: %v", err)
		}

		if out.String() != tmpl {
			rt.Fatalf("got %q, want %q", out.String(), tmpl)
		}
	})
}

func TestExpand_ReadError(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	var out bytes.Buffer

	err := output.Expand(failingReader{}, &out, output.Directives{})
	g.Expect(err).To(MatchError(errRead))
}

func TestIncludes_RegisterPrepends(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	includes := &output.Includes{}
	includes.Register("first.h")
	includes.Register("")
	includes.Register("second.h")

	g.Expect(includes.Paths()).To(Equal([]string{"second.h", "first.h"}))
	g.Expect(includes.String()).To(Equal("#include <second.h>\n#include <first.h>\n"))
	g.Expect((&output.Includes{}).String()).To(BeEmpty())
}

func TestDefaultTemplate(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	tmpl := output.DefaultTemplate([]string{"simple.h"})

	g.Expect(tmpl).To(ContainSubstring("#include <cmocka.h>\n"))
	g.Expect(tmpl).To(ContainSubstring("\n" + output.IncludesMarker + "\n"))
	g.Expect(tmpl).To(ContainSubstring("#include \"simple.h\"\n"))
	g.Expect(tmpl).To(HaveSuffix("\n" + output.MocksMarker + "\n"))
}

func TestWriteGeneratedCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		writerErr error
		wantErr   bool
	}{
		{name: "success"},
		{name: "write error", writerErr: errWrite, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := NewWithT(t)

			writer := &mockWriter{err: tt.writerErr}

			var out bytes.Buffer

			err := output.WriteGeneratedCode("int x;\n", "mock_simple.c", writer, &out)
			if tt.wantErr {
				g.Expect(err).To(MatchError(errWrite))
				g.Expect(out.String()).To(BeEmpty())

				return
			}

			g.Expect(err).NotTo(HaveOccurred())
			g.Expect(writer.name).To(Equal("mock_simple.c"))
			g.Expect(string(writer.data)).To(Equal("int x;\n"))
			g.Expect(writer.perm).To(Equal(os.FileMode(0o600)))
			g.Expect(out.String()).To(Equal("mock_simple.c written successfully.\n"))
		})
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errRead
}

type mockWriter struct {
	name string
	data []byte
	perm os.FileMode
	err  error
}

func (m *mockWriter) WriteFile(name string, data []byte, perm os.FileMode) error {
	m.name = name
	m.data = data
	m.perm = perm

	return m.err
}

// unexported variables.
var (
	errRead  = errors.New("read failed")
	errWrite = errors.New("write failed")
)
