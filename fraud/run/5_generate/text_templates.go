package generate

import (
	"bytes"
	"fmt"
	"text/template"
)

// TemplateRegistry holds the parsed text templates for mock generation.
// Create a registry using NewTemplateRegistry() to initialize all templates.
type TemplateRegistry struct {
	mockFunctionTmpl *template.Template
}

// NewTemplateRegistry creates and initializes a new template registry with all templates parsed.
// Templates are hardcoded constants, so parsing cannot fail at runtime.
func NewTemplateRegistry() *TemplateRegistry {
	return &TemplateRegistry{
		mockFunctionTmpl: template.Must(template.New("mockFunction").Parse(mockFunctionTemplate)),
	}
}

// WriteMockFunction writes one mock function definition.
func (r *TemplateRegistry) WriteMockFunction(buf *bytes.Buffer, data MockSpec) {
	err := r.mockFunctionTmpl.Execute(buf, data)
	if err != nil {
		panic(fmt.Sprintf("failed to execute mockFunction template: %v", err))
	}
}

// mockFunctionTemplate spells out every tab and newline; whitespace is part
// of the output format.
const mockFunctionTemplate = "{{.Return}}\n{{.Name}}(\n" +
	"{{range $i, $p := .Params}}{{if $i}},\n{{end}}\t\t{{$p.Type}} {{$p.Name}}" +
	"{{else}}{{if not $.Variadic}}\t\tvoid{{end}}{{end}}" +
	"{{if .Variadic}}{{if .Params}},\n{{end}}\t\t...{{end}}" +
	") {\n" +
	"{{range .Params}}" +
	"{{if .Out}}\t{\n" +
	"\t\t{{.Type}} rv = mock_ptr_type({{.Type}});\n" +
	"\t\tif (rv != NULL && {{.Name}} != NULL) {\n" +
	"\t\t\tmemcpy({{.Name}}, rv, sizeof(*{{.Name}}));\n" +
	"\t\t}\n" +
	"\t}\n" +
	"{{else if .Pointer}}\tcheck_expected_ptr({{.Name}});\n" +
	"{{else}}\tcheck_expected({{.Name}});\n" +
	"{{end}}" +
	"{{end}}" +
	"{{if .HasReturn}}\treturn mock_type({{.Return}});\n{{end}}" +
	"}\n\n"
