// cmd/nullgen/main.go
package main

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"go/format"
	"go/parser"
	"go/token"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/template"

	"github.com/sghaida/naught/null"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// This binary is a code-generation tool.
//
// It reads a null profile (YAML or JSON) describing an interface as a list of
// method signatures, builds the runtime null type for it with null.Build, and
// renders a static Go struct with one stub method per declared method.
//
// Key behaviors:
// - Reads the profile: package, target methods, blackHole/singleton/traceable
// - Probes each declared method on a runtime instance: a stub that answers with
//   the receiver renders as "return n", anything else as zero values
// - Locates the "owner" Go file (the file containing the go:generate for cmd/nullgen)
//   and reuses its imports, keeping only packages the signatures reference
// - Formats the output with go/format and writes it atomically (temp file + rename)

// usageError marks failures that should exit with status 2.
type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

// ImportSpec models one Go import: optional alias and full import path.
type ImportSpec struct {
	Alias string
	Path  string
}

// methodData is one rendered method.
type methodData struct {
	Name    string
	Params  string
	Results string
	Return  string
}

// templateData is the input passed to the Go template.
type templateData struct {
	Package  string
	TypeName string
	Target   string
	Display  string
	SpecPath string
	SpecHash string

	ImportsList []ImportSpec
	Methods     []methodData

	Singleton bool
	Traceable bool

	// Accessors are rendered only when the interface does not declare them.
	EmitString bool
	EmitFile   bool
	EmitLine   bool
}

// run executes the generator and returns an exit code.
// It exists separately from main to allow unit testing without os.Exit.
func run(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(stderr, "nullgen:", err)
		var usage *usageError
		if errors.As(err, &usage) {
			_, _ = fmt.Fprintln(stderr, "usage: nullgen --spec <file.null.yaml> --out <file.gen.go>")
			return 2
		}
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var (
		specPath string
		outPath  string
		verbose  bool
	)

	cmd := &cobra.Command{
		Use:           "nullgen",
		Short:         "Generate a static null object from a null profile",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(specPath) == "" || strings.TrimSpace(outPath) == "" {
				return &usageError{msg: "both --spec and --out are required"}
			}

			logger := zap.NewNop()
			if verbose {
				logger = newLogger(cmd.ErrOrStderr())
			}
			defer func() { _ = logger.Sync() }()

			return generate(specPath, outPath, logger)
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{msg: err.Error()}
	})

	flags := cmd.Flags()
	flags.StringVarP(&specPath, "spec", "s", "", "path to *.null.yaml profile")
	flags.StringVarP(&outPath, "out", "o", "", "output .gen.go file path")
	flags.BoolVarP(&verbose, "verbose", "v", false, "log generation details to stderr")
	return cmd
}

// newLogger returns a development logger writing to w.
func newLogger(w io.Writer) *zap.Logger {
	encoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	core := zapcore.NewCore(encoder, zapcore.AddSync(w), zapcore.DebugLevel)
	return zap.New(core)
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// generate reads the profile at specPath and writes the rendered file to outPath.
func generate(specPath, outPath string, logger *zap.Logger) error {
	raw, err := os.ReadFile(specPath)
	if err != nil {
		return err
	}

	profile, err := null.ParseProfile(bytes.NewReader(raw))
	if err != nil {
		return err
	}
	if err := validateProfile(profile); err != nil {
		return err
	}

	nullType, err := null.Build(profile.Apply, null.WithLogger(logger))
	if err != nil {
		return err
	}

	generatedFilePath := filepath.Clean(outPath)
	packageDir := filepath.Dir(generatedFilePath)

	ownerGoFilePath, err := findOwnerGoGenerateFile(packageDir)
	if err != nil {
		// If we can’t find the owner file, profile imports still apply.
		logger.Debug("nullgen: no owner file", zap.Error(err))
		ownerGoFilePath = ""
	}

	data := buildTemplateData(profile, nullType)
	data.SpecPath = filepath.ToSlash(specPath)
	data.SpecHash = sha256Hex(raw)
	data.ImportsList = resolveImports(ownerGoFilePath, profile, data)

	var out bytes.Buffer
	if err := genTemplate.Execute(&out, data); err != nil {
		return err
	}
	src, err := format.Source(out.Bytes())
	if err != nil {
		return fmt.Errorf("format generated source: %w", err)
	}

	if err := writeFileAtomic(generatedFilePath, src, 0o644); err != nil {
		return err
	}

	logger.Info("nullgen: wrote null object",
		zap.String("out", generatedFilePath),
		zap.String("type", data.TypeName),
		zap.Int("methods", len(data.Methods)),
		zap.Bool("black_hole", profile.BlackHole),
	)
	return nil
}

// validateProfile adds the generator's own requirements to Profile.Validate.
func validateProfile(profile *null.Profile) error {
	var missingFields []string

	if strings.TrimSpace(profile.Package) == "" {
		missingFields = append(missingFields, "package")
	}
	target := profile.Target()
	if target == nil {
		missingFields = append(missingFields, "mimic or impersonate")
	} else if len(target.Methods) == 0 {
		missingFields = append(missingFields, "methods (must have at least 1)")
	}

	if len(missingFields) > 0 {
		return fmt.Errorf("profile missing required fields: %v", missingFields)
	}
	return nil
}

// buildTemplateData probes a runtime instance of nullType for every declared
// method and turns the answers into method bodies.
func buildTemplateData(profile *null.Profile, nullType *null.Type) templateData {
	target := profile.Target()
	inst := nullType.Get()

	data := templateData{
		Package:    profile.Package,
		TypeName:   nullType.Name(),
		Target:     target.Name,
		Display:    inst.String(),
		Singleton:  profile.Singleton,
		Traceable:  profile.Traceable,
		EmitString: true,
		EmitFile:   profile.Traceable,
		EmitLine:   profile.Traceable,
	}

	selfTypes := map[string]bool{
		"*" + data.TypeName: true,
		target.Name:         true,
	}

	for _, m := range target.Methods {
		switch m.Name {
		case "String":
			data.EmitString = false
		case null.MsgFile:
			data.EmitFile = false
		case null.MsgLine:
			data.EmitLine = false
		}

		returnsSelf := inst.Send(m.Name) == any(inst)
		data.Methods = append(data.Methods, methodData{
			Name:    m.Name,
			Params:  renderParams(m.Params),
			Results: renderResults(m.Returns),
			Return:  renderReturn(m.Returns, returnsSelf, selfTypes),
		})
	}

	sort.Slice(data.Methods, func(i, j int) bool { return data.Methods[i].Name < data.Methods[j].Name })
	return data
}

// receiverName is the receiver used by every generated method.
const receiverName = "n"

func renderParams(params []null.Param) string {
	parts := make([]string, 0, len(params))
	for _, p := range params {
		name := strings.TrimSpace(p.Name)
		if name == "" || name == receiverName {
			// The receiver owns its name; an unused parameter can be blank.
			name = "_"
		}
		parts = append(parts, name+" "+p.Type)
	}
	return strings.Join(parts, ", ")
}

func renderResults(returns []null.Return) string {
	switch len(returns) {
	case 0:
		return ""
	case 1:
		return returns[0].Type
	}
	parts := make([]string, 0, len(returns))
	for _, r := range returns {
		parts = append(parts, r.Type)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func renderReturn(returns []null.Return, returnsSelf bool, selfTypes map[string]bool) string {
	if len(returns) == 0 {
		return ""
	}
	values := make([]string, 0, len(returns))
	for _, r := range returns {
		if returnsSelf && selfTypes[strings.TrimSpace(r.Type)] {
			values = append(values, receiverName)
			continue
		}
		values = append(values, zeroValue(r.Type))
	}
	return "return " + strings.Join(values, ", ")
}

var numericTypes = map[string]bool{
	"int": true, "int8": true, "int16": true, "int32": true, "int64": true,
	"uint": true, "uint8": true, "uint16": true, "uint32": true, "uint64": true, "uintptr": true,
	"float32": true, "float64": true, "complex64": true, "complex128": true,
	"byte": true, "rune": true,
}

// zeroValue returns a Go expression for the zero value of typ.
func zeroValue(typ string) string {
	typ = strings.TrimSpace(typ)
	switch {
	case typ == "string":
		return `""`
	case typ == "bool":
		return "false"
	case numericTypes[typ]:
		return "0"
	case typ == "error", typ == "any", typ == "interface{}",
		strings.HasPrefix(typ, "*"),
		strings.HasPrefix(typ, "[]"),
		strings.HasPrefix(typ, "map["),
		strings.HasPrefix(typ, "func"),
		strings.HasPrefix(typ, "chan"),
		strings.HasPrefix(typ, "<-chan"):
		return "nil"
	default:
		return "*new(" + typ + ")"
	}
}

// findOwnerGoGenerateFile finds the Go source file in packageDir that contains a go:generate
// directive invoking cmd/nullgen.
//
// This is used to discover the owner file’s imports so generated code matches local style.
func findOwnerGoGenerateFile(packageDir string) (string, error) {
	dirEntries, err := os.ReadDir(packageDir)
	if err != nil {
		return "", err
	}

	for _, entry := range dirEntries {
		if entry.IsDir() {
			continue
		}

		fileName := entry.Name()
		if !strings.HasSuffix(fileName, ".go") ||
			strings.HasSuffix(fileName, "_test.go") ||
			strings.HasSuffix(fileName, ".gen.go") {
			continue
		}

		filePath := filepath.Join(packageDir, fileName)
		fileBytes, err := os.ReadFile(filePath)
		if err != nil {
			// Best-effort: unreadable file shouldn’t break generation.
			continue
		}

		if bytes.Contains(fileBytes, []byte("go:generate")) && bytes.Contains(fileBytes, []byte("cmd/nullgen")) {
			return filePath, nil
		}
	}

	return "", fmt.Errorf("could not find owner file with go:generate invoking cmd/nullgen in %s", packageDir)
}

// readImportsFromFile parses imports from a Go file.
func readImportsFromFile(goFilePath string) ([]ImportSpec, error) {
	fileSet := token.NewFileSet()
	parsedFile, err := parser.ParseFile(fileSet, goFilePath, nil, parser.ImportsOnly)
	if err != nil {
		return nil, err
	}

	var imports []ImportSpec
	for _, importDecl := range parsedFile.Imports {
		importPath, err := strconv.Unquote(importDecl.Path.Value)
		if err != nil {
			continue
		}
		importAlias := ""
		if importDecl.Name != nil {
			importAlias = importDecl.Name.Name
		}
		imports = append(imports, ImportSpec{Alias: importAlias, Path: importPath})
	}

	return imports, nil
}

func ensureImport(imports *[]ImportSpec, required ImportSpec) {
	for _, existing := range *imports {
		if existing.Path == required.Path {
			// Don’t duplicate the path; keep existing alias as-is.
			return
		}
	}
	*imports = append(*imports, required)
}

func importIdent(imp ImportSpec) string {
	if imp.Alias != "" {
		return imp.Alias
	}
	// Import paths always use forward slashes, even on Windows.
	importPath := strings.TrimSpace(imp.Path)
	name := path.Base(importPath)
	if isMajorVersion(name) {
		// github.com/foo/bar/v2 declares package bar.
		name = path.Base(path.Dir(importPath))
	}
	if i := strings.LastIndex(name, ".v"); i > 0 && isDigits(name[i+2:]) {
		// gopkg.in/yaml.v3 declares package yaml.
		name = name[:i]
	}
	return name
}

func isMajorVersion(s string) bool {
	return len(s) > 1 && s[0] == 'v' && isDigits(s[1:])
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// signaturesUse reports whether any rendered signature references pkg.
func signaturesUse(methods []methodData, pkg string) bool {
	needle := pkg + "."
	for _, m := range methods {
		if strings.Contains(m.Params, needle) || strings.Contains(m.Results, needle) || strings.Contains(m.Return, needle) {
			return true
		}
	}
	return false
}

// resolveImports builds the final imports list for the generated file.
//
// Rules:
// - Candidates are the owner file's imports, then the profile's imports
// - Keep a candidate only when a method signature references its identifier;
//   blank and dot imports are dropped
// - runtime is added for traceable types, sync for singletons
func resolveImports(ownerFilePath string, profile *null.Profile, data templateData) []ImportSpec {
	var candidates []ImportSpec
	if strings.TrimSpace(ownerFilePath) != "" {
		parsedOwnerImports, err := readImportsFromFile(ownerFilePath)
		if err == nil {
			candidates = parsedOwnerImports
		}
		// If parsing fails, fall back to the profile imports.
	}
	for _, p := range profile.Imports {
		ensureImport(&candidates, ImportSpec{Path: strings.TrimSpace(p)})
	}

	finalImports := make([]ImportSpec, 0, len(candidates)+2)
	for _, imp := range candidates {
		ident := importIdent(imp)
		if ident == "_" || ident == "." {
			continue
		}
		if signaturesUse(data.Methods, ident) {
			ensureImport(&finalImports, imp)
		}
	}
	if data.Traceable {
		ensureImport(&finalImports, ImportSpec{Path: "runtime"})
	}
	if data.Singleton {
		ensureImport(&finalImports, ImportSpec{Path: "sync"})
	}

	sort.Slice(finalImports, func(i, j int) bool { return finalImports[i].Path < finalImports[j].Path })
	return finalImports
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// genTemplate is the Go source template used to generate the null object.
var genTemplate = template.Must(
	template.New("nullgen").Funcs(template.FuncMap{"lower": lowerFirst}).Parse(`// Code generated by nullgen; DO NOT EDIT.
// Spec: {{.SpecPath}}
// Spec-SHA256: {{.SpecHash}}

package {{.Package}}
{{if .ImportsList}}
import (
{{- range .ImportsList}}
	{{if .Alias}}{{.Alias}} {{end}}"{{.Path}}"
{{- end}}
)
{{end}}
// {{.TypeName}} is a null object for {{.Target}}: every method is a no-op.
{{if .Traceable -}}
type {{.TypeName}} struct {
	file string
	line int
}
{{- else -}}
type {{.TypeName}} struct{}
{{- end}}

{{if .Singleton -}}
var (
	{{lower .TypeName}}Once     sync.Once
	{{lower .TypeName}}Instance *{{.TypeName}}
)

// Get{{.TypeName}} returns the shared {{.TypeName}}.
func Get{{.TypeName}}() *{{.TypeName}} {
{{- if .Traceable}}
	_, file, line, _ := runtime.Caller(1)
	return shared{{.TypeName}}(file, line)
{{- else}}
	return shared{{.TypeName}}()
{{- end}}
}

// New{{.TypeName}} returns the shared {{.TypeName}}, like Get{{.TypeName}}.
func New{{.TypeName}}() *{{.TypeName}} {
{{- if .Traceable}}
	_, file, line, _ := runtime.Caller(1)
	return shared{{.TypeName}}(file, line)
{{- else}}
	return shared{{.TypeName}}()
{{- end}}
}

func shared{{.TypeName}}({{if .Traceable}}file string, line int{{end}}) *{{.TypeName}} {
	{{lower .TypeName}}Once.Do(func() {
		{{lower .TypeName}}Instance = &{{.TypeName}}{ {{- if .Traceable}}file: file, line: line{{end -}} }
	})
	return {{lower .TypeName}}Instance
}
{{- else if .Traceable -}}
// New{{.TypeName}} returns a {{.TypeName}} that remembers where it was created.
func New{{.TypeName}}() *{{.TypeName}} {
	_, file, line, _ := runtime.Caller(1)
	return &{{.TypeName}}{file: file, line: line}
}
{{- else -}}
// New{{.TypeName}} returns a {{.TypeName}}.
func New{{.TypeName}}() *{{.TypeName}} {
	return &{{.TypeName}}{}
}
{{- end}}

{{if .EmitString -}}
func (n *{{.TypeName}}) String() string { return {{printf "%q" .Display}} }
{{- end}}

{{if .EmitFile -}}
func (n *{{.TypeName}}) File() string { return n.file }
{{- end}}

{{if .EmitLine -}}
func (n *{{.TypeName}}) Line() int { return n.line }
{{- end}}
{{range .Methods}}
func (n *{{$.TypeName}}) {{.Name}}({{.Params}}) {{.Results}} {
	{{.Return}}
}
{{end}}`),
)

// tempFile abstracts an os.File for testability.
type tempFile interface {
	Name() string
	Write([]byte) (int, error)
	Close() error
}

// File operation hooks, overridden in tests.
var (
	createTempFile = func(dir, pattern string) (tempFile, error) { return os.CreateTemp(dir, pattern) }
	chmodFile      = os.Chmod
	renameFile     = os.Rename
	removeFile     = os.Remove
)

// writeFileAtomic writes a file atomically.
//
// It writes to a temporary file in the same directory and then renames it
// over the target path, ensuring readers never observe partial writes.
func writeFileAtomic(targetPath string, data []byte, perm os.FileMode) (err error) {
	targetDir := filepath.Dir(targetPath)

	tmpFile, err := createTempFile(targetDir, filepath.Base(targetPath)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()

	defer func() {
		if err != nil {
			_ = removeFile(tmpPath)
		}
	}()

	if _, err = tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err = tmpFile.Close(); err != nil {
		return err
	}
	if err = chmodFile(tmpPath, perm); err != nil {
		return err
	}
	return renameFile(tmpPath, targetPath)
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
