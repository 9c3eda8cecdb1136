package main

import (
	"bytes"
	"errors"
	"go/format"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sghaida/naught/null"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

//
// -----------------------------------------------------------------------------
// writeFileAtomic()
// -----------------------------------------------------------------------------

// Covers every writeFileAtomic error branch, including deferred cleanup.
func TestWriteFileAtomic_AllErrorBranches(t *testing.T) {
	// NOT parallel: mutates global seams.

	testCases := []struct {
		name                 string
		createTemp           func(dir, pattern string) (tempFile, error)
		chmodTmp             func(path string, mode os.FileMode) error
		renameTmp            func(oldpath, newpath string) error
		expectedErrSubstring string
		expectedRemoveCount  int
	}{
		{
			name: "create temp error",
			createTemp: func(dir, pattern string) (tempFile, error) {
				return nil, errors.New("create temp failed")
			},
			expectedErrSubstring: "create temp failed",
		},
		{
			name: "write error removes temp",
			createTemp: func(dir, pattern string) (tempFile, error) {
				return &fakeTempFile{fileName: filepath.Join(dir, "tmpfile"), writeErr: errors.New("write failed")}, nil
			},
			expectedErrSubstring: "write failed",
			expectedRemoveCount:  1,
		},
		{
			name: "close error removes temp",
			createTemp: func(dir, pattern string) (tempFile, error) {
				return &fakeTempFile{fileName: filepath.Join(dir, "tmpfile"), closeErr: errors.New("close failed")}, nil
			},
			expectedErrSubstring: "close failed",
			expectedRemoveCount:  1,
		},
		{
			name: "chmod error removes temp",
			createTemp: func(dir, pattern string) (tempFile, error) {
				return &fakeTempFile{fileName: filepath.Join(dir, "tmpfile")}, nil
			},
			chmodTmp:             func(string, os.FileMode) error { return errors.New("chmod failed") },
			expectedErrSubstring: "chmod failed",
			expectedRemoveCount:  1,
		},
		{
			name: "rename error removes temp",
			createTemp: func(dir, pattern string) (tempFile, error) {
				return &fakeTempFile{fileName: filepath.Join(dir, "tmpfile")}, nil
			},
			renameTmp:            func(string, string) error { return errors.New("rename failed") },
			expectedErrSubstring: "rename failed",
			expectedRemoveCount:  1,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			snapshotWriteFileSeams(t)

			var removed []string
			createTempFile = tc.createTemp
			removeFile = func(path string) error {
				removed = append(removed, path)
				return nil
			}
			chmodFile = func(path string, mode os.FileMode) error {
				if tc.chmodTmp != nil {
					return tc.chmodTmp(path, mode)
				}
				return nil
			}
			renameFile = func(oldpath, newpath string) error {
				if tc.renameTmp != nil {
					return tc.renameTmp(oldpath, newpath)
				}
				return nil
			}

			err := writeFileAtomic(filepath.Join(t.TempDir(), "out.go"), []byte("x"), 0o644)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.expectedErrSubstring)
			assert.Len(t, removed, tc.expectedRemoveCount)
		})
	}
}

func TestWriteFileAtomic_Success(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "final.go")

	require.NoError(t, writeFileAtomic(outputPath, []byte("hello"), 0o644))
	assert.Equal(t, "hello", readFileString(t, outputPath))
}

//
// -----------------------------------------------------------------------------
// validateProfile()
// -----------------------------------------------------------------------------

func TestValidateProfile(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		profile null.Profile
		wantErr string
	}{
		{
			name: "ok",
			profile: null.Profile{
				Package: "notify",
				Mimic:   &null.TargetSpec{Name: "Notifier", Methods: []null.Method{{Name: "Notify"}}},
			},
		},
		{
			name:    "missing package and target",
			profile: null.Profile{Package: "  "},
			wantErr: "[package mimic or impersonate]",
		},
		{
			name: "target without methods",
			profile: null.Profile{
				Package:     "notify",
				Impersonate: &null.TargetSpec{Name: "Notifier"},
			},
			wantErr: "methods (must have at least 1)",
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := validateProfile(&tc.profile)
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

//
// -----------------------------------------------------------------------------
// Rendering helpers
// -----------------------------------------------------------------------------

func TestZeroValue(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"string":           `""`,
		"bool":             "false",
		"int64":            "0",
		"float32":          "0",
		"error":            "nil",
		"any":              "nil",
		"*bytes.Buffer":    "nil",
		"[]byte":           "nil",
		"map[string]int":   "nil",
		"func()":           "nil",
		"chan int":         "nil",
		"<-chan struct{}":  "nil",
		"time.Duration":    "*new(time.Duration)",
		" context.Context": "*new(context.Context)",
	}
	for typ, want := range cases {
		assert.Equal(t, want, zeroValue(typ), typ)
	}
}

func TestRenderSignature(t *testing.T) {
	t.Parallel()

	params := []null.Param{{Name: "ctx", Type: "context.Context"}, {Type: "int"}, {Name: "n", Type: "string"}}
	assert.Equal(t, "ctx context.Context, _ int, _ string", renderParams(params))

	assert.Equal(t, "", renderResults(nil))
	assert.Equal(t, "error", renderResults([]null.Return{{Type: "error"}}))
	assert.Equal(t, "(int, error)", renderResults([]null.Return{{Type: "int"}, {Type: "error"}}))

	self := map[string]bool{"*NullStore": true, "Store": true}
	returns := []null.Return{{Type: "Store"}, {Type: "error"}}
	assert.Equal(t, "", renderReturn(nil, true, self))
	assert.Equal(t, "return n, nil", renderReturn(returns, true, self))
	assert.Equal(t, "return *new(Store), nil", renderReturn(returns, false, self))
}

func TestBuildTemplateData_ProbesRuntimeType(t *testing.T) {
	t.Parallel()

	profile, err := null.ParseProfile(bytes.NewReader(notifierProfileYAML()))
	require.NoError(t, err)
	profile.Mimic.Methods = append(profile.Mimic.Methods, null.Method{Name: "String", Returns: []null.Return{{Type: "string"}}})

	typ, err := null.Build(profile.Apply)
	require.NoError(t, err)

	data := buildTemplateData(profile, typ)
	assert.Equal(t, "NullNotifier", data.TypeName)
	assert.Equal(t, "<null:Notifier>", data.Display)
	assert.False(t, data.EmitString)
	assert.False(t, data.EmitFile)

	byName := map[string]methodData{}
	for _, m := range data.Methods {
		byName[m.Name] = m
	}
	assert.Equal(t, "return nil", byName["Notify"].Return)
	assert.Equal(t, "return n", byName["With"].Return)
	assert.Equal(t, "return 0, false", byName["Count"].Return)
	assert.Equal(t, `return ""`, byName["String"].Return)
}

//
// -----------------------------------------------------------------------------
// readImportsFromFile / ensureImport / resolveImports
// -----------------------------------------------------------------------------

func TestReadImportsFromFile_SuccessAndParseError(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	_, err := readImportsFromFile(writeTempFile(t, dir, "bad.go", "package"))
	require.Error(t, err)

	imports, err := readImportsFromFile(writeTempFile(t, dir, "ok.go", `package notify

import (
	"fmt"
	cfg "example.com/project/config"
	_ "net/http"
)
`))
	require.NoError(t, err)
	assert.Equal(t, []ImportSpec{
		{Path: "fmt"},
		{Alias: "cfg", Path: "example.com/project/config"},
		{Alias: "_", Path: "net/http"},
	}, imports)
}

func TestEnsureImport_DoesNotDuplicateByPath(t *testing.T) {
	t.Parallel()

	var imports []ImportSpec
	ensureImport(&imports, ImportSpec{Path: "fmt"})
	ensureImport(&imports, ImportSpec{Alias: "f", Path: "fmt"})

	require.Len(t, imports, 1)
	assert.Equal(t, "", imports[0].Alias)
}

func TestResolveImports(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	owner := writeTempFile(t, dir, "owner.go", `package notify

import (
	"fmt"
	"time"
	tm "example.com/team/model"
	. "strings"
)
`)

	data := templateData{
		Methods: []methodData{
			{Params: "d time.Duration", Results: "tm.User"},
			{Params: "ctx context.Context"},
		},
		Traceable: true,
		Singleton: true,
	}
	profile := &null.Profile{Imports: []string{"context", "time", "net/url"}}

	got := resolveImports(owner, profile, data)
	assert.Equal(t, []ImportSpec{
		{Path: "context"},
		{Alias: "tm", Path: "example.com/team/model"},
		{Path: "runtime"},
		{Path: "sync"},
		{Path: "time"},
	}, got)

	// An unparsable owner falls back to profile imports only.
	bad := writeTempFile(t, dir, "bad.go", "package")
	got = resolveImports(bad, profile, templateData{Methods: data.Methods})
	assert.Equal(t, []ImportSpec{{Path: "context"}, {Path: "time"}}, got)
}

func TestResolveImports_VersionedPaths(t *testing.T) {
	t.Parallel()

	profile := &null.Profile{Imports: []string{"gopkg.in/yaml.v3", "github.com/foo/bar/v2", "example.com/v2"}}
	data := templateData{
		Methods: []methodData{
			{Params: "node *yaml.Node", Results: "bar.Thing"},
		},
	}

	got := resolveImports("", profile, data)
	assert.Equal(t, []ImportSpec{
		{Path: "github.com/foo/bar/v2"},
		{Path: "gopkg.in/yaml.v3"},
	}, got)
}

func TestImportIdent(t *testing.T) {
	t.Parallel()

	cases := map[ImportSpec]string{
		{Path: "fmt"}:                          "fmt",
		{Path: "net/url"}:                      "url",
		{Path: "gopkg.in/yaml.v3"}:             "yaml",
		{Path: "github.com/foo/bar/v2"}:        "bar",
		{Path: "github.com/foo/bar/v10"}:       "bar",
		{Path: "github.com/foo/vendor"}:        "vendor",
		{Alias: "y", Path: "gopkg.in/yaml.v3"}: "y",
		{Path: " github.com/foo/version.vx "}:  "version.vx",
	}
	for imp, want := range cases {
		assert.Equal(t, want, importIdent(imp), imp.Path)
	}
}

//
// -----------------------------------------------------------------------------
// findOwnerGoGenerateFile()
// -----------------------------------------------------------------------------

func TestFindOwnerGoGenerateFile_AllBranches(t *testing.T) {
	t.Parallel()

	_, err := findOwnerGoGenerateFile(filepath.Join(t.TempDir(), "does-not-exist"))
	require.Error(t, err)

	packageDir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(packageDir, "00_dir"), 0o755))
	writeTempFile(t, packageDir, "01_readme.md", "cmd/nullgen go:generate")
	writeTempFile(t, packageDir, "02_owner_test.go", ownerSource)
	writeTempFile(t, packageDir, "03_owner.gen.go", ownerSource)
	writeTempFile(t, packageDir, "04_other.go", "package notify\n")

	_, err = findOwnerGoGenerateFile(packageDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not find owner file")

	want := writeTempFile(t, packageDir, "zz_owner.go", ownerSource)
	found, err := findOwnerGoGenerateFile(packageDir)
	require.NoError(t, err)
	assert.Equal(t, want, found)
}

//
// -----------------------------------------------------------------------------
// generate() / run()
// -----------------------------------------------------------------------------

func TestGenerate_WritesFormattedNullObject(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeTempFile(t, dir, "notifier.go", ownerSource)
	specPath := writeTempFile(t, dir, "notifier.null.yaml", string(notifierProfileYAML()))
	outPath := filepath.Join(dir, "notifier_null.gen.go")

	require.NoError(t, generate(specPath, outPath, zap.NewNop()))

	out := readFileString(t, outPath)
	assert.True(t, strings.HasPrefix(out, "// Code generated by nullgen; DO NOT EDIT.\n"))
	assert.Contains(t, out, "// Spec-SHA256: "+sha256Hex(notifierProfileYAML()))
	assert.Contains(t, out, "type NullNotifier struct{}")
	assert.Contains(t, out, "func (n *NullNotifier) Notify(ctx context.Context, msg string) error {\n\treturn nil\n}")
	assert.Contains(t, out, "func (n *NullNotifier) With(key string) Notifier {\n\treturn n\n}")
	assert.Contains(t, out, "func (n *NullNotifier) Count() (int, bool) {\n\treturn 0, false\n}")
	assert.Contains(t, out, `func (n *NullNotifier) String() string { return "<null:Notifier>" }`)
	assert.NotContains(t, out, `"fmt"`)

	f := parseGenerated(t, outPath)
	assert.Equal(t, "notify", f.Name.Name)
	require.Len(t, f.Imports, 1)
	assert.Equal(t, `"context"`, f.Imports[0].Path.Value)
	assert.ElementsMatch(t, []string{"NewNullNotifier", "String", "Count", "Notify", "With"}, funcNames(f))
}

func TestGenerate_SingletonTraceable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	specPath := writeTempFile(t, dir, "store.null.yaml", `package: store
name: QuietStore
impersonate:
  name: Store
  methods:
    - name: Put
      params: [{name: key, type: string}, {name: value, type: "[]byte"}]
      returns: [{type: error}]
    - name: Line
      returns: [{type: int}]
singleton: true
traceable: true
display: "<quiet store>"
`)
	outPath := filepath.Join(dir, "store_null.gen.go")

	require.NoError(t, generate(specPath, outPath, zap.NewNop()))

	out := readFileString(t, outPath)
	assert.Contains(t, out, "\tquietStoreOnce     sync.Once\n")
	assert.Contains(t, out, "func GetQuietStore() *QuietStore {\n\t_, file, line, _ := runtime.Caller(1)\n\treturn sharedQuietStore(file, line)\n}")
	// New hands out the shared instance too.
	assert.Contains(t, out, "func NewQuietStore() *QuietStore {\n\t_, file, line, _ := runtime.Caller(1)\n\treturn sharedQuietStore(file, line)\n}")
	assert.Contains(t, out, "func sharedQuietStore(file string, line int) *QuietStore {")
	assert.Contains(t, out, "quietStoreInstance = &QuietStore{file: file, line: line}")
	assert.Contains(t, out, `return "<quiet store>"`)
	assert.Contains(t, out, "func (n *QuietStore) File() string { return n.file }")

	f := parseGenerated(t, outPath)
	paths := make([]string, 0, len(f.Imports))
	for _, imp := range f.Imports {
		paths = append(paths, imp.Path.Value)
	}
	assert.Equal(t, []string{`"runtime"`, `"sync"`}, paths)

	// Line is declared by the interface, so it renders as a plain stub.
	assert.Equal(t, 1, strings.Count(out, ") Line() int"))
	assert.Contains(t, out, "func (n *QuietStore) Line() int {\n\treturn 0\n}")
}

func TestGenerate_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	err := generate(filepath.Join(dir, "missing.yaml"), filepath.Join(dir, "x.gen.go"), zap.NewNop())
	assert.True(t, errors.Is(err, os.ErrNotExist))

	bad := writeTempFile(t, dir, "bad.null.yaml", "mimic: {name: X}\nimpersonate: {name: Y}\n")
	err = generate(bad, filepath.Join(dir, "x.gen.go"), zap.NewNop())
	assert.True(t, errors.Is(err, null.ErrInvalidProfile))

	empty := writeTempFile(t, dir, "empty.null.yaml", "package: p\nmimic: {name: X}\n")
	err = generate(empty, filepath.Join(dir, "x.gen.go"), zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "profile missing required fields")

	broken := writeTempFile(t, dir, "broken.null.yaml", "package: p\nmimic:\n  name: X\n  methods:\n    - {name: Do, returns: [{type: \"map[\"}]}\n")
	err = generate(broken, filepath.Join(dir, "x.gen.go"), zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "format generated source")
}

func TestRun_ExitCodes(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeTempFile(t, dir, "notifier.go", ownerSource)
	specPath := writeTempFile(t, dir, "notifier.null.yaml", string(notifierProfileYAML()))
	outPath := filepath.Join(dir, "notifier_null.gen.go")

	testCases := []struct {
		name       string
		args       []string
		wantCode   int
		wantStderr string
	}{
		{name: "unknown flag", args: []string{"--nope"}, wantCode: 2, wantStderr: "usage: nullgen"},
		{name: "missing flags", args: []string{}, wantCode: 2, wantStderr: "both --spec and --out are required"},
		{name: "positional args", args: []string{"--spec", specPath, "--out", outPath, "extra"}, wantCode: 1},
		{name: "missing profile file", args: []string{"-s", filepath.Join(dir, "nope.yaml"), "-o", outPath}, wantCode: 1, wantStderr: "nullgen:"},
		{name: "ok", args: []string{"--spec", specPath, "--out", outPath}, wantCode: 0},
		{name: "ok verbose", args: []string{"-s", specPath, "-o", outPath, "-v"}, wantCode: 0, wantStderr: "nullgen: wrote null object"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := run(tc.args, &stdout, &stderr)
			assert.Equal(t, tc.wantCode, code, stderr.String())
			if tc.wantStderr != "" {
				assert.Contains(t, stderr.String(), tc.wantStderr)
			}
		})
	}

	assert.Contains(t, readFileString(t, outPath), "type NullNotifier struct{}")
}

// NOT parallel: mutates working directory (process-global state).
func TestRun_RelativeOutPath_IsCleaned(t *testing.T) {
	tempDir := t.TempDir()
	t.Chdir(tempDir)

	specPath := writeTempFile(t, tempDir, "notifier.null.yaml", string(notifierProfileYAML()))
	require.NoError(t, os.MkdirAll(filepath.Join(tempDir, "gen"), 0o755))

	relativeOutputPath := filepath.Join(".", "subdir", "..", "gen", "out.gen.go")

	var stdout, stderr bytes.Buffer
	require.Equal(t, 0, run([]string{"--spec", specPath, "--out", relativeOutputPath}, &stdout, &stderr), stderr.String())

	assert.Contains(t, readFileString(t, filepath.Join(tempDir, "gen", "out.gen.go")), "func NewNullNotifier() *NullNotifier")
}

func TestGenTemplate_SingletonNewReturnsSharedInstance(t *testing.T) {
	t.Parallel()

	var rendered bytes.Buffer
	require.NoError(t, genTemplate.Execute(&rendered, templateData{
		Package:     "notify",
		TypeName:    "NullNotifier",
		Target:      "Notifier",
		Display:     "<null:Notifier>",
		ImportsList: []ImportSpec{{Path: "sync"}},
		Singleton:   true,
		EmitString:  true,
	}))

	src, err := format.Source(rendered.Bytes())
	require.NoError(t, err)

	out := string(src)
	assert.Contains(t, out, "func NewNullNotifier() *NullNotifier {\n\treturn sharedNullNotifier()\n}")
	assert.Contains(t, out, "func GetNullNotifier() *NullNotifier {\n\treturn sharedNullNotifier()\n}")
	assert.Contains(t, out, "func sharedNullNotifier() *NullNotifier {")
	assert.NotContains(t, out, "return &NullNotifier{}\n}")
}
