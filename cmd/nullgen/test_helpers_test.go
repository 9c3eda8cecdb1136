// test_helpers_test.go
package main

import (
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

//
// -----------------------------------------------------------------------------
// Shared fixtures
// -----------------------------------------------------------------------------

// notifierProfileYAML returns a profile that passes validateProfile and allows
// run() to generate output.
//
// It lists "context" under imports as a fallback so generation still succeeds
// when owner-file import discovery fails.
func notifierProfileYAML() []byte {
	return []byte(`package: notify
imports: ["context"]
mimic:
  name: Notifier
  methods:
    - name: Notify
      params:
        - {name: ctx, type: context.Context}
        - {name: msg, type: string}
      returns:
        - {type: error}
    - name: With
      params:
        - {name: key, type: string}
      returns:
        - {type: Notifier}
    - name: Count
      returns:
        - {type: int}
        - {type: bool}
blackHole: true
`)
}

// ownerSource is a minimal owner file carrying the go:generate directive.
const ownerSource = `package notify

import (
	"context"
	"fmt"
)

//go:generate go run ../../cmd/nullgen --spec ./notifier.null.yaml --out ./notifier_null.gen.go

var _ = fmt.Sprint
var _ context.Context
`

//
// -----------------------------------------------------------------------------
// Small helpers
// -----------------------------------------------------------------------------

// writeTempFile writes a file under dir/name and returns its full path.
func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

// readFileString reads a file and returns its contents as string (fatal on error).
func readFileString(t *testing.T, p string) string {
	t.Helper()
	b, err := os.ReadFile(p)
	require.NoError(t, err)
	return string(b)
}

// parseGenerated parses a generated file and returns its AST.
func parseGenerated(t *testing.T, p string) *ast.File {
	t.Helper()
	f, err := parser.ParseFile(token.NewFileSet(), p, nil, parser.ParseComments)
	require.NoError(t, err)
	return f
}

// funcNames returns every top-level function and method name in f.
func funcNames(f *ast.File) []string {
	var names []string
	for _, decl := range f.Decls {
		if fn, ok := decl.(*ast.FuncDecl); ok {
			names = append(names, fn.Name.Name)
		}
	}
	return names
}

//
// -----------------------------------------------------------------------------
// writeFileAtomic() seam helpers
// -----------------------------------------------------------------------------

// fakeTempFile is a controllable file-like object for writeFileAtomic tests.
// It lets tests force errors on Write and Close without touching real files.
type fakeTempFile struct {
	fileName string
	writeErr error
	closeErr error
}

func (f *fakeTempFile) Name() string { return f.fileName }

func (f *fakeTempFile) Write(p []byte) (int, error) {
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	return len(p), nil
}

func (f *fakeTempFile) Close() error { return f.closeErr }

// snapshotWriteFileSeams captures the current global file seams and restores
// them when the test ends.
func snapshotWriteFileSeams(t *testing.T) {
	t.Helper()
	origCreate, origRemove, origChmod, origRename := createTempFile, removeFile, chmodFile, renameFile
	t.Cleanup(func() {
		createTempFile = origCreate
		removeFile = origRemove
		chmodFile = origChmod
		renameFile = origRename
	})
}
