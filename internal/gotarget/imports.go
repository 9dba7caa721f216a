package gotarget

import (
	"go/ast"
	"go/token"
	"path"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/tools/go/ast/astutil"
)

// addImports copies the imports of src that out refers to. Blank imports are
// never copied.
func addImports(fset *token.FileSet, src, out *ast.File) {
	used := selectorRoots(out)
	for _, spec := range src.Imports {
		importPath, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			continue
		}

		name := ""
		if spec.Name != nil {
			name = spec.Name.Name
		}
		switch name {
		case "_":
			continue
		case ".":
			astutil.AddNamedImport(fset, out, name, importPath)
			continue
		}

		local := name
		if local == "" {
			local = assumedName(importPath)
		}
		if used[local] {
			astutil.AddNamedImport(fset, out, name, importPath)
		}
	}
}

// selectorRoots returns the names x of every x.Sel in f.
func selectorRoots(f *ast.File) map[string]bool {
	roots := make(map[string]bool)
	ast.Inspect(f, func(n ast.Node) bool {
		if sel, ok := n.(*ast.SelectorExpr); ok {
			if id, ok := sel.X.(*ast.Ident); ok {
				roots[id.Name] = true
			}
		}
		return true
	})
	return roots
}

// assumedName guesses the package name of an import path the way goimports
// does: the last element, skipping a major version suffix, without a "go-"
// prefix and cut at the first non-identifier rune.
func assumedName(importPath string) string {
	base := path.Base(importPath)
	if strings.HasPrefix(base, "v") {
		if _, err := strconv.Atoi(base[1:]); err == nil {
			if dir := path.Dir(importPath); dir != "." {
				base = path.Base(dir)
			}
		}
	}
	base = strings.TrimPrefix(base, "go-")
	if i := strings.IndexFunc(base, notIdentifier); i >= 0 {
		base = base[:i]
	}
	return base
}

func notIdentifier(r rune) bool {
	return !(r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r))
}
