package gotarget

import (
	"context"
	"go/parser"
	"go/token"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/predgen/internal/expand"
	"github.com/roach88/predgen/internal/macro"
)

const catalogSource = `package catalog

import (
	"strings"
	"time"

	_ "embed"

	pred "example.com/predicate"
)

type Item struct {
	Name    string
	EndDate time.Time
}

//predgen:helper
func IsOver(beforeDate time.Time) pred.Predicate[Item] {
	// a minute of slack
	cutoff := beforeDate.Add(-time.Minute)
	return pred.NewPredicate(func(item Item) bool {
		return item.EndDate.After(cutoff)
	})
}

// Plain factories are left alone.
func Always() pred.Predicate[Item] {
	return pred.NewPredicate(func(Item) bool { return true })
}

//predgen:helper
func HasPrefix(prefix string) pred.Predicate[*Item] {
	return pred.NewPredicate(func(item *Item) bool { return strings.HasPrefix(item.Name, prefix) })
}
`

func generate(t *testing.T, src string) *expand.Result {
	t.Helper()
	result, err := NewGenerator(DefaultOptions(), nil).ExpandSource(context.Background(), "catalog.go", []byte(src))
	require.NoError(t, err)
	return result
}

func TestExpandSource(t *testing.T) {
	result := generate(t, catalogSource)

	require.Len(t, result.Expansions, 2)
	assert.Empty(t, result.Diagnostics)
	assert.Equal(t, 0, result.Failed())

	isOver := result.Expansions[0]
	assert.Equal(t, "IsOver", isOver.Decl)
	assert.Equal(t, "predgen:helper", isOver.Macro)
	assert.Equal(t, macro.KindSplice, isOver.Kind)
	assert.Equal(t, 17, isOver.Span.Start.Line)
	assert.Equal(t, []string{`func (self Item) IsOver(beforeDate time.Time) bool {
	cutoff := beforeDate.Add(-time.Minute)
	decider := func(item Item) bool {
		return item.EndDate.After(cutoff)
	}
	return decider(self)
}`}, isOver.Generated)

	hasPrefix := result.Expansions[1]
	assert.Equal(t, "HasPrefix", hasPrefix.Decl)
	assert.Equal(t, []string{`func (self *Item) HasPrefix(prefix string) bool {
	decider := func(item *Item) bool { return strings.HasPrefix(item.Name, prefix) }
	return decider(self)
}`}, hasPrefix.Generated)
}

func TestExpandSource_GeneratedFile(t *testing.T) {
	result := generate(t, catalogSource)

	fset := token.NewFileSet()
	out, err := parser.ParseFile(fset, "catalog_predicates.go", result.Output, parser.ParseComments)
	require.NoError(t, err, result.Output)

	assert.Equal(t, "catalog", out.Name.Name)
	assert.Contains(t, result.Output, "// Code generated by predgen. DO NOT EDIT.")

	var imports []string
	for _, spec := range out.Imports {
		p, err := strconv.Unquote(spec.Path.Value)
		require.NoError(t, err)
		imports = append(imports, p)
	}
	assert.ElementsMatch(t, []string{"strings", "time"}, imports, "blank and unused imports are not copied")

	assert.Contains(t, result.Output, "func (self Item) IsOver(")
	assert.Contains(t, result.Output, "func (self *Item) HasPrefix(")
	assert.NotContains(t, result.Output, "Always")
	assert.NotContains(t, result.Output, "a minute of slack", "comments are elided")
}

func TestExpandSource_AliasedImport(t *testing.T) {
	src := `package catalog

import tm "time"

//predgen:helper
func Before(at tm.Time) Predicate[Item] {
	return NewPredicate(func(item Item) bool { return item.EndDate.Before(at) })
}
`
	result := generate(t, src)
	require.Len(t, result.Expansions, 1)
	require.False(t, result.Expansions[0].Failed(), result.Expansions[0].Message)

	out, err := parser.ParseFile(token.NewFileSet(), "", result.Output, parser.ImportsOnly)
	require.NoError(t, err)
	require.Len(t, out.Imports, 1)
	assert.Equal(t, "tm", out.Imports[0].Name.Name)
	assert.Equal(t, `"time"`, out.Imports[0].Path.Value)
}

func TestExpandSource_FreshNames(t *testing.T) {
	src := `package catalog

//predgen:helper
func Matches(self string) Predicate[Item] {
	decider := len(self)
	return NewPredicate(func(item Item) bool { return len(item.Name) == decider })
}
`
	result := generate(t, src)
	require.Len(t, result.Expansions, 1)
	assert.Equal(t, []string{`func (self1 Item) Matches(self string) bool {
	decider := len(self)
	decider1 := func(item Item) bool { return len(item.Name) == decider }
	return decider1(self1)
}`}, result.Expansions[0].Generated)
}

func TestExpandSource_GroupedAndVariadicParams(t *testing.T) {
	src := `package catalog

//predgen:helper
func Between(lo, hi int, tags ...string) Predicate[Item] {
	return NewPredicate(func(item Item) bool { return item.Size >= lo && item.Size <= hi && len(tags) > 0 })
}
`
	result := generate(t, src)
	require.Len(t, result.Expansions, 1)
	require.Len(t, result.Expansions[0].Generated, 1)
	assert.Contains(t, result.Expansions[0].Generated[0], "func (self Item) Between(lo, hi int, tags ...string) bool {")
}

func TestExpandSource_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		decl   string
		code   string
		detail string
	}{
		{
			name:   "method",
			decl:   "func (Item) Pred() Predicate[Item] {\n\treturn NewPredicate(func(Item) bool { return true })\n}",
			code:   macro.CodeNoAttachedFunction,
			detail: "must be applied to a package-level function",
		},
		{
			name:   "generic function",
			decl:   "func Pred[T any]() Predicate[Item] {\n\treturn NewPredicate(func(Item) bool { return true })\n}",
			code:   macro.CodeNoAttachedFunction,
			detail: "generic functions cannot become methods",
		},
		{
			name:   "no body",
			decl:   "func Pred() Predicate[Item]",
			code:   macro.CodeNoAttachedFunction,
			detail: "function has no body",
		},
		{
			name:   "no result",
			decl:   "func Pred() {\n\tprintln()\n}",
			code:   macro.CodeNoAttachedFunction,
			detail: "function must return a single predicate",
		},
		{
			name:   "empty body",
			decl:   "func Pred() Predicate[Item] {\n}",
			code:   macro.CodeNoAttachedFunction,
			detail: "function body is empty",
		},
		{
			name:   "no type argument",
			decl:   "func Pred() bool {\n\treturn true\n}",
			code:   macro.CodeNoAttachedFunction,
			detail: "return type must be a predicate with one type argument",
		},
		{
			name:   "predeclared type argument",
			decl:   "func Pred() Predicate[int] {\n\treturn NewPredicate(func(int) bool { return true })\n}",
			code:   macro.CodeNoAttachedFunction,
			detail: "predicate type argument must be a type declared in this package",
		},
		{
			name:   "other constructor",
			decl:   "func Pred() Predicate[Item] {\n\treturn pred.Always[Item]()\n}",
			code:   macro.CodeNoPredicate,
			detail: "return pred.Always[Item]()",
		},
		{
			name:   "constructor without literal",
			decl:   "func Pred(f func(Item) bool) Predicate[Item] {\n\treturn NewPredicate(f)\n}",
			code:   macro.CodeNoPredicate,
			detail: "return NewPredicate(f)",
		},
		{
			name:   "tail is not a return",
			decl:   "func Pred() Predicate[Item] {\n\tpanic(\"todo\")\n}",
			code:   macro.CodeNoPredicate,
			detail: `panic("todo")`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := "package catalog\n\n//predgen:helper\n" + tt.decl + "\n"
			result := generate(t, src)

			require.Len(t, result.Expansions, 1)
			exp := result.Expansions[0]
			require.True(t, exp.Failed())
			assert.Equal(t, tt.code, exp.Code)
			assert.Equal(t, tt.detail, macro.ErrorDetail(exp.Err))
			assert.Empty(t, exp.Generated)
			assert.Empty(t, result.Output)

			require.Len(t, result.Diagnostics, 1)
			diag := result.Diagnostics[0]
			assert.Equal(t, "catalog.go", diag.File)
			assert.Equal(t, 4, diag.Pos.Line)
			assert.Equal(t, macro.SeverityError, diag.Severity)
		})
	}
}

func TestExpandSource_PartialFailure(t *testing.T) {
	src := `package catalog

//predgen:helper
func Broken() Predicate[Item] {
	return nil
}

//predgen:helper
func Fine() Predicate[Item] {
	return NewPredicate(func(Item) bool { return true })
}
`
	result := generate(t, src)
	require.Len(t, result.Expansions, 2)
	assert.True(t, result.Expansions[0].Failed())
	assert.Empty(t, result.Expansions[0].Generated)
	assert.False(t, result.Expansions[1].Failed())
	require.Len(t, result.Expansions[1].Generated, 1)
	assert.Contains(t, result.Output, "func (self Item) Fine() bool {")
}

func TestExpandSource_InputExpandsAlone(t *testing.T) {
	result := generate(t, catalogSource)
	isOver := result.Expansions[0]
	assert.Contains(t, isOver.Input, "//predgen:helper\nfunc IsOver(")

	again, err := NewGenerator(DefaultOptions(), nil).ExpandSource(context.Background(), "replay.go", []byte("package replay\n\n"+isOver.Input+"\n"))
	require.NoError(t, err)
	require.Len(t, again.Expansions, 1)
	assert.Equal(t, isOver.Generated, again.Expansions[0].Generated)
}

func TestExpandSource_CustomOptions(t *testing.T) {
	src := `package catalog

//gen:pred
func Named(name string) Predicate[Item] {
	return MakePredicate(func(item Item) bool { return item.Name == name })
}
`
	opts := Options{Directive: "gen:pred", Constructor: "MakePredicate", Binding: "check", Receiver: "it"}
	result, err := NewGenerator(opts, nil).ExpandSource(context.Background(), "catalog.go", []byte(src))
	require.NoError(t, err)
	require.Len(t, result.Expansions, 1)
	assert.Equal(t, []string{`func (it Item) Named(name string) bool {
	check := func(item Item) bool { return item.Name == name }
	return check(it)
}`}, result.Expansions[0].Generated)
}

func TestExpandSource_ParseError(t *testing.T) {
	_, err := NewGenerator(DefaultOptions(), nil).ExpandSource(context.Background(), "bad.go", []byte("package bad\n\nfunc {"))
	require.Error(t, err)

	var perr *expand.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "bad.go", perr.File)
	assert.Regexp(t, `^bad\.go:3:\d+: `, err.Error())
}

func TestExpandSource_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewGenerator(DefaultOptions(), nil).ExpandSource(ctx, "catalog.go", []byte(catalogSource))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExpandSource_NoDirectives(t *testing.T) {
	result := generate(t, "package catalog\n\nfunc F() {}\n")
	assert.Empty(t, result.Expansions)
	assert.Empty(t, result.Output)
}

func TestAssumedName(t *testing.T) {
	tests := map[string]string{
		"time":                        "time",
		"gopkg.in/yaml.v3":            "yaml",
		"github.com/mattn/go-sqlite3": "sqlite3",
		"github.com/sebdah/goldie/v2": "goldie",
		"example.com/predicate":       "predicate",
	}
	for path, want := range tests {
		assert.Equal(t, want, assumedName(path), path)
	}
}
