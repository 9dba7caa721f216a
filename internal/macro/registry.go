package macro

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/roach88/predgen/internal/syntax"
)

// Kind names a macro implementation.
type Kind string

const (
	// KindSplice replays the factory's statements and evaluates the closure.
	KindSplice Kind = "splice"
	// KindForward calls the static factory and evaluates the predicate.
	KindForward Kind = "forward"
)

// Default attribute names.
const (
	AttrPredicateHelper    = "PredicateHelper"
	AttrPredicateForwarder = "PredicateForwarder"
)

// Defaults for Options.
const (
	DefaultMarker   = "return #Predicate<"
	DefaultBinding  = "decider"
	DefaultReceiver = "self"
)

// Macro expands one attached declaration into peer declarations.
type Macro interface {
	Kind() Kind

	// ExpandPeers returns the declarations to insert next to decl. On error
	// no declarations are returned.
	ExpandPeers(attr syntax.Attribute, decl syntax.Decl, ctx Context) ([]syntax.Decl, error)
}

// Options parameterise the macros.
type Options struct {
	Marker   string // prefix the final statement must start with
	Binding  string // base name of the decision binding
	Receiver string // implicit receiver the closure is applied to
}

// DefaultOptions returns the options matching Swift's #Predicate macro.
func DefaultOptions() Options {
	return Options{
		Marker:   DefaultMarker,
		Binding:  DefaultBinding,
		Receiver: DefaultReceiver,
	}
}

// withDefaults fills empty fields from DefaultOptions.
func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.Marker == "" {
		o.Marker = def.Marker
	}
	if o.Binding == "" {
		o.Binding = def.Binding
	}
	if o.Receiver == "" {
		o.Receiver = def.Receiver
	}
	return o
}

// New returns the macro implementing kind.
func New(kind Kind, opts Options) (Macro, error) {
	opts = opts.withDefaults()
	switch kind {
	case KindSplice:
		return NewPredicateHelper(opts), nil
	case KindForward:
		return NewPredicateForwarder(opts), nil
	default:
		return nil, fmt.Errorf("unknown macro kind %q (valid: %s, %s)", kind, KindSplice, KindForward)
	}
}

var attributeName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Entry is one row of the registry table.
type Entry struct {
	Attribute string `json:"attribute"`
	Kind      Kind   `json:"kind"`
}

// Registry maps attribute names to macros. It is filled once at start-up and
// read-only afterwards.
type Registry struct {
	macros map[string]Macro
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{macros: make(map[string]Macro)}
}

// Register binds an attribute name to a macro.
func (r *Registry) Register(attribute string, m Macro) error {
	if !attributeName.MatchString(attribute) {
		return fmt.Errorf("invalid attribute name %q", attribute)
	}
	if _, exists := r.macros[attribute]; exists {
		return fmt.Errorf("attribute %q already registered", attribute)
	}
	r.macros[attribute] = m
	return nil
}

// Lookup returns the macro bound to an attribute name.
func (r *Registry) Lookup(attribute string) (Macro, bool) {
	m, ok := r.macros[attribute]
	return m, ok
}

// Entries returns the table sorted by attribute name.
func (r *Registry) Entries() []Entry {
	entries := make([]Entry, 0, len(r.macros))
	for attr, m := range r.macros {
		entries = append(entries, Entry{Attribute: attr, Kind: m.Kind()})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Attribute < entries[j].Attribute
	})
	return entries
}

// DefaultTable is the table used when no configuration names macros.
func DefaultTable() map[string]Kind {
	return map[string]Kind{
		AttrPredicateHelper:    KindSplice,
		AttrPredicateForwarder: KindForward,
	}
}

// NewRegistryFromTable builds a registry from an attribute → kind table.
// An empty table selects DefaultTable.
func NewRegistryFromTable(table map[string]Kind, opts Options) (*Registry, error) {
	if len(table) == 0 {
		table = DefaultTable()
	}

	attrs := make([]string, 0, len(table))
	for attr := range table {
		attrs = append(attrs, attr)
	}
	sort.Strings(attrs)

	r := NewRegistry()
	for _, attr := range attrs {
		m, err := New(table[attr], opts)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", attr, err)
		}
		if err := r.Register(attr, m); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// DefaultRegistry returns the default table with default options.
func DefaultRegistry() *Registry {
	r, err := NewRegistryFromTable(nil, DefaultOptions())
	if err != nil {
		panic(err)
	}
	return r
}
