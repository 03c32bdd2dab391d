// File: option/option.go
// Package option implements typed configuration options and the immutable
// option map used to configure channels uniformly.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// An option is a typed key with a parser from textual form. Option maps are
// immutable after build, so sharing between goroutines is free; the Builder
// copies on write. Textual form is "name=value" for scalars and
// "name=v1,v2,v3" for sequence-valued options.

package option

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/rohankumardubey/xnio-core/api"
)

// anyOption is the type-erased face of Option[T], used as the map key.
type anyOption interface {
	Name() string
	parseInto(b *Builder, value string) error
	format(value any) string
}

// Option is a typed option key.
type Option[T any] struct {
	name  string
	parse func(string) (T, error)
}

// Name returns the option's textual name.
func (o *Option[T]) Name() string { return o.name }

func (o *Option[T]) parseInto(b *Builder, value string) error {
	v, err := o.parse(value)
	if err != nil {
		return fmt.Errorf("option %s: %w", o.name, err)
	}
	b.put(o, v)
	return nil
}

func (o *Option[T]) format(value any) string {
	if s, ok := value.(Sequence[string]); ok {
		return o.name + "=" + strings.Join(s.Values(), ",")
	}
	return fmt.Sprintf("%s=%v", o.name, value)
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]anyOption)
)

func register(o anyOption) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[o.Name()]; dup {
		panic("option: duplicate option name " + o.Name())
	}
	registry[o.Name()] = o
}

// lookup resolves a registered option by name.
func lookup(name string) (anyOption, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	o, ok := registry[name]
	return o, ok
}

// New creates and registers an option with an explicit parser.
func New[T any](name string, parse func(string) (T, error)) *Option[T] {
	o := &Option[T]{name: name, parse: parse}
	register(o)
	return o
}

// NewBool creates a boolean option.
func NewBool(name string) *Option[bool] {
	return New(name, strconv.ParseBool)
}

// NewInt creates an integer option.
func NewInt(name string) *Option[int] {
	return New(name, strconv.Atoi)
}

// NewString creates a string option.
func NewString(name string) *Option[string] {
	return New(name, func(s string) (string, error) { return s, nil })
}

// NewStringSequence creates an ordered string-sequence option. Textual values
// are comma-separated.
func NewStringSequence(name string) *Option[Sequence[string]] {
	return New(name, func(s string) (Sequence[string], error) {
		if s == "" {
			return Sequence[string]{}, nil
		}
		return SequenceOf(strings.Split(s, ",")...), nil
	})
}

// NewEnum creates an option whose textual values come from a fixed set.
func NewEnum[T any](name string, values map[string]T) *Option[T] {
	return New(name, func(s string) (T, error) {
		v, ok := values[s]
		if !ok {
			var zero T
			return zero, fmt.Errorf("invalid value %q", s)
		}
		return v, nil
	})
}

// Sequence is an immutable ordered sequence of values.
type Sequence[T any] struct {
	items []T
}

// SequenceOf builds a sequence from the given items.
func SequenceOf[T any](items ...T) Sequence[T] {
	cp := make([]T, len(items))
	copy(cp, items)
	return Sequence[T]{items: cp}
}

// Values returns a copy of the sequence contents.
func (s Sequence[T]) Values() []T {
	cp := make([]T, len(s.items))
	copy(cp, s.items)
	return cp
}

// Len returns the number of items.
func (s Sequence[T]) Len() int { return len(s.items) }

// At returns the item at index i.
func (s Sequence[T]) At(i int) T { return s.items[i] }

// IsEmpty reports whether the sequence holds no items.
func (s Sequence[T]) IsEmpty() bool { return len(s.items) == 0 }

// Map is an immutable mapping from options to typed values.
type Map struct {
	m map[anyOption]any
}

// EmptyMap is the map with no options set.
var EmptyMap = Map{}

// Contains reports whether the option is present.
func (m Map) Contains(name string) bool {
	o, ok := lookup(name)
	if !ok {
		return false
	}
	_, present := m.m[o]
	return present
}

// Size returns the number of options set.
func (m Map) Size() int { return len(m.m) }

// String renders the map in textual option form.
func (m Map) String() string {
	parts := make([]string, 0, len(m.m))
	for o, v := range m.m {
		parts = append(parts, o.format(v))
	}
	return "{" + strings.Join(parts, " ") + "}"
}

// Get returns the value for opt, or def when unset.
func Get[T any](m Map, opt *Option[T], def T) T {
	if v, ok := m.m[opt]; ok {
		return v.(T)
	}
	return def
}

// GetOK returns the value for opt and whether it was set.
func GetOK[T any](m Map, opt *Option[T]) (T, bool) {
	if v, ok := m.m[opt]; ok {
		return v.(T), true
	}
	var zero T
	return zero, false
}

// Builder accumulates option values and produces immutable maps. The zero
// value is not usable; call NewBuilder.
type Builder struct {
	m map[anyOption]any
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{m: make(map[anyOption]any)}
}

func (b *Builder) put(o anyOption, v any) { b.m[o] = v }

// Set records a typed value for opt, replacing any previous value.
func Set[T any](b *Builder, opt *Option[T], value T) *Builder {
	b.put(opt, value)
	return b
}

// Parse records the textual form "name" = "value". Unknown names fail with
// ErrUnsupportedOption.
func (b *Builder) Parse(name, value string) error {
	o, ok := lookup(name)
	if !ok {
		return fmt.Errorf("%w: %s", api.ErrUnsupportedOption, name)
	}
	return o.parseInto(b, value)
}

// ParsePair records a single "name=value" textual pair.
func (b *Builder) ParsePair(pair string) error {
	name, value, ok := strings.Cut(pair, "=")
	if !ok {
		return fmt.Errorf("%w: malformed pair %q", api.ErrUnsupportedOption, pair)
	}
	return b.Parse(strings.TrimSpace(name), strings.TrimSpace(value))
}

// AddAll copies every entry of src into the builder.
func (b *Builder) AddAll(src Map) *Builder {
	for o, v := range src.m {
		b.m[o] = v
	}
	return b
}

// Map freezes the builder contents into an immutable map. The builder may be
// reused; later mutations do not affect previously produced maps.
func (b *Builder) Map() Map {
	cp := make(map[anyOption]any, len(b.m))
	for o, v := range b.m {
		cp[o] = v
	}
	return Map{m: cp}
}
