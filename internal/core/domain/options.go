package domain

import (
	"maps"
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// ProfileOption is the option name used for build profiles.
const ProfileOption = "profile"

// Options is an immutable mapping of option name to the set of selected values.
type Options struct {
	values map[string][]string
}

// NewOptions builds Options from a name to values mapping. Values are deduplicated and sorted.
func NewOptions(values map[string][]string) Options {
	m := make(map[string][]string, len(values))
	for name, vals := range values {
		sorted := slices.Clone(vals)
		slices.Sort(sorted)
		m[name] = slices.Compact(sorted)
	}
	return Options{values: m}
}

// ParseOptions builds Options from profile names and key=value pairs.
func ParseOptions(profiles, pairs []string) (Options, error) {
	values := make(map[string][]string)
	if len(profiles) > 0 {
		values[ProfileOption] = append(values[ProfileOption], profiles...)
	}
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return Options{}, zerr.With(zerr.Wrap(ErrInvalidOption, "parse option"), "option", pair)
		}
		values[name] = append(values[name], value)
	}
	return NewOptions(values), nil
}

// Has reports whether value is selected for the named option.
func (o Options) Has(name, value string) bool {
	_, found := slices.BinarySearch(o.values[name], value)
	return found
}

// Values returns the selected values for name in sorted order.
func (o Options) Values(name string) []string {
	return slices.Clone(o.values[name])
}

// Names returns the option names in sorted order.
func (o Options) Names() []string {
	return slices.Sorted(maps.Keys(o.values))
}

// Condition selects configuration by option membership.
// A nil or empty condition always matches.
type Condition map[string][]string

// MatchesAny reports whether, for every option in c, at least one listed value is selected.
func (c Condition) MatchesAny(o Options) bool {
	for name, values := range c {
		matched := false
		for _, v := range values {
			if o.Has(name, v) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

// Excludes reports whether any listed value of c is selected.
func (c Condition) Excludes(o Options) bool {
	for name, values := range c {
		for _, v := range values {
			if o.Has(name, v) {
				return true
			}
		}
	}
	return false
}

// Applies evaluates a when/unless pair against o.
func Applies(when, unless Condition, o Options) bool {
	return when.MatchesAny(o) && !unless.Excludes(o)
}
