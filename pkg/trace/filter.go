package trace

import (
	"strings"
)

// FilterSet is the set of event kinds the instrumentation is permitted to
// report. It is fixed for the lifetime of a Tracer. The zero value admits
// nothing; construct one with NewFilter, AllEvents, DefaultFilter or
// ParseFilter.
type FilterSet struct {
	all   bool
	kinds map[Kind]bool
}

// NewFilter builds a FilterSet admitting exactly the given kinds.
func NewFilter(kinds ...Kind) FilterSet {
	set := make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		set[k] = true
	}
	return FilterSet{kinds: set}
}

// AllEvents returns the wildcard FilterSet admitting every kind.
func AllEvents() FilterSet {
	return FilterSet{all: true}
}

// DefaultFilter returns the default FilterSet: call, return, c_call and
// c_return.
func DefaultFilter() FilterSet {
	return NewFilter(KindCall, KindReturn, KindCCall, KindCReturn)
}

// ParseFilter builds a FilterSet from kind names. The single name "all"
// is the wildcard sentinel.
func ParseFilter(names []string) (FilterSet, error) {
	if len(names) == 1 && strings.EqualFold(names[0], "all") {
		return AllEvents(), nil
	}
	kinds := make([]Kind, 0, len(names))
	for _, name := range names {
		k, err := ParseKind(name)
		if err != nil {
			return FilterSet{}, err
		}
		kinds = append(kinds, k)
	}
	return NewFilter(kinds...), nil
}

// Admits reports whether the filter permits the given kind.
func (f FilterSet) Admits(k Kind) bool {
	if f.all {
		return true
	}
	return f.kinds[k]
}

// All reports whether the filter is the wildcard sentinel.
func (f FilterSet) All() bool { return f.all }

// Kinds returns the admitted kinds in declaration order, or every kind
// for the wildcard filter.
func (f FilterSet) Kinds() []Kind {
	var out []Kind
	for _, k := range Kinds() {
		if f.Admits(k) {
			out = append(out, k)
		}
	}
	return out
}

// String renders the filter for logs and error messages.
func (f FilterSet) String() string {
	if f.all {
		return "all"
	}
	names := make([]string, 0, len(f.kinds))
	for _, k := range f.Kinds() {
		names = append(names, k.String())
	}
	return strings.Join(names, ",")
}
