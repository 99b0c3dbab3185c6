package model

import "gopkg.in/yaml.v3"

// Map is an insertion-ordered string-keyed map of values.
type Map struct {
	keys   []string
	values map[string]Value
}

// NewMap returns an empty Map.
func NewMap() *Map {
	return &Map{values: make(map[string]Value)}
}

// MapFrom builds a Map from alternating key/value pairs.
func MapFrom(pairs ...any) *Map {
	mp := NewMap()

	for i := 0; i+1 < len(pairs); i += 2 {
		key, _ := pairs[i].(string)

		switch v := pairs[i+1].(type) {
		case Value:
			mp.Set(key, v)
		case *Map:
			mp.Set(key, MapOf(v))
		case string:
			mp.Set(key, String(v))
		case int:
			mp.Set(key, Int(v))
		case float64:
			mp.Set(key, Float(v))
		case bool:
			mp.Set(key, Bool(v))
		default:
			mp.Set(key, Null())
		}
	}

	return mp
}

// Len returns the number of keys.
func (mp *Map) Len() int {
	if mp == nil {
		return 0
	}

	return len(mp.keys)
}

// Keys returns the keys in insertion order.
func (mp *Map) Keys() []string {
	if mp == nil {
		return nil
	}

	return append([]string(nil), mp.keys...)
}

// Get returns the value stored under key.
func (mp *Map) Get(key string) (Value, bool) {
	if mp == nil {
		return Value{}, false
	}

	v, ok := mp.values[key]

	return v, ok
}

// Set stores value under key. Existing keys keep their position.
func (mp *Map) Set(key string, value Value) {
	if mp.values == nil {
		mp.values = make(map[string]Value)
	}

	if _, ok := mp.values[key]; !ok {
		mp.keys = append(mp.keys, key)
	}

	mp.values[key] = value
}

// Delete removes key if present.
func (mp *Map) Delete(key string) {
	if _, ok := mp.values[key]; !ok {
		return
	}

	delete(mp.values, key)

	for i, k := range mp.keys {
		if k == key {
			mp.keys = append(mp.keys[:i], mp.keys[i+1:]...)
			break
		}
	}
}

// Replace swaps key for the given entries at the same position.
func (mp *Map) Replace(key string, entries *Map) {
	out := NewMap()
	replaced := false

	for _, k := range mp.keys {
		if k == key {
			for _, ek := range entries.Keys() {
				v, _ := entries.Get(ek)
				out.Set(ek, v)
			}

			replaced = true

			continue
		}

		if _, ok := entries.Get(k); ok && replaced {
			continue
		}

		if _, ok := out.Get(k); ok {
			continue
		}

		out.Set(k, mp.values[k])
	}

	if !replaced {
		for _, ek := range entries.Keys() {
			v, _ := entries.Get(ek)
			out.Set(ek, v)
		}
	}

	*mp = *out
}

// First returns the first entry.
func (mp *Map) First() (string, Value, bool) {
	if mp.Len() == 0 {
		return "", Value{}, false
	}

	key := mp.keys[0]

	return key, mp.values[key], true
}

// Clone returns a deep copy.
func (mp *Map) Clone() *Map {
	if mp == nil {
		return nil
	}

	out := NewMap()
	for _, key := range mp.keys {
		out.Set(key, cloneValue(mp.values[key]))
	}

	return out
}

// Equal compares two maps including key order.
func (mp *Map) Equal(other *Map) bool {
	if mp.Len() != other.Len() {
		return false
	}

	for i, key := range mp.Keys() {
		if other.keys[i] != key {
			return false
		}

		if !mp.values[key].Equal(other.values[key]) {
			return false
		}
	}

	return true
}

// UnmarshalYAML decodes a YAML mapping into an ordered Map.
func (mp *Map) UnmarshalYAML(node *yaml.Node) error {
	v, err := FromNode(node)
	if err != nil {
		return err
	}

	if mp.values == nil {
		mp.values = make(map[string]Value)
	}

	if !v.IsMap() {
		return nil
	}

	for _, key := range v.Map.Keys() {
		item, _ := v.Map.Get(key)
		mp.Set(key, item)
	}

	return nil
}

// Merge returns base with change recursively laid over it. Nested maps are
// merged key by key; any other value in change replaces the base value.
// Keys absent from base are appended. Neither argument is modified.
func Merge(base, change *Map) *Map {
	out := base.Clone()
	if out == nil {
		out = NewMap()
	}

	for _, key := range change.Keys() {
		next, _ := change.Get(key)
		prev, ok := out.Get(key)

		if ok && prev.IsMap() && next.IsMap() {
			out.Set(key, MapOf(Merge(prev.Map, next.Map)))
			continue
		}

		out.Set(key, cloneValue(next))
	}

	return out
}

// Index resolves a nested parameter tree for experiment i. Flat lists are
// indexed directly, lists of lists are sliced column-wise so that each inner
// list contributes its i-th element, and maps are resolved recursively.
// Scalars pass through.
func Index(v Value, i int) (Value, error) {
	switch {
	case v.IsListOfLists():
		out := make([]Value, 0, len(v.List))

		for _, row := range v.List {
			item, err := at(row, i)
			if err != nil {
				return Value{}, err
			}

			out = append(out, item)
		}

		return ListOf(out...), nil
	case v.IsList():
		return at(v, i)
	case v.IsMap():
		out := NewMap()

		for _, key := range v.Map.Keys() {
			child, _ := v.Map.Get(key)

			resolved, err := Index(child, i)
			if err != nil {
				return Value{}, err
			}

			out.Set(key, resolved)
		}

		return MapOf(out), nil
	default:
		return v, nil
	}
}

// Lengths collects the per-experiment lengths implied by the lists in a
// nested parameter tree, using the same rules as Index.
func Lengths(v Value) []int {
	switch {
	case v.IsListOfLists():
		out := make([]int, 0, len(v.List))
		for _, row := range v.List {
			if row.IsList() {
				out = append(out, len(row.List))
			}
		}

		return out
	case v.IsList():
		return []int{len(v.List)}
	case v.IsMap():
		var out []int

		for _, key := range v.Map.Keys() {
			child, _ := v.Map.Get(key)
			out = append(out, Lengths(child)...)
		}

		return out
	default:
		return nil
	}
}

func at(v Value, i int) (Value, error) {
	if !v.IsList() {
		return v, nil
	}

	if i < 0 || i >= len(v.List) {
		return Value{}, ErrLengthMismatchf("index %d out of range for list of length %d", i, len(v.List))
	}

	return cloneValue(v.List[i]), nil
}

func cloneValue(v Value) Value {
	switch v.Kind {
	case KindList:
		items := make([]Value, 0, len(v.List))
		for _, item := range v.List {
			items = append(items, cloneValue(item))
		}

		return ListOf(items...)
	case KindMap:
		return MapOf(v.Map.Clone())
	default:
		return v
	}
}
