package model

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind tags the shape of a Value.
type Kind int

// Available Kind values.
const (
	KindNull Kind = iota
	KindScalar
	KindList
	KindMap
)

// YAML core schema tags carried by scalars.
const (
	TagStr   = "!!str"
	TagInt   = "!!int"
	TagFloat = "!!float"
	TagBool  = "!!bool"
	TagNull  = "!!null"
)

// Scalar keeps the literal text of a leaf value next to its resolved tag,
// so "3600.0" stays "3600.0" when it is written back or used in a name.
type Scalar struct {
	Raw string
	Tag string
}

// Value is a node of a generic tagged tree: scalar, list or ordered map.
type Value struct {
	Kind   Kind
	Scalar Scalar
	List   []Value
	Map    *Map
}

// Null returns the empty value.
func Null() Value {
	return Value{Kind: KindNull}
}

// String returns a string scalar.
func String(s string) Value {
	return Value{Kind: KindScalar, Scalar: Scalar{Raw: s, Tag: TagStr}}
}

// Int returns an integer scalar.
func Int(i int) Value {
	return Value{Kind: KindScalar, Scalar: Scalar{Raw: strconv.Itoa(i), Tag: TagInt}}
}

// Float returns a float scalar using the shortest round-trip representation.
func Float(f float64) Value {
	return Value{Kind: KindScalar, Scalar: Scalar{Raw: strconv.FormatFloat(f, 'g', -1, 64), Tag: TagFloat}}
}

// Bool returns a boolean scalar.
func Bool(b bool) Value {
	raw := "false"
	if b {
		raw = "true"
	}

	return Value{Kind: KindScalar, Scalar: Scalar{Raw: raw, Tag: TagBool}}
}

// ListOf returns a list value.
func ListOf(items ...Value) Value {
	return Value{Kind: KindList, List: items}
}

// MapOf returns a map value wrapping mp.
func MapOf(mp *Map) Value {
	if mp == nil {
		mp = NewMap()
	}

	return Value{Kind: KindMap, Map: mp}
}

// IsNull reports whether v carries nothing, including an empty map.
func (v Value) IsNull() bool {
	switch v.Kind {
	case KindNull:
		return true
	case KindMap:
		return v.Map == nil || v.Map.Len() == 0
	default:
		return false
	}
}

// IsList reports whether v is a list.
func (v Value) IsList() bool { return v.Kind == KindList }

// IsMap reports whether v is a map.
func (v Value) IsMap() bool { return v.Kind == KindMap && v.Map != nil }

// IsScalar reports whether v is a leaf.
func (v Value) IsScalar() bool { return v.Kind == KindScalar }

// IsListOfLists reports whether v is a non-empty list whose first element is a list.
func (v Value) IsListOfLists() bool {
	return v.IsList() && len(v.List) > 0 && v.List[0].IsList()
}

// IsListOfMaps reports whether v is a non-empty list made only of maps.
func (v Value) IsListOfMaps() bool {
	if !v.IsList() || len(v.List) == 0 {
		return false
	}

	for _, item := range v.List {
		if !item.IsMap() {
			return false
		}
	}

	return true
}

// AsBool returns the boolean held by a !!bool scalar.
func (v Value) AsBool() (bool, bool) {
	if v.Kind != KindScalar || v.Scalar.Tag != TagBool {
		return false, false
	}

	return strings.EqualFold(v.Scalar.Raw, "true"), true
}

// AsFloat returns the number held by an !!int or !!float scalar.
func (v Value) AsFloat() (float64, bool) {
	if v.Kind != KindScalar || (v.Scalar.Tag != TagInt && v.Scalar.Tag != TagFloat) {
		return 0, false
	}

	f, err := strconv.ParseFloat(strings.ReplaceAll(v.Scalar.Raw, "_", ""), 64)
	if err != nil {
		return 0, false
	}

	return f, true
}

// String renders v compactly. Scalars keep their literal text.
func (v Value) String() string {
	switch v.Kind {
	case KindScalar:
		return v.Scalar.Raw
	case KindList:
		parts := make([]string, 0, len(v.List))
		for _, item := range v.List {
			parts = append(parts, item.String())
		}

		return "[" + strings.Join(parts, ",") + "]"
	case KindMap:
		if v.Map == nil {
			return "{}"
		}

		parts := make([]string, 0, v.Map.Len())
		for _, key := range v.Map.Keys() {
			item, _ := v.Map.Get(key)
			parts = append(parts, key+":"+item.String())
		}

		return "{" + strings.Join(parts, ",") + "}"
	default:
		return ""
	}
}

// Equal compares two trees structurally, including map key order.
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}

	switch v.Kind {
	case KindScalar:
		return v.Scalar == other.Scalar
	case KindList:
		if len(v.List) != len(other.List) {
			return false
		}

		for i := range v.List {
			if !v.List[i].Equal(other.List[i]) {
				return false
			}
		}

		return true
	case KindMap:
		return v.Map.Equal(other.Map)
	default:
		return true
	}
}

// UnmarshalYAML converts a yaml.v3 node into a Value tree.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	converted, err := FromNode(node)
	if err != nil {
		return err
	}

	*v = converted

	return nil
}

// FromNode converts a yaml.v3 node into a Value tree, keeping mapping order.
func FromNode(node *yaml.Node) (Value, error) {
	if node == nil {
		return Null(), nil
	}

	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return Null(), nil
		}

		return FromNode(node.Content[0])
	case yaml.AliasNode:
		return FromNode(node.Alias)
	case yaml.ScalarNode:
		tag := node.ShortTag()
		if tag == TagNull {
			return Null(), nil
		}

		return Value{Kind: KindScalar, Scalar: Scalar{Raw: node.Value, Tag: tag}}, nil
	case yaml.SequenceNode:
		items := make([]Value, 0, len(node.Content))

		for _, child := range node.Content {
			item, err := FromNode(child)
			if err != nil {
				return Value{}, err
			}

			items = append(items, item)
		}

		return ListOf(items...), nil
	case yaml.MappingNode:
		mp := NewMap()

		for i := 0; i+1 < len(node.Content); i += 2 {
			item, err := FromNode(node.Content[i+1])
			if err != nil {
				return Value{}, err
			}

			mp.Set(node.Content[i].Value, item)
		}

		return MapOf(mp), nil
	default:
		return Value{}, fmt.Errorf("unsupported yaml node kind %d at line %d", node.Kind, node.Line)
	}
}

// ToNode converts v into a yaml.v3 node suitable for encoding.
func ToNode(v Value) *yaml.Node {
	switch v.Kind {
	case KindScalar:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: v.Scalar.Tag, Value: v.Scalar.Raw}
	case KindList:
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range v.List {
			node.Content = append(node.Content, ToNode(item))
		}

		return node
	case KindMap:
		node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		if v.Map == nil {
			return node
		}

		for _, key := range v.Map.Keys() {
			item, _ := v.Map.Get(key)
			node.Content = append(node.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: TagStr, Value: key},
				ToNode(item),
			)
		}

		return node
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: TagNull, Value: "null"}
	}
}
