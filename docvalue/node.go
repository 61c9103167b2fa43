// Package docvalue implements the polymorphic document node used to build
// insert, query and modifier documents before they are handed to the
// MongoDB-compatible write layer.
package docvalue

import (
	"fmt"

	"github.com/globalsign/mgo/bson"
)

// Kind tags the shape of a Node.
type Kind int

const (
	KindObject Kind = iota
	KindList
	KindString
	KindInt
	KindFloat
	KindBool
	KindDate
	KindBytes
	KindLiteral
	KindBigDecimal
)

// Node is a rose-tree node: either an ordered object, a dense list, or a
// scalar leaf. Object field order is preserved within the Node (see
// Keys); ToBSON emits a bson.M, which does not retain that order.
type Node struct {
	Kind   Kind
	fields map[string]*Node
	order  []string
	list   []*Node
	Scalar interface{}
}

// NewObject returns an empty object node.
func NewObject() *Node {
	return &Node{Kind: KindObject, fields: map[string]*Node{}}
}

// NewList returns an empty list node.
func NewList() *Node {
	return &Node{Kind: KindList}
}

// Leaf wraps a scalar value of the given kind.
func Leaf(kind Kind, value interface{}) *Node {
	return &Node{Kind: kind, Scalar: value}
}

// IsObject reports whether n is an object node.
func (n *Node) IsObject() bool { return n != nil && n.Kind == KindObject }

// IsList reports whether n is a list node.
func (n *Node) IsList() bool { return n != nil && n.Kind == KindList }

// Get returns the child of an object node by key, or nil if absent.
func (n *Node) Get(key string) *Node {
	if n == nil || n.fields == nil {
		return nil
	}
	return n.fields[key]
}

// Set assigns child as the value of key on an object node, preserving
// first-seen field order.
func (n *Node) Set(key string, child *Node) {
	if n.fields == nil {
		n.fields = map[string]*Node{}
	}
	if _, exists := n.fields[key]; !exists {
		n.order = append(n.order, key)
	}
	n.fields[key] = child
}

// Keys returns the object's field names in insertion order.
func (n *Node) Keys() []string {
	if n == nil {
		return nil
	}
	return n.order
}

// Len returns the number of elements in a list node.
func (n *Node) Len() int {
	if n == nil {
		return 0
	}
	return len(n.list)
}

// At returns the i'th element of a list node, or nil if out of range.
func (n *Node) At(i int) *Node {
	if n == nil || i < 0 || i >= len(n.list) {
		return nil
	}
	return n.list[i]
}

// Grow extends a list node with empty slots up to size i+1 if needed and
// returns the element at i, creating it with create() on first touch.
// Subsequent calls for the same i return the same node without
// re-invoking create.
func (n *Node) Grow(i int, create func() *Node) *Node {
	for len(n.list) <= i {
		n.list = append(n.list, nil)
	}
	if n.list[i] == nil {
		n.list[i] = create()
	}
	return n.list[i]
}

// SetAt force-overwrites the element at i, extending the list with nil
// slots if needed.
func (n *Node) SetAt(i int, value *Node) {
	for len(n.list) <= i {
		n.list = append(n.list, nil)
	}
	n.list[i] = value
}

// Append pushes a value onto a list node and returns its index.
func (n *Node) Append(child *Node) int {
	n.list = append(n.list, child)
	return len(n.list) - 1
}

// IsEmpty reports whether the node carries no data: an object with no
// fields, a list with no elements, or a nil node.
func (n *Node) IsEmpty() bool {
	if n == nil {
		return true
	}
	switch n.Kind {
	case KindObject:
		return len(n.fields) == 0
	case KindList:
		return len(n.list) == 0
	default:
		return false
	}
}

// ToBSON converts the node tree into bson.M (objects), []interface{}
// (lists) and native scalar values, suitable for handing to the
// MongoDB-compatible driver layer.
func ToBSON(n *Node) interface{} {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case KindObject:
		out := bson.M{}
		for _, k := range n.order {
			out[k] = ToBSON(n.fields[k])
		}
		return out
	case KindList:
		out := make([]interface{}, len(n.list))
		for i, child := range n.list {
			out[i] = ToBSON(child)
		}
		return out
	case KindLiteral:
		return n.Scalar
	default:
		return n.Scalar
	}
}

// String implements fmt.Stringer for debugging/log output.
func (n *Node) String() string {
	return fmt.Sprintf("%v", ToBSON(n))
}
