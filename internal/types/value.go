// Package types defines the stack items of the target virtual machine.
package types

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// Kind represents the type of a stack item.
type Kind uint8

const (
	KindByteArray Kind = iota // Raw bytes (the default for pushed constants)
	KindInteger               // Arbitrary-precision integer
	KindBoolean               // Boolean
	KindArray                 // Reference-typed array
	KindStruct                // Value-typed array
	KindMap                   // Ordered map with primitive keys
)

// String returns a string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindByteArray:
		return "ByteArray"
	case KindInteger:
		return "Integer"
	case KindBoolean:
		return "Boolean"
	case KindArray:
		return "Array"
	case KindStruct:
		return "Struct"
	case KindMap:
		return "Map"
	default:
		return "unknown"
	}
}

// ErrNotPrimitive is returned when a compound item is used where bytes are required.
var ErrNotPrimitive = errors.New("item is not a primitive")

// Value is a VM stack item.
// Primitive items are immutable; Array and Map items share their backing
// storage, so copies of a Value observe each other's mutations.
type Value struct {
	kind Kind
	data []byte
	num  *big.Int
	b    bool
	arr  *Array
	m    *Map
}

// Array is the shared storage of an Array or Struct item.
type Array struct {
	Items []Value
}

// Map is an insertion-ordered map keyed by the byte encoding of a primitive.
type Map struct {
	keys   []string
	keyVal map[string]Value
	values map[string]Value
}

// Constructors

// Bytes creates a ByteArray item.
func Bytes(b []byte) Value {
	return Value{kind: KindByteArray, data: b}
}

// Str creates a ByteArray item holding s.
func Str(s string) Value {
	return Bytes([]byte(s))
}

// Int creates an Integer item.
func Int(n int64) Value {
	return Value{kind: KindInteger, num: big.NewInt(n)}
}

// BigInt creates an Integer item from n. The item takes ownership of n.
func BigInt(n *big.Int) Value {
	return Value{kind: KindInteger, num: n}
}

// Bool creates a Boolean item.
func Bool(b bool) Value {
	return Value{kind: KindBoolean, b: b}
}

// NewArray creates an Array item with the given elements.
func NewArray(items []Value) Value {
	return Value{kind: KindArray, arr: &Array{Items: items}}
}

// NewStruct creates a Struct item with the given elements.
func NewStruct(items []Value) Value {
	return Value{kind: KindStruct, arr: &Array{Items: items}}
}

// NewMap creates an empty Map item.
func NewMap() Value {
	return Value{kind: KindMap, m: &Map{keyVal: map[string]Value{}, values: map[string]Value{}}}
}

// Accessors

// Kind returns the item's type.
func (v Value) Kind() Kind {
	return v.kind
}

// IsCompound reports whether the item is an Array, Struct or Map.
func (v Value) IsCompound() bool {
	return v.kind == KindArray || v.kind == KindStruct || v.kind == KindMap
}

// Array returns the shared storage of an Array or Struct item, or nil.
func (v Value) Array() *Array {
	return v.arr
}

// Map returns the shared storage of a Map item, or nil.
func (v Value) Map() *Map {
	return v.m
}

// Conversions

// Bytes returns the byte encoding of a primitive item.
func (v Value) Bytes() ([]byte, error) {
	switch v.kind {
	case KindByteArray:
		return v.data, nil
	case KindInteger:
		return IntToBytes(v.num), nil
	case KindBoolean:
		if v.b {
			return []byte{1}, nil
		}
		return []byte{}, nil
	default:
		return nil, fmt.Errorf("%s: %w", v.kind, ErrNotPrimitive)
	}
}

// BigInt returns the integer value of a primitive item.
func (v Value) BigInt() (*big.Int, error) {
	switch v.kind {
	case KindInteger:
		return v.num, nil
	case KindBoolean:
		if v.b {
			return big.NewInt(1), nil
		}
		return big.NewInt(0), nil
	case KindByteArray:
		return BytesToInt(v.data), nil
	default:
		return nil, fmt.Errorf("%s: %w", v.kind, ErrNotPrimitive)
	}
}

// Bool returns the truthiness of the item.
// Byte arrays are true when any byte is non-zero; compound items are always true.
func (v Value) Bool() bool {
	switch v.kind {
	case KindBoolean:
		return v.b
	case KindInteger:
		return v.num.Sign() != 0
	case KindByteArray:
		for _, c := range v.data {
			if c != 0 {
				return true
			}
		}
		return false
	default:
		return true
	}
}

// Equals implements the EQUAL instruction: primitives compare by byte
// encoding, Arrays and Maps by identity, Structs element-wise.
func (v Value) Equals(other Value) bool {
	switch {
	case v.kind == KindStruct && other.kind == KindStruct:
		if v.arr == other.arr {
			return true
		}
		if len(v.arr.Items) != len(other.arr.Items) {
			return false
		}
		for i := range v.arr.Items {
			if !v.arr.Items[i].Equals(other.arr.Items[i]) {
				return false
			}
		}
		return true
	case v.kind == KindArray || other.kind == KindArray:
		return v.kind == other.kind && v.arr == other.arr
	case v.kind == KindMap || other.kind == KindMap:
		return v.kind == other.kind && v.m == other.m
	case v.kind == KindStruct || other.kind == KindStruct:
		return false
	}
	a, _ := v.Bytes()
	b, _ := other.Bytes()
	return bytes.Equal(a, b)
}

// Clone returns a copy of a Struct with its own storage. Other items are returned as is.
func (v Value) Clone() Value {
	if v.kind != KindStruct {
		return v
	}
	items := make([]Value, len(v.arr.Items))
	for i, it := range v.arr.Items {
		items[i] = it.Clone()
	}
	return NewStruct(items)
}

// String returns a debug representation of the item.
func (v Value) String() string {
	switch v.kind {
	case KindByteArray:
		return fmt.Sprintf("Bytes(%x)", v.data)
	case KindInteger:
		return fmt.Sprintf("Int(%s)", v.num)
	case KindBoolean:
		return fmt.Sprintf("Bool(%t)", v.b)
	case KindArray, KindStruct:
		parts := make([]string, len(v.arr.Items))
		for i, it := range v.arr.Items {
			parts[i] = it.String()
		}
		return fmt.Sprintf("%s[%s]", v.kind, strings.Join(parts, " "))
	case KindMap:
		return fmt.Sprintf("Map(%d)", v.m.Len())
	default:
		return "?"
	}
}

// Map operations

// Len returns the number of entries.
func (m *Map) Len() int {
	return len(m.keys)
}

// Get returns the value stored under key.
func (m *Map) Get(key Value) (Value, bool, error) {
	k, err := key.Bytes()
	if err != nil {
		return Value{}, false, err
	}
	val, ok := m.values[string(k)]
	return val, ok, nil
}

// Set stores val under key, keeping the original insertion position of an existing key.
func (m *Map) Set(key, val Value) error {
	k, err := key.Bytes()
	if err != nil {
		return err
	}
	if _, ok := m.values[string(k)]; !ok {
		m.keys = append(m.keys, string(k))
		m.keyVal[string(k)] = key
	}
	m.values[string(k)] = val
	return nil
}

// Remove deletes key. Removing a missing key is not an error.
func (m *Map) Remove(key Value) error {
	k, err := key.Bytes()
	if err != nil {
		return err
	}
	if _, ok := m.values[string(k)]; !ok {
		return nil
	}
	delete(m.values, string(k))
	delete(m.keyVal, string(k))
	for i, existing := range m.keys {
		if existing == string(k) {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
	return nil
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []Value {
	out := make([]Value, len(m.keys))
	for i, k := range m.keys {
		out[i] = m.keyVal[k]
	}
	return out
}

// Values returns the values in insertion order.
func (m *Map) Values() []Value {
	out := make([]Value, len(m.keys))
	for i, k := range m.keys {
		out[i] = m.values[k]
	}
	return out
}

// Integer encoding

// IntToBytes encodes n as minimal little-endian two's complement. Zero is empty.
func IntToBytes(n *big.Int) []byte {
	if n.Sign() == 0 {
		return []byte{}
	}
	if n.Sign() > 0 {
		be := n.Bytes()
		out := make([]byte, len(be), len(be)+1)
		for i, c := range be {
			out[len(be)-1-i] = c
		}
		if out[len(out)-1]&0x80 != 0 {
			out = append(out, 0)
		}
		return out
	}
	// Smallest width whose signed range holds n.
	size := 1
	for {
		low := new(big.Int).Lsh(big.NewInt(1), uint(8*size-1))
		low.Neg(low)
		if n.Cmp(low) >= 0 {
			break
		}
		size++
	}
	t := new(big.Int).Lsh(big.NewInt(1), uint(8*size))
	t.Add(t, n)
	be := t.Bytes()
	out := make([]byte, size)
	for i, c := range be {
		out[len(be)-1-i] = c
	}
	return out
}

// BytesToInt decodes little-endian two's complement bytes.
func BytesToInt(b []byte) *big.Int {
	if len(b) == 0 {
		return big.NewInt(0)
	}
	be := make([]byte, len(b))
	for i, c := range b {
		be[len(b)-1-i] = c
	}
	n := new(big.Int).SetBytes(be)
	if b[len(b)-1]&0x80 != 0 {
		n.Sub(n, new(big.Int).Lsh(big.NewInt(1), uint(8*len(b))))
	}
	return n
}
