package types

import (
	"bytes"
	"errors"
	"math/big"
	"testing"
)

func TestValueConstructors(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		kind Kind
	}{
		{"Bytes", Bytes([]byte{1, 2}), KindByteArray},
		{"Str", Str("hello"), KindByteArray},
		{"Int", Int(42), KindInteger},
		{"BigInt", BigInt(big.NewInt(-7)), KindInteger},
		{"Bool", Bool(true), KindBoolean},
		{"Array", NewArray(nil), KindArray},
		{"Struct", NewStruct(nil), KindStruct},
		{"Map", NewMap(), KindMap},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.v.Kind() != tt.kind {
				t.Errorf("Kind() = %v, want %v", tt.v.Kind(), tt.kind)
			}
			if got, want := tt.v.IsCompound(), tt.kind >= KindArray; got != want {
				t.Errorf("IsCompound() = %v, want %v", got, want)
			}
		})
	}
}

func TestIntEncoding(t *testing.T) {
	tests := []struct {
		n    int64
		want []byte
	}{
		{0, []byte{}},
		{1, []byte{0x01}},
		{-1, []byte{0xff}},
		{127, []byte{0x7f}},
		{128, []byte{0x80, 0x00}},
		{-128, []byte{0x80}},
		{-129, []byte{0x7f, 0xff}},
		{255, []byte{0xff, 0x00}},
		{256, []byte{0x00, 0x01}},
		{-32768, []byte{0x00, 0x80}},
		{1468595301, []byte{0x65, 0xfc, 0x88, 0x57}},
	}

	for _, tt := range tests {
		got := IntToBytes(big.NewInt(tt.n))
		if !bytes.Equal(got, tt.want) {
			t.Errorf("IntToBytes(%d) = %x, want %x", tt.n, got, tt.want)
		}
		if back := BytesToInt(got); back.Int64() != tt.n {
			t.Errorf("BytesToInt(%x) = %s, want %d", got, back, tt.n)
		}
	}
}

func TestBytesToIntNonMinimal(t *testing.T) {
	if got := BytesToInt([]byte{0x05, 0x00, 0x00}); got.Int64() != 5 {
		t.Errorf("BytesToInt(050000) = %s, want 5", got)
	}
	if got := BytesToInt([]byte{0xff, 0xff}); got.Int64() != -1 {
		t.Errorf("BytesToInt(ffff) = %s, want -1", got)
	}
}

func TestConversions(t *testing.T) {
	b, err := Bool(true).Bytes()
	if err != nil || !bytes.Equal(b, []byte{1}) {
		t.Errorf("Bool(true).Bytes() = %x, %v", b, err)
	}
	b, err = Bool(false).Bytes()
	if err != nil || len(b) != 0 {
		t.Errorf("Bool(false).Bytes() = %x, %v", b, err)
	}
	n, err := Str("\x2a").BigInt()
	if err != nil || n.Int64() != 42 {
		t.Errorf("BigInt() = %v, %v", n, err)
	}
	n, err = Bool(true).BigInt()
	if err != nil || n.Int64() != 1 {
		t.Errorf("Bool(true).BigInt() = %v, %v", n, err)
	}

	if _, err := NewArray(nil).Bytes(); !errors.Is(err, ErrNotPrimitive) {
		t.Errorf("Array.Bytes() error = %v, want ErrNotPrimitive", err)
	}
	if _, err := NewMap().BigInt(); !errors.Is(err, ErrNotPrimitive) {
		t.Errorf("Map.BigInt() error = %v, want ErrNotPrimitive", err)
	}
}

func TestBool(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want bool
	}{
		{"empty bytes", Bytes(nil), false},
		{"zero bytes", Bytes([]byte{0, 0}), false},
		{"nonzero bytes", Bytes([]byte{0, 1}), true},
		{"zero", Int(0), false},
		{"negative", Int(-3), true},
		{"false", Bool(false), false},
		{"empty array", NewArray(nil), true},
		{"map", NewMap(), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.Bool(); got != tt.want {
				t.Errorf("Bool() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEquals(t *testing.T) {
	arr := NewArray([]Value{Int(1)})
	m := NewMap()

	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"int and bytes", Int(1), Bytes([]byte{1}), true},
		{"true and one", Bool(true), Int(1), true},
		{"zero and empty", Int(0), Str(""), true},
		{"different strings", Str("a"), Str("b"), false},
		{"same array", arr, arr, true},
		{"equal arrays", arr, NewArray([]Value{Int(1)}), false},
		{"array and struct", arr, NewStruct([]Value{Int(1)}), false},
		{"equal structs", NewStruct([]Value{Int(1), Str("x")}), NewStruct([]Value{Int(1), Str("x")}), true},
		{"different structs", NewStruct([]Value{Int(1)}), NewStruct([]Value{Int(2)}), false},
		{"same map", m, m, true},
		{"different maps", m, NewMap(), false},
		{"map and bytes", m, Str(""), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equals(tt.b); got != tt.want {
				t.Errorf("Equals() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSharedStorage(t *testing.T) {
	a := NewArray([]Value{Int(1)})
	alias := a
	alias.Array().Items = append(alias.Array().Items, Int(2))
	if len(a.Array().Items) != 2 {
		t.Errorf("array copy does not share storage: %v", a)
	}

	s := NewStruct([]Value{Int(1), NewStruct([]Value{Int(2)})})
	c := s.Clone()
	c.Array().Items[1].Array().Items[0] = Int(9)
	if n, _ := s.Array().Items[1].Array().Items[0].BigInt(); n.Int64() != 2 {
		t.Error("Clone of a struct shares nested storage")
	}
	if a.Clone().Array() != a.Array() {
		t.Error("Clone of an array copied its storage")
	}
}

func TestMap(t *testing.T) {
	v := NewMap()
	m := v.Map()

	mustSet := func(k, val Value) {
		t.Helper()
		if err := m.Set(k, val); err != nil {
			t.Fatalf("Set(%v): %v", k, err)
		}
	}
	mustSet(Str("b"), Int(1))
	mustSet(Str("a"), Int(2))
	mustSet(Int(7), Int(3))
	mustSet(Str("b"), Int(4)) // keeps its position

	if m.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", m.Len())
	}
	keys := m.Keys()
	if s, _ := keys[0].Bytes(); string(s) != "b" {
		t.Errorf("first key = %v, want b", keys[0])
	}
	if keys[2].Kind() != KindInteger {
		t.Errorf("third key kind = %v, want the original Integer", keys[2].Kind())
	}
	if n, _ := m.Values()[0].BigInt(); n.Int64() != 4 {
		t.Errorf("first value = %v, want 4", m.Values()[0])
	}

	// Keys compare by byte encoding
	got, ok, err := m.Get(Bytes([]byte{7}))
	if err != nil || !ok {
		t.Fatalf("Get(7 as bytes) = %v, %v, %v", got, ok, err)
	}

	if err := m.Remove(Str("a")); err != nil {
		t.Fatal(err)
	}
	if err := m.Remove(Str("missing")); err != nil {
		t.Errorf("Remove(missing) = %v, want nil", err)
	}
	if _, ok, _ := m.Get(Str("a")); ok || m.Len() != 2 {
		t.Errorf("after Remove: ok=%v len=%d", ok, m.Len())
	}

	if err := m.Set(NewArray(nil), Int(1)); !errors.Is(err, ErrNotPrimitive) {
		t.Errorf("Set(array key) error = %v, want ErrNotPrimitive", err)
	}
}

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindByteArray, "ByteArray"},
		{KindInteger, "Integer"},
		{KindBoolean, "Boolean"},
		{KindArray, "Array"},
		{KindStruct, "Struct"},
		{KindMap, "Map"},
		{Kind(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestValueString(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Str("ab"), "Bytes(6162)"},
		{Int(-5), "Int(-5)"},
		{Bool(true), "Bool(true)"},
		{NewArray([]Value{Int(1), Bool(false)}), "Array[Int(1) Bool(false)]"},
		{NewStruct(nil), "Struct[]"},
		{NewMap(), "Map(0)"},
	}
	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
