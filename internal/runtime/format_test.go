package runtime

import (
	"bytes"
	"strings"
	"testing"

	"github.com/kolkov/neoc/internal/opcode"
	"github.com/kolkov/neoc/internal/types"
	"github.com/kolkov/neoc/internal/vm"
)

func box(tag int64, payload types.Value) types.Value {
	return types.NewArray([]types.Value{types.Int(tag), payload})
}

func str(s string) types.Value { return box(tagString, types.Str(s)) }
func num(n int64) types.Value  { return box(tagNumber, types.Int(n)) }

// object builds an object payload with the given own properties.
func object(internal map[string]types.Value, keys []string, values ...types.Value) types.Value {
	props := types.NewMap()
	for i, k := range keys {
		props.Map().Set(types.Str(k), values[i])
	}
	in := types.NewMap()
	for k, v := range internal {
		in.Map().Set(types.Str(k), v)
	}
	slots := []types.Value{props, box(tagNull, types.Int(0)), in, types.NewMap()}
	return box(tagObject, types.NewArray(slots))
}

func TestFormat(t *testing.T) {
	set := types.NewMap()
	set.Map().Set(types.Str("\x05\x01"), num(1))
	set.Map().Set(types.Str("\x03a"), str("a"))

	m := types.NewMap()
	m.Map().Set(types.Str("\x03k"), types.NewArray([]types.Value{str("k"), num(2)}))

	tests := []struct {
		name  string
		value types.Value
		want  string
	}{
		{"undefined", box(tagUndefined, types.Int(0)), "undefined"},
		{"null", box(tagNull, types.Int(0)), "null"},
		{"true", box(tagBoolean, types.Bool(true)), "true"},
		{"false int", box(tagBoolean, types.Int(0)), "false"},
		{"string", str("hello"), "hello"},
		{"empty string", str(""), ""},
		{"number", num(-42), "-42"},
		{"symbol", box(tagSymbol, types.Str("tag")), "Symbol(tag)"},
		{"empty array", box(tagArray, types.NewArray(nil)), "[]"},
		{"array", box(tagArray, types.NewArray([]types.Value{num(1), str("x")})), "[ 1, 'x' ]"},
		{"empty object", object(nil, nil), "{}"},
		{"object", object(nil, []string{"a", "b"}, num(1), str("y")), "{ a: 1, b: 'y' }"},
		{"function", object(map[string]types.Value{"call": types.Int(0)}, []string{"prototype"}, num(0)), "[Function]"},
		{"class", object(map[string]types.Value{"call": types.Int(0), "construct": types.Int(1)}, nil), "[class]"},
		{"error", object(map[string]types.Value{"error": types.Str("TypeError")}, []string{"message"}, str("bad")), "TypeError: bad"},
		{"error without message", object(map[string]types.Value{"error": types.Str("Error")}, []string{"message"}, str("")), "Error"},
		{"set", box(tagSet, set), "Set(2) { 1, 'a' }"},
		{"map", box(tagMap, m), "Map(1) { 'k' => 2 }"},
		{"empty map", box(tagMap, types.NewMap()), "Map(0) {}"},
		{"raw integer", types.Int(7), "7"},
		{"raw negative integer", types.Int(-12), "-12"},
		{"raw bytes", types.Str("plain"), "plain"},
		{"raw boolean", types.Bool(true), "true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(tt.value); got != tt.want {
				t.Errorf("Format() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatDepth(t *testing.T) {
	v := num(1)
	for i := 0; i < maxDepth+2; i++ {
		v = box(tagArray, types.NewArray([]types.Value{v}))
	}
	got := Format(v)
	if !strings.Contains(got, "[Array]") {
		t.Errorf("Format() = %q, want a depth placeholder", got)
	}
}

func TestFormatArgs(t *testing.T) {
	args := types.NewArray([]types.Value{str("a"), num(2), box(tagUndefined, types.Int(0))})
	if got, want := FormatArgs(args), "a 2 undefined"; got != want {
		t.Errorf("FormatArgs() = %q, want %q", got, want)
	}
	if got := FormatArgs(types.NewArray(nil)); got != "" {
		t.Errorf("FormatArgs(empty) = %q, want empty", got)
	}
}

func TestConsole(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)
	c.Println("one")
	c.PrintValues([]types.Value{types.NewArray([]types.Value{num(2)})})
	if err := c.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if got, want := buf.String(), "one\n2\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
	if got := c.Lines(); len(got) != 2 || got[1] != "2" {
		t.Errorf("Lines() = %q", got)
	}
}

func TestConsoleAttach(t *testing.T) {
	syscall := func(name string) []byte {
		return append([]byte{byte(opcode.SYSCALL), byte(len(name))}, name...)
	}
	push := func(s string) []byte {
		return append([]byte{byte(len(s))}, s...)
	}

	var script []byte
	script = append(script, push("first")...)
	script = append(script, syscall(vm.SyscallLog)...)
	// Notify [ [3, "second"] ]
	script = append(script, push("second")...)
	script = append(script, byte(opcode.PUSH3), byte(opcode.PUSH2), byte(opcode.PACK))
	script = append(script, byte(opcode.PUSH1), byte(opcode.PACK))
	script = append(script, syscall(vm.SyscallNotify)...)
	script = append(script, byte(opcode.RET))

	c := NewConsole(nil)
	m := vm.New(script, vm.Config{})
	c.Attach(m)
	if err := m.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := c.Lines()
	want := []string{"first", "second"}
	if len(got) != len(want) {
		t.Fatalf("Lines() = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
	if n := len(m.Notifications()); n != 0 {
		t.Errorf("VM recorded %d notifications, want none with the console attached", n)
	}
}
