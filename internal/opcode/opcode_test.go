package opcode

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		script  []byte
		op      Opcode
		operand []byte
		size    int
	}{
		{"push0", []byte{byte(PUSH0)}, PUSH0, nil, 1},
		{"pushbytes", []byte{3, 'a', 'b', 'c'}, Opcode(3), []byte("abc"), 4},
		{"pushdata1", []byte{byte(PUSHDATA1), 2, 'x', 'y'}, PUSHDATA1, []byte("xy"), 4},
		{"pushdata2", []byte{byte(PUSHDATA2), 1, 0, 'z'}, PUSHDATA2, []byte("z"), 4},
		{"pushdata4", []byte{byte(PUSHDATA4), 1, 0, 0, 0, 'w'}, PUSHDATA4, []byte("w"), 6},
		{"jmp", []byte{byte(JMP), 0xfe, 0xff}, JMP, []byte{0xfe, 0xff}, 3},
		{"syscall", []byte{byte(SYSCALL), 2, 'A', 'B'}, SYSCALL, []byte("AB"), 4},
		{"add", []byte{byte(ADD)}, ADD, nil, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := Decode(tt.script, 0)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if in.Op != tt.op || in.Size != tt.size || !bytes.Equal(in.Operand, tt.operand) {
				t.Errorf("Decode() = %+v", in)
			}
		})
	}
}

func TestDecodeTruncated(t *testing.T) {
	scripts := [][]byte{
		{5, 'a'},
		{byte(PUSHDATA1)},
		{byte(PUSHDATA2), 9},
		{byte(JMP), 1},
		{byte(SYSCALL)},
		{byte(SYSCALL), 4, 'a'},
	}
	for _, s := range scripts {
		if _, err := Decode(s, 0); !errors.Is(err, ErrTruncated) {
			t.Errorf("Decode(%x) error = %v, want ErrTruncated", s, err)
		}
	}
	if _, err := Decode([]byte{byte(NOP)}, 1); !errors.Is(err, ErrTruncated) {
		t.Errorf("Decode past end error = %v", err)
	}
}

func TestJumpTarget(t *testing.T) {
	script := []byte{byte(NOP), byte(NOP), byte(JMP), 0xfe, 0xff}
	in, err := Decode(script, 2)
	if err != nil {
		t.Fatal(err)
	}
	if got := in.JumpTarget(); got != 0 {
		t.Errorf("JumpTarget() = %d, want 0", got)
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		op   Opcode
		want string
	}{
		{PUSH0, "PUSH0"},
		{Opcode(20), "PUSHBYTES20"},
		{PUSH16, "PUSH16"},
		{PICKITEM, "PICKITEM"},
		{Opcode(0xFF), "Opcode(0xFF)"},
	}
	for _, tt := range tests {
		if got := tt.op.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
	if Opcode(0xFF).Valid() || !THROW.Valid() || !Opcode(75).Valid() {
		t.Error("Valid() mismatch")
	}
	if !CALL.IsJump() || RET.IsJump() {
		t.Error("IsJump() mismatch")
	}
}

func TestDisassemble(t *testing.T) {
	script := []byte{
		byte(PUSH1),
		2, 'h', 'i',
		byte(JMP), 3, 0,
		byte(SYSCALL), 3, 'L', 'o', 'g',
		byte(RET),
	}
	var buf bytes.Buffer
	if err := Disassemble(&buf, script); err != nil {
		t.Fatalf("Disassemble() error = %v", err)
	}
	want := strings.Join([]string{
		"0000: PUSH1",
		"0001: PUSHBYTES2 0x6869",
		"0004: JMP -> 0007",
		"0007: SYSCALL \"Log\"",
		"0012: RET",
		"",
	}, "\n")
	if buf.String() != want {
		t.Errorf("Disassemble() =\n%s\nwant\n%s", buf.String(), want)
	}

	if err := Disassemble(&buf, []byte{byte(JMP)}); !errors.Is(err, ErrTruncated) {
		t.Errorf("truncated listing error = %v", err)
	}
}
