// Package opcode defines the instruction set of the target stack machine.
//
// Numbering and operand layout follow the NEO 2.x virtual machine and are a
// fixed contract: the compiler emits these bytes and the reference VM in
// internal/vm executes them.
package opcode

import "fmt"

// Opcode is a single instruction byte.
type Opcode byte

const (
	// Constants
	PUSH0       Opcode = 0x00 // Push an empty byte array
	PUSHBYTES1  Opcode = 0x01 // Push the next byte
	PUSHBYTES75 Opcode = 0x4B // Push the next 75 bytes
	PUSHDATA1   Opcode = 0x4C // Next byte is the payload length
	PUSHDATA2   Opcode = 0x4D // Next two bytes are the payload length
	PUSHDATA4   Opcode = 0x4E // Next four bytes are the payload length
	PUSHM1      Opcode = 0x4F // Push -1
	PUSH1       Opcode = 0x51 // Push 1
	PUSH2       Opcode = 0x52
	PUSH3       Opcode = 0x53
	PUSH4       Opcode = 0x54
	PUSH5       Opcode = 0x55
	PUSH6       Opcode = 0x56
	PUSH7       Opcode = 0x57
	PUSH8       Opcode = 0x58
	PUSH9       Opcode = 0x59
	PUSH10      Opcode = 0x5A
	PUSH11      Opcode = 0x5B
	PUSH12      Opcode = 0x5C
	PUSH13      Opcode = 0x5D
	PUSH14      Opcode = 0x5E
	PUSH15      Opcode = 0x5F
	PUSH16      Opcode = 0x60

	// Flow control
	NOP      Opcode = 0x61
	JMP      Opcode = 0x62 // JMP offset(int16)
	JMPIF    Opcode = 0x63 // JMPIF offset(int16)
	JMPIFNOT Opcode = 0x64 // JMPIFNOT offset(int16)
	CALL     Opcode = 0x65 // CALL offset(int16)
	RET      Opcode = 0x66
	SYSCALL  Opcode = 0x68 // SYSCALL len(byte) name

	// Stack
	DUPFROMALTSTACK Opcode = 0x6A
	TOALTSTACK      Opcode = 0x6B
	FROMALTSTACK    Opcode = 0x6C
	XDROP           Opcode = 0x6D
	XSWAP           Opcode = 0x72
	XTUCK           Opcode = 0x73
	DEPTH           Opcode = 0x74
	DROP            Opcode = 0x75
	DUP             Opcode = 0x76
	NIP             Opcode = 0x77
	OVER            Opcode = 0x78
	PICK            Opcode = 0x79
	ROLL            Opcode = 0x7A
	ROT             Opcode = 0x7B
	SWAP            Opcode = 0x7C
	TUCK            Opcode = 0x7D

	// Splice
	CAT    Opcode = 0x7E
	SUBSTR Opcode = 0x7F
	LEFT   Opcode = 0x80
	RIGHT  Opcode = 0x81
	SIZE   Opcode = 0x82

	// Bitwise logic
	INVERT Opcode = 0x83
	AND    Opcode = 0x84
	OR     Opcode = 0x85
	XOR    Opcode = 0x86
	EQUAL  Opcode = 0x87

	// Arithmetic
	INC         Opcode = 0x8B
	DEC         Opcode = 0x8C
	SIGN        Opcode = 0x8D
	NEGATE      Opcode = 0x8F
	ABS         Opcode = 0x90
	NOT         Opcode = 0x91
	NZ          Opcode = 0x92
	ADD         Opcode = 0x93
	SUB         Opcode = 0x94
	MUL         Opcode = 0x95
	DIV         Opcode = 0x96
	MOD         Opcode = 0x97
	SHL         Opcode = 0x98
	SHR         Opcode = 0x99
	BOOLAND     Opcode = 0x9A
	BOOLOR      Opcode = 0x9B
	NUMEQUAL    Opcode = 0x9C
	NUMNOTEQUAL Opcode = 0x9E
	LT          Opcode = 0x9F
	GT          Opcode = 0xA0
	LTE         Opcode = 0xA1
	GTE         Opcode = 0xA2
	MIN         Opcode = 0xA3
	MAX         Opcode = 0xA4
	WITHIN      Opcode = 0xA5

	// Crypto
	SHA256 Opcode = 0xA8

	// Collections
	ARRAYSIZE Opcode = 0xC0
	PACK      Opcode = 0xC1
	UNPACK    Opcode = 0xC2
	PICKITEM  Opcode = 0xC3
	SETITEM   Opcode = 0xC4
	NEWARRAY  Opcode = 0xC5
	NEWSTRUCT Opcode = 0xC6
	NEWMAP    Opcode = 0xC7
	APPEND    Opcode = 0xC8
	REVERSE   Opcode = 0xC9
	REMOVE    Opcode = 0xCA
	HASKEY    Opcode = 0xCB
	KEYS      Opcode = 0xCC
	VALUES    Opcode = 0xCD

	// Exceptions
	THROW      Opcode = 0xF0
	THROWIFNOT Opcode = 0xF1
)

// JumpSize is the encoded size of every jump and call instruction.
const JumpSize = 3

var names = map[Opcode]string{
	PUSH0: "PUSH0", PUSHDATA1: "PUSHDATA1", PUSHDATA2: "PUSHDATA2", PUSHDATA4: "PUSHDATA4",
	PUSHM1: "PUSHM1", NOP: "NOP", JMP: "JMP", JMPIF: "JMPIF", JMPIFNOT: "JMPIFNOT",
	CALL: "CALL", RET: "RET", SYSCALL: "SYSCALL",
	DUPFROMALTSTACK: "DUPFROMALTSTACK", TOALTSTACK: "TOALTSTACK", FROMALTSTACK: "FROMALTSTACK",
	XDROP: "XDROP", XSWAP: "XSWAP", XTUCK: "XTUCK", DEPTH: "DEPTH", DROP: "DROP", DUP: "DUP",
	NIP: "NIP", OVER: "OVER", PICK: "PICK", ROLL: "ROLL", ROT: "ROT", SWAP: "SWAP", TUCK: "TUCK",
	CAT: "CAT", SUBSTR: "SUBSTR", LEFT: "LEFT", RIGHT: "RIGHT", SIZE: "SIZE",
	INVERT: "INVERT", AND: "AND", OR: "OR", XOR: "XOR", EQUAL: "EQUAL",
	INC: "INC", DEC: "DEC", SIGN: "SIGN", NEGATE: "NEGATE", ABS: "ABS", NOT: "NOT", NZ: "NZ",
	ADD: "ADD", SUB: "SUB", MUL: "MUL", DIV: "DIV", MOD: "MOD", SHL: "SHL", SHR: "SHR",
	BOOLAND: "BOOLAND", BOOLOR: "BOOLOR", NUMEQUAL: "NUMEQUAL", NUMNOTEQUAL: "NUMNOTEQUAL",
	LT: "LT", GT: "GT", LTE: "LTE", GTE: "GTE", MIN: "MIN", MAX: "MAX", WITHIN: "WITHIN",
	SHA256: "SHA256",
	ARRAYSIZE: "ARRAYSIZE", PACK: "PACK", UNPACK: "UNPACK", PICKITEM: "PICKITEM",
	SETITEM: "SETITEM", NEWARRAY: "NEWARRAY", NEWSTRUCT: "NEWSTRUCT", NEWMAP: "NEWMAP",
	APPEND: "APPEND", REVERSE: "REVERSE", REMOVE: "REMOVE", HASKEY: "HASKEY",
	KEYS: "KEYS", VALUES: "VALUES",
	THROW: "THROW", THROWIFNOT: "THROWIFNOT",
}

// String returns the mnemonic of the opcode.
func (op Opcode) String() string {
	if op >= PUSHBYTES1 && op <= PUSHBYTES75 {
		return fmt.Sprintf("PUSHBYTES%d", int(op))
	}
	if op >= PUSH1 && op <= PUSH16 {
		return fmt.Sprintf("PUSH%d", int(op-PUSH1)+1)
	}
	if name, ok := names[op]; ok {
		return name
	}
	return fmt.Sprintf("Opcode(0x%02X)", byte(op))
}

// Valid reports whether op is part of the instruction set.
func (op Opcode) Valid() bool {
	if op >= PUSHBYTES1 && op <= PUSHBYTES75 {
		return true
	}
	if op >= PUSH1 && op <= PUSH16 {
		return true
	}
	_, ok := names[op]
	return ok
}

// IsJump reports whether op carries a relative int16 target.
func (op Opcode) IsJump() bool {
	switch op {
	case JMP, JMPIF, JMPIFNOT, CALL:
		return true
	}
	return false
}
