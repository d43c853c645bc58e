package opcode

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrTruncated is returned when an operand runs past the end of the script.
var ErrTruncated = errors.New("truncated instruction")

// Instruction is a decoded instruction.
type Instruction struct {
	Offset  int    // Address of the opcode byte
	Op      Opcode // The opcode
	Operand []byte // Raw operand bytes (push payload, jump offset, syscall name)
	Size    int    // Total encoded size including the opcode byte
}

// JumpTarget returns the absolute address a jump instruction transfers to.
func (in Instruction) JumpTarget() int {
	return in.Offset + int(int16(binary.LittleEndian.Uint16(in.Operand)))
}

// Decode decodes the instruction at ip.
func Decode(script []byte, ip int) (Instruction, error) {
	if ip < 0 || ip >= len(script) {
		return Instruction{}, fmt.Errorf("decode at %d: %w", ip, ErrTruncated)
	}
	op := Opcode(script[ip])
	in := Instruction{Offset: ip, Op: op, Size: 1}

	need := func(start, n int) error {
		if start+n > len(script) {
			return fmt.Errorf("%s at %d: %w", op, ip, ErrTruncated)
		}
		in.Operand = script[start : start+n]
		in.Size = start + n - ip
		return nil
	}

	switch {
	case op >= PUSHBYTES1 && op <= PUSHBYTES75:
		return in, need(ip+1, int(op))
	case op == PUSHDATA1:
		if ip+2 > len(script) {
			return in, fmt.Errorf("%s at %d: %w", op, ip, ErrTruncated)
		}
		return in, need(ip+2, int(script[ip+1]))
	case op == PUSHDATA2:
		if ip+3 > len(script) {
			return in, fmt.Errorf("%s at %d: %w", op, ip, ErrTruncated)
		}
		return in, need(ip+3, int(binary.LittleEndian.Uint16(script[ip+1:])))
	case op == PUSHDATA4:
		if ip+5 > len(script) {
			return in, fmt.Errorf("%s at %d: %w", op, ip, ErrTruncated)
		}
		return in, need(ip+5, int(binary.LittleEndian.Uint32(script[ip+1:])))
	case op.IsJump():
		return in, need(ip+1, 2)
	case op == SYSCALL:
		if ip+2 > len(script) {
			return in, fmt.Errorf("%s at %d: %w", op, ip, ErrTruncated)
		}
		return in, need(ip+2, int(script[ip+1]))
	}
	return in, nil
}

// Disassemble writes a listing of script to w, one instruction per line.
func Disassemble(w io.Writer, script []byte) error {
	for ip := 0; ip < len(script); {
		in, err := Decode(script, ip)
		if err != nil {
			return err
		}
		var sb strings.Builder
		fmt.Fprintf(&sb, "%04d: %s", in.Offset, in.Op)
		switch {
		case in.Op.IsJump():
			fmt.Fprintf(&sb, " -> %04d", in.JumpTarget())
		case in.Op == SYSCALL:
			fmt.Fprintf(&sb, " %q", string(in.Operand))
		case len(in.Operand) > 0:
			fmt.Fprintf(&sb, " 0x%x", in.Operand)
		}
		sb.WriteByte('\n')
		if _, err := io.WriteString(w, sb.String()); err != nil {
			return err
		}
		ip += in.Size
	}
	return nil
}
