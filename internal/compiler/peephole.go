package compiler

import "github.com/kolkov/neoc/internal/opcode"

// optimize is the peephole pass. It runs on the instruction buffer before
// jumps are patched, so removing an instruction only means moving the
// labels that point at it to the next surviving instruction.
//
// Rewrites:
//
//	JMP next          -> (nothing)
//	DUP DROP          -> (nothing)
//	SWAP SWAP         -> (nothing)
//	<push> DROP       -> (nothing)
//
// A pair is only removed when no label points between its instructions.
func (sb *ScriptBuilder) optimize() int {
	removed := 0
	for {
		n := sb.optimizePass()
		if n == 0 {
			break
		}
		removed += n
	}
	if removed > 0 {
		log.Debug("peephole", "removed", removed, "instructions", len(sb.code))
	}
	return removed
}

func (sb *ScriptBuilder) optimizePass() int {
	code := sb.code
	labeled := make([]bool, len(code)+1)
	for _, l := range sb.labels {
		if l.at >= 0 {
			labeled[l.at] = true
		}
	}

	keep := make([]bool, len(code))
	for i := range keep {
		keep[i] = true
	}
	removed := 0
	for i := 0; i < len(code); i++ {
		in := &code[i]
		if in.op == opcode.JMP && sb.labels[in.target.index].at == i+1 {
			keep[i] = false
			removed++
			continue
		}
		if i+1 >= len(code) || labeled[i+1] {
			continue
		}
		next := code[i+1].op
		if isPairNoop(in.op, next) {
			keep[i], keep[i+1] = false, false
			removed += 2
			i++
		}
	}
	if removed == 0 {
		return 0
	}

	// newIndex[i] is the index instruction i (or its successor) gets.
	newIndex := make([]int, len(code)+1)
	out := code[:0:0]
	for i := range code {
		newIndex[i] = len(out)
		if keep[i] {
			out = append(out, code[i])
		}
	}
	newIndex[len(code)] = len(out)
	for i := range sb.labels {
		if at := sb.labels[i].at; at >= 0 {
			sb.labels[i].at = newIndex[at]
		}
	}
	sb.code = out
	return removed
}

func isPairNoop(first, second opcode.Opcode) bool {
	switch {
	case first == opcode.DUP && second == opcode.DROP:
		return true
	case first == opcode.SWAP && second == opcode.SWAP:
		return true
	case second == opcode.DROP && isPlainPush(first):
		return true
	}
	return false
}

// isPlainPush reports whether op pushes a constant and does nothing else.
func isPlainPush(op opcode.Opcode) bool {
	switch {
	case op <= opcode.PUSHDATA4:
		return true
	case op == opcode.PUSHM1:
		return true
	case op >= opcode.PUSH1 && op <= opcode.PUSH16:
		return true
	}
	return false
}
