package compiler

import (
	"math"
	"sort"

	"github.com/kolkov/neoc/internal/opcode"
)

const (
	// islandReach is how far from a jump its stub may be placed. It stays
	// below the int16 limit so islands inserted between the two in later
	// rounds rarely push the stub out of range again.
	islandReach = 24000

	maxIslandRounds = 64
)

// island is a block of far-jump stubs placed between two instructions.
// Straight-line code skips it:
//
//	JMP over
//	JMP target1   <- stub for target1
//	JMP target2   <- stub for target2
//	over:
type island struct {
	start *ProgramCounter
	over  *ProgramCounter
	stubs map[int]*ProgramCounter // target label index -> stub
	at    int                     // insertion index while pending, else -1
}

// insertion is an instruction queued in front of an existing one.
type insertion struct {
	in    instruction
	label *ProgramCounter // marked at the inserted instruction
}

// resolveLongJumps routes every jump whose target lies outside int16 range
// through a stub: a plain JMP to the far target sitting in an island near
// the jump. CALL works through a stub too, since the return address is the
// one after the CALL. A stub that is itself too far from its target is
// routed the same way, so the pass repeats until every jump fits.
func (sb *ScriptBuilder) resolveLongJumps() {
	for round := 0; ; round++ {
		sb.layout()
		var far []int
		for i := range sb.code {
			if !sb.fits(&sb.code[i]) {
				far = append(far, i)
			}
		}
		if len(far) == 0 {
			if round > 0 {
				log.Debug("long jumps", "rounds", round, "islands", len(sb.islands), "bytes", sb.size)
			}
			return
		}
		if round == maxIslandRounds {
			in := &sb.code[far[0]]
			sb.fatal(in.node, "%d jumps still out of range after %d rounds", len(far), round)
		}

		inserts := map[int][]insertion{}
		created := map[int]*island{}
		for _, i := range far {
			in := &sb.code[i]
			target := in.target.index
			is := sb.islandFor(in.offset, sb.addressOf(&sb.labels[target]), inserts, created)
			stub, ok := is.stubs[target]
			if !ok {
				stub = sb.newLabel("stub")
				is.stubs[target] = stub
				k := is.at
				if k < 0 {
					k = sb.labels[is.over.index].at
				}
				inserts[k] = append(inserts[k], insertion{
					in:    instruction{op: opcode.JMP, operand: make([]byte, opcode.JumpSize-1), target: &ProgramCounter{index: target}, unit: in.unit},
					label: stub,
				})
			}
			in.target = stub
		}
		sb.insert(inserts, created)
	}
}

// fits reports whether a jump reaches its target directly. Unmarked
// targets are left for patchJumps to report.
func (sb *ScriptBuilder) fits(in *instruction) bool {
	if in.target == nil {
		return true
	}
	l := &sb.labels[in.target.index]
	if l.at < 0 {
		return true
	}
	rel := sb.addressOf(l) - in.offset
	return rel >= math.MinInt16 && rel <= math.MaxInt16
}

// islandFor returns the island a jump at from uses on its way to to: the
// farthest one in that direction between half and full islandReach away,
// or a new island created at the farthest instruction boundary in reach.
// The lower bound keeps a stub from picking its own island.
func (sb *ScriptBuilder) islandFor(from, to int, inserts map[int][]insertion, created map[int]*island) *island {
	forward := to > from
	var best *island
	bestDist := 0
	for _, is := range sb.islands {
		addr := sb.islandAddr(is)
		dist := addr - from
		if !forward {
			dist = -dist
		}
		if dist < islandReach/2 || dist > islandReach {
			continue
		}
		if dist > bestDist {
			best, bestDist = is, dist
		}
	}
	if best != nil {
		return best
	}

	var k int
	if forward {
		k = sort.Search(len(sb.code), func(j int) bool { return sb.code[j].offset > from+islandReach }) - 1
	} else {
		k = sort.Search(len(sb.code), func(j int) bool { return sb.code[j].offset >= from-islandReach })
	}
	if is := created[k]; is != nil {
		return is
	}
	is := &island{
		start: sb.newLabel("island"),
		over:  sb.newLabel("island end"),
		stubs: map[int]*ProgramCounter{},
		at:    k,
	}
	inserts[k] = append(inserts[k], insertion{
		in:    instruction{op: opcode.JMP, operand: make([]byte, opcode.JumpSize-1), target: is.over, unit: sb.code[k].unit},
		label: is.start,
	})
	created[k] = is
	sb.islands = append(sb.islands, is)
	return is
}

// islandAddr is the address of an island, or of the instruction it will be
// inserted before.
func (sb *ScriptBuilder) islandAddr(is *island) int {
	if is.at >= 0 {
		return sb.code[is.at].offset
	}
	return sb.addressOf(&sb.labels[is.start.index])
}

// insert splices queued instructions into the buffer. Labels keep pointing
// at the instructions they marked, which now follow any inserted block.
func (sb *ScriptBuilder) insert(inserts map[int][]insertion, created map[int]*island) {
	type mark struct {
		pc *ProgramCounter
		at int
	}
	extra := 0
	for _, list := range inserts {
		extra += len(list)
	}
	out := make([]instruction, 0, len(sb.code)+extra)
	newIndex := make([]int, len(sb.code)+1)
	var marks []mark
	for k := 0; k <= len(sb.code); k++ {
		for _, ins := range inserts[k] {
			marks = append(marks, mark{ins.label, len(out)})
			out = append(out, ins.in)
		}
		newIndex[k] = len(out)
		if is := created[k]; is != nil {
			marks = append(marks, mark{is.over, len(out)})
			is.at = -1
		}
		if k < len(sb.code) {
			out = append(out, sb.code[k])
		}
	}
	for i := range sb.labels {
		if at := sb.labels[i].at; at >= 0 {
			sb.labels[i].at = newIndex[at]
		}
	}
	for _, m := range marks {
		sb.labels[m.pc.index].at = m.at
	}
	sb.code = out
}
