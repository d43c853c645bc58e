// Package vm implements a reference interpreter for the target instruction set.
//
// The interpreter follows NEO 2.x semantics: one evaluation stack and one alt
// stack shared by every call, a separate stack of return addresses, and
// arbitrary-precision integers. Scripts halt when RET executes with no pending
// return address and fault on THROW or on any invalid operation.
package vm

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"math/big"

	"github.com/tliron/commonlog"

	"github.com/kolkov/neoc/internal/opcode"
	"github.com/kolkov/neoc/internal/types"
)

var log = commonlog.GetLogger("neoc.vm")

// Error types
var (
	ErrStackUnderflow = errors.New("stack underflow")
	ErrStepLimit      = errors.New("step limit exceeded")
	ErrThrow          = errors.New("THROW")
	ErrUnknownSyscall = errors.New("unknown syscall")
)

// Stack size constant.
const (
	// DefaultStackSize is the initial stack capacity.
	DefaultStackSize = 256

	// DefaultMaxSteps bounds the number of executed instructions.
	DefaultMaxSteps = 1_000_000
)

// State is the execution state of a VM.
type State uint8

const (
	StateNone State = iota // Not started or still running
	StateHalt              // RET with an empty invocation stack
	StateFault             // THROW or invalid operation
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case StateHalt:
		return "HALT"
	case StateFault:
		return "FAULT"
	default:
		return "NONE"
	}
}

// FaultError describes why execution stopped in StateFault.
type FaultError struct {
	IP  int
	Op  opcode.Opcode
	Err error
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("fault at %04d (%s): %v", e.IP, e.Op, e.Err)
}

func (e *FaultError) Unwrap() error {
	return e.Err
}

// SyscallFunc implements an interop service. It may pop arguments and push results.
type SyscallFunc func(vm *VM) error

// Config holds VM configuration options.
type Config struct {
	// MaxSteps bounds the number of executed instructions (0 = DefaultMaxSteps).
	MaxSteps int
}

// VM is the stack machine.
type VM struct {
	script []byte

	// Evaluation stack (inline, sp is the index of the next free slot)
	stackData []types.Value
	sp        int

	altStack []types.Value
	returns  []int

	syscalls map[string]SyscallFunc

	state    State
	steps    int
	maxSteps int

	notifications []types.Value
	logs          []string
}

// New creates a VM for script with the standard syscalls registered.
func New(script []byte, config Config) *VM {
	maxSteps := config.MaxSteps
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	vm := &VM{
		script:    script,
		stackData: make([]types.Value, DefaultStackSize),
		syscalls:  map[string]SyscallFunc{},
		maxSteps:  maxSteps,
	}
	vm.registerStandardSyscalls()
	return vm
}

// Register installs or replaces a syscall.
func (vm *VM) Register(name string, fn SyscallFunc) {
	vm.syscalls[name] = fn
}

// State returns the execution state.
func (vm *VM) State() State {
	return vm.state
}

// Steps returns the number of executed instructions.
func (vm *VM) Steps() int {
	return vm.steps
}

// Depth returns the evaluation stack depth.
func (vm *VM) Depth() int {
	return vm.sp
}

// AltDepth returns the alt stack depth.
func (vm *VM) AltDepth() int {
	return len(vm.altStack)
}

// Stack returns a copy of the evaluation stack, bottom first.
func (vm *VM) Stack() []types.Value {
	out := make([]types.Value, vm.sp)
	copy(out, vm.stackData[:vm.sp])
	return out
}

// Notifications returns the items passed to System.Runtime.Notify, in order.
func (vm *VM) Notifications() []types.Value {
	return vm.notifications
}

// Logs returns the messages passed to System.Runtime.Log, in order.
func (vm *VM) Logs() []string {
	return vm.logs
}

// Push pushes an item onto the evaluation stack. Used by syscalls.
func (vm *VM) Push(v types.Value) {
	vm.push(v)
}

// Pop pops the top item. Used by syscalls.
func (vm *VM) Pop() (types.Value, error) {
	if vm.sp == 0 {
		return types.Value{}, ErrStackUnderflow
	}
	return vm.pop(), nil
}

func (vm *VM) push(v types.Value) {
	if vm.sp >= len(vm.stackData) {
		vm.growStack()
	}
	vm.stackData[vm.sp] = v
	vm.sp++
}

func (vm *VM) pop() types.Value {
	vm.sp--
	v := vm.stackData[vm.sp]
	vm.stackData[vm.sp] = types.Value{}
	return v
}

// peekN returns the value N positions from the top (0 = top).
func (vm *VM) peekN(n int) types.Value {
	return vm.stackData[vm.sp-1-n]
}

// need checks that at least n items are on the stack.
func (vm *VM) need(n int) error {
	if vm.sp < n {
		return ErrStackUnderflow
	}
	return nil
}

// insertAt inserts v so that it ends up n positions from the top.
func (vm *VM) insertAt(n int, v types.Value) {
	vm.push(types.Value{})
	idx := vm.sp - 1 - n
	copy(vm.stackData[idx+1:vm.sp], vm.stackData[idx:vm.sp-1])
	vm.stackData[idx] = v
}

// removeAt removes and returns the item n positions from the top.
func (vm *VM) removeAt(n int) types.Value {
	idx := vm.sp - 1 - n
	v := vm.stackData[idx]
	copy(vm.stackData[idx:vm.sp-1], vm.stackData[idx+1:vm.sp])
	vm.sp--
	vm.stackData[vm.sp] = types.Value{}
	return v
}

// growStack doubles the stack capacity.
func (vm *VM) growStack() {
	newData := make([]types.Value, len(vm.stackData)*2)
	copy(newData, vm.stackData)
	vm.stackData = newData
}

func (vm *VM) popInt() (*big.Int, error) {
	if vm.sp == 0 {
		return nil, ErrStackUnderflow
	}
	return vm.pop().BigInt()
}

func (vm *VM) popSmallInt() (int, error) {
	n, err := vm.popInt()
	if err != nil {
		return 0, err
	}
	if !n.IsInt64() || n.Int64() > int64(^uint32(0)>>1) || n.Int64() < -int64(^uint32(0)>>1) {
		return 0, fmt.Errorf("integer %s out of range", n)
	}
	return int(n.Int64()), nil
}

func (vm *VM) popBytes() ([]byte, error) {
	if vm.sp == 0 {
		return nil, ErrStackUnderflow
	}
	return vm.pop().Bytes()
}

func (vm *VM) popBool() (bool, error) {
	if vm.sp == 0 {
		return false, ErrStackUnderflow
	}
	return vm.pop().Bool(), nil
}

// Run executes the script from offset 0 until it halts or faults.
func (vm *VM) Run() error {
	vm.state = StateNone
	ip := 0
	for {
		if ip >= len(vm.script) {
			// Running off the end behaves like RET.
			if len(vm.returns) == 0 {
				vm.state = StateHalt
				return nil
			}
			ip = vm.returns[len(vm.returns)-1]
			vm.returns = vm.returns[:len(vm.returns)-1]
			continue
		}
		if vm.steps >= vm.maxSteps {
			return vm.fault(ip, opcode.Opcode(vm.script[ip]), ErrStepLimit)
		}
		vm.steps++

		in, err := opcode.Decode(vm.script, ip)
		if err != nil {
			return vm.fault(ip, opcode.Opcode(vm.script[ip]), err)
		}
		next, halt, err := vm.execute(in)
		if err != nil {
			return vm.fault(ip, in.Op, err)
		}
		if halt {
			vm.state = StateHalt
			return nil
		}
		ip = next
	}
}

func (vm *VM) fault(ip int, op opcode.Opcode, err error) error {
	vm.state = StateFault
	log.Debug("fault", "ip", ip, "op", op.String(), "error", err.Error())
	return &FaultError{IP: ip, Op: op, Err: err}
}

// execute runs one instruction and returns the next instruction pointer.
func (vm *VM) execute(in opcode.Instruction) (next int, halt bool, err error) {
	next = in.Offset + in.Size
	op := in.Op

	switch {
	case op == opcode.PUSH0:
		vm.push(types.Bytes([]byte{}))
		return next, false, nil
	case op >= opcode.PUSHBYTES1 && op <= opcode.PUSHDATA4:
		data := make([]byte, len(in.Operand))
		copy(data, in.Operand)
		vm.push(types.Bytes(data))
		return next, false, nil
	case op == opcode.PUSHM1:
		vm.push(types.Int(-1))
		return next, false, nil
	case op >= opcode.PUSH1 && op <= opcode.PUSH16:
		vm.push(types.Int(int64(op-opcode.PUSH1) + 1))
		return next, false, nil
	}

	switch op {
	case opcode.NOP:

	case opcode.JMP:
		return in.JumpTarget(), false, nil

	case opcode.JMPIF, opcode.JMPIFNOT:
		cond, err := vm.popBool()
		if err != nil {
			return 0, false, err
		}
		if cond == (op == opcode.JMPIF) {
			return in.JumpTarget(), false, nil
		}

	case opcode.CALL:
		vm.returns = append(vm.returns, next)
		return in.JumpTarget(), false, nil

	case opcode.RET:
		if len(vm.returns) == 0 {
			return 0, true, nil
		}
		next = vm.returns[len(vm.returns)-1]
		vm.returns = vm.returns[:len(vm.returns)-1]
		return next, false, nil

	case opcode.SYSCALL:
		fn, ok := vm.syscalls[string(in.Operand)]
		if !ok {
			return 0, false, fmt.Errorf("%w: %s", ErrUnknownSyscall, in.Operand)
		}
		if err := fn(vm); err != nil {
			return 0, false, fmt.Errorf("%s: %w", in.Operand, err)
		}

	case opcode.DUPFROMALTSTACK:
		if len(vm.altStack) == 0 {
			return 0, false, ErrStackUnderflow
		}
		vm.push(vm.altStack[len(vm.altStack)-1])

	case opcode.TOALTSTACK:
		if err := vm.need(1); err != nil {
			return 0, false, err
		}
		vm.altStack = append(vm.altStack, vm.pop())

	case opcode.FROMALTSTACK:
		if len(vm.altStack) == 0 {
			return 0, false, ErrStackUnderflow
		}
		vm.push(vm.altStack[len(vm.altStack)-1])
		vm.altStack = vm.altStack[:len(vm.altStack)-1]

	case opcode.XDROP, opcode.XSWAP, opcode.XTUCK, opcode.PICK, opcode.ROLL:
		n, err := vm.popSmallInt()
		if err != nil {
			return 0, false, err
		}
		if err := vm.indexed(op, n); err != nil {
			return 0, false, err
		}

	case opcode.DEPTH:
		vm.push(types.Int(int64(vm.sp)))

	case opcode.DROP:
		if err := vm.need(1); err != nil {
			return 0, false, err
		}
		vm.pop()

	case opcode.DUP:
		if err := vm.need(1); err != nil {
			return 0, false, err
		}
		vm.push(vm.peekN(0))

	case opcode.NIP:
		if err := vm.need(2); err != nil {
			return 0, false, err
		}
		vm.removeAt(1)

	case opcode.OVER:
		if err := vm.need(2); err != nil {
			return 0, false, err
		}
		vm.push(vm.peekN(1))

	case opcode.ROT:
		if err := vm.need(3); err != nil {
			return 0, false, err
		}
		vm.push(vm.removeAt(2))

	case opcode.SWAP:
		if err := vm.need(2); err != nil {
			return 0, false, err
		}
		vm.stackData[vm.sp-1], vm.stackData[vm.sp-2] = vm.stackData[vm.sp-2], vm.stackData[vm.sp-1]

	case opcode.TUCK:
		if err := vm.need(2); err != nil {
			return 0, false, err
		}
		vm.insertAt(2, vm.peekN(0))

	case opcode.CAT, opcode.SUBSTR, opcode.LEFT, opcode.RIGHT, opcode.SIZE:
		if err := vm.splice(op); err != nil {
			return 0, false, err
		}

	case opcode.EQUAL:
		if err := vm.need(2); err != nil {
			return 0, false, err
		}
		b := vm.pop()
		a := vm.pop()
		vm.push(types.Bool(a.Equals(b)))

	case opcode.NOT:
		b, err := vm.popBool()
		if err != nil {
			return 0, false, err
		}
		vm.push(types.Bool(!b))

	case opcode.BOOLAND, opcode.BOOLOR:
		y, err := vm.popBool()
		if err != nil {
			return 0, false, err
		}
		x, err := vm.popBool()
		if err != nil {
			return 0, false, err
		}
		if op == opcode.BOOLAND {
			vm.push(types.Bool(x && y))
		} else {
			vm.push(types.Bool(x || y))
		}

	case opcode.INVERT, opcode.INC, opcode.DEC, opcode.SIGN, opcode.NEGATE, opcode.ABS, opcode.NZ:
		if err := vm.unary(op); err != nil {
			return 0, false, err
		}

	case opcode.AND, opcode.OR, opcode.XOR, opcode.ADD, opcode.SUB, opcode.MUL, opcode.DIV,
		opcode.MOD, opcode.SHL, opcode.SHR, opcode.NUMEQUAL, opcode.NUMNOTEQUAL, opcode.LT,
		opcode.GT, opcode.LTE, opcode.GTE, opcode.MIN, opcode.MAX:
		if err := vm.binary(op); err != nil {
			return 0, false, err
		}

	case opcode.WITHIN:
		b, err := vm.popInt()
		if err != nil {
			return 0, false, err
		}
		a, err := vm.popInt()
		if err != nil {
			return 0, false, err
		}
		x, err := vm.popInt()
		if err != nil {
			return 0, false, err
		}
		vm.push(types.Bool(a.Cmp(x) <= 0 && x.Cmp(b) < 0))

	case opcode.SHA256:
		data, err := vm.popBytes()
		if err != nil {
			return 0, false, err
		}
		sum := sha256.Sum256(data)
		vm.push(types.Bytes(sum[:]))

	case opcode.ARRAYSIZE, opcode.PACK, opcode.UNPACK, opcode.PICKITEM, opcode.SETITEM,
		opcode.NEWARRAY, opcode.NEWSTRUCT, opcode.NEWMAP, opcode.APPEND, opcode.REVERSE,
		opcode.REMOVE, opcode.HASKEY, opcode.KEYS, opcode.VALUES:
		if err := vm.collection(op); err != nil {
			return 0, false, err
		}

	case opcode.THROW:
		return 0, false, ErrThrow

	case opcode.THROWIFNOT:
		ok, err := vm.popBool()
		if err != nil {
			return 0, false, err
		}
		if !ok {
			return 0, false, ErrThrow
		}

	default:
		return 0, false, fmt.Errorf("invalid opcode 0x%02X", byte(op))
	}
	return next, false, nil
}

// indexed implements the instructions that take a stack index operand.
func (vm *VM) indexed(op opcode.Opcode, n int) error {
	if n < 0 {
		return fmt.Errorf("negative index %d", n)
	}
	switch op {
	case opcode.XDROP:
		if err := vm.need(n + 1); err != nil {
			return err
		}
		vm.removeAt(n)
	case opcode.XSWAP:
		if err := vm.need(n + 1); err != nil {
			return err
		}
		top, other := vm.sp-1, vm.sp-1-n
		vm.stackData[top], vm.stackData[other] = vm.stackData[other], vm.stackData[top]
	case opcode.XTUCK:
		if n == 0 {
			return errors.New("XTUCK with zero index")
		}
		if err := vm.need(n); err != nil {
			return err
		}
		vm.insertAt(n, vm.peekN(0))
	case opcode.PICK:
		if err := vm.need(n + 1); err != nil {
			return err
		}
		vm.push(vm.peekN(n))
	case opcode.ROLL:
		if err := vm.need(n + 1); err != nil {
			return err
		}
		if n > 0 {
			vm.push(vm.removeAt(n))
		}
	}
	return nil
}
