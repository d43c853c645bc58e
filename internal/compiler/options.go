package compiler

import "github.com/kolkov/neoc/internal/semantic"

// VisitOptions is threaded through every recursive visit. It is a small
// value type: the with-methods below return a modified copy and never touch
// the receiver, so siblings never observe a neighbour's narrowed options.
type VisitOptions struct {
	// PushValue asks the visited construct to leave exactly one value on
	// the stack.
	PushValue bool

	// SetValue marks an assignment target: the value to store is on the
	// stack and the visitor consumes it.
	SetValue bool

	// Cast requests a raw VM value instead of a box: TypeBoolean yields a
	// VM boolean, TypeNumber an Integer and TypeString a ByteArray.
	// TypeUnknown means "boxed".
	Cast semantic.Type

	// SuperClass names the scope variable holding the enclosing class's
	// superclass. Empty outside derived classes.
	SuperClass string

	BreakPC    *ProgramCounter
	ContinuePC *ProgramCounter
	CatchPC    *ProgramCounter
	FinallyPC  *ProgramCounter
}

func (o VisitOptions) pushValueOptions() VisitOptions {
	o.PushValue = true
	return o
}

func (o VisitOptions) noPushValueOptions() VisitOptions {
	o.PushValue = false
	return o
}

func (o VisitOptions) setValueOptions() VisitOptions {
	o.SetValue = true
	return o
}

func (o VisitOptions) noSetValueOptions() VisitOptions {
	o.SetValue = false
	return o
}

func (o VisitOptions) castOptions(t semantic.Type) VisitOptions {
	o.Cast = t
	return o
}

func (o VisitOptions) superClassOptions(name string) VisitOptions {
	o.SuperClass = name
	return o
}

func (o VisitOptions) breakPCOptions(pc *ProgramCounter) VisitOptions {
	o.BreakPC = pc
	return o
}

func (o VisitOptions) continuePCOptions(pc *ProgramCounter) VisitOptions {
	o.ContinuePC = pc
	return o
}

func (o VisitOptions) catchPCOptions(pc *ProgramCounter) VisitOptions {
	o.CatchPC = pc
	return o
}

func (o VisitOptions) finallyPCOptions(pc *ProgramCounter) VisitOptions {
	o.FinallyPC = pc
	return o
}

// valueOptions is the common "evaluate this operand" derivation: push a
// boxed value, not an assignment target.
func (o VisitOptions) valueOptions() VisitOptions {
	return o.pushValueOptions().noSetValueOptions().castOptions(semantic.TypeUnknown)
}

// stmtOptions clears the expression-only fields before visiting a statement.
func (o VisitOptions) stmtOptions() VisitOptions {
	return o.noPushValueOptions().noSetValueOptions().castOptions(semantic.TypeUnknown)
}

// functionOptions are the options a function body starts with: no enclosing
// jump targets. Only the superclass binding survives, and only for methods.
func functionOptions(superClass string) VisitOptions {
	return VisitOptions{}.superClassOptions(superClass)
}
