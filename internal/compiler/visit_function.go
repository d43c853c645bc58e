package compiler

import (
	"github.com/kolkov/neoc/internal/ast"
	"github.com/kolkov/neoc/internal/opcode"
)

func visitFunctionExpr(sb *ScriptBuilder, node ast.Node, opts VisitOptions) {
	f := node.(*ast.FunctionExpr).Func
	if f.Name == "" {
		sb.createFunctionValue(node, f, opts)
	} else {
		// The name is bound inside the expression only.
		sb.withScope(node, "function "+f.Name, true, func() {
			self := sb.declare(node, f.Name)
			sb.createFunctionValue(node, f, opts)
			sb.emitOp(node, opcode.DUP)
			sb.emitStore(node, self)
		})
	}
	if !opts.PushValue {
		sb.emitOp(node, opcode.DROP)
	}
}

func visitArrowFunction(sb *ScriptBuilder, node ast.Node, opts VisitOptions) {
	sb.createFunctionValue(node, node.(*ast.ArrowFunction).Func, opts)
	if !opts.PushValue {
		sb.emitOp(node, opcode.DROP)
	}
}

func visitClassExpr(sb *ScriptBuilder, node ast.Node, opts VisitOptions) {
	sb.emitClass(node.(*ast.ClassExpr).Class, opts)
	if !opts.PushValue {
		sb.emitOp(node, opcode.DROP)
	}
}

// createFunctionValue creates the function object of a declaration or
// expression and queues its body. Arrows keep the super binding and the
// static flag of the code they appear in.
//
//	[] -> [box]
func (sb *ScriptBuilder) createFunctionValue(node ast.Node, f *ast.Function, opts VisitOptions) {
	st := &funcState{kind: funcNormal}
	inner := functionOptions("")
	if f.Arrow {
		st.static = sb.fn.static
		inner = functionOptions(opts.SuperClass)
	}
	sb.createClosure(node, f, f.Name, st, opts, inner)
}

// createMethod creates a class method, accessor or constructor.
//
//	[] -> [box]
func (sb *ScriptBuilder) createMethod(node ast.Node, f *ast.Function, name, superClass string, static bool, opts VisitOptions) {
	st := &funcState{kind: funcNormal, static: static}
	sb.createClosure(node, f, name, st, opts, functionOptions(superClass))
}

// createClosure registers a dispatch entry for f, emits the function
// object and defers the body. outer are the options of the creation site,
// inner those the body starts with.
//
//	[] -> [box]
func (sb *ScriptBuilder) createClosure(node ast.Node, f *ast.Function, name string, st *funcState, outer, inner VisitOptions) {
	switch {
	case f.Async:
		sb.reportUnsupported(node, outer.valueOptions(), CodeAsync, "async functions are not supported")
		return
	case f.Generator:
		sb.reportUnsupported(node, outer.valueOptions(), CodeGenerator, "generators are not supported")
		return
	}
	if name == "" {
		name = "anonymous"
	}
	fn := sb.newFunction(name)
	sb.createFunction(node, fn.id, f.Arrow, st.ctor)
	sb.deferBody(fn, f.Arrow, func() {
		sb.emitFunctionBody(f, f, st, inner, nil)
	})
}

// ----------------------------------------------------------------------------
// Classes

// emitClass builds a class: the constructor function, the prototype chain
// and the members. Instance fields are initialized by the constructor,
// after super() in derived classes.
//
//	[] -> [ctor]
func (sb *ScriptBuilder) emitClass(c *ast.Class, opts VisitOptions) {
	name := c.Name
	if name == "" {
		name = "anonymous"
	}
	value := opts.valueOptions()

	var fields []*ast.ClassMember
	for _, m := range c.Members {
		if m.MemberKind == ast.MemberField && !m.Static && !m.Computed {
			fields = append(fields, m)
		}
	}

	sb.withScope(c, "class "+name, c.Name != "" || c.SuperClass != nil, func() {
		var self, super *variable
		if c.Name != "" {
			self = sb.declare(c, c.Name)
		}
		superName := ""
		if c.SuperClass != nil {
			super = sb.declareUnique(c, "super")
			superName = super.name
			sb.visit(c.SuperClass, value)
			sb.emitIf(c, func() {
				sb.emitOp(c, opcode.DUP)
				sb.emitIsCallable(c)
				sb.emitOp(c, opcode.NOT)
			}, func() {
				sb.toString(c)
				sb.throwTypeErrorWith(c, opts, "Class extends value ", " is not a constructor")
			}, nil)
			sb.emitStore(c, super)
		}

		sb.emitConstructor(c, name, superName, fields)
		if self != nil {
			sb.emitOp(c, opcode.DUP)
			sb.emitStore(c, self)
		}

		if super != nil {
			// [ctor] -> [ctor]; ctor.prototype inherits from super.prototype
			sb.emitOp(c, opcode.DUP)
			sb.emitLoadProps(c)
			sb.emitPushString(c, "prototype")
			sb.emitOp(c, opcode.PICKITEM)
			sb.emitUnbox(c)
			sb.emitPushInt(c, objProto)
			sb.emitLoad(c, super)
			sb.emitPushString(c, "prototype")
			sb.findProperty(c)
			sb.emitOp(c, opcode.SETITEM)

			// Static members are inherited through the constructor itself.
			sb.emitOp(c, opcode.DUP)
			sb.emitUnbox(c)
			sb.emitPushInt(c, objProto)
			sb.emitLoad(c, super)
			sb.emitOp(c, opcode.SETITEM)
		}

		for _, m := range c.Members {
			sb.emitClassMember(c, m, superName, opts)
		}
	})
}

// emitConstructor creates the constructor function object. Without an
// explicit constructor a derived class forwards its arguments to the
// superclass.
//
//	[] -> [ctor]
func (sb *ScriptBuilder) emitConstructor(c *ast.Class, name, superName string, fields []*ast.ClassMember) {
	st := &funcState{kind: funcNormal, ctor: true, derived: c.SuperClass != nil, fields: fields}
	inner := functionOptions(superName)
	fn := sb.newFunction(name)
	sb.createFunction(c, fn.id, false, true)

	f := c.Constructor
	if f != nil {
		sb.deferBody(fn, false, func() {
			sb.emitFunctionBody(f, f, st, inner, func() {
				if !st.derived {
					sb.emitFieldInits(f, fields, inner)
				}
			})
		})
		return
	}

	f = &ast.Function{BaseNode: c.BaseNode, Name: c.Name, Body: &ast.BlockStmt{}}
	sb.deferBody(fn, false, func() {
		sb.emitFunctionBody(c, f, st, inner, func() {
			if st.derived {
				super, ok := sb.scope.lookup(superName)
				if !ok {
					sb.fatal(c, "superclass binding %q not in scope", superName)
				}
				sb.emitLoad(c, st.args)
				sb.emitLoadThis(c)
				sb.emitLoad(c, super)
				sb.invokeDirect(c, inner)
				sb.emitOp(c, opcode.DROP)
			}
			sb.emitFieldInits(c, fields, inner)
		})
	})
}

// emitClassMember installs one member on the constructor or its prototype.
//
//	[ctor] -> [ctor]
func (sb *ScriptBuilder) emitClassMember(c *ast.Class, m *ast.ClassMember, superName string, opts VisitOptions) {
	stmt := opts.stmtOptions()

	switch {
	case m.MemberKind == ast.MemberStaticBlock:
		sb.reportUnsupported(m, stmt, CodeStaticBlock, "class static blocks are not supported")
		return
	case m.Computed:
		if u, ok := m.Key.(*ast.Unsupported); ok {
			sb.visit(u, stmt)
			return
		}
		sb.reportUnsupported(m, stmt, CodeComputedMember, "computed class members are not supported")
		return
	}

	// loadTarget pushes the object the member lives on.
	loadTarget := func() {
		sb.emitOp(m, opcode.DUP)
		if !m.Static {
			sb.emitLoadProps(m)
			sb.emitPushString(m, "prototype")
			sb.emitOp(m, opcode.PICKITEM)
		}
	}

	switch m.MemberKind {
	case ast.MemberField:
		if !m.Static {
			return // run by the constructor
		}
		if m.Value != nil {
			sb.visit(m.Value, opts.valueOptions())
		} else {
			sb.pushUndefined(m)
		}
		sb.defineProperty(m, m.Name)

	case ast.MemberGetter, ast.MemberSetter:
		if m.Static {
			sb.reportUnsupported(m, stmt, CodeStaticAccessor, "static accessors are not supported")
			return
		}
		loadTarget()
		sb.emitLoadAccessors(m)
		sb.emitPushString(m, m.Name)
		sb.createMethod(m, m.Func, m.Name, superName, false, opts)
		if m.MemberKind == ast.MemberGetter {
			sb.setAccessor(m, accessorGet)
		} else {
			sb.setAccessor(m, accessorSet)
		}

	default:
		loadTarget()
		sb.createMethod(m, m.Func, m.Name, superName, m.Static, opts)
		sb.defineProperty(m, m.Name)
		sb.emitOp(m, opcode.DROP)
	}
}

// emitFieldInits defines the instance fields on this, in declaration order.
//
//	[] -> []
func (sb *ScriptBuilder) emitFieldInits(node ast.Node, fields []*ast.ClassMember, opts VisitOptions) {
	for _, m := range fields {
		sb.emitLoadThis(m)
		if m.Value != nil {
			sb.visit(m.Value, opts.valueOptions())
		} else {
			sb.pushUndefined(m)
		}
		sb.defineProperty(m, m.Name)
		sb.emitOp(m, opcode.DROP)
	}
}
