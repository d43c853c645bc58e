package ast

// Program represents one compilation unit (a source file).
type Program struct {
	BaseNode
	Name string // Unit name used by require and diagnostics
	Body []Stmt
}

// Function is the shared body of function declarations, function
// expressions, arrow functions, methods and class constructors.
type Function struct {
	BaseNode
	Name      string // Empty for anonymous functions
	Params    []Expr // *Identifier, patterns or *DefaultPattern
	Rest      Expr   // ...rest parameter, nil when absent
	Body      *BlockStmt
	ExprBody  Expr // Concise arrow body; Body is nil then
	Arrow     bool
	Async     bool
	Generator bool
}

// MemberKind distinguishes class members.
type MemberKind uint8

const (
	MemberMethod MemberKind = iota
	MemberGetter
	MemberSetter
	MemberField
	MemberStaticBlock
)

// ClassMember is one element of a class body other than the constructor.
type ClassMember struct {
	BaseNode
	MemberKind MemberKind
	Static     bool
	Name       string
	Key        Expr // Computed key, nil otherwise
	Computed   bool
	Func       *Function // Methods, accessors and static blocks
	Value      Expr      // Field initializer, nil when absent
}

// Class is the shared body of class declarations and class expressions.
type Class struct {
	BaseNode
	Name        string
	SuperClass  Expr      // nil when the class has no extends clause
	Constructor *Function // nil when the class declares none
	Members     []*ClassMember
}

func (*Program) Kind() Kind     { return KindProgram }
func (*Function) Kind() Kind    { return KindFunction }
func (*ClassMember) Kind() Kind { return KindClassMember }
func (*Class) Kind() Kind       { return KindClass }

// ParamNames returns the names bound by the function's simple parameters.
// Pattern parameters contribute the names they bind.
func (f *Function) ParamNames() []string {
	var names []string
	for _, p := range f.Params {
		names = append(names, BoundNames(p)...)
	}
	if f.Rest != nil {
		names = append(names, BoundNames(f.Rest)...)
	}
	return names
}

// BoundNames returns the identifiers a binding target declares, in source order.
func BoundNames(target Expr) []string {
	switch t := target.(type) {
	case *Identifier:
		return []string{t.Name}
	case *DefaultPattern:
		return BoundNames(t.Target)
	case *ArrayPattern:
		var names []string
		for _, el := range t.Elements {
			if el != nil {
				names = append(names, BoundNames(el)...)
			}
		}
		if t.Rest != nil {
			names = append(names, BoundNames(t.Rest)...)
		}
		return names
	case *ObjectPattern:
		var names []string
		for _, p := range t.Properties {
			names = append(names, BoundNames(p.Target)...)
		}
		if t.Rest != nil {
			names = append(names, BoundNames(t.Rest)...)
		}
		return names
	default:
		return nil
	}
}
