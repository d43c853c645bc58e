// Package token defines operator tokens and source positions.
package token

// Token represents an operator of the source language.
type Token uint8

const (
	ILLEGAL Token = iota // <illegal>

	// Arithmetic
	ADD      // +
	SUB      // -
	MUL      // *
	DIV      // /
	MOD      // %
	EXPONENT // **

	// Bitwise
	AND         // &
	OR          // |
	XOR         // ^
	SHL         // <<
	SHR         // >>
	USHR        // >>>
	BITWISE_NOT // ~

	// Comparison
	EQUALS            // ==
	NOT_EQUALS        // !=
	STRICT_EQUALS     // ===
	STRICT_NOT_EQUALS // !==
	LESS              // <
	LTE               // <=
	GREATER           // >
	GTE               // >=
	IN                // in
	INSTANCEOF        // instanceof

	// Logical
	LOGICAL_AND // &&
	LOGICAL_OR  // ||
	COALESCE    // ??
	NOT         // !

	// Unary keywords
	TYPEOF // typeof
	VOID   // void
	DELETE // delete

	// Update
	INCR // ++
	DECR // --

	// Assignment
	ASSIGN // =
)

var tokens = [...]string{
	ILLEGAL:           "<illegal>",
	ADD:               "+",
	SUB:               "-",
	MUL:               "*",
	DIV:               "/",
	MOD:               "%",
	EXPONENT:          "**",
	AND:               "&",
	OR:                "|",
	XOR:               "^",
	SHL:               "<<",
	SHR:               ">>",
	USHR:              ">>>",
	BITWISE_NOT:       "~",
	EQUALS:            "==",
	NOT_EQUALS:        "!=",
	STRICT_EQUALS:     "===",
	STRICT_NOT_EQUALS: "!==",
	LESS:              "<",
	LTE:               "<=",
	GREATER:           ">",
	GTE:               ">=",
	IN:                "in",
	INSTANCEOF:        "instanceof",
	LOGICAL_AND:       "&&",
	LOGICAL_OR:        "||",
	COALESCE:          "??",
	NOT:               "!",
	TYPEOF:            "typeof",
	VOID:              "void",
	DELETE:            "delete",
	INCR:              "++",
	DECR:              "--",
	ASSIGN:            "=",
}

// String returns the source spelling of the token.
func (t Token) String() string {
	if int(t) < len(tokens) {
		return tokens[t]
	}
	return "<illegal>"
}

// IsComparison reports whether t yields a boolean from two operands.
func (t Token) IsComparison() bool {
	switch t {
	case EQUALS, NOT_EQUALS, STRICT_EQUALS, STRICT_NOT_EQUALS, LESS, LTE, GREATER, GTE, IN, INSTANCEOF:
		return true
	}
	return false
}

// IsLogical reports whether t short-circuits.
func (t Token) IsLogical() bool {
	return t == LOGICAL_AND || t == LOGICAL_OR || t == COALESCE
}
