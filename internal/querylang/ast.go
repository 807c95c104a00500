// Package querylang implements the whitelisted subset of the document-store
// SQL dialect that synthesized queries are allowed to use.
package querylang

// PassThroughText is the unfiltered query every rejection falls back to.
const PassThroughText = "SELECT * FROM c"

// Query is an accepted query. A nil Where selects every record.
type Query struct {
	Text        string
	Alias       string
	Where       Expr
	PassThrough bool
}

// PassThrough returns the unfiltered query.
func PassThrough() Query {
	return Query{Text: PassThroughText, Alias: "c", PassThrough: true}
}

// Expr is a boolean expression in a WHERE clause.
type Expr interface {
	exprNode()
}

// LogicalOp joins two expressions.
type LogicalOp string

const (
	OpAnd LogicalOp = "AND"
	OpOr  LogicalOp = "OR"
)

// Logical is Left AND/OR Right.
type Logical struct {
	Op    LogicalOp
	Left  Expr
	Right Expr
}

// Not negates X.
type Not struct {
	X Expr
}

// CompareOp is a binary comparison operator. "<>" is normalised to "!=".
type CompareOp string

const (
	OpEq CompareOp = "="
	OpNe CompareOp = "!="
	OpLt CompareOp = "<"
	OpLe CompareOp = "<="
	OpGt CompareOp = ">"
	OpGe CompareOp = ">="
)

// Flip returns the operator that gives the same result with operands swapped.
func (op CompareOp) Flip() CompareOp {
	switch op {
	case OpLt:
		return OpGt
	case OpLe:
		return OpGe
	case OpGt:
		return OpLt
	case OpGe:
		return OpLe
	default:
		return op
	}
}

// Compare is Left Op Right.
type Compare struct {
	Op    CompareOp
	Left  Operand
	Right Operand
}

// In is Left IN (List...). List holds literals only.
type In struct {
	Left Operand
	List []Operand
}

// Func names a string predicate.
type Func string

const (
	FuncContains   Func = "CONTAINS"
	FuncStartsWith Func = "STARTSWITH"
	FuncEndsWith   Func = "ENDSWITH"
)

// Call is CONTAINS/STARTSWITH/ENDSWITH(Subject, Arg[, IgnoreCase]).
type Call struct {
	Func       Func
	Subject    Operand
	Arg        Operand
	IgnoreCase bool
}

func (*Logical) exprNode() {}
func (*Not) exprNode()     {}
func (*Compare) exprNode() {}
func (*In) exprNode()      {}
func (*Call) exprNode()    {}

// OperandKind tells field references from literals.
type OperandKind int

const (
	OperandField OperandKind = iota + 1
	OperandLiteral
)

// Transform is a case function applied to a field reference.
type Transform string

const (
	TransformNone  Transform = ""
	TransformLower Transform = "LOWER"
	TransformUpper Transform = "UPPER"
)

// Operand is a field reference (optionally case-transformed) or a literal.
// Literal values are string, float64 or bool.
type Operand struct {
	Kind      OperandKind
	Field     string
	Transform Transform
	Value     interface{}
}

// FieldOperand builds a field reference.
func FieldOperand(name string) Operand {
	return Operand{Kind: OperandField, Field: name}
}

// LiteralOperand builds a literal.
func LiteralOperand(v interface{}) Operand {
	return Operand{Kind: OperandLiteral, Value: v}
}

func (o Operand) IsField() bool   { return o.Kind == OperandField }
func (o Operand) IsLiteral() bool { return o.Kind == OperandLiteral }
