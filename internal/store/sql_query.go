package store

import (
	"fmt"
	"strconv"
	"strings"

	"workforce-analyst/internal/querylang"
)

// valueKind is the JSON type a comparison is performed in.
type valueKind int

const (
	kindNumber valueKind = iota + 1
	kindString
	kindBool
)

func literalKind(v interface{}) (valueKind, bool) {
	switch v.(type) {
	case float64:
		return kindNumber, true
	case string:
		return kindString, true
	case bool:
		return kindBool, true
	}
	return 0, false
}

// dialect renders the JSON document operators of one SQL engine. Every
// field accessor yields NULL unless the field holds a value of the
// requested kind, so SQL's three-valued logic matches querylang.Eval.
type dialect interface {
	placeholder(n int, cast string) string
	createTable(table string) string
	orderColumn() string
	typed(b *sqlBuilder, field string, k valueKind) string
	bind(v interface{}, k valueKind) (interface{}, string)
	collate() string
	contains(subject, arg func() string) string
	startsWith(subject, arg func() string) string
	endsWith(subject, arg func() string) string
}

type sqlBuilder struct {
	d    dialect
	args []interface{}
	err  error
}

func (b *sqlBuilder) arg(v interface{}, cast string) string {
	b.args = append(b.args, v)
	return b.d.placeholder(len(b.args), cast)
}

func (b *sqlBuilder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// translateSQL renders a WHERE clause. A nil expression yields "".
func translateSQL(d dialect, expr querylang.Expr) (string, []interface{}, error) {
	if expr == nil {
		return "", nil, nil
	}
	b := &sqlBuilder{d: d}
	where, err := b.expr(expr)
	if err == nil {
		err = b.err
	}
	if err != nil {
		return "", nil, err
	}
	return where, b.args, nil
}

func (b *sqlBuilder) expr(e querylang.Expr) (string, error) {
	if len(querylang.Fields(e)) == 0 {
		return foldSQL(e), nil
	}
	switch x := e.(type) {
	case *querylang.Logical:
		l, err := b.expr(x.Left)
		if err != nil {
			return "", err
		}
		r, err := b.expr(x.Right)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(%s %s %s)", l, x.Op, r), nil
	case *querylang.Not:
		inner, err := b.expr(x.X)
		if err != nil {
			return "", err
		}
		return "(NOT " + inner + ")", nil
	case *querylang.Compare:
		return b.compare(x)
	case *querylang.In:
		return b.in(x), nil
	case *querylang.Call:
		return b.call(x)
	}
	return "", fmt.Errorf("%w: %T", ErrUnsupportedPredicate, e)
}

// foldSQL evaluates an expression without field references.
func foldSQL(e querylang.Expr) string {
	switch {
	case querylang.Eval(e, nil):
		return "(1 = 1)"
	case querylang.Eval(&querylang.Not{X: e}, nil):
		return "(1 = 0)"
	}
	return "NULL"
}

func (b *sqlBuilder) field(o querylang.Operand, k valueKind) string {
	s := b.d.typed(b, o.Field, k)
	switch o.Transform {
	case querylang.TransformLower:
		return "lower(" + s + ")"
	case querylang.TransformUpper:
		return "upper(" + s + ")"
	}
	return s
}

func (b *sqlBuilder) literal(v interface{}, k valueKind) string {
	value, cast := b.d.bind(v, k)
	return b.arg(value, cast)
}

func (b *sqlBuilder) compare(c *querylang.Compare) (string, error) {
	left, right, op := c.Left, c.Right, c.Op
	if left.IsLiteral() {
		left, right, op = right, left, op.Flip()
	}
	if right.IsField() {
		return "", fmt.Errorf("%w: comparison between two fields", ErrUnsupportedPredicate)
	}
	k, ok := literalKind(right.Value)
	if !ok || (left.Transform != querylang.TransformNone && k != kindString) {
		return "NULL", nil
	}

	subject := b.field(left, k)
	lit := b.literal(right.Value, k)
	sqlOp := string(op)
	if op == querylang.OpNe {
		sqlOp = "<>"
	}
	collate := ""
	if k == kindString {
		collate = b.d.collate()
	}
	return fmt.Sprintf("(%s %s %s%s)", subject, sqlOp, lit, collate), nil
}

// in groups the list by kind. A field holds one kind, so at most one group
// is non-NULL for any row and COALESCE picks it.
func (b *sqlBuilder) in(x *querylang.In) string {
	byKind := map[valueKind][]interface{}{}
	for _, item := range x.List {
		if k, ok := literalKind(item.Value); ok {
			byKind[k] = append(byKind[k], item.Value)
		}
	}

	var groups []string
	for _, k := range []valueKind{kindNumber, kindString, kindBool} {
		values := byKind[k]
		if len(values) == 0 {
			continue
		}
		if x.Left.Transform != querylang.TransformNone && k != kindString {
			continue
		}
		subject := b.field(x.Left, k)
		phs := make([]string, len(values))
		for i, v := range values {
			phs[i] = b.literal(v, k)
		}
		groups = append(groups, fmt.Sprintf("(%s IN (%s))", subject, strings.Join(phs, ", ")))
	}

	switch len(groups) {
	case 0:
		return "NULL"
	case 1:
		return groups[0]
	}
	return "COALESCE(" + strings.Join(groups, ", ") + ")"
}

func (b *sqlBuilder) call(c *querylang.Call) (string, error) {
	if !c.Subject.IsField() || c.Arg.IsField() {
		return "", fmt.Errorf("%w: %s with a field argument", ErrUnsupportedPredicate, c.Func)
	}
	argValue, ok := c.Arg.Value.(string)
	if !ok {
		return "NULL", nil
	}

	subject := func() string {
		s := b.field(c.Subject, kindString)
		if c.IgnoreCase {
			s = "lower(" + s + ")"
		}
		return s
	}
	arg := func() string {
		p := b.literal(argValue, kindString)
		if c.IgnoreCase {
			p = "lower(" + p + ")"
		}
		return p
	}

	switch c.Func {
	case querylang.FuncContains:
		return b.d.contains(subject, arg), nil
	case querylang.FuncStartsWith:
		return b.d.startsWith(subject, arg), nil
	case querylang.FuncEndsWith:
		return b.d.endsWith(subject, arg), nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedPredicate, c.Func)
}

// ==========================
// PostgreSQL
// ==========================

type postgresDialect struct{}

func (postgresDialect) placeholder(n int, cast string) string {
	p := "$" + strconv.Itoa(n)
	if cast != "" {
		p += "::" + cast
	}
	return p
}

func (postgresDialect) createTable(table string) string {
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (seq BIGSERIAL, id TEXT PRIMARY KEY, doc JSONB NOT NULL)", table)
}

func (postgresDialect) orderColumn() string { return "seq" }

func (postgresDialect) typed(b *sqlBuilder, field string, k valueKind) string {
	switch k {
	case kindNumber:
		return fmt.Sprintf("(CASE WHEN jsonb_typeof(doc -> %s) = 'number' THEN (doc ->> %s)::numeric END)",
			b.arg(field, "text"), b.arg(field, "text"))
	case kindBool:
		return fmt.Sprintf("(CASE WHEN jsonb_typeof(doc -> %s) = 'boolean' THEN (doc ->> %s)::boolean END)",
			b.arg(field, "text"), b.arg(field, "text"))
	}
	return fmt.Sprintf("(CASE WHEN jsonb_typeof(doc -> %s) = 'string' THEN doc ->> %s END)",
		b.arg(field, "text"), b.arg(field, "text"))
}

func (postgresDialect) bind(v interface{}, k valueKind) (interface{}, string) {
	switch k {
	case kindNumber:
		return v, "numeric"
	case kindBool:
		return v, "boolean"
	}
	return v, "text"
}

func (postgresDialect) collate() string { return ` COLLATE "C"` }

func (postgresDialect) contains(subject, arg func() string) string {
	return fmt.Sprintf("(strpos(%s, %s) > 0)", subject(), arg())
}

func (postgresDialect) startsWith(subject, arg func() string) string {
	return fmt.Sprintf("starts_with(%s, %s)", subject(), arg())
}

func (postgresDialect) endsWith(subject, arg func() string) string {
	return fmt.Sprintf("(right(%s, length(%s)) = %s)", subject(), arg(), arg())
}

// ==========================
// SQLite
// ==========================

type sqliteDialect struct{}

func (sqliteDialect) placeholder(int, string) string { return "?" }

func (sqliteDialect) createTable(table string) string {
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (id TEXT PRIMARY KEY, doc TEXT NOT NULL)", table)
}

func (sqliteDialect) orderColumn() string { return "rowid" }

func (sqliteDialect) typed(b *sqlBuilder, field string, k valueKind) string {
	if strings.Contains(field, `"`) {
		b.fail(fmt.Errorf("%w: field name %q", ErrUnsupportedPredicate, field))
	}
	path := `$."` + field + `"`
	guard := "= 'text'"
	switch k {
	case kindNumber:
		guard = "IN ('integer', 'real')"
	case kindBool:
		guard = "IN ('true', 'false')"
	}
	return fmt.Sprintf("(CASE WHEN json_type(doc, %s) %s THEN json_extract(doc, %s) END)",
		b.arg(path, ""), guard, b.arg(path, ""))
}

func (sqliteDialect) bind(v interface{}, k valueKind) (interface{}, string) {
	if k == kindBool {
		if v.(bool) {
			return int64(1), ""
		}
		return int64(0), ""
	}
	return v, ""
}

func (sqliteDialect) collate() string { return "" }

func (sqliteDialect) contains(subject, arg func() string) string {
	return fmt.Sprintf("(instr(%s, %s) > 0)", subject(), arg())
}

func (sqliteDialect) startsWith(subject, arg func() string) string {
	return fmt.Sprintf("(substr(%s, 1, length(%s)) = %s)", subject(), arg(), arg())
}

func (sqliteDialect) endsWith(subject, arg func() string) string {
	return fmt.Sprintf("(CASE WHEN %s IS NULL THEN NULL WHEN length(%s) = 0 THEN 1 ELSE substr(%s, -length(%s)) = %s END)",
		subject(), arg(), subject(), arg(), arg())
}
