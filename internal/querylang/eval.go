package querylang

import (
	"strings"
)

// truth is three-valued: comparisons on missing fields or mismatched
// types are undefined, and only true selects a record.
type truth int

const (
	undefined truth = iota
	isFalse
	isTrue
)

func truthOf(b bool) truth {
	if b {
		return isTrue
	}
	return isFalse
}

// Eval reports whether record matches expr. A nil expr matches everything.
func Eval(expr Expr, record map[string]interface{}) bool {
	if expr == nil {
		return true
	}
	return eval(expr, record) == isTrue
}

func eval(expr Expr, record map[string]interface{}) truth {
	switch e := expr.(type) {
	case *Logical:
		l, r := eval(e.Left, record), eval(e.Right, record)
		if e.Op == OpAnd {
			switch {
			case l == isFalse || r == isFalse:
				return isFalse
			case l == isTrue && r == isTrue:
				return isTrue
			}
			return undefined
		}
		switch {
		case l == isTrue || r == isTrue:
			return isTrue
		case l == isFalse && r == isFalse:
			return isFalse
		}
		return undefined
	case *Not:
		switch eval(e.X, record) {
		case isTrue:
			return isFalse
		case isFalse:
			return isTrue
		}
		return undefined
	case *Compare:
		l, lok := resolve(e.Left, record)
		r, rok := resolve(e.Right, record)
		if !lok || !rok {
			return undefined
		}
		return compare(e.Op, l, r)
	case *In:
		l, ok := resolve(e.Left, record)
		if !ok {
			return undefined
		}
		result := undefined
		for _, item := range e.List {
			v, _ := resolve(item, record)
			switch compare(OpEq, l, v) {
			case isTrue:
				return isTrue
			case isFalse:
				result = isFalse
			}
		}
		return result
	case *Call:
		s, sok := resolveString(e.Subject, record)
		a, aok := resolveString(e.Arg, record)
		if !sok || !aok {
			return undefined
		}
		if e.IgnoreCase {
			s, a = strings.ToLower(s), strings.ToLower(a)
		}
		switch e.Func {
		case FuncContains:
			return truthOf(strings.Contains(s, a))
		case FuncStartsWith:
			return truthOf(strings.HasPrefix(s, a))
		case FuncEndsWith:
			return truthOf(strings.HasSuffix(s, a))
		}
	}
	return undefined
}

// resolve yields an operand's value as string, float64 or bool.
func resolve(o Operand, record map[string]interface{}) (interface{}, bool) {
	var v interface{}
	if o.IsLiteral() {
		v = o.Value
	} else {
		raw, ok := record[o.Field]
		if !ok || raw == nil {
			return nil, false
		}
		v = raw
	}

	v, ok := normalize(v)
	if !ok {
		return nil, false
	}
	if o.Transform != TransformNone {
		s, isStr := v.(string)
		if !isStr {
			return nil, false
		}
		if o.Transform == TransformLower {
			return strings.ToLower(s), true
		}
		return strings.ToUpper(s), true
	}
	return v, true
}

func resolveString(o Operand, record map[string]interface{}) (string, bool) {
	v, ok := resolve(o, record)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func normalize(v interface{}) (interface{}, bool) {
	switch n := v.(type) {
	case string, bool, float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return nil, false
	}
}

func compare(op CompareOp, l, r interface{}) truth {
	var cmp int
	switch lv := l.(type) {
	case float64:
		rv, ok := r.(float64)
		if !ok {
			return undefined
		}
		switch {
		case lv < rv:
			cmp = -1
		case lv > rv:
			cmp = 1
		}
	case string:
		rv, ok := r.(string)
		if !ok {
			return undefined
		}
		cmp = strings.Compare(lv, rv)
	case bool:
		rv, ok := r.(bool)
		if !ok {
			return undefined
		}
		switch {
		case !lv && rv:
			cmp = -1
		case lv && !rv:
			cmp = 1
		}
	default:
		return undefined
	}

	switch op {
	case OpEq:
		return truthOf(cmp == 0)
	case OpNe:
		return truthOf(cmp != 0)
	case OpLt:
		return truthOf(cmp < 0)
	case OpLe:
		return truthOf(cmp <= 0)
	case OpGt:
		return truthOf(cmp > 0)
	case OpGe:
		return truthOf(cmp >= 0)
	}
	return undefined
}

// Fields lists the distinct field names an expression references, in first-seen order.
func Fields(expr Expr) []string {
	var out []string
	seen := map[string]bool{}
	add := func(o Operand) {
		if o.IsField() && !seen[o.Field] {
			seen[o.Field] = true
			out = append(out, o.Field)
		}
	}
	var walk func(Expr)
	walk = func(e Expr) {
		switch x := e.(type) {
		case *Logical:
			walk(x.Left)
			walk(x.Right)
		case *Not:
			walk(x.X)
		case *Compare:
			add(x.Left)
			add(x.Right)
		case *In:
			add(x.Left)
		case *Call:
			add(x.Subject)
			add(x.Arg)
		}
	}
	if expr != nil {
		walk(expr)
	}
	return out
}
