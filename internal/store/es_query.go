package store

import (
	"fmt"
	"strings"

	"workforce-analyst/internal/querylang"
)

type esQuery = map[string]interface{}

var (
	esMatchAll  = esQuery{"match_all": esQuery{}}
	esMatchNone = esQuery{"match_none": esQuery{}}
)

// translateES renders a WHERE clause as query DSL. String fields are
// matched on their ".keyword" sub-field from the default dynamic mapping.
func translateES(expr querylang.Expr) (esQuery, error) {
	if expr == nil {
		return esMatchAll, nil
	}
	return esExpr(expr)
}

func esExpr(e querylang.Expr) (esQuery, error) {
	if len(querylang.Fields(e)) == 0 {
		if querylang.Eval(e, nil) {
			return esMatchAll, nil
		}
		return esMatchNone, nil
	}

	switch x := e.(type) {
	case *querylang.Logical:
		l, err := esExpr(x.Left)
		if err != nil {
			return nil, err
		}
		r, err := esExpr(x.Right)
		if err != nil {
			return nil, err
		}
		if x.Op == querylang.OpAnd {
			return esQuery{"bool": esQuery{"filter": []esQuery{l, r}}}, nil
		}
		return esQuery{"bool": esQuery{"should": []esQuery{l, r}, "minimum_should_match": 1}}, nil
	case *querylang.Not:
		inner, err := esExpr(x.X)
		if err != nil {
			return nil, err
		}
		// A comparison on a missing field is neither true nor false, so
		// its negation still requires the field.
		return esQuery{"bool": esQuery{
			"must_not": []esQuery{inner},
			"filter":   esExists(querylang.Fields(x.X)...),
		}}, nil
	case *querylang.Compare:
		return esCompare(x)
	case *querylang.In:
		return esIn(x), nil
	case *querylang.Call:
		return esCall(x)
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedPredicate, e)
}

func esExists(fields ...string) []esQuery {
	out := make([]esQuery, len(fields))
	for i, f := range fields {
		out[i] = esQuery{"exists": esQuery{"field": f}}
	}
	return out
}

// caseFits reports whether a literal can equal a field after transform t.
func caseFits(t querylang.Transform, s string) bool {
	switch t {
	case querylang.TransformLower:
		return s == strings.ToLower(s)
	case querylang.TransformUpper:
		return s == strings.ToUpper(s)
	}
	return true
}

func esCompare(c *querylang.Compare) (esQuery, error) {
	left, right, op := c.Left, c.Right, c.Op
	if left.IsLiteral() {
		left, right, op = right, left, op.Flip()
	}
	if right.IsField() {
		return nil, fmt.Errorf("%w: comparison between two fields", ErrUnsupportedPredicate)
	}
	k, ok := literalKind(right.Value)
	if !ok || (left.Transform != querylang.TransformNone && k != kindString) {
		return esMatchNone, nil
	}

	field := left.Field
	value := right.Value
	var term esQuery
	switch k {
	case kindString:
		field += ".keyword"
		if left.Transform != querylang.TransformNone {
			if op != querylang.OpEq && op != querylang.OpNe {
				return nil, fmt.Errorf("%w: ordering on %s(%s)", ErrUnsupportedPredicate, left.Transform, left.Field)
			}
			if !caseFits(left.Transform, value.(string)) {
				if op == querylang.OpEq {
					return esMatchNone, nil
				}
				return esQuery{"bool": esQuery{"filter": esExists(left.Field)}}, nil
			}
			term = esQuery{"term": esQuery{field: esQuery{"value": value, "case_insensitive": true}}}
		}
	case kindBool:
		if op != querylang.OpEq && op != querylang.OpNe {
			return nil, fmt.Errorf("%w: ordering on boolean %s", ErrUnsupportedPredicate, left.Field)
		}
	}
	if term == nil {
		term = esQuery{"term": esQuery{field: value}}
	}

	switch op {
	case querylang.OpEq:
		return term, nil
	case querylang.OpNe:
		return esQuery{"bool": esQuery{
			"must_not": []esQuery{term},
			"filter":   esExists(left.Field),
		}}, nil
	}

	rangeOps := map[querylang.CompareOp]string{
		querylang.OpLt: "lt",
		querylang.OpLe: "lte",
		querylang.OpGt: "gt",
		querylang.OpGe: "gte",
	}
	return esQuery{"range": esQuery{field: esQuery{rangeOps[op]: value}}}, nil
}

func esIn(x *querylang.In) esQuery {
	byKind := map[valueKind][]interface{}{}
	for _, item := range x.List {
		k, ok := literalKind(item.Value)
		if !ok {
			continue
		}
		if x.Left.Transform != querylang.TransformNone &&
			(k != kindString || !caseFits(x.Left.Transform, item.Value.(string))) {
			continue
		}
		byKind[k] = append(byKind[k], item.Value)
	}

	var clauses []esQuery
	for _, k := range []valueKind{kindNumber, kindString, kindBool} {
		values := byKind[k]
		if len(values) == 0 {
			continue
		}
		if k != kindString {
			clauses = append(clauses, esQuery{"terms": esQuery{x.Left.Field: values}})
			continue
		}
		field := x.Left.Field + ".keyword"
		if x.Left.Transform == querylang.TransformNone {
			clauses = append(clauses, esQuery{"terms": esQuery{field: values}})
			continue
		}
		for _, v := range values {
			clauses = append(clauses, esQuery{"term": esQuery{field: esQuery{"value": v, "case_insensitive": true}}})
		}
	}

	switch len(clauses) {
	case 0:
		return esMatchNone
	case 1:
		return clauses[0]
	}
	return esQuery{"bool": esQuery{"should": clauses, "minimum_should_match": 1}}
}

var wildcardEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)

func esCall(c *querylang.Call) (esQuery, error) {
	if !c.Subject.IsField() || c.Arg.IsField() {
		return nil, fmt.Errorf("%w: %s with a field argument", ErrUnsupportedPredicate, c.Func)
	}
	arg, ok := c.Arg.Value.(string)
	if !ok {
		return esMatchNone, nil
	}
	if !c.IgnoreCase && !caseFits(c.Subject.Transform, arg) {
		return esMatchNone, nil
	}

	pattern := wildcardEscaper.Replace(arg)
	switch c.Func {
	case querylang.FuncContains:
		pattern = "*" + pattern + "*"
	case querylang.FuncStartsWith:
		pattern += "*"
	case querylang.FuncEndsWith:
		pattern = "*" + pattern
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPredicate, c.Func)
	}

	return esQuery{"wildcard": esQuery{c.Subject.Field + ".keyword": esQuery{
		"value":            pattern,
		"case_insensitive": c.IgnoreCase || c.Subject.Transform != querylang.TransformNone,
	}}}, nil
}
