package querylang

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Accepted(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		alias string
		where Expr
	}{
		{
			name:  "pass-through",
			text:  "SELECT * FROM c",
			alias: "c",
		},
		{
			name:  "bracket fields with AND",
			text:  "SELECT * FROM c WHERE c['SOW Level'] = '3P' AND c['Billed Level'] = '2P'",
			alias: "c",
			where: &Logical{
				Op:    OpAnd,
				Left:  &Compare{Op: OpEq, Left: FieldOperand("SOW Level"), Right: LiteralOperand("3P")},
				Right: &Compare{Op: OpEq, Left: FieldOperand("Billed Level"), Right: LiteralOperand("2P")},
			},
		},
		{
			name:  "contains lower",
			text:  "SELECT * FROM c WHERE CONTAINS(LOWER(c.Name), 'saiteja')",
			alias: "c",
			where: &Call{
				Func:    FuncContains,
				Subject: Operand{Kind: OperandField, Field: "Name", Transform: TransformLower},
				Arg:     LiteralOperand("saiteja"),
			},
		},
		{
			name:  "serial range",
			text:  "select * from c where c['Resource End Date'] >= 46023 and c['Resource End Date'] <= 46387",
			alias: "c",
			where: &Logical{
				Op:    OpAnd,
				Left:  &Compare{Op: OpGe, Left: FieldOperand("Resource End Date"), Right: LiteralOperand(46023.0)},
				Right: &Compare{Op: OpLe, Left: FieldOperand("Resource End Date"), Right: LiteralOperand(46387.0)},
			},
		},
		{
			name:  "OR binds looser than AND",
			text:  "SELECT * FROM c WHERE c.a = 1 OR c.b = 2 AND c.d = 3",
			alias: "c",
			where: &Logical{
				Op:   OpOr,
				Left: &Compare{Op: OpEq, Left: FieldOperand("a"), Right: LiteralOperand(1.0)},
				Right: &Logical{
					Op:    OpAnd,
					Left:  &Compare{Op: OpEq, Left: FieldOperand("b"), Right: LiteralOperand(2.0)},
					Right: &Compare{Op: OpEq, Left: FieldOperand("d"), Right: LiteralOperand(3.0)},
				},
			},
		},
		{
			name:  "not, parens, in, <>",
			text:  `SELECT * FROM employees e WHERE NOT (e.Status <> "Active") AND e['Job Level'] NOT IN ('1P', '2P')`,
			alias: "e",
			where: &Logical{
				Op: OpAnd,
				Left: &Not{X: &Compare{
					Op: OpNe, Left: FieldOperand("Status"), Right: LiteralOperand("Active"),
				}},
				Right: &Not{X: &In{
					Left: FieldOperand("Job Level"),
					List: []Operand{LiteralOperand("1P"), LiteralOperand("2P")},
				}},
			},
		},
		{
			name:  "negative number, boolean, ignore-case flag, semicolon",
			text:  "SELECT * FROM c WHERE c.delta > -1.5 AND c.flag = true AND STARTSWITH(c.Name, 'sa', true);",
			alias: "c",
			where: &Logical{
				Op: OpAnd,
				Left: &Logical{
					Op:    OpAnd,
					Left:  &Compare{Op: OpGt, Left: FieldOperand("delta"), Right: LiteralOperand(-1.5)},
					Right: &Compare{Op: OpEq, Left: FieldOperand("flag"), Right: LiteralOperand(true)},
				},
				Right: &Call{Func: FuncStartsWith, Subject: FieldOperand("Name"), Arg: LiteralOperand("sa"), IgnoreCase: true},
			},
		},
		{
			name:  "escaped quote",
			text:  "SELECT * FROM c WHERE c.Name = 'O''Brien'",
			alias: "c",
			where: &Compare{Op: OpEq, Left: FieldOperand("Name"), Right: LiteralOperand("O'Brien")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := Parse(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.alias, q.Alias)
			assert.Equal(t, tt.where == nil, q.PassThrough)
			if diff := cmp.Diff(tt.where, q.Where); diff != "" {
				t.Errorf("Where mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParse_Rejected(t *testing.T) {
	tests := []string{
		"SELECT TOP 5 * FROM c",
		"SELECT DISTINCT * FROM c",
		"SELECT VALUE c.Name FROM c",
		"SELECT c.Name FROM c",
		"SELECT * FROM c WHERE x.Name = 'a'",
		"SELECT * FROM c WHERE c.Name = 'a' OFFSET 0 LIMIT 10",
		"SELECT * FROM c WHERE IS_DEFINED(c.Name)",
		"SELECT * FROM c WHERE c.Name IN (SELECT * FROM c)",
		"SELECT * FROM c WHERE c.a.b = 1",
		"SELECT * FROM c WHERE c.Name = null",
		"SELECT * FROM c WHERE c.Name",
		"SELECT * FROM c WHERE (c.Name = 'a'",
		"SELECT * FROM c WHERE c.Name = 'unterminated",
		"SELECT * FROM c WHERE c.Name = 'a' -- comment",
		"SELECT * FROM c WHERE CONTAINS(c.Name, 'a', 'yes')",
		"SELECT * FROM c WHERE c.Name IN (c.Other)",
		"SELECT *",
	}
	for _, text := range tests {
		t.Run(text, func(t *testing.T) {
			_, err := Parse(text)
			assert.Error(t, err)
		})
	}
}
