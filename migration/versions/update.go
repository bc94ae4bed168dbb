package versions

import (
	sq "github.com/Masterminds/squirrel"

	"github.com/stokaro/runkey/core/platform"
)

const dagRunTable = "dag_run"

// MultiTableUpdate builds the statement that copies column from the matching
// dag_run row into every row of target. Rows match on dag_id and on the key
// the two tables already share: execution_date when filling run_id, run_id
// otherwise. Rows without a matching dag_run are set to NULL on engines using
// a correlated subquery and left untouched elsewhere; either way the column
// keeps a NULL there.
func MultiTableUpdate(d platform.Dialect, target, column string) sq.Sqlizer {
	key := "run_id"
	if column == "run_id" {
		key = "execution_date"
	}
	match := []sq.Sqlizer{
		sq.Expr(dagRunTable + ".dag_id = " + target + ".dag_id"),
		sq.Expr(dagRunTable + "." + key + " = " + target + "." + key),
	}
	source := sq.Expr(dagRunTable + "." + column)

	switch d.UpdateStyle() {
	case platform.UpdateFrom:
		return where(sq.Update(target).Set(column, source).From(dagRunTable), match)
	case platform.UpdateFromWithTarget:
		return where(sq.Update(target).Set(column, source).From(target+", "+dagRunTable), match)
	case platform.MultiTableUpdate:
		return where(sq.Update(target+", "+dagRunTable).Set(target+"."+column, source), match)
	default:
		sub := sq.Select(dagRunTable + "." + column).From(dagRunTable)
		for _, cond := range match {
			sub = sub.Where(cond)
		}
		return sq.Update(target).Set(column, parens{sub})
	}
}

// parens renders a subquery used as a value.
type parens struct {
	sq.Sqlizer
}

func (p parens) ToSql() (string, []any, error) {
	sql, args, err := p.Sqlizer.ToSql()
	if err != nil {
		return "", nil, err
	}
	return "(" + sql + ")", args, nil
}

func where(b sq.UpdateBuilder, conds []sq.Sqlizer) sq.UpdateBuilder {
	for _, cond := range conds {
		b = b.Where(cond)
	}
	return b
}
