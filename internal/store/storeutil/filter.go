// Package storeutil holds the SQL helpers shared by the store backends.
package storeutil

import (
	"fmt"
	"math"
	"strings"

	"github.com/goran-ethernal/DonationIndexor/pkg/store"
)

// Placeholder renders the n-th (1 based) bind parameter of a dialect.
type Placeholder func(n int) string

// QuestionMark is the SQLite placeholder style.
func QuestionMark(int) string { return "?" }

// Dollar is the Postgres placeholder style.
func Dollar(n int) string { return fmt.Sprintf("$%d", n) }

// Where renders filter as a WHERE clause (empty when nothing filters) and its arguments.
func Where(filter store.Filter, bind Placeholder) (string, []any) {
	var (
		conds []string
		args  []any
	)

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, bind(len(args))))
	}

	if filter.Donor != nil {
		add("donor = %s", filter.Donor.Hex())
	}
	if filter.Cause != "" {
		add("cause = %s", filter.Cause)
	}
	if filter.FromBlock > 0 {
		add("block_number >= %s", ClampInt64(filter.FromBlock))
	}
	if filter.ToBlock > 0 {
		add("block_number <= %s", ClampInt64(filter.ToBlock))
	}
	if filter.FromTime > 0 {
		add("chain_timestamp >= %s", ClampInt64(filter.FromTime))
	}
	if filter.ToTime > 0 {
		add("chain_timestamp <= %s", ClampInt64(filter.ToTime))
	}

	if len(conds) == 0 {
		return "", nil
	}

	return " WHERE " + strings.Join(conds, " AND "), args
}

// ClampInt64 converts v for the signed BIGINT/INTEGER columns. Values beyond
// math.MaxInt64 saturate so range bounds keep their direction.
func ClampInt64(v uint64) int64 {
	if v > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v)
}

// FieldFilter turns a single field lookup into its WHERE clause.
func FieldFilter(field store.Field, value string, bind Placeholder) (string, []any, error) {
	normalized, err := field.NormalizeValue(value)
	if err != nil {
		return "", nil, err
	}

	return fmt.Sprintf(" WHERE %s = %s", string(field), bind(1)), []any{normalized}, nil
}

// Limit applies store.DefaultLimit to non-positive limits.
func Limit(limit int) int {
	if limit <= 0 {
		return store.DefaultLimit
	}
	return limit
}
