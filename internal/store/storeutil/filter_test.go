package storeutil

import (
	"math"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goran-ethernal/DonationIndexor/pkg/store"
	"github.com/stretchr/testify/require"
)

func TestWhere(t *testing.T) {
	donor := common.HexToAddress("0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed")

	tests := []struct {
		name     string
		filter   store.Filter
		bind     Placeholder
		wantSQL  string
		wantArgs []any
	}{
		{
			name:    "empty filter",
			filter:  store.Filter{},
			bind:    QuestionMark,
			wantSQL: "",
		},
		{
			name:     "donor and cause sqlite",
			filter:   store.Filter{Donor: &donor, Cause: "water"},
			bind:     QuestionMark,
			wantSQL:  " WHERE donor = ? AND cause = ?",
			wantArgs: []any{"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", "water"},
		},
		{
			name:     "ranges postgres",
			filter:   store.Filter{FromBlock: 10, ToBlock: 20, FromTime: 100, ToTime: 200},
			bind:     Dollar,
			wantSQL:  " WHERE block_number >= $1 AND block_number <= $2 AND chain_timestamp >= $3 AND chain_timestamp <= $4",
			wantArgs: []any{int64(10), int64(20), int64(100), int64(200)},
		},
		{
			name:     "bounds beyond int64 saturate",
			filter:   store.Filter{FromBlock: math.MaxUint64, ToTime: math.MaxInt64 + 1},
			bind:     QuestionMark,
			wantSQL:  " WHERE block_number >= ? AND chain_timestamp <= ?",
			wantArgs: []any{int64(math.MaxInt64), int64(math.MaxInt64)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotSQL, gotArgs := Where(tt.filter, tt.bind)
			require.Equal(t, tt.wantSQL, gotSQL)
			require.Equal(t, tt.wantArgs, gotArgs)
		})
	}
}

func TestClampInt64(t *testing.T) {
	require.Equal(t, int64(0), ClampInt64(0))
	require.Equal(t, int64(42), ClampInt64(42))
	require.Equal(t, int64(math.MaxInt64), ClampInt64(math.MaxInt64))
	require.Equal(t, int64(math.MaxInt64), ClampInt64(math.MaxInt64+1))
	require.Equal(t, int64(math.MaxInt64), ClampInt64(math.MaxUint64))
}

func TestFieldFilter(t *testing.T) {
	sql, args, err := FieldFilter(store.FieldDonor, "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", Dollar)
	require.NoError(t, err)
	require.Equal(t, " WHERE donor = $1", sql)
	require.Equal(t, []any{"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"}, args)

	_, _, err = FieldFilter(store.Field("amount"), "1", QuestionMark)
	require.ErrorIs(t, err, store.ErrInvalidField)
}

func TestLimit(t *testing.T) {
	require.Equal(t, store.DefaultLimit, Limit(0))
	require.Equal(t, store.DefaultLimit, Limit(-5))
	require.Equal(t, 7, Limit(7))
}
