package db

import (
	"math/big"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/russross/meddler"
	"github.com/stretchr/testify/require"
)

type meddledRow struct {
	ID     int64           `meddler:"id,pk"`
	Donor  common.Address  `meddler:"donor,address"`
	Hash   common.Hash     `meddler:"hash,hash"`
	Parent *common.Hash    `meddler:"parent,hash"`
	Amount *big.Int        `meddler:"amount,bigint"`
	Owner  *common.Address `meddler:"owner,address"`
}

func TestMeddlers_RoundTrip(t *testing.T) {
	sqlDB, err := NewSQLiteDB(filepath.Join(t.TempDir(), "meddlers.db"))
	require.NoError(t, err)
	defer sqlDB.Close()

	_, err = sqlDB.Exec(`CREATE TABLE meddled (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		donor TEXT NOT NULL,
		hash TEXT NOT NULL,
		parent TEXT,
		amount TEXT,
		owner TEXT
	)`)
	require.NoError(t, err)

	huge, ok := new(big.Int).SetString("115792089237316195423570985008687907853269984665640564039457584007913129639935", 10)
	require.True(t, ok)

	in := &meddledRow{
		Donor:  common.HexToAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"),
		Hash:   common.HexToHash("0x01"),
		Amount: huge,
	}
	require.NoError(t, meddler.Insert(sqlDB, "meddled", in))

	var rawDonor, rawAmount string
	require.NoError(t, sqlDB.QueryRow(`SELECT donor, amount FROM meddled WHERE id = ?`, in.ID).Scan(&rawDonor, &rawAmount))
	require.Equal(t, "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", rawDonor)
	require.Equal(t, huge.String(), rawAmount)

	out := &meddledRow{}
	require.NoError(t, meddler.Load(sqlDB, "meddled", out, in.ID))
	require.Equal(t, in.Donor, out.Donor)
	require.Equal(t, in.Hash, out.Hash)
	require.Nil(t, out.Parent)
	require.Nil(t, out.Owner)
	require.Zero(t, huge.Cmp(out.Amount))
}

func TestBigIntMeddler_Errors(t *testing.T) {
	m := BigIntMeddler{}

	_, err := m.PreWrite("not a big int")
	require.Error(t, err)

	v, err := m.PreWrite((*big.Int)(nil))
	require.NoError(t, err)
	require.Nil(t, v)

	target, err := m.PreRead(nil)
	require.NoError(t, err)

	var dst *big.Int
	ns := target.(interface{ Scan(any) error })
	require.NoError(t, ns.Scan("12x"))
	require.ErrorContains(t, m.PostRead(&dst, target), "invalid decimal integer")
}
