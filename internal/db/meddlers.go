package db

import (
	"database/sql"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	internalcommon "github.com/goran-ethernal/DonationIndexor/internal/common"
	"github.com/russross/meddler"
)

func init() {
	meddler.Default = meddler.SQLite
	meddler.Register("address", hexMeddler[common.Address]{parse: common.HexToAddress})
	meddler.Register("hash", hexMeddler[common.Hash]{parse: common.HexToHash})
	meddler.Register("bigint", BigIntMeddler{})
}

// hexMeddler stores go-ethereum fixed size types as 0x prefixed text.
// Addresses are written in their EIP-55 checksum form.
type hexMeddler[T interface{ Hex() string }] struct {
	parse func(string) T
}

func (h hexMeddler[T]) PreRead(fieldAddr any) (scanTarget any, err error) {
	return new(sql.NullString), nil
}

func (h hexMeddler[T]) PostRead(fieldAddr, scanTarget any) error {
	ns, ok := scanTarget.(*sql.NullString)
	if !ok {
		return fmt.Errorf("expected *sql.NullString, got %T", scanTarget)
	}

	switch ptr := fieldAddr.(type) {
	case *T:
		var zero T
		*ptr = zero
		if ns.Valid {
			*ptr = h.parse(ns.String)
		}
	case **T:
		*ptr = nil
		if ns.Valid {
			v := h.parse(ns.String)
			*ptr = &v
		}
	default:
		return fmt.Errorf("unsupported field type %T", fieldAddr)
	}

	return nil
}

func (h hexMeddler[T]) PreWrite(field any) (saveValue any, err error) {
	switch v := field.(type) {
	case T:
		return v.Hex(), nil
	case *T:
		if v == nil {
			return nil, nil
		}
		return (*v).Hex(), nil
	default:
		return nil, fmt.Errorf("unsupported field type %T", field)
	}
}

// BigIntMeddler stores *big.Int values as base-10 text so uint256 amounts keep full precision.
type BigIntMeddler struct{}

func (BigIntMeddler) PreRead(fieldAddr any) (scanTarget any, err error) {
	return new(sql.NullString), nil
}

func (BigIntMeddler) PostRead(fieldAddr, scanTarget any) error {
	ns, ok := scanTarget.(*sql.NullString)
	if !ok {
		return fmt.Errorf("expected *sql.NullString, got %T", scanTarget)
	}

	ptr, ok := fieldAddr.(**big.Int)
	if !ok {
		return fmt.Errorf("expected **big.Int, got %T", fieldAddr)
	}

	if !ns.Valid {
		*ptr = nil
		return nil
	}

	v, err := internalcommon.ParseDecimalBigInt(ns.String)
	if err != nil {
		return err
	}
	*ptr = v

	return nil
}

func (BigIntMeddler) PreWrite(field any) (saveValue any, err error) {
	v, ok := field.(*big.Int)
	if !ok {
		return nil, fmt.Errorf("expected *big.Int, got %T", field)
	}
	if v == nil {
		return nil, nil
	}
	return v.String(), nil
}
