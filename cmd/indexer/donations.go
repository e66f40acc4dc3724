package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/goran-ethernal/DonationIndexor/internal/common"
	"github.com/goran-ethernal/DonationIndexor/internal/config"
	"github.com/goran-ethernal/DonationIndexor/internal/logger"
	"github.com/goran-ethernal/DonationIndexor/pkg/store"
	"github.com/spf13/cobra"
)

var (
	donorFlag  string
	causeFlag  string
	txHashFlag string
	limitFlag  int
)

var donationsCmd = &cobra.Command{
	Use:   "donations",
	Short: "Query indexed donations by donor, cause or transaction hash",
	Example: `  indexer donations -c config.yaml --donor 0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed
  indexer donations -c config.yaml --cause "clean water" --limit 20`,
	RunE: func(cmd *cobra.Command, args []string) error {
		field, value, err := donationQuery()
		if err != nil {
			return err
		}

		cfg, err := config.LoadFromFile(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		s, _, err := openStore(ctx, cfg.DB, logger.NewComponentLoggerFromConfig(common.ComponentStore, cfg.Logging))
		if err != nil {
			return err
		}
		defer s.Close()

		return printDonations(ctx, cmd.OutOrStdout(), s, field, value, limitFlag)
	},
}

func init() {
	donationsCmd.Flags().StringVar(&donorFlag, "donor", "", "donor address")
	donationsCmd.Flags().StringVar(&causeFlag, "cause", "", "exact cause")
	donationsCmd.Flags().StringVar(&txHashFlag, "tx", "", "transaction hash")
	donationsCmd.Flags().IntVar(&limitFlag, "limit", store.DefaultLimit, "maximum number of rows")
	donationsCmd.MarkFlagsMutuallyExclusive("donor", "cause", "tx")
	donationsCmd.MarkFlagsOneRequired("donor", "cause", "tx")
}

func donationQuery() (store.Field, string, error) {
	switch {
	case donorFlag != "":
		return store.FieldDonor, donorFlag, nil
	case causeFlag != "":
		return store.FieldCause, causeFlag, nil
	case txHashFlag != "":
		return store.FieldTxHash, txHashFlag, nil
	default:
		return "", "", errors.New("one of --donor, --cause or --tx is required")
	}
}

func printDonations(ctx context.Context, out io.Writer, s store.Gateway, field store.Field, value string,
	limit int) error {
	events, err := s.FindByField(ctx, field, value, limit)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BLOCK\tLOG\tDONOR\tAMOUNT\tCAUSE\tTX")
	for _, ev := range events {
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\t%s\n",
			ev.BlockNumber, ev.LogIndex, ev.Donor.Hex(), ev.Amount, ev.Cause, ev.TxHash.Hex())
	}
	if err := w.Flush(); err != nil {
		return err
	}

	// totals are only meaningful for the filterable fields
	filter, ok := filterFor(field, value)
	if !ok {
		return nil
	}

	count, err := s.Count(ctx, filter)
	if err != nil {
		return err
	}
	total, err := s.SumAmount(ctx, filter)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\ncount=%d total=%s (%s)\n", count, total, hexutil.EncodeBig(total))
	return nil
}

func filterFor(field store.Field, value string) (store.Filter, bool) {
	switch field {
	case store.FieldDonor:
		if !ethcommon.IsHexAddress(value) {
			return store.Filter{}, false
		}
		donor := ethcommon.HexToAddress(value)
		return store.Filter{Donor: &donor}, true
	case store.FieldCause:
		return store.Filter{Cause: value}, true
	default:
		return store.Filter{}, false
	}
}
