package main

import (
	"fmt"
	"io"

	"github.com/pterm/pterm"

	"github.com/iho/gosend/internal/domain"
)

const unknownBalance = "?"

func renderReport(w io.Writer, network domain.Network, r *domain.TransferReport) error {
	data := pterm.TableData{
		{"Party", "Address", "Before", "After"},
		{"sender", r.Sender.String(), formatBalance(r.Before[0]), formatBalance(r.After[0])},
		{"recipient", r.Recipient.String(), formatBalance(r.Before[1]), formatBalance(r.After[1])},
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).Srender()
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintln(w, table); err != nil {
		return err
	}

	if r.Receipt != nil {
		_, err = fmt.Fprintf(w, "tx %s at height %d on %s (run %s)\n",
			r.Receipt.TxHash, r.Receipt.Height, network.ChainID, r.RunID)
	}
	return err
}

func formatBalance(b domain.BalanceSnapshot) string {
	if b.Owner.IsZero() {
		return unknownBalance
	}
	return b.Amount + b.Denom
}
