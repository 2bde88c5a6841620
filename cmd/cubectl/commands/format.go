package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
)

const (
	formatJSON  = "json"
	formatTable = "table"
)

// errUnsupportedFormat is returned when the requested output format is not supported.
var errUnsupportedFormat = errors.New("unsupported output format")

func formatPairingRows(rows []pairingRow, format string) (string, error) {
	switch format {
	case formatJSON:
		b, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal pairings: %w", err)
		}
		return string(b) + "\n", nil
	case formatTable:
		return formatPairingRowsTable(rows), nil
	default:
		return "", fmt.Errorf("%w: %q", errUnsupportedFormat, format)
	}
}

func formatPairingRow(row pairingRow, format string) (string, error) {
	switch format {
	case formatJSON:
		b, err := json.MarshalIndent(row, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal pairing: %w", err)
		}
		return string(b) + "\n", nil
	case formatTable:
		return formatPairingRowDetail(row), nil
	default:
		return "", fmt.Errorf("%w: %q", errUnsupportedFormat, format)
	}
}

func formatPairingRowsTable(rows []pairingRow) string {
	var buf strings.Builder
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SLOT\tHWID\tUSED\tRANK")

	for _, r := range rows {
		fmt.Fprintf(w, "%d\t%s\t%t\t%d\n", r.Slot, r.HWID, r.Used, r.Rank)
	}

	w.Flush() //nolint:errcheck // tabwriter.Flush to a strings.Builder never fails
	return buf.String()
}

func formatPairingRowDetail(r pairingRow) string {
	var buf strings.Builder
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "Slot:\t%d\n", r.Slot)
	fmt.Fprintf(w, "HWID:\t%s\n", r.HWID)
	fmt.Fprintf(w, "Used:\t%t\n", r.Used)
	fmt.Fprintf(w, "MRU Rank:\t%d\n", r.Rank)

	w.Flush() //nolint:errcheck // tabwriter.Flush to a strings.Builder never fails
	return buf.String()
}
