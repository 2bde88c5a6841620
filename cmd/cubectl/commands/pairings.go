package commands

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sifteo/cubeconnectord/internal/cubeconnector"
)

// errInvalidSlot is returned when a command argument is out of the
// pairing slot range.
var errInvalidSlot = errors.New("slot must be between 0 and 15")

// pairingRow is the display-friendly view of one pairing slot, joining
// the HWID table with its MRU rank.
type pairingRow struct {
	Slot int    `json:"slot"`
	HWID string `json:"hwid"`
	Used bool   `json:"used"`
	Rank int    `json:"rank"`
}

func pairingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pairings",
		Short: "Inspect paired cube records",
	}

	cmd.AddCommand(pairingsListCmd())
	cmd.AddCommand(pairingsShowCmd())
	cmd.AddCommand(pairingsForgetCmd())

	return cmd
}

// --- pairings list ---

func pairingsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all pairing slots",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			rows, err := loadPairingRows(st)
			if err != nil {
				return err
			}

			out, err := formatPairingRows(rows, outputFormat)
			if err != nil {
				return fmt.Errorf("format pairings: %w", err)
			}
			fmt.Print(out)
			return nil
		},
	}
}

// --- pairings show ---

func pairingsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <slot>",
		Short: "Show details of a single pairing slot",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			slot, err := parseSlot(args[0])
			if err != nil {
				return err
			}

			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			rows, err := loadPairingRows(st)
			if err != nil {
				return err
			}

			out, err := formatPairingRow(rows[slot], outputFormat)
			if err != nil {
				return fmt.Errorf("format pairing: %w", err)
			}
			fmt.Print(out)
			return nil
		},
	}
}

// --- pairings forget ---

func pairingsForgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forget <slot>",
		Short: "Clear a pairing slot's HWID record",
		Long:  "Clears the HWID stored for a pairing slot. Only safe to run while cubeconnectord is stopped, since it owns the same database file while running.",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			slot, err := parseSlot(args[0])
			if err != nil {
				return err
			}

			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.DeleteCube(slot); err != nil {
				return fmt.Errorf("forget slot %d: %w", slot, err)
			}

			fmt.Printf("Pairing slot %d cleared.\n", slot)
			return nil
		},
	}
}

func parseSlot(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("parse slot %q: %w", s, err)
	}
	if n < 0 || n >= cubeconnector.NumPairings {
		return 0, fmt.Errorf("%w: got %d", errInvalidSlot, n)
	}
	return n, nil
}

// loadPairingRows joins the HWID and MRU records into per-slot rows.
func loadPairingRows(st storeReader) ([]pairingRow, error) {
	ids, err := st.LoadPairingID()
	if err != nil {
		return nil, fmt.Errorf("load pairing IDs: %w", err)
	}

	mru, err := st.LoadPairingMRU()
	if err != nil {
		return nil, fmt.Errorf("load pairing MRU: %w", err)
	}

	rankOf := make(map[uint8]int, cubeconnector.NumPairings)
	for rank, slot := range mru.Rank {
		rankOf[slot] = rank
	}

	rows := make([]pairingRow, cubeconnector.NumPairings)
	for i := range rows {
		hwid := ids.HWID[i]
		rows[i] = pairingRow{
			Slot: i,
			HWID: hwid.String(),
			Used: hwid != cubeconnector.InvalidHWID,
			Rank: rankOf[uint8(i)],
		}
	}
	return rows, nil
}

// storeReader is the subset of *store.Store pairings commands need,
// narrow enough to fake in tests without a real database.
type storeReader interface {
	LoadPairingID() (cubeconnector.PairingIDRecord, error)
	LoadPairingMRU() (cubeconnector.PairingMRURecord, error)
}
