package commands

import (
	"strings"
	"testing"

	"github.com/sifteo/cubeconnectord/internal/cubeconnector"
)

type fakeStoreReader struct {
	id  cubeconnector.PairingIDRecord
	mru cubeconnector.PairingMRURecord
}

func (f fakeStoreReader) LoadPairingID() (cubeconnector.PairingIDRecord, error) {
	return f.id, nil
}

func (f fakeStoreReader) LoadPairingMRU() (cubeconnector.PairingMRURecord, error) {
	return f.mru, nil
}

func TestLoadPairingRowsMarksUsedSlots(t *testing.T) {
	t.Parallel()

	id := cubeconnector.NewPairingIDRecord()
	id.HWID[3] = cubeconnector.HWID{1, 2, 3, 4, 5, 6, 7, 8}

	rows, err := loadPairingRows(fakeStoreReader{id: id, mru: cubeconnector.NewPairingMRURecord()})
	if err != nil {
		t.Fatalf("loadPairingRows: %v", err)
	}

	if len(rows) != cubeconnector.NumPairings {
		t.Fatalf("len(rows) = %d, want %d", len(rows), cubeconnector.NumPairings)
	}

	for i, row := range rows {
		want := i == 3
		if row.Used != want {
			t.Errorf("rows[%d].Used = %t, want %t", i, row.Used, want)
		}
		if row.Slot != i {
			t.Errorf("rows[%d].Slot = %d, want %d", i, row.Slot, i)
		}
	}
}

func TestLoadPairingRowsReflectsMRURank(t *testing.T) {
	t.Parallel()

	mru := cubeconnector.NewPairingMRURecord()
	// Swap so slot 5 is most recently used, slot 0 moves to rank 5.
	mru.Rank[0], mru.Rank[5] = mru.Rank[5], mru.Rank[0]

	rows, err := loadPairingRows(fakeStoreReader{id: cubeconnector.NewPairingIDRecord(), mru: mru})
	if err != nil {
		t.Fatalf("loadPairingRows: %v", err)
	}

	if rows[5].Rank != 0 {
		t.Errorf("rows[5].Rank = %d, want 0", rows[5].Rank)
	}
	if rows[0].Rank != 5 {
		t.Errorf("rows[0].Rank = %d, want 5", rows[0].Rank)
	}
}

func TestParseSlotRejectsOutOfRange(t *testing.T) {
	t.Parallel()

	if _, err := parseSlot("16"); err == nil {
		t.Error("parseSlot(16) = nil error, want errInvalidSlot")
	}
	if _, err := parseSlot("-1"); err == nil {
		t.Error("parseSlot(-1) = nil error, want errInvalidSlot")
	}
	if _, err := parseSlot("not-a-number"); err == nil {
		t.Error("parseSlot(not-a-number) = nil error, want parse error")
	}

	slot, err := parseSlot("7")
	if err != nil {
		t.Fatalf("parseSlot(7): %v", err)
	}
	if slot != 7 {
		t.Errorf("parseSlot(7) = %d, want 7", slot)
	}
}

func TestFormatPairingRowsTable(t *testing.T) {
	t.Parallel()

	rows := []pairingRow{
		{Slot: 0, HWID: cubeconnector.InvalidHWID.String(), Used: false, Rank: 0},
	}

	out, err := formatPairingRows(rows, formatTable)
	if err != nil {
		t.Fatalf("formatPairingRows: %v", err)
	}
	if !strings.Contains(out, "SLOT") {
		t.Errorf("table output missing header: %q", out)
	}
}

func TestFormatPairingRowsJSON(t *testing.T) {
	t.Parallel()

	rows := []pairingRow{{Slot: 2, HWID: "aa", Used: true, Rank: 1}}

	out, err := formatPairingRows(rows, formatJSON)
	if err != nil {
		t.Fatalf("formatPairingRows: %v", err)
	}
	if !strings.Contains(out, `"slot": 2`) {
		t.Errorf("json output missing slot field: %q", out)
	}
}

func TestFormatPairingRowsUnsupportedFormat(t *testing.T) {
	t.Parallel()

	if _, err := formatPairingRows(nil, "xml"); err == nil {
		t.Error("formatPairingRows(xml) = nil error, want errUnsupportedFormat")
	}
}
