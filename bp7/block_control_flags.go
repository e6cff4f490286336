// SPDX-FileCopyrightText: 2018, 2019, 2020 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

package bp7

import "strings"

// BlockControlFlags is the Block Processing Control Flags bitfield of a CanonicalBlock, section 4.1.4.
type BlockControlFlags uint64

// Block Processing Control Flags, numbered by their bit position as in section 4.1.4.
const (
	ReplicateBlock    BlockControlFlags = 1 << 0
	StatusReportBlock BlockControlFlags = 1 << 1
	DeleteBundle      BlockControlFlags = 1 << 2
	RemoveBlock       BlockControlFlags = 1 << 4
)

var blockControlFlagLabels = []bitLabel[BlockControlFlags]{
	{RemoveBlock, "REMOVE_BLOCK"},
	{DeleteBundle, "DELETE_BUNDLE"},
	{StatusReportBlock, "REQUEST_STATUS_REPORT"},
	{ReplicateBlock, "REPLICATE_BLOCK"},
}

// Has reports whether any bit of flag is set in bcf.
func (bcf BlockControlFlags) Has(flag BlockControlFlags) bool {
	return bcf&flag != 0
}

// CheckValid always succeeds: since dtn-bpbis-24, an unknown or reserved bit is no longer a fault.
func (bcf BlockControlFlags) CheckValid() error {
	return nil
}

// Strings lists the names of every set flag, ordered from the highest bit to the lowest.
func (bcf BlockControlFlags) Strings() []string {
	return activeLabels(bcf, blockControlFlagLabels)
}

// MarshalJSON renders the set flags as a JSON array of their names.
func (bcf BlockControlFlags) MarshalJSON() ([]byte, error) {
	return flagsJSON(bcf.Strings())
}

func (bcf BlockControlFlags) String() string {
	return strings.Join(bcf.Strings(), ",")
}
