// SPDX-FileCopyrightText: 2019, 2020, 2022 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

package bp7

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dtn7/cboring"
)

// BundleAgeBlock carries the number of milliseconds since bundle creation, for nodes without an accurate
// clock to attach a creation timestamp; section 4.4.3.
type BundleAgeBlock uint64

// NewBundleAgeBlock starts a Bundle Age Block at the given age in milliseconds.
func NewBundleAgeBlock(ms uint64) *BundleAgeBlock {
	age := BundleAgeBlock(ms)
	return &age
}

func (bab *BundleAgeBlock) BlockTypeCode() uint64 { return ExtBlockTypeBundleAgeBlock }
func (bab *BundleAgeBlock) BlockTypeName() string { return "Bundle Age Block" }

// Age returns the current age in milliseconds.
func (bab *BundleAgeBlock) Age() uint64 {
	return uint64(*bab)
}

// Increment adds offset milliseconds to the age and returns the new total.
func (bab *BundleAgeBlock) Increment(offset uint64) uint64 {
	*bab += BundleAgeBlock(offset)
	return bab.Age()
}

func (bab *BundleAgeBlock) MarshalCbor(w io.Writer) error {
	return cboring.WriteUInt(uint64(*bab), w)
}

func (bab *BundleAgeBlock) UnmarshalCbor(r io.Reader) error {
	us, err := cboring.ReadUInt(r)
	if err != nil {
		return err
	}
	*bab = BundleAgeBlock(us)
	return nil
}

func (bab *BundleAgeBlock) MarshalJSON() ([]byte, error) {
	return json.Marshal(fmt.Sprintf("%d ms", bab.Age()))
}

func (bab *BundleAgeBlock) CheckValid() error {
	return nil
}

// CheckContextValid enforces that at most one Bundle Age Block travels with a bundle.
func (bab *BundleAgeBlock) CheckContextValid(b *Bundle) error {
	return requireSoleInstance(b, ExtBlockTypeBundleAgeBlock, bab)
}
