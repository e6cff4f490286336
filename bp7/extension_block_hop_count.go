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

// hopCountFieldCount is this block's CBOR array length: a limit and the current count, section 4.4.2.
const hopCountFieldCount = 2

// HopCountBlock tracks how many times a bundle has been forwarded, letting routers drop bundles that loop
// past a configured limit, section 4.4.2.
type HopCountBlock struct {
	Limit uint8
	Count uint8
}

// NewHopCountBlock starts a fresh hop counter at zero under the given limit.
func NewHopCountBlock(limit uint8) *HopCountBlock {
	return &HopCountBlock{Limit: limit}
}

func (hcb *HopCountBlock) BlockTypeCode() uint64 { return ExtBlockTypeHopCountBlock }
func (hcb *HopCountBlock) BlockTypeName() string { return "Hop Count Block" }

// IsExceeded reports whether Count has climbed past Limit.
func (hcb HopCountBlock) IsExceeded() bool {
	return hcb.Count > hcb.Limit
}

// Increment advances the hop counter by one and reports whether the limit is now exceeded.
func (hcb *HopCountBlock) Increment() bool {
	hcb.Count++
	return hcb.IsExceeded()
}

// Decrement undoes a forwarding attempt's hop count increase, e.g. after a failed transmission.
func (hcb *HopCountBlock) Decrement() {
	hcb.Count--
}

func (hcb *HopCountBlock) MarshalCbor(w io.Writer) error {
	if err := cboring.WriteArrayLength(hopCountFieldCount, w); err != nil {
		return err
	}
	for _, f := range [hopCountFieldCount]uint8{hcb.Limit, hcb.Count} {
		if err := cboring.WriteUInt(uint64(f), w); err != nil {
			return err
		}
	}
	return nil
}

func (hcb *HopCountBlock) UnmarshalCbor(r io.Reader) error {
	l, err := cboring.ReadArrayLength(r)
	if err != nil {
		return err
	} else if l != hopCountFieldCount {
		return fmt.Errorf("expected array with length %d, got %d", hopCountFieldCount, l)
	}

	for _, f := range [hopCountFieldCount]*uint8{&hcb.Limit, &hcb.Count} {
		x, err := cboring.ReadUInt(r)
		if err != nil {
			return err
		} else if x > 255 {
			return fmt.Errorf("hop count field must fit a uint8, got %d", x)
		}
		*f = uint8(x)
	}
	return nil
}

func (hcb *HopCountBlock) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Limit uint8 `json:"limit"`
		Count uint8 `json:"count"`
	}{hcb.Limit, hcb.Count})
}

func (hcb *HopCountBlock) CheckValid() error {
	if hcb.IsExceeded() {
		return fmt.Errorf("hop count block's count %d exceeds its limit %d", hcb.Count, hcb.Limit)
	}
	return nil
}

// CheckContextValid enforces that at most one Hop Count Block travels with a bundle.
func (hcb *HopCountBlock) CheckContextValid(b *Bundle) error {
	return requireSoleInstance(b, ExtBlockTypeHopCountBlock, hcb)
}
