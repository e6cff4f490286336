// SPDX-FileCopyrightText: 2019, 2020, 2022 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

package bp7

import (
	"encoding/json"
	"io"

	"github.com/dtn7/cboring"
)

// PreviousNodeBlock names the node that forwarded a bundle most recently, section 4.4.1.
type PreviousNodeBlock EndpointID

// NewPreviousNodeBlock wraps prev as a Previous Node Block.
func NewPreviousNodeBlock(prev EndpointID) *PreviousNodeBlock {
	pnb := PreviousNodeBlock(prev)
	return &pnb
}

func (pnb *PreviousNodeBlock) BlockTypeCode() uint64 { return ExtBlockTypePreviousNodeBlock }
func (pnb *PreviousNodeBlock) BlockTypeName() string { return "Previous Node Block" }

// Endpoint returns the wrapped EndpointID.
func (pnb *PreviousNodeBlock) Endpoint() EndpointID {
	return EndpointID(*pnb)
}

func (pnb *PreviousNodeBlock) MarshalCbor(w io.Writer) error {
	endpoint := pnb.Endpoint()
	return cboring.Marshal(&endpoint, w)
}

func (pnb *PreviousNodeBlock) UnmarshalCbor(r io.Reader) error {
	var endpoint EndpointID
	if err := cboring.Unmarshal(&endpoint, r); err != nil {
		return err
	}
	*pnb = PreviousNodeBlock(endpoint)
	return nil
}

func (pnb *PreviousNodeBlock) MarshalJSON() ([]byte, error) {
	return json.Marshal(pnb.Endpoint().String())
}

func (pnb *PreviousNodeBlock) CheckValid() error {
	endpoint := pnb.Endpoint()
	return endpoint.CheckValid()
}

// CheckContextValid enforces that at most one Previous Node Block travels with a bundle.
func (pnb *PreviousNodeBlock) CheckContextValid(b *Bundle) error {
	return requireSoleInstance(b, ExtBlockTypePreviousNodeBlock, pnb)
}
