// SPDX-FileCopyrightText: 2019, 2020 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

package bp7

import (
	"fmt"
	"io"

	"github.com/dtn7/cboring"
)

// BundleID identifies a bundle by its source node and creation timestamp, plus, for a fragment, the
// fragment offset and the total data length of the bundle it was split from.
//
// cboring (un)marshals only the fields SourceNode, Timestamp, and, if IsFragment is set, FragmentOffset and
// TotalDataLength; IsFragment itself is not written to the wire and MUST be set by the caller before
// UnmarshalCbor is invoked, since it decides whether two or four values are read.
type BundleID struct {
	SourceNode EndpointID
	Timestamp  CreationTimestamp

	IsFragment      bool
	FragmentOffset  uint64
	TotalDataLength uint64
}

// Len returns how many CBOR fields this BundleID serializes to: 4 for a fragment, 2 otherwise.
func (bid BundleID) Len() uint64 {
	if bid.IsFragment {
		return 4
	}
	return 2
}

// Scrub drops the fragmentation fields, returning the BundleID of the complete (unfragmented) bundle.
func (bid BundleID) Scrub() BundleID {
	return BundleID{SourceNode: bid.SourceNode, Timestamp: bid.Timestamp}
}

func (bid BundleID) String() string {
	s := fmt.Sprintf("%v-%d-%d", bid.SourceNode, bid.Timestamp[0], bid.Timestamp[1])
	if bid.IsFragment {
		s += fmt.Sprintf("-%d-%d", bid.FragmentOffset, bid.TotalDataLength)
	}
	return s
}

// MarshalCbor writes SourceNode, Timestamp, and — for a fragment — FragmentOffset and TotalDataLength.
func (bid *BundleID) MarshalCbor(w io.Writer) error {
	if err := cboring.Marshal(&bid.SourceNode, w); err != nil {
		return fmt.Errorf("marshalling source node failed: %v", err)
	}
	if err := cboring.Marshal(&bid.Timestamp, w); err != nil {
		return fmt.Errorf("marshalling timestamp failed: %v", err)
	}

	if !bid.IsFragment {
		return nil
	}
	for _, f := range []uint64{bid.FragmentOffset, bid.TotalDataLength} {
		if err := cboring.WriteUInt(f, w); err != nil {
			return err
		}
	}
	return nil
}

// UnmarshalCbor reads SourceNode, Timestamp, and, if IsFragment was already set to true by the caller,
// FragmentOffset and TotalDataLength.
func (bid *BundleID) UnmarshalCbor(r io.Reader) error {
	if err := cboring.Unmarshal(&bid.SourceNode, r); err != nil {
		return fmt.Errorf("unmarshalling source node failed: %v", err)
	}
	if err := cboring.Unmarshal(&bid.Timestamp, r); err != nil {
		return fmt.Errorf("unmarshalling timestamp failed: %v", err)
	}

	if !bid.IsFragment {
		return nil
	}
	for _, f := range []*uint64{&bid.FragmentOffset, &bid.TotalDataLength} {
		n, err := cboring.ReadUInt(r)
		if err != nil {
			return err
		}
		*f = n
	}
	return nil
}
