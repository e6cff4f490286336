// SPDX-FileCopyrightText: 2018, 2019, 2020, 2021 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

package bp7

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dtn7/cboring"
	"github.com/hashicorp/go-multierror"
)

// dtnVersion is the Bundle Protocol version this package speaks, section 4.3.1.
const dtnVersion uint64 = 7

// PrimaryBlock is the one mandatory, immutable-once-created block of a Bundle, section 4.3.1. Its
// Destination, SourceNode, and ReportTo addresses, creation timestamp, and lifetime describe the bundle as a
// whole, independent of whatever CanonicalBlocks it carries.
type PrimaryBlock struct {
	Version            uint64
	BundleControlFlags BundleControlFlags
	CRCType            CRCType
	Destination        EndpointID
	SourceNode         EndpointID
	ReportTo           EndpointID
	CreationTimestamp  CreationTimestamp
	Lifetime           uint64
	FragmentOffset     uint64
	TotalDataLength    uint64
	CRC                []byte
}

// NewPrimaryBlock builds a PrimaryBlock with a mandatory CRC32 checksum and ReportTo defaulted to
// sourceNode. Fragmentation fields start at zero; set BundleControlFlags' IsFragment bit and the
// FragmentOffset/TotalDataLength fields directly to describe a fragment.
func NewPrimaryBlock(bundleControlFlags BundleControlFlags, destination, sourceNode EndpointID, creationTimestamp CreationTimestamp, lifetime uint64) PrimaryBlock {
	pb := PrimaryBlock{
		Version:            dtnVersion,
		BundleControlFlags: bundleControlFlags,
		CRCType:            CRC32,
		Destination:        destination,
		SourceNode:         sourceNode,
		ReportTo:           sourceNode,
		CreationTimestamp:  creationTimestamp,
		Lifetime:           lifetime,
	}
	_ = pb.calculateCRC()
	return pb
}

// HasFragmentation reports whether the IsFragment control flag is set, making FragmentOffset and
// TotalDataLength meaningful.
func (pb PrimaryBlock) HasFragmentation() bool {
	return pb.BundleControlFlags.Has(IsFragment)
}

// HasCRC reports whether a checksum is attached to this block.
func (pb PrimaryBlock) HasCRC() bool {
	return pb.GetCRCType() != CRCNo
}

// GetCRCType returns this block's CRCType.
func (pb PrimaryBlock) GetCRCType() CRCType {
	return pb.CRCType
}

// SetCRCType changes the checksum type. A PrimaryBlock always carries a CRC in practice — dtn-bpbis requires
// one unless a block integrity block protects the primary block, which this package does not yet support —
// so CRCNo is silently upgraded to CRC32 rather than honored.
func (pb *PrimaryBlock) SetCRCType(crcType CRCType) {
	if crcType == CRCNo {
		crcType = CRC32
	}
	pb.CRCType = crcType
	_ = pb.calculateCRC()
}

// calculateCRC re-serializes the block to refresh its CRC field. Called after construction and whenever the
// CRCType changes; the block's other fields are otherwise treated as immutable.
func (pb *PrimaryBlock) calculateCRC() error {
	pb.CRC = nil
	return pb.MarshalCbor(io.Discard)
}

// arrayLength returns this block's CBOR array length: 8 plus one slot for the CRC and two for fragmentation,
// whichever apply.
func (pb PrimaryBlock) arrayLength() uint64 {
	n := uint64(8)
	if pb.HasFragmentation() {
		n += 2
	}
	if pb.HasCRC() {
		n++
	}
	return n
}

func (pb *PrimaryBlock) eids() [3]*EndpointID {
	return [3]*EndpointID{&pb.Destination, &pb.SourceNode, &pb.ReportTo}
}

// MarshalCbor writes the CBOR representation of a PrimaryBlock.
func (pb *PrimaryBlock) MarshalCbor(w io.Writer) error {
	crcBuff := new(bytes.Buffer)
	w = io.MultiWriter(w, crcBuff)

	if err := cboring.WriteArrayLength(pb.arrayLength(), w); err != nil {
		return err
	}

	for _, f := range []uint64{dtnVersion, uint64(pb.BundleControlFlags), uint64(pb.CRCType)} {
		if err := cboring.WriteUInt(f, w); err != nil {
			return err
		}
	}

	for _, eid := range pb.eids() {
		if err := cboring.Marshal(eid, w); err != nil {
			return fmt.Errorf("EndpointID failed: %v", err)
		}
	}

	if err := cboring.Marshal(&pb.CreationTimestamp, w); err != nil {
		return fmt.Errorf("CreationTimestamp failed: %v", err)
	}

	if err := cboring.WriteUInt(pb.Lifetime, w); err != nil {
		return err
	}

	if pb.HasFragmentation() {
		for _, f := range []uint64{pb.FragmentOffset, pb.TotalDataLength} {
			if err := cboring.WriteUInt(f, w); err != nil {
				return err
			}
		}
	}

	if !pb.HasCRC() {
		return nil
	}

	crcVal, err := calculateCRCBuff(crcBuff, pb.CRCType)
	if err != nil {
		return err
	}
	if err := cboring.WriteByteString(crcVal, w); err != nil {
		return err
	}
	pb.CRC = crcVal
	return nil
}

// UnmarshalCbor reads the CBOR representation of a PrimaryBlock.
func (pb *PrimaryBlock) UnmarshalCbor(r io.Reader) error {
	crcBuff := new(bytes.Buffer)
	r = io.TeeReader(r, crcBuff)

	blockLen, err := cboring.ReadArrayLength(r)
	if err != nil {
		return err
	} else if blockLen < 8 || blockLen > 11 {
		return fmt.Errorf("expected array with 8 to 11 elements, got %d", blockLen)
	}

	version, err := cboring.ReadUInt(r)
	if err != nil {
		return err
	} else if version != dtnVersion {
		return fmt.Errorf("expected version %d, got %d", dtnVersion, version)
	}
	pb.Version = dtnVersion

	if bcf, err := cboring.ReadUInt(r); err != nil {
		return err
	} else {
		pb.BundleControlFlags = BundleControlFlags(bcf)
	}

	if crcT, err := cboring.ReadUInt(r); err != nil {
		return err
	} else {
		pb.CRCType = CRCType(crcT)
	}

	for _, eid := range pb.eids() {
		if err := cboring.Unmarshal(eid, r); err != nil {
			return fmt.Errorf("EndpointID failed: %v", err)
		}
	}

	if err := cboring.Unmarshal(&pb.CreationTimestamp, r); err != nil {
		return fmt.Errorf("CreationTimestamp failed: %v", err)
	}

	if lt, err := cboring.ReadUInt(r); err != nil {
		return err
	} else {
		pb.Lifetime = lt
	}

	if blockLen == 10 || blockLen == 11 {
		for _, f := range []*uint64{&pb.FragmentOffset, &pb.TotalDataLength} {
			if x, err := cboring.ReadUInt(r); err != nil {
				return err
			} else {
				*f = x
			}
		}
	}

	if blockLen != 9 && blockLen != 11 {
		return nil
	}

	crcCalc, err := calculateCRCBuff(crcBuff, pb.CRCType)
	if err != nil {
		return err
	}
	crcVal, err := cboring.ReadByteString(r)
	if err != nil {
		return err
	}
	if !bytes.Equal(crcCalc, crcVal) {
		return NewError(ErrKindCRCMismatch, fmt.Sprintf("invalid CRC value: %x instead of expected %x", crcVal, crcCalc), nil)
	}
	pb.CRC = crcVal
	return nil
}

// MarshalJSON renders this PrimaryBlock's display-relevant fields.
func (pb PrimaryBlock) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		ControlFlags      BundleControlFlags `json:"bundleControlFlags"`
		Destination       string             `json:"destination"`
		Source            string             `json:"source"`
		ReportTo          string             `json:"reportTo"`
		CreationTimestamp CreationTimestamp  `json:"creationTimestamp"`
		Lifetime          uint64             `json:"lifetime"`
	}{
		ControlFlags:      pb.BundleControlFlags,
		Destination:       pb.Destination.String(),
		Source:            pb.SourceNode.String(),
		ReportTo:          pb.ReportTo.String(),
		CreationTimestamp: pb.CreationTimestamp,
		Lifetime:          pb.Lifetime,
	})
}

// sourceOmittedImpliesUnfragmentable checks the 4.2.3 rule that an omitted source node (dtn:none) requires
// the bundle to be unfragmentable and to request no status reports.
func (pb PrimaryBlock) sourceOmittedImpliesUnfragmentable() bool {
	if pb.SourceNode != DtnNone() {
		return true
	}
	return pb.BundleControlFlags.Has(MustNotFragmented) && pb.BundleControlFlags.statusReportFlagsClear()
}

// CheckValid returns an aggregated error describing every problem found with this block's fields.
func (pb PrimaryBlock) CheckValid() (errs error) {
	if pb.Version != dtnVersion {
		errs = multierror.Append(errs,
			NewError(ErrKindInvalidPrimaryBlock, fmt.Sprintf("wrong version, %d instead of %d", pb.Version, dtnVersion), nil))
	}

	if bcfErr := pb.BundleControlFlags.CheckValid(); bcfErr != nil {
		errs = multierror.Append(errs, bcfErr)
	}

	for _, eid := range [3]EndpointID{pb.Destination, pb.SourceNode, pb.ReportTo} {
		if err := eid.CheckValid(); err != nil {
			errs = multierror.Append(errs, err)
		}
	}

	if !pb.sourceOmittedImpliesUnfragmentable() {
		errs = multierror.Append(errs, NewError(ErrKindInvalidPrimaryBlock,
			"source node is dtn:none, but bundle may be fragmented or status report flags are not zero", nil))
	}

	return
}

func (pb PrimaryBlock) String() string {
	var b strings.Builder

	_, _ = fmt.Fprintf(&b, "version: %d, ", pb.Version)
	_, _ = fmt.Fprintf(&b, "bundle processing control flags: %b, ", pb.BundleControlFlags)
	_, _ = fmt.Fprintf(&b, "crc type: %v, ", pb.CRCType)
	_, _ = fmt.Fprintf(&b, "destination: %v, ", pb.Destination)
	_, _ = fmt.Fprintf(&b, "source node: %v, ", pb.SourceNode)
	_, _ = fmt.Fprintf(&b, "report to: %v, ", pb.ReportTo)
	_, _ = fmt.Fprintf(&b, "creation timestamp: %v, ", pb.CreationTimestamp)
	_, _ = fmt.Fprintf(&b, "lifetime: %d", pb.Lifetime)

	if pb.HasFragmentation() {
		_, _ = fmt.Fprintf(&b, " , fragment offset: %d, total data length: %d", pb.FragmentOffset, pb.TotalDataLength)
	}
	if pb.HasCRC() {
		_, _ = fmt.Fprintf(&b, ", crc: %x", pb.CRC)
	}

	return b.String()
}
