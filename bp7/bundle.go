// SPDX-FileCopyrightText: 2018, 2019, 2020, 2022 Alvar Penning
// SPDX-FileCopyrightText: 2022 Markus Sommer
//
// SPDX-License-Identifier: GPL-3.0-or-later

package bp7

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dtn7/cboring"
	"github.com/hashicorp/go-multierror"
)

// Bundle is the unit of data moved through a DTN: one PrimaryBlock describing where the bundle is from and
// going, followed by one or more CanonicalBlocks, the last of which must be the payload, section 4.2.1.
type Bundle struct {
	PrimaryBlock    PrimaryBlock
	CanonicalBlocks []CanonicalBlock
}

// NewBundle assembles a Bundle from its blocks, sorts the canonical blocks, and validates the result.
func NewBundle(primary PrimaryBlock, canonicals []CanonicalBlock) (Bundle, error) {
	b := MustNewBundle(primary, canonicals)
	return b, b.CheckValid()
}

// MustNewBundle assembles and sorts a Bundle like NewBundle but skips CheckValid; it never panics despite
// the name, which only signals that the caller is responsible for validating the result.
func MustNewBundle(primary PrimaryBlock, canonicals []CanonicalBlock) Bundle {
	b := Bundle{PrimaryBlock: primary, CanonicalBlocks: canonicals}
	b.sortBlocks()
	return b
}

// ParseBundle decodes a Bundle from its CBOR representation.
func ParseBundle(r io.Reader) (b Bundle, err error) {
	err = cboring.Unmarshal(&b, r)
	return
}

// WriteBundle encodes this Bundle as CBOR.
func (b *Bundle) WriteBundle(w io.Writer) error {
	return cboring.Marshal(b, w)
}

// forEachBlock applies f to the PrimaryBlock and every CanonicalBlock in turn.
func (b *Bundle) forEachBlock(f func(block)) {
	f(&b.PrimaryBlock)
	for i := range b.CanonicalBlocks {
		f(&b.CanonicalBlocks[i])
	}
}

// ExtensionBlocks returns every CanonicalBlock whose wrapped ExtensionBlock has the given block type code.
// An error is returned only if none match.
func (b *Bundle) ExtensionBlocks(blockType uint64) ([]*CanonicalBlock, error) {
	var cbs []*CanonicalBlock
	for i := range b.CanonicalBlocks {
		if cb := &b.CanonicalBlocks[i]; cb.TypeCode() == blockType {
			cbs = append(cbs, cb)
		}
	}
	if len(cbs) == 0 {
		return nil, fmt.Errorf("no CanonicalBlock with block type %d was found in Bundle", blockType)
	}
	return cbs, nil
}

// ExtensionBlock returns the single CanonicalBlock with the given block type code. It errors if zero or more
// than one such block exists; use ExtensionBlocks for block types that may repeat.
func (b *Bundle) ExtensionBlock(blockType uint64) (*CanonicalBlock, error) {
	cbs, err := b.ExtensionBlocks(blockType)
	if err != nil {
		return nil, err
	}
	if len(cbs) != 1 {
		return nil, fmt.Errorf("there are %d Extension Blocks for type code %d", len(cbs), blockType)
	}
	return cbs[0], nil
}

// HasExtensionBlock reports whether at least one CanonicalBlock has the given block type code.
func (b *Bundle) HasExtensionBlock(blockType uint64) bool {
	_, err := b.ExtensionBlocks(blockType)
	return err == nil
}

// PayloadBlock returns this Bundle's mandatory Payload Block.
func (b *Bundle) PayloadBlock() (*CanonicalBlock, error) {
	return b.ExtensionBlock(ExtBlockTypePayloadBlock)
}

// sortBlocks restores the canonical ordering: ascending block number, payload block last. Called after
// every mutation of CanonicalBlocks.
func (b *Bundle) sortBlocks() {
	sortCanonicalBlocks(b.CanonicalBlocks)
}

// nextFreeBlockNumber picks the lowest unused block number starting from start.
func (b *Bundle) nextFreeBlockNumber(start uint64) uint64 {
	used := make(map[uint64]bool, len(b.CanonicalBlocks))
	for _, cb := range b.CanonicalBlocks {
		used[cb.BlockNumber] = true
	}
	n := start
	for used[n] {
		n++
	}
	return n
}

// AddExtensionBlock appends block to this Bundle, assigning it the lowest unused block number (1 is
// reserved for the payload block) and re-sorting.
func (b *Bundle) AddExtensionBlock(block CanonicalBlock) error {
	start := uint64(2)
	if block.Value.BlockTypeCode() == ExtBlockTypePayloadBlock {
		start = 1
	}

	block.BlockNumber = b.nextFreeBlockNumber(start)
	b.CanonicalBlocks = append(b.CanonicalBlocks, block)
	b.sortBlocks()
	return nil
}

// GetExtensionBlockByBlockNumber returns the CanonicalBlock with the given block number. CanonicalBlocks is
// assumed to already be sorted; this does not re-sort.
func (b *Bundle) GetExtensionBlockByBlockNumber(blockNumber uint64) (*CanonicalBlock, error) {
	for i := range b.CanonicalBlocks {
		if b.CanonicalBlocks[i].BlockNumber == blockNumber {
			return &b.CanonicalBlocks[i], nil
		}
	}
	return nil, fmt.Errorf("block with number %d not found", blockNumber)
}

// RemoveExtensionBlockByBlockNumber deletes the CanonicalBlock with the given block number, if present. It
// is a no-op otherwise and does not re-sort the remaining blocks.
func (b *Bundle) RemoveExtensionBlockByBlockNumber(blockNumber uint64) {
	for i := range b.CanonicalBlocks {
		if b.CanonicalBlocks[i].BlockNumber == blockNumber {
			b.CanonicalBlocks = append(b.CanonicalBlocks[:i], b.CanonicalBlocks[i+1:]...)
			return
		}
	}
}

// SetCRCType sets crcType on every block of this Bundle. The PrimaryBlock's CRC value is recomputed right away;
// the CanonicalBlocks' CRC values are only computed by the next MarshalCbor.
func (b *Bundle) SetCRCType(crcType CRCType) {
	b.forEachBlock(func(blck block) {
		blck.SetCRCType(crcType)
	})
}

// ID returns the BundleID identifying this Bundle.
func (b Bundle) ID() BundleID {
	return BundleID{
		SourceNode:      b.PrimaryBlock.SourceNode,
		Timestamp:       b.PrimaryBlock.CreationTimestamp,
		IsFragment:      b.PrimaryBlock.BundleControlFlags.Has(IsFragment),
		FragmentOffset:  b.PrimaryBlock.FragmentOffset,
		TotalDataLength: b.PrimaryBlock.TotalDataLength,
	}
}

func (b Bundle) String() string {
	return b.ID().String()
}

// IsLifetimeExceeded reports whether this Bundle has outlived its Lifetime. If the creation timestamp is
// zero (no accurate clock at creation), the mandatory Bundle Age Block's age is used instead; a Bundle
// missing that block in this situation is treated as already expired.
func (b Bundle) IsLifetimeExceeded() bool {
	if !b.PrimaryBlock.CreationTimestamp.IsZeroTime() {
		expiry := b.PrimaryBlock.CreationTimestamp.DtnTime().Time().Add(
			time.Duration(b.PrimaryBlock.Lifetime) * time.Millisecond)
		return time.Now().After(expiry)
	}

	bab, err := b.ExtensionBlock(ExtBlockTypeBundleAgeBlock)
	if err != nil {
		return true
	}
	return bab.Value.(*BundleAgeBlock).Age() > b.PrimaryBlock.Lifetime
}

// checkAdministrativeStatusReportFlags enforces that a bundle carrying an administrative record, or one
// whose source node is omitted, never asks a CanonicalBlock to request a status report, section 4.2.3.
func (b Bundle) checkAdministrativeStatusReportFlags() error {
	if !b.PrimaryBlock.BundleControlFlags.Has(AdministrativeRecordPayload) && b.PrimaryBlock.SourceNode != DtnNone() {
		return nil
	}

	var errs error
	for _, cb := range b.CanonicalBlocks {
		if cb.BlockControlFlags.Has(StatusReportBlock) {
			errs = multierror.Append(errs, NewError(ErrKindInvalidBundle,
				"administrative-record or source-omitted bundle has a block requesting a status report on failure", nil))
		}
	}
	return errs
}

// checkBlockNumbers enforces unique block numbers across all CanonicalBlocks and runs each block's
// bundle-aware self-check.
func (b Bundle) checkBlockNumbers() error {
	var errs error
	seen := make(map[uint64]bool, len(b.CanonicalBlocks))

	for _, cb := range b.CanonicalBlocks {
		if seen[cb.BlockNumber] {
			errs = multierror.Append(errs, NewError(ErrKindDuplicateBlockNumber,
				fmt.Sprintf("block number %d occurred multiple times", cb.BlockNumber), nil))
		}
		seen[cb.BlockNumber] = true

		if err := cb.Value.CheckContextValid(&b); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return errs
}

// checkTrailingPayloadBlock enforces that the last CanonicalBlock is the Payload Block.
func (b Bundle) checkTrailingPayloadBlock() error {
	last := b.CanonicalBlocks[len(b.CanonicalBlocks)-1].TypeCode()
	if last == ExtBlockTypePayloadBlock {
		return nil
	}
	return NewError(ErrKindMissingPayloadBlock, fmt.Sprintf("last CanonicalBlock is not a Payload Block, but %d", last), nil)
}

// checkCreationTimestamp enforces that a Bundle Age Block is present whenever the creation timestamp is
// zero, since nothing else can express the bundle's age in that case.
func (b Bundle) checkCreationTimestamp() error {
	if !b.PrimaryBlock.CreationTimestamp.IsZeroTime() || b.HasExtensionBlock(ExtBlockTypeBundleAgeBlock) {
		return nil
	}
	return NewError(ErrKindInvalidBundle, "creation timestamp is zero, but no Bundle Age block exists", nil)
}

// CheckValid returns an aggregated error describing every structural or per-block problem found.
func (b Bundle) CheckValid() (errs error) {
	b.forEachBlock(func(blck block) {
		if err := blck.CheckValid(); err != nil {
			errs = multierror.Append(errs, err)
		}
	})

	if len(b.CanonicalBlocks) == 0 {
		return multierror.Append(errs, NewError(ErrKindMissingPayloadBlock, "bundle contains no CanonicalBlocks", nil))
	}

	for _, check := range []func() error{
		b.checkAdministrativeStatusReportFlags,
		b.checkBlockNumbers,
		b.checkTrailingPayloadBlock,
		b.checkCreationTimestamp,
	} {
		if err := check(); err != nil {
			errs = multierror.Append(errs, err)
		}
	}

	if b.IsLifetimeExceeded() {
		errs = multierror.Append(errs, NewError(ErrKindInvalidBundle, "lifetime is exceeded", nil))
	}

	return
}

// IsAdministrativeRecord reports whether this Bundle's control flags mark its payload as an administrative
// record.
func (b Bundle) IsAdministrativeRecord() bool {
	return b.PrimaryBlock.BundleControlFlags.Has(AdministrativeRecordPayload)
}

// AdministrativeRecord decodes this Bundle's payload as an AdministrativeRecord. It errors if
// IsAdministrativeRecord is false.
func (b Bundle) AdministrativeRecord() (ar AdministrativeRecord, err error) {
	if !b.IsAdministrativeRecord() {
		return ar, fmt.Errorf("bundle is not an administrative record")
	}

	payload, err := b.PayloadBlock()
	if err != nil {
		return ar, err
	}

	err = cboring.Unmarshal(&ar, bytes.NewBuffer(payload.Value.(*PayloadBlock).Data()))
	return
}

// MarshalCbor writes this Bundle as an indefinite-length CBOR array of its blocks.
func (b *Bundle) MarshalCbor(w io.Writer) error {
	if _, err := w.Write([]byte{cboring.IndefiniteArray}); err != nil {
		return err
	}

	if err := cboring.Marshal(&b.PrimaryBlock, w); err != nil {
		return fmt.Errorf("PrimaryBlock failed: %v", err)
	}
	for i := range b.CanonicalBlocks {
		if err := cboring.Marshal(&b.CanonicalBlocks[i], w); err != nil {
			return fmt.Errorf("CanonicalBlock failed: %v", err)
		}
	}

	_, err := w.Write([]byte{cboring.BreakCode})
	return err
}

// UnmarshalCbor reads a Bundle from its indefinite-length CBOR array representation and validates it.
func (b *Bundle) UnmarshalCbor(r io.Reader) error {
	if err := cboring.ReadExpect(cboring.IndefiniteArray, r); err != nil {
		return err
	}

	if err := cboring.Unmarshal(&b.PrimaryBlock, r); err != nil {
		return fmt.Errorf("PrimaryBlock failed: %w", err)
	}

	for {
		cb := CanonicalBlock{}
		err := cboring.Unmarshal(&cb, r)
		if err == cboring.FlagBreakCode {
			break
		} else if err != nil {
			return fmt.Errorf("CanonicalBlock failed: %w", err)
		}
		b.CanonicalBlocks = append(b.CanonicalBlocks, cb)
	}

	return b.CheckValid()
}

// MarshalJSON renders this Bundle's primary block and canonical blocks.
func (b Bundle) MarshalJSON() ([]byte, error) {
	canonicals := make([]json.Marshaler, len(b.CanonicalBlocks))
	for i := range b.CanonicalBlocks {
		canonicals[i] = b.CanonicalBlocks[i]
	}

	return json.Marshal(&struct {
		PrimaryBlock    json.Marshaler   `json:"primaryBlock"`
		CanonicalBlocks []json.Marshaler `json:"canonicalBlocks"`
	}{
		PrimaryBlock:    b.PrimaryBlock,
		CanonicalBlocks: canonicals,
	})
}
