// SPDX-FileCopyrightText: 2018, 2019, 2020 Alvar Penning
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

// canonicalBlockFieldCount is the CBOR array length of a CanonicalBlock without a CRC; with a CRC it grows
// by one slot, section 4.3.2.
const canonicalBlockFieldCount = 5

// CanonicalBlock wraps an ExtensionBlock with the block number, processing flags, and optional checksum
// every extension block carries regardless of its payload's own format, section 4.3.2.
type CanonicalBlock struct {
	BlockNumber       uint64
	BlockControlFlags BlockControlFlags
	CRCType           CRCType
	CRC               []byte
	Value             ExtensionBlock
}

// NewCanonicalBlock wraps value in a CanonicalBlock under the given block number and control flags, with no
// checksum attached.
func NewCanonicalBlock(no uint64, bcf BlockControlFlags, value ExtensionBlock) CanonicalBlock {
	return CanonicalBlock{BlockNumber: no, BlockControlFlags: bcf, Value: value}
}

// TypeCode delegates to the wrapped ExtensionBlock's block type code.
func (cb CanonicalBlock) TypeCode() uint64 {
	return cb.Value.BlockTypeCode()
}

// HasCRC reports whether a checksum is attached to this block.
func (cb CanonicalBlock) HasCRC() bool {
	return cb.GetCRCType() != CRCNo
}

// GetCRCType returns this block's CRCType.
func (cb CanonicalBlock) GetCRCType() CRCType {
	return cb.CRCType
}

// SetCRCType changes the checksum type; the CRC field is recomputed the next time this block is marshaled.
func (cb *CanonicalBlock) SetCRCType(crcType CRCType) {
	cb.CRCType = crcType
}

func (cb CanonicalBlock) arrayLength() uint64 {
	if cb.HasCRC() {
		return canonicalBlockFieldCount + 1
	}
	return canonicalBlockFieldCount
}

// MarshalCbor writes this Canonical Block's CBOR representation.
func (cb *CanonicalBlock) MarshalCbor(w io.Writer) error {
	crcBuff := new(bytes.Buffer)
	if cb.HasCRC() {
		w = io.MultiWriter(w, crcBuff)
	}

	if err := cboring.WriteArrayLength(cb.arrayLength(), w); err != nil {
		return err
	}

	for _, f := range []uint64{cb.TypeCode(), cb.BlockNumber, uint64(cb.BlockControlFlags), uint64(cb.CRCType)} {
		if err := cboring.WriteUInt(f, w); err != nil {
			return err
		}
	}

	if err := GetExtensionBlockManager().WriteBlock(cb.Value, w); err != nil {
		return fmt.Errorf("marshalling value failed: %v", err)
	}

	if !cb.HasCRC() {
		return nil
	}

	crcVal, err := calculateCRCBuff(crcBuff, cb.CRCType)
	if err != nil {
		return err
	}
	if err := cboring.WriteByteString(crcVal, w); err != nil {
		return err
	}
	cb.CRC = crcVal
	return nil
}

// UnmarshalCbor creates this Canonical Block based on a CBOR representation.
func (cb *CanonicalBlock) UnmarshalCbor(r io.Reader) error {
	blockLen, err := cboring.ReadArrayLength(r)
	if err != nil {
		return err
	} else if blockLen != canonicalBlockFieldCount && blockLen != canonicalBlockFieldCount+1 {
		return fmt.Errorf("expected array with length 5 or 6, got %d", blockLen)
	}

	hasCRC := blockLen == canonicalBlockFieldCount+1

	crcBuff := new(bytes.Buffer)
	if hasCRC {
		if err := cboring.WriteArrayLength(blockLen, crcBuff); err != nil {
			return err
		}
		r = io.TeeReader(r, crcBuff)
	}

	blockType, err := cboring.ReadUInt(r)
	if err != nil {
		return err
	}

	if bn, err := cboring.ReadUInt(r); err != nil {
		return err
	} else {
		cb.BlockNumber = bn
	}

	if bcf, err := cboring.ReadUInt(r); err != nil {
		return err
	} else {
		cb.BlockControlFlags = BlockControlFlags(bcf)
	}

	if crcT, err := cboring.ReadUInt(r); err != nil {
		return err
	} else {
		cb.CRCType = CRCType(crcT)
	}

	b, err := GetExtensionBlockManager().ReadBlock(blockType, r)
	if err != nil {
		return fmt.Errorf("unmarshalling block type %d failed: %v", blockType, err)
	}
	cb.Value = b

	if !hasCRC {
		return nil
	}

	crcCalc, err := calculateCRCBuff(crcBuff, cb.CRCType)
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
	cb.CRC = crcVal
	return nil
}

// MarshalJSON renders this Canonical Block, preferring its ExtensionBlock's own JSON form if it has one and
// falling back to the raw marshaled bytes otherwise.
func (cb CanonicalBlock) MarshalJSON() ([]byte, error) {
	var dataField interface{}

	if _, ok := cb.Value.(json.Marshaler); ok {
		dataField = cb.Value
	} else {
		var buff bytes.Buffer
		if err := GetExtensionBlockManager().WriteBlock(cb.Value, &buff); err != nil {
			return nil, err
		}
		dataField = buff.Bytes()
	}

	return json.Marshal(&struct {
		BlockNumber   uint64            `json:"blockNumber"`
		BlockTypeCode uint64            `json:"blockTypeCode"`
		BlockType     string            `json:"blockType"`
		ControlFlags  BlockControlFlags `json:"blockControlFlags"`
		Data          interface{}       `json:"data"`
	}{
		BlockNumber:   cb.BlockNumber,
		BlockType:     cb.Value.BlockTypeName(),
		BlockTypeCode: cb.Value.BlockTypeCode(),
		ControlFlags:  cb.BlockControlFlags,
		Data:          dataField,
	})
}

// CheckValid returns an aggregated error describing every problem found with this block.
func (cb CanonicalBlock) CheckValid() (errs error) {
	if bcfErr := cb.BlockControlFlags.CheckValid(); bcfErr != nil {
		errs = multierror.Append(errs, bcfErr)
	}

	if extErr := cb.Value.CheckValid(); extErr != nil {
		errs = multierror.Append(errs, extErr)
	}

	if cb.TypeCode() == ExtBlockTypePayloadBlock && cb.BlockNumber != 1 {
		errs = multierror.Append(errs, NewError(ErrKindInvalidCanonicalBlock,
			fmt.Sprintf("payload block carries block number %d, expected 1", cb.BlockNumber), nil))
	}

	return
}

func (cb CanonicalBlock) String() string {
	var b strings.Builder

	_, _ = fmt.Fprintf(&b, "block type code: %d, ", cb.TypeCode())
	_, _ = fmt.Fprintf(&b, "block number: %d, ", cb.BlockNumber)
	_, _ = fmt.Fprintf(&b, "block processing control flags: %b, ", cb.BlockControlFlags)
	_, _ = fmt.Fprintf(&b, "crc type: %v, ", cb.CRCType)
	_, _ = fmt.Fprintf(&b, "data: %v", cb.Value)

	if cb.HasCRC() {
		_, _ = fmt.Fprintf(&b, ", crc: %x", cb.CRC)
	}

	return b.String()
}
