// SPDX-FileCopyrightText: 2019, 2020 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

package bp7

import (
	"bytes"
	"fmt"
	"io"

	"github.com/dtn7/cboring"
)

// AdministrativeRecord describes the two-element [record type code, record data] shape defined in section
// 6.1. Interpreting a specific record type's contents (e.g. a status report's reason codes) is outside this
// package's scope; decoding only preserves the record's type code and its raw CBOR-encoded data.
type AdministrativeRecord struct {
	TypeCode uint64
	Data     []byte
}

// RecordTypeCode returns this AdministrativeRecord's type code.
func (ar AdministrativeRecord) RecordTypeCode() uint64 {
	return ar.TypeCode
}

// MarshalCbor writes the [record type code, record data] array.
func (ar AdministrativeRecord) MarshalCbor(w io.Writer) error {
	if err := cboring.WriteArrayLength(2, w); err != nil {
		return err
	}
	if err := cboring.WriteUInt(ar.TypeCode, w); err != nil {
		return err
	}
	return cboring.WriteByteString(ar.Data, w)
}

// UnmarshalCbor reads the [record type code, record data] array.
func (ar *AdministrativeRecord) UnmarshalCbor(r io.Reader) error {
	if n, err := cboring.ReadArrayLength(r); err != nil {
		return err
	} else if n != 2 {
		return fmt.Errorf("expected CBOR array of length 2, got %d", n)
	}

	typeCode, err := cboring.ReadUInt(r)
	if err != nil {
		return err
	}
	ar.TypeCode = typeCode

	data, err := cboring.ReadByteString(r)
	if err != nil {
		return err
	}
	ar.Data = data

	return nil
}

// NewAdministrativeRecordFromCbor decodes an AdministrativeRecord from its CBOR representation.
func NewAdministrativeRecordFromCbor(data []byte) (ar AdministrativeRecord, err error) {
	err = cboring.Unmarshal(&ar, bytes.NewBuffer(data))
	return
}

// AdministrativeRecordToCbor wraps an AdministrativeRecord in a Payload Block, ready to be attached to a
// Bundle whose AdministrativeRecordPayload bundle processing control flag must be set.
func AdministrativeRecordToCbor(ar AdministrativeRecord) (blk CanonicalBlock, err error) {
	buff := new(bytes.Buffer)
	if err = cboring.Marshal(ar, buff); err != nil {
		return
	}

	blk = NewCanonicalBlock(1, 0, NewPayloadBlock(buff.Bytes()))
	return
}
