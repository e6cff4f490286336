// SPDX-FileCopyrightText: 2020 Matthias Axel Kröll
// SPDX-FileCopyrightText: 2020 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

package bp7

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/dtn7/cboring"
	"github.com/hashicorp/go-multierror"
)

// IDValueTuple is one (id, value) pair inside a security context's parameter or result list, BPSEC 3.6. The
// value's wire encoding depends on its CBOR major type, which is why there are two concrete implementations
// instead of one generic one.
type IDValueTuple interface {
	ID() uint64
	Value() interface{}
	cboring.CborMarshaler
}

// writeIDValueTuple writes the 2-element array every IDValueTuple shares, delegating the value slot's own
// encoding to writeValue.
func writeIDValueTuple(id uint64, w io.Writer, writeValue func(io.Writer) error) error {
	if err := cboring.WriteArrayLength(2, w); err != nil {
		return err
	}
	if err := cboring.WriteUInt(id, w); err != nil {
		return err
	}
	return writeValue(w)
}

// readIDValueTupleID reads the common array length and id prefix, leaving the reader positioned at the value.
func readIDValueTupleID(r io.Reader) (uint64, error) {
	l, err := cboring.ReadArrayLength(r)
	if err != nil {
		return 0, err
	} else if l != 2 {
		return 0, fmt.Errorf("id-value tuple: expected array with length 2, got %d", l)
	}
	return cboring.ReadUInt(r)
}

// IDValueTupleByteString is an IDValueTuple whose value is an opaque byte string, e.g. a wrapped key.
type IDValueTupleByteString struct {
	id    uint64
	value []byte
}

func (t *IDValueTupleByteString) MarshalCbor(w io.Writer) error {
	return writeIDValueTuple(t.id, w, func(w io.Writer) error {
		return cboring.WriteByteString(t.value, w)
	})
}

func (t *IDValueTupleByteString) UnmarshalCbor(r io.Reader) error {
	id, err := readIDValueTupleID(r)
	if err != nil {
		return err
	}
	value, err := cboring.ReadByteString(r)
	if err != nil {
		return err
	}
	t.id, t.value = id, value
	return nil
}

func (t IDValueTupleByteString) ID() uint64         { return t.id }
func (t IDValueTupleByteString) Value() interface{} { return t.value }

// IDValueTupleUInt64 is an IDValueTuple whose value is an unsigned integer, e.g. a SHA variant selector.
type IDValueTupleUInt64 struct {
	id    uint64
	value uint64
}

func (t *IDValueTupleUInt64) MarshalCbor(w io.Writer) error {
	return writeIDValueTuple(t.id, w, func(w io.Writer) error {
		return cboring.WriteUInt(t.value, w)
	})
}

func (t *IDValueTupleUInt64) UnmarshalCbor(r io.Reader) error {
	id, err := readIDValueTupleID(r)
	if err != nil {
		return err
	}
	value, err := cboring.ReadUInt(r)
	if err != nil {
		return err
	}
	t.id, t.value = id, value
	return nil
}

func (t IDValueTupleUInt64) ID() uint64         { return t.id }
func (t IDValueTupleUInt64) Value() interface{} { return t.value }

// TargetSecurityResults is the security-results array attached to one security target, BPSEC 3.6.
type TargetSecurityResults struct {
	securityTarget uint64
	results        []IDValueTuple
}

func (tsr *TargetSecurityResults) MarshalCbor(w io.Writer) error {
	if err := cboring.WriteArrayLength(2, w); err != nil {
		return fmt.Errorf("target security results: %v", err)
	}
	if err := cboring.WriteUInt(tsr.securityTarget, w); err != nil {
		return fmt.Errorf("target security results: %v", err)
	}
	if err := cboring.WriteArrayLength(uint64(len(tsr.results)), w); err != nil {
		return fmt.Errorf("target security results: %v", err)
	}
	for _, result := range tsr.results {
		if err := cboring.Marshal(result, w); err != nil {
			return fmt.Errorf("target security results: %v", err)
		}
	}
	return nil
}

func (tsr *TargetSecurityResults) UnmarshalCbor(r io.Reader) error {
	l, err := cboring.ReadArrayLength(r)
	if err != nil {
		return err
	} else if l != 2 {
		return fmt.Errorf("target security results: expected array with length 2, got %d", l)
	}

	target, err := cboring.ReadUInt(r)
	if err != nil {
		return fmt.Errorf("target security results: reading security target: %v", err)
	}
	tsr.securityTarget = target

	resultCount, err := cboring.ReadArrayLength(r)
	if err != nil {
		return fmt.Errorf("target security results: reading result count: %v", err)
	}
	for i := uint64(0); i < resultCount; i++ {
		var result IDValueTupleByteString
		if err := cboring.Unmarshal(&result, r); err != nil {
			return fmt.Errorf("target security results: reading result %d: %v", i, err)
		}
		tsr.results = append(tsr.results, &result)
	}
	return nil
}

// securityContextParamsPresentBit is the bit of SecurityContextParametersPresentFlag that, when set, means a
// SecurityContextParameters array follows the security source on the wire, BPSEC 3.6.
const securityContextParamsPresentBit = 0b01

// asbFieldCount is an AbstractSecurityBlock's CBOR array length without SecurityContextParameters; with them
// present it grows by one slot.
const asbFieldCount = 5

// AbstractSecurityBlock is the field layout shared by the Block Integrity Block and Block Confidentiality
// Block, BPSEC 3.6.
type AbstractSecurityBlock struct {
	SecurityTargets                      []uint64
	SecurityContextID                    uint64
	SecurityContextParametersPresentFlag uint64
	SecuritySource                       EndpointID
	SecurityContextParameters            []IDValueTuple
	SecurityResults                      []TargetSecurityResults
}

// HasSecurityContextParametersPresentContextFlag reports whether securityContextParamsPresentBit is set.
func (asb *AbstractSecurityBlock) HasSecurityContextParametersPresentContextFlag() bool {
	return asb.SecurityContextParametersPresentFlag&securityContextParamsPresentBit != 0
}

func (asb *AbstractSecurityBlock) arrayLength() uint64 {
	if asb.HasSecurityContextParametersPresentContextFlag() {
		return asbFieldCount + 1
	}
	return asbFieldCount
}

func (asb *AbstractSecurityBlock) MarshalCbor(w io.Writer) error {
	if err := cboring.WriteArrayLength(asb.arrayLength(), w); err != nil {
		return err
	}

	if err := cboring.WriteArrayLength(uint64(len(asb.SecurityTargets)), w); err != nil {
		return err
	}
	for _, target := range asb.SecurityTargets {
		if err := cboring.WriteUInt(target, w); err != nil {
			return err
		}
	}

	if err := cboring.WriteUInt(asb.SecurityContextID, w); err != nil {
		return err
	}
	if err := cboring.WriteUInt(asb.SecurityContextParametersPresentFlag, w); err != nil {
		return err
	}
	if err := asb.SecuritySource.MarshalCbor(w); err != nil {
		return err
	}

	if asb.HasSecurityContextParametersPresentContextFlag() {
		if err := cboring.WriteArrayLength(uint64(len(asb.SecurityContextParameters)), w); err != nil {
			return err
		}
		for _, param := range asb.SecurityContextParameters {
			if err := param.MarshalCbor(w); err != nil {
				return err
			}
		}
	}

	if err := cboring.WriteArrayLength(uint64(len(asb.SecurityResults)), w); err != nil {
		return err
	}
	for _, result := range asb.SecurityResults {
		if err := result.MarshalCbor(w); err != nil {
			return err
		}
	}

	return nil
}

func (asb *AbstractSecurityBlock) UnmarshalCbor(r io.Reader) error {
	blockLen, err := cboring.ReadArrayLength(r)
	if err != nil {
		return err
	} else if blockLen != asbFieldCount && blockLen != asbFieldCount+1 {
		return fmt.Errorf("expected array with length %d or %d, got %d", asbFieldCount, asbFieldCount+1, blockLen)
	}

	targetCount, err := cboring.ReadArrayLength(r)
	if err != nil {
		return err
	}
	for i := uint64(0); i < targetCount; i++ {
		target, err := cboring.ReadUInt(r)
		if err != nil {
			return err
		}
		asb.SecurityTargets = append(asb.SecurityTargets, target)
	}

	if scid, err := cboring.ReadUInt(r); err != nil {
		return err
	} else {
		asb.SecurityContextID = scid
	}

	if scf, err := cboring.ReadUInt(r); err != nil {
		return err
	} else {
		asb.SecurityContextParametersPresentFlag = scf
	}

	if err := cboring.Unmarshal(&asb.SecuritySource, r); err != nil {
		return err
	}

	if asb.HasSecurityContextParametersPresentContextFlag() {
		if blockLen != asbFieldCount+1 {
			return fmt.Errorf("expected array with length %d, got %d", asbFieldCount+1, blockLen)
		}

		var err error
		r, err = asb.unmarshalSecurityContextParameters(r)
		if err != nil {
			return fmt.Errorf("unmarshalling security context parameters: %v", err)
		}
	}

	resultCount, err := cboring.ReadArrayLength(r)
	if err != nil {
		return fmt.Errorf("unmarshalling security results: %v", err)
	}
	for i := uint64(0); i < resultCount; i++ {
		var tsr TargetSecurityResults
		if err := cboring.Unmarshal(&tsr, r); err != nil {
			return fmt.Errorf("unmarshalling security results: %v", err)
		}
		asb.SecurityResults = append(asb.SecurityResults, tsr)
	}

	return asb.CheckValid()
}

// duplicateUint64s returns, in first-seen order, every value in xs that occurs more than once.
func duplicateUint64s(xs []uint64) []uint64 {
	seen := make(map[uint64]bool, len(xs))
	var duplicates []uint64
	for _, x := range xs {
		if seen[x] {
			duplicates = append(duplicates, x)
		}
		seen[x] = true
	}
	return duplicates
}

func (asb *AbstractSecurityBlock) checkSecurityTargets() error {
	if len(asb.SecurityTargets) == 0 {
		return errors.New("security targets must have at least 1 entry")
	}
	if duplicates := duplicateUint64s(asb.SecurityTargets); len(duplicates) != 0 {
		return fmt.Errorf("duplicate security target entries for block number(s): %v", duplicates)
	}
	return nil
}

func (asb *AbstractSecurityBlock) checkSecurityResultsAligned() error {
	if len(asb.SecurityResults) != len(asb.SecurityTargets) {
		return fmt.Errorf("security targets and security results differ in length, %d targets vs %d result sets",
			len(asb.SecurityTargets), len(asb.SecurityResults))
	}
	for i, result := range asb.SecurityResults {
		if result.securityTarget != asb.SecurityTargets[i] {
			return errors.New("ordering of security targets and their security results does not match")
		}
	}
	return nil
}

func (asb *AbstractSecurityBlock) checkSecurityContextParameters() error {
	present := asb.HasSecurityContextParametersPresentContextFlag()
	switch {
	case present && len(asb.SecurityContextParameters) == 0:
		return errors.New("security context parameters present flag is set, but no parameters are attached")
	case !present && len(asb.SecurityContextParameters) != 0:
		return errors.New("security context parameters present flag is unset, but parameters are attached")
	default:
		return nil
	}
}

// CheckValid verifies the MUST/MUST NOT constraints BPSEC 3.6 places on an Abstract Security Block.
func (asb *AbstractSecurityBlock) CheckValid() (errs error) {
	for _, check := range []func() error{
		asb.checkSecurityTargets,
		asb.checkSecurityResultsAligned,
		asb.checkSecurityContextParameters,
		asb.SecuritySource.CheckValid,
	} {
		if err := check(); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return errs
}

// unmarshalSecurityContextParameters reads the SecurityContextParameters array and returns a reader
// positioned right after it. IDValueTuple's value is generic by the format's own definition — it can hold a
// byte string or an unsigned integer — so each tuple's major type must be peeked before its concrete type is
// known. The peeking happens on a buffered copy of r so the real read, once the type is known, consumes the
// bytes exactly once.
func (asb *AbstractSecurityBlock) unmarshalSecurityContextParameters(r io.Reader) (io.Reader, error) {
	paramCount, err := cboring.ReadArrayLength(r)
	if err != nil {
		return nil, err
	} else if paramCount > 3 {
		return nil, fmt.Errorf("security context parameters: expected at most 3 entries, got %d", paramCount)
	}

	buffered := bufio.NewReader(r)

	for i := uint64(0); i < paramCount; i++ {
		peeked, _ := buffered.Peek(buffered.Size())
		peekReader := bytes.NewReader(peeked)

		if _, err := cboring.ReadArrayLength(peekReader); err != nil {
			return nil, fmt.Errorf("peeking array length of parameter %d: %v", i, err)
		}
		if _, err := cboring.ReadUInt(peekReader); err != nil {
			return nil, fmt.Errorf("peeking id of parameter %d: %v", i, err)
		}

		majorType, _, err := cboring.ReadMajors(peekReader)
		if err != nil {
			return nil, fmt.Errorf("peeking value type of parameter %d: %v", i, err)
		}

		var param IDValueTuple
		switch majorType {
		case cboring.ByteString:
			param = &IDValueTupleByteString{}
		case cboring.UInt:
			param = &IDValueTupleUInt64{}
		}

		if err := cboring.Unmarshal(param, buffered); err != nil {
			return nil, fmt.Errorf("reading parameter %d: %v", i, err)
		}
		asb.SecurityContextParameters = append(asb.SecurityContextParameters, param)
	}

	rest, _ := io.ReadAll(buffered)
	return bytes.NewReader(rest), nil
}
