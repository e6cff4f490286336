// SPDX-FileCopyrightText: 2019, 2020, 2022 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

package bp7

// GenericExtensionBlock stands in for any block type this package has no dedicated Go type for, preserving
// its raw bytes so an unknown block survives a decode/re-encode round trip unchanged.
type GenericExtensionBlock struct {
	data     []byte
	typeCode uint64
}

// NewGenericExtensionBlock wraps data as an opaque block carrying typeCode.
func NewGenericExtensionBlock(data []byte, typeCode uint64) *GenericExtensionBlock {
	return &GenericExtensionBlock{data: data, typeCode: typeCode}
}

func (geb *GenericExtensionBlock) BlockTypeCode() uint64 { return geb.typeCode }
func (geb *GenericExtensionBlock) BlockTypeName() string { return "N/A" }

func (geb *GenericExtensionBlock) MarshalBinary() ([]byte, error) {
	return geb.data, nil
}

func (geb *GenericExtensionBlock) UnmarshalBinary(data []byte) error {
	geb.data = data
	return nil
}

// CheckValid has nothing to check: this package knows nothing about an unregistered block's constraints.
func (geb *GenericExtensionBlock) CheckValid() error {
	return nil
}

// CheckContextValid has nothing to check for the same reason.
func (geb *GenericExtensionBlock) CheckContextValid(*Bundle) error {
	return nil
}
