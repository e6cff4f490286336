// SPDX-FileCopyrightText: 2018, 2019, 2020 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

package bp7

import "github.com/dtn7/cboring"

// block is the common surface of PrimaryBlock and CanonicalBlock: both are CBOR-(un)marshalable,
// self-validating, and carry an optional CRC whose type can be inspected or changed.
type block interface {
	Valid
	cboring.CborMarshaler

	HasCRC() bool
	GetCRCType() CRCType
	SetCRCType(CRCType)
}
