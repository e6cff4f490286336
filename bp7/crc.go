// SPDX-FileCopyrightText: 2018, 2019, 2020 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

package bp7

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/dtn7/cboring"
	"github.com/howeyc/crc16"
)

// CRCType selects the checksum, if any, attached to a PrimaryBlock or CanonicalBlock, section 4.1.1.
type CRCType uint64

const (
	// CRCNo means no CRC is present at all.
	CRCNo CRCType = 0

	// CRC16 is a standard X-25 CRC-16.
	CRC16 CRCType = 1

	// CRC32 is a standard CRC32C (Castagnoli) CRC-32.
	CRC32 CRCType = 2
)

var (
	crc16table = crc16.MakeTable(crc16.CCITT)
	crc32table = crc32.MakeTable(crc32.Castagnoli)
)

// size returns the byte length of this CRCType's checksum field, 0 for CRCNo.
func (c CRCType) size() (int, error) {
	switch c {
	case CRCNo:
		return 0, nil
	case CRC16:
		return 2, nil
	case CRC32:
		return 4, nil
	default:
		return 0, fmt.Errorf("unknown CRCType %d", c)
	}
}

func (c CRCType) String() string {
	switch c {
	case CRCNo:
		return "no"
	case CRC16:
		return "16"
	case CRC32:
		return "32"
	default:
		return "unknown"
	}
}

// emptyCRC returns a zero-filled placeholder of the size this CRCType's checksum occupies on the wire.
// Encoding this placeholder before the real checksum is known keeps the serialized struct the same length,
// which calculateCRCBuff relies on when it recomputes the checksum over the buffered bytes.
func emptyCRC(crcType CRCType) ([]byte, error) {
	n, err := crcType.size()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	return make([]byte, n), nil
}

// calculateCRCBuff computes the checksum for crcType over buff's already-serialized bytes and returns it
// sized and byte-ordered as it belongs on the wire.
func calculateCRCBuff(buff *bytes.Buffer, crcType CRCType) ([]byte, error) {
	out, err := emptyCRC(crcType)
	if err != nil {
		return nil, err
	}

	if err := cboring.WriteByteString(out, buff); err != nil {
		return nil, err
	}

	switch crcType {
	case CRCNo:
		// nothing to compute
	case CRC16:
		binary.BigEndian.PutUint16(out, crc16.Checksum(buff.Bytes(), crc16table))
	case CRC32:
		binary.BigEndian.PutUint32(out, crc32.Checksum(buff.Bytes(), crc32table))
	}

	return out, nil
}
