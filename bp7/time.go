// SPDX-FileCopyrightText: 2018, 2019, 2020 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

package bp7

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dtn7/cboring"
)

// dtnEpochOffsetMs is the number of milliseconds between the Unix epoch (1970-01-01) and the DTN epoch
// (2000-01-01), the reference point DtnTime counts from, per section 4.1.6.
const dtnEpochOffsetMs int64 = 946684800000

// milliToSec converts a count of seconds into the equivalent count of milliseconds.
const milliToSec = 1000

// DtnTimeEpoch is the zero DtnTime, meaning 2000-01-01T00:00:00 UTC, or "clock unavailable" per 4.1.6's note.
const DtnTimeEpoch DtnTime = 0

// DtnTime counts milliseconds since the DTN epoch (2000-01-01T00:00:00 UTC), as defined in section 4.1.6.
type DtnTime uint64

// Time converts this DtnTime to a UTC time.Time.
func (t DtnTime) Time() time.Time {
	return time.UnixMilli(int64(t) + dtnEpochOffsetMs).UTC()
}

func (t DtnTime) String() string {
	return t.Time().Format("2006-01-02 15:04:05.000")
}

// DtnTimeFromTime converts a time.Time to its DtnTime representation.
func DtnTimeFromTime(t time.Time) DtnTime {
	return DtnTime(t.UTC().UnixMilli() - dtnEpochOffsetMs)
}

// DtnTimeNow returns the current moment as a DtnTime.
func DtnTimeNow() DtnTime {
	return DtnTimeFromTime(time.Now())
}

// CreationTimestamp pairs a DtnTime with a sequence number, so that two bundles created by the same node
// within the same millisecond still resolve to distinct BundleIDs. Defined in section 4.1.7.
type CreationTimestamp [2]uint64

// NewCreationTimestamp pairs a DtnTime with a sequence number.
func NewCreationTimestamp(t DtnTime, sequence uint64) CreationTimestamp {
	return CreationTimestamp{uint64(t), sequence}
}

// DtnTime returns the time part of this CreationTimestamp.
func (ct CreationTimestamp) DtnTime() DtnTime {
	return DtnTime(ct[0])
}

// SequenceNumber returns the sequence part of this CreationTimestamp.
func (ct CreationTimestamp) SequenceNumber() uint64 {
	return ct[1]
}

// IsZeroTime reports whether the time part is DtnTimeEpoch, indicating the creating node lacked an accurate
// clock; a Bundle Age Block is then required to express the bundle's age instead.
func (ct CreationTimestamp) IsZeroTime() bool {
	return ct.DtnTime() == DtnTimeEpoch
}

func (ct CreationTimestamp) String() string {
	return fmt.Sprintf("(%v, %d)", ct.DtnTime(), ct.SequenceNumber())
}

// MarshalCbor writes this CreationTimestamp as a 2-element CBOR array.
func (ct *CreationTimestamp) MarshalCbor(w io.Writer) error {
	if err := cboring.WriteArrayLength(2, w); err != nil {
		return err
	}
	for _, f := range ct {
		if err := cboring.WriteUInt(f, w); err != nil {
			return err
		}
	}
	return nil
}

// UnmarshalCbor reads a CreationTimestamp from its 2-element CBOR array representation.
func (ct *CreationTimestamp) UnmarshalCbor(r io.Reader) error {
	l, err := cboring.ReadArrayLength(r)
	if err != nil {
		return err
	} else if l != 2 {
		return fmt.Errorf("expected array with length 2, got %d", l)
	}

	for i := range ct {
		f, err := cboring.ReadUInt(r)
		if err != nil {
			return err
		}
		ct[i] = f
	}
	return nil
}

// MarshalJSON renders this CreationTimestamp's time and sequence number for display.
func (ct CreationTimestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Date string `json:"date"`
		Seq  uint64 `json:"sequenceNo"`
	}{
		Date: ct.DtnTime().String(),
		Seq:  ct.SequenceNumber(),
	})
}
