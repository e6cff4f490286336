// SPDX-FileCopyrightText: 2019, 2020 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

package bp7

import "encoding/json"

// payloadJSONPreviewLen caps how much of a payload's bytes MarshalJSON renders, so a multi-megabyte bundle
// payload doesn't end up verbatim in a log line.
const payloadJSONPreviewLen = 100

// PayloadBlock is the Payload Block every bundle carries exactly one of, section 4.4; an administrative
// record travels inside it as well.
type PayloadBlock []byte

// NewPayloadBlock wraps data as a Payload Block.
func NewPayloadBlock(data []byte) *PayloadBlock {
	pb := PayloadBlock(data)
	return &pb
}

func (pb *PayloadBlock) BlockTypeCode() uint64 { return ExtBlockTypePayloadBlock }
func (pb *PayloadBlock) BlockTypeName() string { return "Payload Block" }

// Data returns the payload's raw bytes.
func (pb *PayloadBlock) Data() []byte {
	return *pb
}

func (pb *PayloadBlock) MarshalBinary() ([]byte, error) {
	return *pb, nil
}

func (pb *PayloadBlock) UnmarshalBinary(data []byte) error {
	*pb = data
	return nil
}

// MarshalJSON renders a preview of the payload, truncated to payloadJSONPreviewLen bytes; without this
// method cboring's own encoding would be surfaced instead, which is not meant for human eyes.
func (pb *PayloadBlock) MarshalJSON() ([]byte, error) {
	data := pb.Data()
	if len(data) > payloadJSONPreviewLen {
		data = data[:payloadJSONPreviewLen]
	}
	return json.Marshal(data)
}

func (pb *PayloadBlock) CheckValid() error {
	return nil
}

// CheckContextValid has nothing extra to check: unlike the Hop Count, Bundle Age, or Previous Node Blocks, a
// Payload Block's uniqueness is already enforced by CanonicalBlock.CheckValid's block-number-1 rule.
func (pb *PayloadBlock) CheckContextValid(*Bundle) error {
	return nil
}
