// SPDX-FileCopyrightText: 2022 Matthias Axel Kröll
//
// SPDX-License-Identifier: GPL-3.0-or-later

package bp7

import (
	"bytes"
	"errors"
	"testing"
)

func TestCRCTypeString(t *testing.T) {
	tests := []struct {
		ty   CRCType
		want string
	}{
		{CRCNo, "no"},
		{CRC16, "16"},
		{CRC32, "32"},
		{CRCType(99), "unknown"},
	}

	for _, test := range tests {
		if got := test.ty.String(); got != test.want {
			t.Fatalf("CRCType(%d).String() = %q, want %q", test.ty, got, test.want)
		}
	}
}

func TestEmptyCRC(t *testing.T) {
	tests := []struct {
		ty      CRCType
		wantLen int
	}{
		{CRCNo, 0},
		{CRC16, 2},
		{CRC32, 4},
	}

	for _, test := range tests {
		data, err := emptyCRC(test.ty)
		if err != nil {
			t.Fatal(err)
		}
		if len(data) != test.wantLen {
			t.Fatalf("emptyCRC(%v) returned %d bytes, want %d", test.ty, len(data), test.wantLen)
		}
	}

	if _, err := emptyCRC(CRCType(99)); err == nil {
		t.Fatal("expected an error for an unknown CRCType")
	}
}

func TestBundleCRCDetectsCorruption(t *testing.T) {
	for _, crcType := range []CRCType{CRC16, CRC32} {
		bndl, err := Builder().
			CRC(crcType).
			Source("dtn://src/").
			Destination("dtn://dst/").
			CreationTimestampNow().
			Lifetime("10m").
			PayloadBlock([]byte("hello world")).
			Build()
		if err != nil {
			t.Fatal(err)
		}

		buff := new(bytes.Buffer)
		if err := bndl.MarshalCbor(buff); err != nil {
			t.Fatal(err)
		}
		data := buff.Bytes()

		var clean Bundle
		if err := clean.UnmarshalCbor(bytes.NewBuffer(data)); err != nil {
			t.Fatalf("freshly marshalled bundle with a correct CRC (%v) should unmarshal: %v", crcType, err)
		}

		data[len(data)-2] ^= 0xff

		var corrupted Bundle
		err = corrupted.UnmarshalCbor(bytes.NewBuffer(data))
		if err == nil {
			t.Fatalf("expected a corrupted CRC (%v) to fail unmarshalling", crcType)
		}
		if !errors.Is(err, &Error{Kind: ErrKindCRCMismatch}) {
			t.Fatalf("expected an ErrKindCRCMismatch error, got %v", err)
		}
	}
}
