// SPDX-FileCopyrightText: 2018, 2019, 2020 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

package bp7

import (
	"strings"

	"github.com/hashicorp/go-multierror"
)

// BundleControlFlags is the Bundle Processing Control Flags bitfield of a PrimaryBlock, section 4.1.3.
type BundleControlFlags uint64

// Bundle Processing Control Flags, numbered by their bit position as in section 4.1.3. Bits without a name
// here are reserved and MUST be ignored by a receiver.
const (
	IsFragment                  BundleControlFlags = 1 << 0
	AdministrativeRecordPayload BundleControlFlags = 1 << 1
	MustNotFragmented           BundleControlFlags = 1 << 2
	RequestUserApplicationAck   BundleControlFlags = 1 << 5
	RequestStatusTime           BundleControlFlags = 1 << 6
	StatusRequestReception      BundleControlFlags = 1 << 14
	StatusRequestForward        BundleControlFlags = 1 << 16
	StatusRequestDelivery       BundleControlFlags = 1 << 17
	StatusRequestDeletion       BundleControlFlags = 1 << 18
)

var bundleControlFlagLabels = []bitLabel[BundleControlFlags]{
	{StatusRequestDeletion, "REQUESTED_DELETION_STATUS_REPORT"},
	{StatusRequestDelivery, "REQUESTED_DELIVERY_STATUS_REPORT"},
	{StatusRequestForward, "REQUESTED_FORWARD_STATUS_REPORT"},
	{StatusRequestReception, "REQUESTED_RECEPTION_STATUS_REPORT"},
	{RequestStatusTime, "REQUESTED_TIME_IN_STATUS_REPORT"},
	{RequestUserApplicationAck, "REQUESTED_APPLICATION_ACK"},
	{MustNotFragmented, "MUST_NOT_BE_FRAGMENTED"},
	{AdministrativeRecordPayload, "ADMINISTRATIVE_PAYLOAD"},
	{IsFragment, "IS_FRAGMENT"},
}

// Has reports whether any bit of flag is set in bcf.
func (bcf BundleControlFlags) Has(flag BundleControlFlags) bool {
	return bcf&flag != 0
}

// statusReportFlagsClear reports whether none of the four status-report-request flags are set.
func (bcf BundleControlFlags) statusReportFlagsClear() bool {
	const allStatusRequests = StatusRequestReception | StatusRequestForward | StatusRequestDelivery | StatusRequestDeletion
	return bcf&allStatusRequests == 0
}

// CheckValid returns an error describing any cross-flag conflict within this bitfield.
//
// Section 4.1.3 forbids a bundle from being both a fragment and unfragmentable, and requires that a bundle
// carrying an administrative record never requests status reports for itself.
func (bcf BundleControlFlags) CheckValid() (errs error) {
	if bcf.Has(IsFragment) && bcf.Has(MustNotFragmented) {
		errs = multierror.Append(errs, NewError(ErrKindInvalidPrimaryBlock,
			"bundle control flags mark the bundle as both a fragment and must-not-be-fragmented", nil))
	}

	if bcf.Has(AdministrativeRecordPayload) && !bcf.statusReportFlagsClear() {
		errs = multierror.Append(errs, NewError(ErrKindInvalidPrimaryBlock,
			"bundle control flags request a status report for a bundle carrying an administrative record", nil))
	}

	return
}

// Strings lists the names of every set flag, ordered from the highest bit to the lowest.
func (bcf BundleControlFlags) Strings() []string {
	return activeLabels(bcf, bundleControlFlagLabels)
}

// MarshalJSON renders the set flags as a JSON array of their names.
func (bcf BundleControlFlags) MarshalJSON() ([]byte, error) {
	return flagsJSON(bcf.Strings())
}

func (bcf BundleControlFlags) String() string {
	return strings.Join(bcf.Strings(), ",")
}
