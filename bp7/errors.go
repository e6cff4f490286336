// SPDX-FileCopyrightText: 2020 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

package bp7

import "fmt"

// ErrorKind classifies the errors this package's validation and security routines can return, so callers
// can distinguish a malformed wire encoding from a failed integrity check without parsing error strings.
type ErrorKind int

const (
	// ErrKindUnknown is the zero value for an Error without an assigned ErrorKind.
	ErrKindUnknown ErrorKind = iota

	// ErrKindInvalidBundle marks a structural problem with a whole Bundle other than a duplicate block number,
	// e.g., a zero creation timestamp without a Bundle Age Block or a Bundle whose lifetime has already expired.
	ErrKindInvalidBundle

	// ErrKindDuplicateBlockNumber marks a Bundle in which two or more CanonicalBlocks share a block number.
	ErrKindDuplicateBlockNumber

	// ErrKindInvalidPrimaryBlock marks a problem with a PrimaryBlock's fields, e.g., an unsupported version.
	ErrKindInvalidPrimaryBlock

	// ErrKindInvalidCanonicalBlock marks a problem with a CanonicalBlock, e.g., a payload block with the
	// wrong block number.
	ErrKindInvalidCanonicalBlock

	// ErrKindMissingPayloadBlock marks a Bundle missing its mandatory Payload Block.
	ErrKindMissingPayloadBlock

	// ErrKindCRCMismatch marks a block whose CRC does not match its recomputed value.
	ErrKindCRCMismatch

	// ErrKindInvalidEndpoint marks an EndpointID which failed its scheme-specific validation.
	ErrKindInvalidEndpoint

	// ErrKindIntegrityMismatch marks a Block Integrity Block whose recomputed HMAC does not match the
	// attached security result.
	ErrKindIntegrityMismatch

	// ErrKindMissingSecurityTarget marks a security operation referring to a block number which the
	// Bundle does not contain, or a security target for which a BIB carries no security result.
	ErrKindMissingSecurityTarget

	// ErrKindUnsupportedShaVariant marks a BIB-HMAC-SHA2 security context parameter requesting a SHA
	// variant this package does not implement.
	ErrKindUnsupportedShaVariant

	// ErrKindBuilderIncomplete marks a BundleBuilder.Build call missing required fields, e.g., Source.
	ErrKindBuilderIncomplete
)

func (k ErrorKind) String() string {
	switch k {
	case ErrKindInvalidBundle:
		return "invalid bundle"
	case ErrKindDuplicateBlockNumber:
		return "duplicate block number"
	case ErrKindInvalidPrimaryBlock:
		return "invalid primary block"
	case ErrKindInvalidCanonicalBlock:
		return "invalid canonical block"
	case ErrKindMissingPayloadBlock:
		return "missing payload block"
	case ErrKindCRCMismatch:
		return "crc mismatch"
	case ErrKindInvalidEndpoint:
		return "invalid endpoint id"
	case ErrKindIntegrityMismatch:
		return "integrity mismatch"
	case ErrKindMissingSecurityTarget:
		return "missing security target"
	case ErrKindUnsupportedShaVariant:
		return "unsupported sha variant"
	case ErrKindBuilderIncomplete:
		return "builder incomplete"
	default:
		return "unknown error"
	}
}

// Error is this package's typed error, pairing an ErrorKind with a human-readable message and an optional
// wrapped cause.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

// NewError creates an Error of the given Kind, wrapping err if present.
func NewError(kind ErrorKind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Unwrap returns the wrapped cause, if any, allowing errors.Is/errors.As to see through an Error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an Error of the same Kind, so callers can write
// errors.Is(err, &Error{Kind: ErrKindCRCMismatch}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}
