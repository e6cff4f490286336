// SPDX-FileCopyrightText: 2020 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

package bp7

import (
	"fmt"
	"io"
	"regexp"
	"strconv"

	"github.com/dtn7/cboring"
)

const (
	ipnEndpointSchemeName string = "ipn"
	ipnEndpointSchemeNo   uint64 = 2
)

var ipnEndpointUriRe = regexp.MustCompile("^" + ipnEndpointSchemeName + `:(\d+)\.(\d+)$`)

// IpnEndpoint describes the ipn URI scheme for EndpointIDs, as defined in RFC 6260.
type IpnEndpoint struct {
	Node    uint64
	Service uint64
}

// NewIpnEndpoint from an URI with the ipn scheme.
func NewIpnEndpoint(uri string) (EndpointType, error) {
	// As defined in RFC 6260, section 2.1:
	// - node number: ASCII numeric digits between 1 and (2^64-1)
	// - an ASCII dot
	// - service number: ASCII numeric digits between 1 and (2^64-1)
	matches := ipnEndpointUriRe.FindStringSubmatch(uri)
	if matches == nil {
		return nil, NewError(ErrKindInvalidEndpoint, fmt.Sprintf("uri %q does not match an ipn endpoint", uri), nil)
	}

	node, err := strconv.ParseUint(matches[1], 10, 64)
	if err != nil {
		return nil, NewError(ErrKindInvalidEndpoint, "ipn node number is not a valid uint64", err)
	}
	service, err := strconv.ParseUint(matches[2], 10, 64)
	if err != nil {
		return nil, NewError(ErrKindInvalidEndpoint, "ipn service number is not a valid uint64", err)
	}

	e := IpnEndpoint{node, service}
	if err := e.CheckValid(); err != nil {
		return nil, err
	}

	return e, nil
}

// SchemeName is "ipn" for IpnEndpoints.
func (e IpnEndpoint) SchemeName() string {
	return ipnEndpointSchemeName
}

// SchemeNo is 2 for IpnEndpoints.
func (e IpnEndpoint) SchemeNo() uint64 {
	return ipnEndpointSchemeNo
}

// Authority is the authority part of the Endpoint URI, e.g., "23" for "ipn:23.42".
func (e IpnEndpoint) Authority() string {
	return fmt.Sprintf("%d", e.Node)
}

// Path is the path part of the Endpoint URI, e.g., "42" for "ipn:23.42".
func (e IpnEndpoint) Path() string {
	return fmt.Sprintf("%d", e.Service)
}

// IsSingleton checks if this Endpoint represents a singleton.
//
// All IPN Endpoints are singletons by definition.
func (_ IpnEndpoint) IsSingleton() bool {
	return true
}

// CheckValid returns an array of errors for incorrect data.
func (e IpnEndpoint) CheckValid() error {
	if e.Node < 1 || e.Service < 1 {
		return NewError(ErrKindInvalidEndpoint, "ipn's node and service number must be >= 1", nil)
	}

	return nil
}

func (e IpnEndpoint) String() string {
	return fmt.Sprintf("%s:%d.%d", ipnEndpointSchemeName, e.Node, e.Service)
}

// MarshalCbor writes this IpnEndpoint's CBOR representation.
func (e IpnEndpoint) MarshalCbor(w io.Writer) error {
	if err := cboring.WriteArrayLength(2, w); err != nil {
		return err
	}

	for _, n := range []uint64{e.Node, e.Service} {
		if err := cboring.WriteUInt(n, w); err != nil {
			return err
		}
	}

	return nil
}

// UnmarshalCbor reads a CBOR representation for an IpnEndpoint.
func (e *IpnEndpoint) UnmarshalCbor(r io.Reader) error {
	if n, err := cboring.ReadArrayLength(r); err != nil {
		return err
	} else if n != 2 {
		return fmt.Errorf("ipn uri expected array of 2 elements, not %d", n)
	}

	for _, n := range []*uint64{&e.Node, &e.Service} {
		if i, err := cboring.ReadUInt(r); err != nil {
			return err
		} else {
			*n = i
		}
	}

	return nil
}
