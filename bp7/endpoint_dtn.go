// SPDX-FileCopyrightText: 2019, 2020 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

package bp7

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/dtn7/cboring"
)

const (
	dtnEndpointSchemeName string = "dtn"
	dtnEndpointSchemeNo   uint64 = 1
	dtnEndpointDtnNoneSsp string = "none"
)

var dtnEndpointUriRe = regexp.MustCompile(`^dtn://([A-Za-z0-9._-]+)/(.*)$`)

// DtnEndpoint describes the dtn URI scheme for EndpointIDs, as defined in section 4.1.5.2.
//
// Besides the singleton "dtn:none", its SSP has the form "//node-name/demux", split into NodeName and Demux.
type DtnEndpoint struct {
	IsDtnNone bool

	NodeName string
	Demux    string
}

// NewDtnEndpoint from an URI with the dtn scheme.
func NewDtnEndpoint(uri string) (EndpointType, error) {
	if uri == dtnEndpointSchemeName+":"+dtnEndpointDtnNoneSsp {
		return DtnEndpoint{IsDtnNone: true}, nil
	}

	matches := dtnEndpointUriRe.FindStringSubmatch(uri)
	if matches == nil {
		return nil, NewError(ErrKindInvalidEndpoint, fmt.Sprintf("uri %q does not match a dtn endpoint", uri), nil)
	}

	return DtnEndpoint{NodeName: matches[1], Demux: matches[2]}, nil
}

// SchemeName is "dtn" for DtnEndpoints.
func (_ DtnEndpoint) SchemeName() string {
	return dtnEndpointSchemeName
}

// SchemeNo is 1 for DtnEndpoints.
func (_ DtnEndpoint) SchemeNo() uint64 {
	return dtnEndpointSchemeNo
}

// Authority is the authority part of the Endpoint URI, e.g., "foo" for "dtn://foo/bar".
func (e DtnEndpoint) Authority() string {
	if e.IsDtnNone {
		return dtnEndpointDtnNoneSsp
	}
	return e.NodeName
}

// Path is the path part of the Endpoint URI, e.g., "/bar" for "dtn://foo/bar".
func (e DtnEndpoint) Path() string {
	if e.IsDtnNone {
		return "/"
	}
	return "/" + e.Demux
}

// IsSingleton checks if this Endpoint represents a singleton.
//
// "dtn:none" is never a singleton; a demux starting with "~" marks a non-singleton group/multicast endpoint.
func (e DtnEndpoint) IsSingleton() bool {
	if e.IsDtnNone {
		return false
	}
	return !strings.HasPrefix(e.Demux, "~")
}

// CheckValid returns an array of errors for incorrect data.
//
// The "none" singleton is always valid; every other DtnEndpoint must carry a non-empty node name, since an
// empty SSP cannot be distinguished from a malformed "dtn://" authority once decoded off the wire.
func (e DtnEndpoint) CheckValid() error {
	if e.IsDtnNone {
		return nil
	}
	if e.NodeName == "" {
		return NewError(ErrKindInvalidEndpoint, "dtn endpoint SSP has an empty node name", nil)
	}
	return nil
}

func (e DtnEndpoint) String() string {
	if e.IsDtnNone {
		return dtnEndpointSchemeName + ":" + dtnEndpointDtnNoneSsp
	}
	return fmt.Sprintf("%s://%s/%s", dtnEndpointSchemeName, e.NodeName, e.Demux)
}

// ssp returns the "//node-name/demux" form encoded onto the wire.
func (e DtnEndpoint) ssp() string {
	return "//" + e.NodeName + "/" + e.Demux
}

// MarshalCbor writes this DtnEndpoint's CBOR representation.
func (e DtnEndpoint) MarshalCbor(w io.Writer) error {
	if e.IsDtnNone {
		return cboring.WriteUInt(0, w)
	}
	return cboring.WriteTextString(e.ssp(), w)
}

// UnmarshalCbor reads a CBOR representation.
func (e *DtnEndpoint) UnmarshalCbor(r io.Reader) error {
	m, n, err := cboring.ReadMajors(r)
	if err != nil {
		return err
	}

	switch m {
	case cboring.UInt:
		// dtn:none
		*e = DtnEndpoint{IsDtnNone: true}

	case cboring.TextString:
		tmp, err := cboring.ReadRawBytes(n, r)
		if err != nil {
			return err
		}

		ssp := strings.TrimPrefix(string(tmp), "//")
		parts := strings.SplitN(ssp, "/", 2)

		node := parts[0]
		demux := ""
		if len(parts) == 2 {
			demux = parts[1]
		}
		*e = DtnEndpoint{NodeName: node, Demux: demux}

	default:
		return fmt.Errorf("DtnEndpoint: wrong major type 0x%X for unmarshalling", m)
	}

	return nil
}

// DtnNone returns the null endpoint "dtn:none".
func DtnNone() EndpointID {
	return EndpointID{DtnEndpoint{IsDtnNone: true}}
}
