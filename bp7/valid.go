// SPDX-FileCopyrightText: 2019, 2020 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

package bp7

// Valid is implemented by every type whose data can be internally inconsistent: PrimaryBlock, CanonicalBlock,
// Bundle, EndpointID and its EndpointType variants, the control flag bitfields, and the BPSec blocks.
//
// A container type's CheckValid is expected to call CheckValid on its constituents and combine the results,
// typically with github.com/hashicorp/go-multierror, so one call at the Bundle root surfaces every problem
// found anywhere in the tree.
type Valid interface {
	CheckValid() error
}
