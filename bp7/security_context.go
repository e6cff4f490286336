// SPDX-FileCopyrightText: 2020 Matthias Axel Kröll
// SPDX-FileCopyrightText: 2020 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

package bp7

// securityContext names one of the interoperable BPSec security contexts from
// draft-ietf-dtn-bpsec-interop-sc-01, section 3, pairing its wire identifier with its human-readable name.
type securityContext struct {
	id   uint64
	name string
}

var (
	// bibIopHmacSha is the mandatory block-integrity context: an HMAC-SHA2 keyed hash over one or more targets.
	bibIopHmacSha = securityContext{id: 0, name: "BIB-HMAC-SHA2"}

	// bcbIopAesGcm is the mandatory block-confidentiality context: AES-GCM-256 authenticated encryption.
	bcbIopAesGcm = securityContext{id: 1, name: "BCB-IOP-AES-GCM"}
)

var (
	// SecConIdentBIBIOPHMACSHA is the wire identifier for the BIB-HMAC-SHA2 security context.
	SecConIdentBIBIOPHMACSHA = bibIopHmacSha.id

	// SecConIdentBCBIOPAESGCM is the wire identifier for the BCB-IOP-AES-GCM security context.
	SecConIdentBCBIOPAESGCM = bcbIopAesGcm.id
)

var (
	// SecConNameBIBIOPHMACSHA is the display name for the BIB-HMAC-SHA2 security context.
	SecConNameBIBIOPHMACSHA = bibIopHmacSha.name

	// SecConNameBCBIOPAESGCM is the display name for the BCB-IOP-AES-GCM security context.
	SecConNameBCBIOPAESGCM = bcbIopAesGcm.name
)
