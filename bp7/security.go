// SPDX-FileCopyrightText: 2020 Matthias Axel Kröll
// SPDX-FileCopyrightText: 2020 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

package bp7

import "fmt"

// bibAt looks up the Block Integrity Block with the given block number and asserts its concrete type.
func bibAt(b Bundle, bibBlockNumber uint64) (*BIBIOPHMACSHA2, error) {
	cb, err := b.GetExtensionBlockByBlockNumber(bibBlockNumber)
	if err != nil {
		return nil, err
	}

	bib, ok := cb.Value.(*BIBIOPHMACSHA2)
	if !ok {
		return nil, fmt.Errorf("block %d is not a Block Integrity Block", bibBlockNumber)
	}

	return bib, nil
}

// SignBundle computes the HMAC security results for the Block Integrity Block identified by bibBlockNumber,
// covering that BIB's configured security targets, and attaches them to the block in place.
func SignBundle(b Bundle, bibBlockNumber uint64, key []byte) error {
	bib, err := bibAt(b, bibBlockNumber)
	if err != nil {
		return err
	}

	return bib.SignTargets(b, bibBlockNumber, key)
}

// VerifyBundle recomputes the HMAC for every security target of the Block Integrity Block identified by
// bibBlockNumber and compares it against the attached security result in constant time. A non-nil error
// indicates either a missing security result or a verification failure.
func VerifyBundle(b Bundle, bibBlockNumber uint64, key []byte) error {
	bib, err := bibAt(b, bibBlockNumber)
	if err != nil {
		return err
	}

	return bib.VerifyTargets(b, bibBlockNumber, key)
}
