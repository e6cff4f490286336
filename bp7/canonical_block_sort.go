// SPDX-FileCopyrightText: 2020 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

package bp7

import "sort"

// sortCanonicalBlocks orders blocks by ascending block number, with one exception: the block numbered 1,
// the number reserved for the payload block, always sorts last, so a Bundle's payload block ends up as its
// final block.
func sortCanonicalBlocks(blocks []CanonicalBlock) {
	sort.SliceStable(blocks, func(i, j int) bool {
		return blockSortKey(blocks[i]) < blockSortKey(blocks[j])
	})
}

// blockSortKey maps a block number to its position in the sort order; block number 1 is pushed past
// every other block number so it always lands last.
func blockSortKey(cb CanonicalBlock) uint64 {
	if cb.BlockNumber == ExtBlockTypePayloadBlock {
		return ^uint64(0)
	}
	return cb.BlockNumber
}
