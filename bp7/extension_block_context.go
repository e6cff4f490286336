// SPDX-FileCopyrightText: 2019, 2020, 2022 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

package bp7

import "fmt"

// requireSoleInstance implements the common CheckContextValid rule shared by the extension blocks that a
// Bundle may carry at most one of: the block registered in b under typeCode must be this exact instance, by
// pointer identity. A second block of the same type sneaking in through some other path than AddExtensionBlock
// would otherwise go unnoticed.
func requireSoleInstance(b *Bundle, typeCode uint64, self ExtensionBlock) error {
	cb, err := b.ExtensionBlock(typeCode)
	if err != nil {
		return err
	}
	if cb.Value != self {
		return fmt.Errorf("block's pointer differs from the registered instance, %p != %p", cb.Value, self)
	}
	return nil
}
