// SPDX-FileCopyrightText: 2020 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dtn7/bp7core/bp7"
)

// showBundle for the "show" CLI option.
func showBundle(args []string) {
	if len(args) != 1 {
		printUsage()
	}

	var (
		input = args[0]

		err  error
		f    io.ReadCloser
		b    bp7.Bundle
		bMsg []byte
	)

	if input == "-" {
		f = os.Stdin
	} else if f, err = os.Open(input); err != nil {
		printFatal(err, "opening file for reading errored")
	}

	if err = b.UnmarshalCbor(f); err != nil {
		printFatal(err, "unmarshaling bundle errored")
	}
	if err = f.Close(); err != nil {
		printFatal(err, "closing file errored")
	}

	if bMsg, err = b.MarshalJSON(); err != nil {
		printFatal(err, "marshaling JSON errored")
	}
	fmt.Println(string(bMsg))
}
