// SPDX-FileCopyrightText: 2020, 2021 Alvar Penning
// SPDX-FileCopyrightText: 2022 Matthias Axel Kröll
//
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
)

// printUsage of bp7tool and exit with an error code afterwards.
func printUsage() {
	_, _ = fmt.Fprintf(os.Stderr, "Usage of %s create|show|sign|verify:\n\n", os.Args[0])

	_, _ = fmt.Fprintf(os.Stderr, "%s create sender receiver -|filename [-|filename]\n", os.Args[0])
	_, _ = fmt.Fprintf(os.Stderr, "  Creates a new Bundle, addressed from sender to receiver with the stdin (-)\n")
	_, _ = fmt.Fprintf(os.Stderr, "  or the given file (filename) as payload. If no further specified, the\n")
	_, _ = fmt.Fprintf(os.Stderr, "  Bundle is stored locally named after the hex representation of its ID.\n")
	_, _ = fmt.Fprintf(os.Stderr, "  Otherwise, the Bundle can be written to the stdout (-) or saved\n")
	_, _ = fmt.Fprintf(os.Stderr, "  according to a freely selectable filename.\n\n")

	_, _ = fmt.Fprintf(os.Stderr, "%s show -|filename\n", os.Args[0])
	_, _ = fmt.Fprintf(os.Stderr, "  Prints a JSON version of a Bundle, read from stdin (-) or filename.\n\n")

	_, _ = fmt.Fprintf(os.Stderr, "%s sign -|filename psk -|filename\n", os.Args[0])
	_, _ = fmt.Fprintf(os.Stderr, "  Attaches a BIB-HMAC-SHA2 Block Integrity Block protecting the payload,\n")
	_, _ = fmt.Fprintf(os.Stderr, "  signed with psk, and writes the resulting Bundle.\n\n")

	_, _ = fmt.Fprintf(os.Stderr, "%s verify -|filename psk\n", os.Args[0])
	_, _ = fmt.Fprintf(os.Stderr, "  Verifies a Bundle's Block Integrity Block against psk.\n\n")

	os.Exit(1)
}

// printFatal of an error with a short context description and exits afterwards.
func printFatal(err error, msg string) {
	log.WithError(err).Error(msg)
	os.Exit(1)
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
	}

	switch os.Args[1] {
	case "create":
		createBundle(os.Args[2:])

	case "show":
		showBundle(os.Args[2:])

	case "sign":
		signBundle(os.Args[2:])

	case "verify":
		verifyBundle(os.Args[2:])

	default:
		printUsage()
	}
}
