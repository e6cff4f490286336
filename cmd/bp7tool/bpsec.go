// SPDX-FileCopyrightText: 2022 Matthias Axel Kröll
//
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"io"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/dtn7/bp7core/bp7"
)

// signBundle for the "sign" CLI option.
func signBundle(args []string) {
	if len(args) != 3 {
		printUsage()
	}

	var (
		input  = args[0]
		psk    = args[1]
		output = args[2]
		err    error
		f      io.ReadCloser
		b      bp7.Bundle
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

	payloadSecurityTarget, err := b.ExtensionBlock(bp7.ExtBlockTypePayloadBlock)
	if err != nil {
		printFatal(err, "bundle has no payload block")
	}

	shaVariant := bp7.HMAC256SHA256
	bib := bp7.NewBIBIOPHMACSHA2(&shaVariant, nil, nil, []uint64{payloadSecurityTarget.BlockNumber}, b.PrimaryBlock.SourceNode)

	if err = b.AddExtensionBlock(bp7.NewCanonicalBlock(0, 0, bib)); err != nil {
		printFatal(err, "adding block integrity block failed")
	}

	bibBlockAdded, err := b.ExtensionBlock(bib.BlockTypeCode())
	if err != nil {
		printFatal(err, "could not look up the added block integrity block")
	}

	if err = bp7.SignBundle(b, bibBlockAdded.BlockNumber, []byte(psk)); err != nil {
		printFatal(err, "signing targets errored")
	}

	logger := log.WithFields(log.Fields{
		"bundle": b.ID(),
		"file":   output,
	})

	var out io.WriteCloser
	if output == "-" {
		out = os.Stdout
	} else if out, err = os.Create(output); err != nil {
		logger.WithError(err).Fatal("creating file errored")
	}
	if err = b.MarshalCbor(out); err != nil {
		logger.WithError(err).Fatal("marshalling bundle errored")
	}
	if err = out.Close(); err != nil {
		logger.WithError(err).Fatal("closing file errored")
	}
}

// verifyBundle for the "verify" CLI option.
func verifyBundle(args []string) {
	if len(args) != 2 {
		printUsage()
	}

	var (
		input = args[0]
		psk   = args[1]
		err   error
		f     io.ReadCloser
		b     bp7.Bundle
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

	bibBlock, err := b.ExtensionBlock(bp7.ExtBlockTypeBlockIntegrityBlock)
	if err != nil {
		printFatal(err, "could not find a block integrity block")
	}

	if err = bp7.VerifyBundle(b, bibBlock.BlockNumber, []byte(psk)); err != nil {
		printFatal(err, "verification failed")
	}

	log.Info("verify OK")
}
