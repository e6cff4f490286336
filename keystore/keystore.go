// SPDX-FileCopyrightText: 2020, 2021 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package keystore implements an embedded, on-disk store for the pre-shared HMAC keys used by BIB-HMAC-SHA2
// integrity operations. Keys are indexed by the EndpointID of their security source, the same EndpointID a
// Block Integrity Block carries in its SecuritySource field.
package keystore

import (
	"fmt"
	"os"
	"path"

	log "github.com/sirupsen/logrus"
	"github.com/timshannon/badgerhold"

	"github.com/dtn7/bp7core/bp7"
)

const dirBadger string = "keys"

// KeyRecord is a pre-shared HMAC key, scoped to a security source and a preferred SHA variant.
type KeyRecord struct {
	SecuritySource string `badgerhold:"key"`
	Key            []byte
	ShaVariant     uint64
}

// Store is an embedded, persistent key/value store for KeyRecords, backed by badgerhold.
type Store struct {
	bh *badgerhold.Store

	badgerDir string
}

// NewStore creates a new Store or opens an existing one from the given directory.
func NewStore(dir string) (s *Store, err error) {
	badgerDir := path.Join(dir, dirBadger)

	opts := badgerhold.DefaultOptions
	opts.Dir = badgerDir
	opts.ValueDir = badgerDir
	opts.Logger = log.StandardLogger()

	if dirErr := os.MkdirAll(badgerDir, 0700); dirErr != nil {
		err = dirErr
		return
	}

	if bh, bhErr := badgerhold.Open(opts); bhErr != nil {
		err = bhErr
	} else {
		s = &Store{bh: bh, badgerDir: badgerDir}
	}
	return
}

// Close the Store. It must not be used afterwards.
func (s *Store) Close() error {
	return s.bh.Close()
}

// Put stores the key for a security source, overwriting any existing entry.
func (s *Store) Put(securitySource bp7.EndpointID, key []byte, shaVariant uint64) error {
	record := KeyRecord{
		SecuritySource: securitySource.String(),
		Key:            key,
		ShaVariant:     shaVariant,
	}

	log.WithField("security_source", record.SecuritySource).Debug("keystore: storing key")

	return s.bh.Upsert(record.SecuritySource, record)
}

// Get fetches the KeyRecord for a security source.
func (s *Store) Get(securitySource bp7.EndpointID) (record KeyRecord, err error) {
	err = s.bh.Get(securitySource.String(), &record)
	return
}

// Delete removes the KeyRecord for a security source, if present.
func (s *Store) Delete(securitySource bp7.EndpointID) error {
	err := s.bh.Delete(securitySource.String(), KeyRecord{})
	if err == badgerhold.ErrNotFound {
		return nil
	}
	return err
}

// Has reports whether a key is stored for the given security source.
func (s *Store) Has(securitySource bp7.EndpointID) bool {
	_, err := s.Get(securitySource)
	return err == nil
}

// List returns every stored KeyRecord.
func (s *Store) List() (records []KeyRecord, err error) {
	err = s.bh.Find(&records, nil)
	return
}

// errNotFound mirrors badgerhold's not-found sentinel so callers of this package do not need to import
// badgerhold directly just to compare errors.
var errNotFound = badgerhold.ErrNotFound

// IsNotFound reports whether err indicates a missing KeyRecord.
func IsNotFound(err error) bool {
	return err == errNotFound
}

func (r KeyRecord) String() string {
	return fmt.Sprintf("KeyRecord{source: %s, sha_variant: %d}", r.SecuritySource, r.ShaVariant)
}
