// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package calibration

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"io"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/sane-project/genesys/session"
)

// cacheHeader and cacheVersion identify the on-disk format, per spec.md
// §6: "header 'sane_genesys' (length-prefixed), version integer (current
// = 27)". Any mismatch means silently ignore and start with an empty
// cache — never propagate a parse error.
const cacheHeader = "sane_genesys"
const cacheVersion = 27

// Cache is the in-memory calibration cache, backed by a single versioned
// file. It is a linear list, walked front-to-back for the first
// fingerprint-compatible entry, matching spec.md §4.5 Caching.
type Cache struct {
	mu           sync.Mutex
	Entries      []Entry
	ExpireMinutes int // -1 never expires, 0 disables caching
}

// NewCache returns an empty Cache with the given expiration policy.
func NewCache(expireMinutes int) *Cache {
	return &Cache{ExpireMinutes: expireMinutes}
}

// Find returns the first entry whose fingerprint matches fp and that has
// not expired, or (Entry{}, false) otherwise.
func (c *Cache) Find(fp session.Fingerprint, now time.Time) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ExpireMinutes == 0 {
		return Entry{}, false
	}
	for _, e := range c.Entries {
		if e.Fingerprint != fp {
			continue
		}
		if c.ExpireMinutes > 0 && now.Sub(e.Timestamp) > time.Duration(c.ExpireMinutes)*time.Minute {
			continue
		}
		return e, true
	}
	return Entry{}, false
}

// Put appends or replaces the entry matching e's fingerprint.
func (c *Cache) Put(e Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, existing := range c.Entries {
		if existing.Fingerprint == e.Fingerprint {
			c.Entries[i] = e
			return
		}
	}
	c.Entries = append(c.Entries, e)
}

// Write serializes the cache to w in the versioned format described in
// spec.md §6: header, version, length-prefixed entry list. Write is
// best-effort from the caller's point of view: sane_close never treats a
// write failure as fatal (spec.md §7), but this function still returns the
// error so the caller can log it.
func (c *Cache) Write(w io.Writer) error {
	c.mu.Lock()
	entries := append([]Entry{}, c.Entries...)
	c.mu.Unlock()

	if err := writeLengthPrefixed(w, []byte(cacheHeader)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(cacheVersion)); err != nil {
		return err
	}
	var body bytes.Buffer
	enc := gob.NewEncoder(&body)
	if err := enc.Encode(entries); err != nil {
		return errors.Wrap(err, "calibration: encode cache entries")
	}
	return writeLengthPrefixed(w, body.Bytes())
}

func writeLengthPrefixed(w io.Writer, data []byte) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(data))); err != nil {
		return err
	}
	_, err := w.Write(data)
	return err
}

func readLengthPrefixed(r io.Reader) ([]byte, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	if n > 64<<20 {
		return nil, errors.New("calibration: cache length prefix implausibly large")
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadCache parses a versioned cache stream. On any header or version
// mismatch — or any other parse failure — it returns an empty Cache; it
// has no error result: corrupt/foreign cache files are never fatal (spec.md §6).
func ReadCache(r io.Reader, expireMinutes int) *Cache {
	empty := NewCache(expireMinutes)

	header, err := readLengthPrefixed(r)
	if err != nil || string(header) != cacheHeader {
		return empty
	}
	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil || version != cacheVersion {
		return empty
	}
	body, err := readLengthPrefixed(r)
	if err != nil {
		return empty
	}
	var entries []Entry
	dec := gob.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(&entries); err != nil {
		return empty
	}
	empty.Entries = entries
	return empty
}
