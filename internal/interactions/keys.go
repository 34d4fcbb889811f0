// Vitrine - Hybrid Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitrine

package interactions

import (
	"bytes"
	"encoding/binary"
	"time"
)

const keyPrefix = "ix/"

// userPrefix returns "ix/<userID>/". User IDs are alphanumeric, so the
// trailing slash cannot collide with another user's prefix.
func userPrefix(userID string) []byte {
	b := make([]byte, 0, len(keyPrefix)+len(userID)+1)
	b = append(b, keyPrefix...)
	b = append(b, userID...)
	return append(b, '/')
}

func eventKey(userID string, ts time.Time) []byte {
	return appendTimestamp(userPrefix(userID), ts)
}

func appendTimestamp(prefix []byte, ts time.Time) []byte {
	out := make([]byte, len(prefix), len(prefix)+8)
	copy(out, prefix)
	return binary.BigEndian.AppendUint64(out, uint64(ts.UnixNano()))
}

// parseKey splits an event key into its user ID and timestamp.
func parseKey(key []byte) (string, time.Time, bool) {
	if !bytes.HasPrefix(key, []byte(keyPrefix)) || len(key) < len(keyPrefix)+1+1+8 {
		return "", time.Time{}, false
	}
	rest := key[len(keyPrefix):]
	sep := len(rest) - 9
	if rest[sep] != '/' {
		return "", time.Time{}, false
	}
	nanos := binary.BigEndian.Uint64(rest[sep+1:])
	return string(rest[:sep]), time.Unix(0, int64(nanos)).UTC(), true
}

// prefixUpperBound returns the smallest key greater than every key that
// starts with prefix, used as the seek target for reverse iteration.
func prefixUpperBound(prefix []byte) []byte {
	out := make([]byte, len(prefix), len(prefix)+9)
	copy(out, prefix)
	return append(out, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF)
}
