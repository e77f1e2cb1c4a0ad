package temporal

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
)

// HashRow computes the content digest of a row's business payload.
//
// System columns are excluded and the remaining columns are processed in
// sorted name order, so two logically identical rows hash identically even
// when produced by different extraction paths or with different column
// ordering. Values contribute their canonical encoding, separated by a NUL
// byte to keep adjacent values from bleeding into each other.
//
// SHA-256 is used purely for its collision resistance over the column space,
// not for security. A collision between two distinct payloads is treated as
// data corruption, not handled defensively.
func HashRow(row Row) string {
	names := make([]string, 0, len(row))
	for name := range row {
		if IsSystemColumn(name) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	h := sha256.New()
	for i, name := range names {
		if i > 0 {
			h.Write([]byte{0})
		}
		h.Write(row[name].Canonical())
	}
	return hex.EncodeToString(h.Sum(nil))
}
