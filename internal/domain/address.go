package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// AddressHash derives the dedup key for a saved address. Two addresses with
// the same street, city, and zip code collapse to one entry regardless of
// casing or surrounding whitespace.
func AddressHash(street, city, zipCode string) string {
	normalise := func(s string) string {
		return strings.ToLower(strings.Join(strings.Fields(s), " "))
	}
	payload := normalise(street) + "|" + normalise(city) + "|" + normalise(zipCode)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}
