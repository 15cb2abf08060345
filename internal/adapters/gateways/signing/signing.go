// Package signing holds the hashing and amount formatting primitives shared by
// the provider adapters. Canonical message construction stays in each adapter.
package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// HMACSHA256Hex returns the lowercase hex HMAC-SHA256 of message under key
func HMACSHA256Hex(key, message string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}

// SHA256Hex returns the lowercase hex SHA-256 of message
func SHA256Hex(message string) string {
	sum := sha256.Sum256([]byte(message))
	return hex.EncodeToString(sum[:])
}

// Equal compares a recomputed signature with the one supplied by the caller in
// constant time. Hex case is ignored.
func Equal(expected, provided string) bool {
	if provided == "" {
		return false
	}
	return hmac.Equal([]byte(strings.ToLower(expected)), []byte(strings.ToLower(provided)))
}

// Amount formats with exactly two decimals: 1000 -> "1000.00"
func Amount(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

// AmountMinor formats with two decimals and the point removed: 1000 -> "100000"
func AmountMinor(amount decimal.Decimal) string {
	return strings.Replace(amount.StringFixed(2), ".", "", 1)
}

// SortedPairs joins k=v pairs sorted by key with "&", skipping empty values
func SortedPairs(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k, v := range fields {
		if v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + fields[k]
	}
	return strings.Join(parts, "&")
}
