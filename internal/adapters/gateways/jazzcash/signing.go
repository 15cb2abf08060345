package jazzcash

import "github.com/ncpwheels/featured-payments/internal/adapters/gateways/signing"

// SecureHash is the hex SHA-256 of the key-sorted k=v pairs followed by &salt.
// Empty values are left out of the signed string.
func SecureHash(integritySalt string, fields map[string]string) string {
	return signing.SHA256Hex(signing.SortedPairs(fields) + "&" + integritySalt)
}
