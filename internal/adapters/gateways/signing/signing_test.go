package signing

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestHMACSHA256Hex_KnownVector(t *testing.T) {
	// RFC 4231 test case 2
	got := HMACSHA256Hex("Jefe", "what do ya want for nothing?")
	assert.Equal(t, "5bdcc146bf60754e6a042426089575c75a003f089d2739839dec58b964ec3843", got)
}

func TestSHA256Hex_Empty(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", SHA256Hex(""))
}

func TestEqual(t *testing.T) {
	sig := HMACSHA256Hex("k", "m")

	tampered := []byte(sig)
	if tampered[0] == 'a' {
		tampered[0] = 'b'
	} else {
		tampered[0] = 'a'
	}

	assert.True(t, Equal(sig, sig))
	assert.True(t, Equal(sig, strings.ToUpper(sig)))
	assert.False(t, Equal(sig, ""))
	assert.False(t, Equal(sig, string(tampered)))
	assert.False(t, Equal(sig, sig[:10]))
}

func TestAmountFormatting(t *testing.T) {
	tests := []struct {
		in        string
		fixed     string
		minorUnit string
	}{
		{"1000", "1000.00", "100000"},
		{"2500.5", "2500.50", "250050"},
		{"0.99", "0.99", "099"},
		{"5000.125", "5000.13", "500013"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			amount := decimal.RequireFromString(tt.in)
			assert.Equal(t, tt.fixed, Amount(amount))
			assert.Equal(t, tt.minorUnit, AmountMinor(amount))
		})
	}
}

func TestSortedPairs(t *testing.T) {
	got := SortedPairs(map[string]string{
		"txn_ref_no":  "FL-1",
		"amount":      "10.00",
		"merchant_id": "MC1",
		"empty":       "",
	})
	assert.Equal(t, "amount=10.00&merchant_id=MC1&txn_ref_no=FL-1", got)
}
