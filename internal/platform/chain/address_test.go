package chain

import (
	"strings"
	"testing"
)

func TestIsValidAddressAcceptsWellFormedKey(t *testing.T) {
	// 32 bytes of 0x01 in base58.
	address := "4vJ9JU1bJJE96FWSJKvHsmmFADCg4gpZQff4P3bkLKi"
	if !IsValidAddress(address) {
		t.Fatalf("expected %q to be a valid address", address)
	}
}

func TestIsValidAddressRejectsMalformedInput(t *testing.T) {
	cases := []string{
		"",
		"not-an-address",
		"abc",
		strings.Repeat("1", 100),
		"O0Il",
	}
	for _, address := range cases {
		if IsValidAddress(address) {
			t.Fatalf("expected %q to be rejected", address)
		}
	}
}
