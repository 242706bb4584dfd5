package chain

import "github.com/btcsuite/btcutil/base58"

// Account addresses are base58-encoded ed25519 public keys, 32 bytes once
// decoded. Anything else is rejected before it can reach the ledger.
const addressByteLen = 32

func IsValidAddress(address string) bool {
	if address == "" {
		return false
	}
	decoded := base58.Decode(address)
	return len(decoded) == addressByteLen
}

// Validator adapts IsValidAddress to the method-based validator ports.
type Validator struct{}

func (Validator) IsValidAddress(address string) bool {
	return IsValidAddress(address)
}
