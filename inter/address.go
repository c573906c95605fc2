package inter

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

const (
	// AddressPrefix starts every NeuraX address.
	AddressPrefix = "NX"
	// AddressHexLen is the number of hex characters following the prefix.
	AddressHexLen = 38
	// AddressLen is the full address length.
	AddressLen = len(AddressPrefix) + AddressHexLen
)

// Address identifies an account: "NX" followed by 38 hex characters. The
// canonical form uses an upper-case prefix and lower-case hex.
type Address string

// ParseAddress validates s and returns it in canonical form. The check is
// case-insensitive.
func ParseAddress(s string) (Address, error) {
	if len(s) != AddressLen {
		return "", Errorf(KindValidation, "address", "invalid address %q: want %d characters", s, AddressLen)
	}
	if !strings.EqualFold(s[:len(AddressPrefix)], AddressPrefix) {
		return "", Errorf(KindValidation, "address", "invalid address %q: missing %s prefix", s, AddressPrefix)
	}
	body := strings.ToLower(s[len(AddressPrefix):])
	if _, err := hex.DecodeString(body); err != nil {
		return "", Errorf(KindValidation, "address", "invalid address %q: non-hex body", s)
	}
	return Address(AddressPrefix + body), nil
}

// MustParseAddress is ParseAddress for constants and tests.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// IsValidAddress reports whether s is a well-formed address.
func IsValidAddress(s string) bool {
	_, err := ParseAddress(s)
	return err == nil
}

// AddressFromKey derives the wallet address for an opaque private key: the
// first 38 hex characters of its SHA-256 digest. The key is a client
// credential only and is never verified against the address.
func AddressFromKey(privateKey string) Address {
	sum := sha256.Sum256([]byte(privateKey))
	return Address(AddressPrefix + hex.EncodeToString(sum[:])[:AddressHexLen])
}

// FakeAddress derives a deterministic address from a seed string. Genesis
// allocations and tests use it to name well-known accounts.
func FakeAddress(seed string) Address {
	h := crypto.Keccak256([]byte(seed))
	return Address(AddressPrefix + hex.EncodeToString(h)[:AddressHexLen])
}

func (a Address) String() string {
	return string(a)
}

// Short returns a compact form for log lines.
func (a Address) Short() string {
	if len(a) < 10 {
		return string(a)
	}
	return string(a[:8]) + ".." + string(a[len(a)-4:])
}
