// Address utilities for the contended resources tracked by the fee markets
package utils

import (
	"encoding/binary"
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/blake2b"
)

// Address identifies a contended, mutually-exclusive resource (an account)
type Address = common.Address

// AddressFromUint returns the address whose big-endian value is i
// Used by tests and synthetic workloads that number their resources
func AddressFromUint(i uint64) Address {
	var addr Address
	binary.BigEndian.PutUint64(addr[common.AddressLength-8:], i)
	return addr
}

// AddressFromKey deterministically derives an address from an arbitrary key
// The address is the last 20 bytes of blake2b-256(key), so the same key always
// maps to the same resource on every run
func AddressFromKey(key string) Address {
	hash := blake2b.Sum256([]byte(key))
	return common.BytesToAddress(hash[len(hash)-common.AddressLength:])
}

// ParseAddress converts a dataset account field into an Address
// Hex addresses (with or without 0x prefix) are decoded directly,
// anything else is hashed with AddressFromKey
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Address{}, errors.New("empty address")
	}
	if common.IsHexAddress(s) {
		return common.HexToAddress(s), nil
	}
	return AddressFromKey(strings.ToLower(s)), nil
}

// DedupAddresses removes repeated addresses while keeping first-seen order
func DedupAddresses(addrs []Address) []Address {
	seen := make(map[Address]struct{}, len(addrs))
	out := make([]Address, 0, len(addrs))
	for _, addr := range addrs {
		if _, ok := seen[addr]; ok {
			continue
		}
		seen[addr] = struct{}{}
		out = append(out, addr)
	}
	return out
}
