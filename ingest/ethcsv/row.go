// Package ethcsv provides utilities for turning Ethereum CSV transaction data
// into fee market work units
package ethcsv

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"feeEmulator/core"
	"feeEmulator/utils"
)

// ErrHeaderRow is returned by ParseRow for the CSV header line
var ErrHeaderRow = errors.New("csv header row")

// TxRow represents a transaction row from the Ethereum CSV dataset
// CSV format: blockNumber,timestamp,transactionHash,from,to,toCreate,fromIsContract,toIsContract,value,gasLimit,gasPrice,gasUsed,callingFunction,isError,eip2718type,baseFeePerGas,maxFeePerGas,maxPriorityFeePerGas,...
type TxRow struct {
	BlockNumber          uint64
	Timestamp            uint64
	TxHash               string
	From                 string
	To                   string
	ToCreate             string // Contract creation address
	Value                *big.Int
	GasLimit             uint64
	GasPrice             *big.Int // For legacy/EIP-2930 transactions
	GasUsed              uint64
	EIP2718Type          uint8 // 0=legacy, 1=EIP-2930, 2=EIP-1559, 3=EIP-4844
	BaseFeePerGas        *big.Int
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
	IsError              bool
}

func field(data []string, i int) string {
	if i >= len(data) {
		return ""
	}
	v := strings.TrimSpace(data[i])
	if v == "None" {
		return ""
	}
	return v
}

func parseBig(s string) *big.Int {
	if s == "" {
		return nil
	}
	if v, ok := new(big.Int).SetString(s, 10); ok {
		return v
	}
	return nil
}

func parseUint(s string) uint64 {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// ParseRow parses one CSV record. Unparseable numeric columns are left empty.
func ParseRow(data []string) (TxRow, error) {
	var row TxRow
	if len(data) == 0 {
		return row, fmt.Errorf("empty csv record")
	}
	if field(data, 0) == "blockNumber" {
		return row, ErrHeaderRow
	}
	if len(data) < 5 {
		return row, fmt.Errorf("csv record has %d columns, want at least 5", len(data))
	}

	row.BlockNumber = parseUint(field(data, 0))
	row.Timestamp = parseUint(field(data, 1))
	row.TxHash = field(data, 2)
	row.From = field(data, 3)
	row.To = field(data, 4)
	row.ToCreate = field(data, 5)
	row.Value = parseBig(field(data, 8))
	row.GasLimit = parseUint(field(data, 9))
	row.GasPrice = parseBig(field(data, 10))
	row.GasUsed = parseUint(field(data, 11))
	row.IsError = field(data, 13) == "1" || strings.EqualFold(field(data, 13), "true")
	if t := field(data, 14); t != "" {
		if eipType, err := strconv.ParseUint(t, 10, 8); err == nil {
			row.EIP2718Type = uint8(eipType)
		}
	}
	row.BaseFeePerGas = parseBig(field(data, 15))
	row.MaxFeePerGas = parseBig(field(data, 16))
	row.MaxPriorityFeePerGas = parseBig(field(data, 17))

	if row.From == "" {
		return row, fmt.Errorf("csv record %s has no sender", row.TxHash)
	}
	return row, nil
}

// EffectiveGasPrice returns the per-gas price the sender paid in wei.
// Legacy and EIP-2930 rows pay gasPrice; EIP-1559 and blob rows pay
// min(maxFeePerGas, baseFeePerGas + maxPriorityFeePerGas).
func EffectiveGasPrice(r TxRow) *big.Int {
	zero := big.NewInt(0)

	switch r.EIP2718Type {
	case 0, 1:
		if r.GasPrice == nil {
			return zero
		}
		return new(big.Int).Set(r.GasPrice)

	case 2, 3:
		if r.MaxFeePerGas == nil {
			// some exports fill gasPrice with the effective price
			if r.GasPrice != nil {
				return new(big.Int).Set(r.GasPrice)
			}
			return zero
		}
		if r.BaseFeePerGas == nil || r.MaxPriorityFeePerGas == nil {
			return new(big.Int).Set(r.MaxFeePerGas)
		}
		sum := new(big.Int).Add(r.BaseFeePerGas, r.MaxPriorityFeePerGas)
		if sum.Cmp(r.MaxFeePerGas) < 0 {
			return sum
		}
		return new(big.Int).Set(r.MaxFeePerGas)

	default:
		// Future transaction types: return zero to be conservative
		return zero
	}
}

// ToAddress returns the destination address for this transaction.
// For contract creation, returns the ToCreate address.
// For regular transactions, returns the To address.
func ToAddress(r TxRow) string {
	if r.To != "" {
		return r.To
	}
	return r.ToCreate
}

// ToTransaction converts a row into a work unit.
// Capacity is the gas limit (gas used when the limit is missing) and the fee
// rate is the effective gas price divided by unit wei. The returned outcome
// replays the row: failed rows consumed their gas used.
func ToTransaction(r TxRow, id core.TxID, unit *big.Int) (*core.Transaction, core.Outcome, error) {
	cu := r.GasLimit
	if cu == 0 {
		cu = r.GasUsed
	}
	if cu == 0 {
		return nil, core.Outcome{}, fmt.Errorf("row %s has no gas", r.TxHash)
	}

	price := EffectiveGasPrice(r)
	if unit != nil && unit.Sign() > 0 {
		price = new(big.Int).Div(price, unit)
	}
	rate := uint64(math.MaxUint64)
	if price.IsUint64() {
		rate = price.Uint64()
	}

	from, err := utils.ParseAddress(r.From)
	if err != nil {
		return nil, core.Outcome{}, fmt.Errorf("row %s sender: %w", r.TxHash, err)
	}
	addrs := []utils.Address{from}
	if dest := ToAddress(r); dest != "" {
		to, err := utils.ParseAddress(dest)
		if err != nil {
			return nil, core.Outcome{}, fmt.Errorf("row %s recipient: %w", r.TxHash, err)
		}
		addrs = append(addrs, to)
	}

	outcome := core.Succeeded()
	if r.IsError {
		outcome = core.Failed(r.GasUsed)
	}
	return core.NewTransaction(id, cu, rate, addrs), outcome, nil
}

// MapLane deterministically maps an address to an execution lane.
// Uses SHA-256 hash modulo the number of lanes for uniform distribution.
func MapLane(addr string, lanes int) int {
	if lanes <= 0 {
		return 0
	}

	// Normalize address (remove 0x prefix if present)
	addr = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(addr)), "0x")

	hash := sha256.Sum256([]byte(addr))
	hashNum := binary.BigEndian.Uint64(hash[:8])

	return int(hashNum % uint64(lanes))
}
