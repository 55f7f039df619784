package ethcsv

import (
	"errors"
	"io"
	"math/big"
	"strings"
	"testing"

	"feeEmulator/utils"
)

const (
	sender    = "0x1234567890abcdef1234567890abcdef12345678"
	recipient = "0xabcdefabcdefabcdefabcdefabcdefabcdefabcd"
)

// TestEffectiveGasPrice_Legacy tests legacy transaction price selection
func TestEffectiveGasPrice_Legacy(t *testing.T) {
	row := TxRow{EIP2718Type: 0, GasPrice: big.NewInt(20_000_000_000)}
	if got := EffectiveGasPrice(row); got.Cmp(big.NewInt(20_000_000_000)) != 0 {
		t.Errorf("EffectiveGasPrice() = %v, want 20 gwei", got)
	}

	row.GasPrice = nil
	if got := EffectiveGasPrice(row); got.Sign() != 0 {
		t.Errorf("nil gas price should give 0, got %v", got)
	}
}

// TestEffectiveGasPrice_EIP1559 tests the min(maxFee, base+tip) rule
func TestEffectiveGasPrice_EIP1559(t *testing.T) {
	gwei := func(x int64) *big.Int { return big.NewInt(x * 1_000_000_000) }

	tests := []struct {
		name        string
		baseFee     *big.Int
		maxFee      *big.Int
		priorityTip *big.Int
		want        *big.Int
	}{
		{"tip fits under max fee", gwei(30), gwei(100), gwei(2), gwei(32)},
		{"capped by max fee", gwei(30), gwei(31), gwei(2), gwei(31)},
		{"missing base fee", nil, gwei(100), gwei(2), gwei(100)},
		{"missing max fee", gwei(30), nil, gwei(2), big.NewInt(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := TxRow{
				EIP2718Type:          2,
				BaseFeePerGas:        tt.baseFee,
				MaxFeePerGas:         tt.maxFee,
				MaxPriorityFeePerGas: tt.priorityTip,
			}
			if got := EffectiveGasPrice(row); got.Cmp(tt.want) != 0 {
				t.Errorf("EffectiveGasPrice() = %v, want %v", got, tt.want)
			}
		})
	}

	if got := EffectiveGasPrice(TxRow{EIP2718Type: 9, GasPrice: gwei(1)}); got.Sign() != 0 {
		t.Errorf("unknown type should give 0, got %v", got)
	}
}

// TestParseRow tests column mapping of the CSV export
func TestParseRow(t *testing.T) {
	record := strings.Split("17000000,1681000000,0xhash,"+sender+","+recipient+",,0,0,1000,50000,,21000,transfer,1,2,30000000000,100000000000,2000000000", ",")

	row, err := ParseRow(record)
	if err != nil {
		t.Fatalf("ParseRow failed: %v", err)
	}
	if row.BlockNumber != 17000000 || row.TxHash != "0xhash" || row.From != sender || row.To != recipient {
		t.Errorf("unexpected identity fields %+v", row)
	}
	if row.GasLimit != 50000 || row.GasUsed != 21000 || !row.IsError || row.EIP2718Type != 2 {
		t.Errorf("unexpected gas fields %+v", row)
	}
	if row.GasPrice != nil {
		t.Errorf("empty gas price should stay nil, got %v", row.GasPrice)
	}
	if row.MaxPriorityFeePerGas.Cmp(big.NewInt(2_000_000_000)) != 0 {
		t.Errorf("MaxPriorityFeePerGas = %v", row.MaxPriorityFeePerGas)
	}

	if _, err := ParseRow([]string{"blockNumber", "timestamp"}); !errors.Is(err, ErrHeaderRow) {
		t.Errorf("header should return ErrHeaderRow, got %v", err)
	}
	if _, err := ParseRow([]string{"1", "2", "0xhash"}); err == nil {
		t.Error("short record should fail")
	}
	if _, err := ParseRow([]string{"1", "2", "0xhash", "None", recipient}); err == nil {
		t.Error("record without sender should fail")
	}
}

// TestToTransaction tests conversion of a row into a work unit
func TestToTransaction(t *testing.T) {
	row := TxRow{
		TxHash:      "0xabc",
		From:        sender,
		To:          recipient,
		GasLimit:    50000,
		GasUsed:     21000,
		EIP2718Type: 0,
		GasPrice:    big.NewInt(20_000_000_000),
	}

	tx, outcome, err := ToTransaction(row, 9, big.NewInt(1_000_000))
	if err != nil {
		t.Fatalf("ToTransaction failed: %v", err)
	}
	if tx.ID != 9 || tx.RequestedCU != 50000 || tx.SuppliedFeeRate != 20000 {
		t.Errorf("unexpected work unit %v", tx)
	}
	if len(tx.Addrs) != 2 || tx.Addrs[0] != mustParse(t, sender) || tx.Addrs[1] != mustParse(t, recipient) {
		t.Errorf("unexpected addresses %v", tx.Addrs)
	}
	if outcome.Failed {
		t.Error("successful row should replay as success")
	}

	row.IsError = true
	row.GasLimit = 0
	row.To = ""
	row.ToCreate = ""
	tx, outcome, err = ToTransaction(row, 10, nil)
	if err != nil {
		t.Fatalf("ToTransaction failed: %v", err)
	}
	if tx.RequestedCU != 21000 || len(tx.Addrs) != 1 {
		t.Errorf("fallback conversion wrong: %v", tx)
	}
	if !outcome.Failed || outcome.ActualCU != 21000 {
		t.Errorf("failed row outcome = %v, want failed(21000)", outcome)
	}

	row.GasUsed = 0
	if _, _, err := ToTransaction(row, 11, nil); err == nil {
		t.Error("row without gas should fail")
	}
}

func mustParse(t *testing.T, s string) utils.Address {
	t.Helper()
	addr, err := utils.ParseAddress(s)
	if err != nil {
		t.Fatalf("ParseAddress(%q): %v", s, err)
	}
	return addr
}

// TestReader tests streaming rows and skipping the header
func TestReader(t *testing.T) {
	input := "blockNumber,timestamp,transactionHash,from,to\n" +
		"1,100,0xa," + sender + "," + recipient + "\n" +
		"2,200,0xb," + recipient + "," + sender + "\n"

	r := NewReader(strings.NewReader(input))
	var hashes []string
	for {
		row, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		hashes = append(hashes, row.TxHash)
	}
	if len(hashes) != 2 || hashes[0] != "0xa" || hashes[1] != "0xb" {
		t.Errorf("read hashes %v, want [0xa 0xb]", hashes)
	}
	if r.Line() != 3 {
		t.Errorf("Line() = %d, want 3", r.Line())
	}
}

// TestMapLane tests deterministic lane mapping
func TestMapLane(t *testing.T) {
	lanes := 4

	lane1a := MapLane(sender, lanes)
	lane1b := MapLane(strings.ToUpper(sender[2:]), lanes)
	if lane1a != lane1b {
		t.Errorf("MapLane should ignore case and prefix: %d != %d", lane1a, lane1b)
	}
	if lane1a < 0 || lane1a >= lanes {
		t.Errorf("MapLane out of range: %d not in [0, %d)", lane1a, lanes)
	}
	if MapLane(sender, 0) != 0 || MapLane(sender, 1) != 0 {
		t.Error("MapLane with fewer than 2 lanes should return 0")
	}
}

// TestToAddress tests destination selection for contract creation
func TestToAddress(t *testing.T) {
	if got := ToAddress(TxRow{To: recipient, ToCreate: sender}); got != recipient {
		t.Errorf("ToAddress() = %s, want %s", got, recipient)
	}
	if got := ToAddress(TxRow{ToCreate: sender}); got != sender {
		t.Errorf("ToAddress() for creation = %s, want %s", got, sender)
	}
}
