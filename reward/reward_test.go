package reward

import (
	"bytes"
	"math/big"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		amounts []*big.Int
	}{
		{name: "zero", amounts: []*big.Int{big.NewInt(0)}},
		{name: "single value", amounts: []*big.Int{big.NewInt(10)}},
		{name: "large value", amounts: []*big.Int{new(big.Int).Lsh(big.NewInt(1), 200)}},
		{name: "schedule", amounts: []*big.Int{big.NewInt(10), big.NewInt(25), big.NewInt(100)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := Encode(tt.amounts...)
			if len(encoded) != len(tt.amounts)*WordSize {
				t.Fatalf("encoded length = %d, want %d", len(encoded), len(tt.amounts)*WordSize)
			}
			decoded, err := Decode(encoded)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if len(decoded) != len(tt.amounts) {
				t.Fatalf("decoded %d amounts, want %d", len(decoded), len(tt.amounts))
			}
			for i := range decoded {
				if decoded[i].Cmp(tt.amounts[i]) != 0 {
					t.Errorf("amount %d = %s, want %s", i, decoded[i], tt.amounts[i])
				}
			}
		})
	}
}

func TestEncodeNegativeIsSentinel(t *testing.T) {
	// A negative amount normalizes to the empty no-reward encoding
	// instead of raising.
	if got := Encode(big.NewInt(-1)); len(got) != 0 {
		t.Errorf("Encode(-1) = %x, want empty sentinel", got)
	}
	// One negative value poisons the whole schedule.
	if got := Encode(big.NewInt(5), big.NewInt(-3)); len(got) != 0 {
		t.Errorf("Encode(5, -3) = %x, want empty sentinel", got)
	}
}

func TestEncodeStable(t *testing.T) {
	a := Encode(big.NewInt(10))
	b := Encode(big.NewInt(10))
	if !bytes.Equal(a, b) {
		t.Errorf("encoding not stable: %x vs %x", a, b)
	}

	want := make([]byte, WordSize)
	want[WordSize-1] = 10
	if !bytes.Equal(a, want) {
		t.Errorf("Encode(10) = %x, want %x", a, want)
	}
}

func TestDecodeRejectsPartialWord(t *testing.T) {
	if _, err := Decode(make([]byte, 31)); err == nil {
		t.Error("expected error for partial word")
	}
}

func TestValidate(t *testing.T) {
	if err := Validate(big.NewInt(0), big.NewInt(7)); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}
	if err := Validate(big.NewInt(-1)); err == nil {
		t.Error("expected error for negative amount")
	}
	if err := Validate(nil); err == nil {
		t.Error("expected error for nil amount")
	}
	tooBig := new(big.Int).Lsh(big.NewInt(1), 256)
	if err := Validate(tooBig); err == nil {
		t.Error("expected error for amount exceeding uint256")
	}
}
