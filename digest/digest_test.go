package digest

import (
	"testing"
)

func TestHashDeterministic(t *testing.T) {
	inputs := []string{
		"",
		"What is the capital of France?",
		"what is the capital of france?",
		"日本の首都はどこですか",
		"a",
	}

	seen := make(map[string]string)
	for _, in := range inputs {
		first := Hash(in)
		second := Hash(in)
		if first != second {
			t.Errorf("Hash(%q) not deterministic: %s vs %s", in, first.Hex(), second.Hex())
		}
		if prev, ok := seen[first.Hex()]; ok {
			t.Errorf("collision between %q and %q", prev, in)
		}
		seen[first.Hex()] = in
	}
}

func TestHashGoldenValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "empty string",
			content: "",
			want:    "0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470",
		},
		{
			name:    "capital of france prompt",
			content: "What is the capital of France?",
			want:    "0x8509974b1782e5f11bc2bea2973802345c5d50a9199bdc39fcd6ff817a1b1eef",
		},
		{
			name:    "abc",
			content: "abc",
			want:    "0x4e03657aea45a94fc7d47ba826c8d667c0d1e6e33a64a036ec44f58fa12d6c45",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Hash(tt.content).Hex(); got != tt.want {
				t.Errorf("Hash(%q) = %s, want %s", tt.content, got, tt.want)
			}
		})
	}
}
