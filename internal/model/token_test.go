package model

import "testing"

func TestTokenKeyLowercases(t *testing.T) {
	token := Token{Address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"}
	if got := token.Key(); got != "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48" {
		t.Fatalf("key: got %s", got)
	}
}

func TestTokenIsSentinel(t *testing.T) {
	cases := []struct {
		address string
		want    bool
	}{
		{NativeSentinel, true},
		{"0x0000000000000000000000000000000000000000", true},
		{"0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", false},
		{"", false},
	}
	for _, tc := range cases {
		token := Token{Address: tc.address}
		if got := token.IsSentinel(); got != tc.want {
			t.Fatalf("%q: got %v, want %v", tc.address, got, tc.want)
		}
	}
}
