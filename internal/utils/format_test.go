package utils

import (
	"math/big"
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{0, "0D 0h 0m"},
		{90 * time.Second, "0D 0h 1m"},
		{26*time.Hour + 5*time.Minute, "1D 2h 5m"},
		{10 * 24 * time.Hour, "10D 0h 0m"},
		{-time.Hour, "0D 0h 0m"},
	}
	for _, c := range cases {
		if got := FormatDuration(c.d); got != c.want {
			t.Errorf("FormatDuration(%s) = %q, want %q", c.d, got, c.want)
		}
	}
}

func TestFormatToken(t *testing.T) {
	wei := func(s string) *big.Int {
		v, ok := new(big.Int).SetString(s, 10)
		if !ok {
			t.Fatalf("bad wei literal %q", s)
		}
		return v
	}

	cases := []struct {
		wei  *big.Int
		want string
	}{
		{nil, "0.00 OLAS"},
		{big.NewInt(0), "0.00 OLAS"},
		{wei("1000000000000000000"), "1.00 OLAS"},
		{wei("1500000000000000000"), "1.50 OLAS"},
		{wei("123456000000000000000"), "123.45 OLAS"},
	}
	for _, c := range cases {
		if got := FormatToken(c.wei, "OLAS"); got != c.want {
			t.Errorf("FormatToken(%v) = %q, want %q", c.wei, got, c.want)
		}
	}
}

func TestFormatTimestampUTC(t *testing.T) {
	got := FormatTimestampUTC(1700000000)
	want := "2023-11-14 22:13:20 UTC"
	if got != want {
		t.Errorf("FormatTimestampUTC = %q, want %q", got, want)
	}
}
