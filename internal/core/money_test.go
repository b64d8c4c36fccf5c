package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"12.34", 1234, true},
		{"12,34", 1234, true},
		{"12.345", 1235, true}, // half-up on third decimal
		{"12.344", 1234, true},
		{"1000000", 100000000, true},
		{"0.01", 1, true},
		{"0", 0, false},
		{"-5", 0, false},
		{"", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("%q: expected %d, got %d err=%v", tc.in, tc.want, got, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%q: expected error", tc.in)
		}
	}
}

func TestPercentOf(t *testing.T) {
	cases := []struct {
		cents   int64
		percent int64
		want    int64
	}{
		{100_000_000, 10, 10_000_000}, // 1,000,000.00 at 10%
		{100_000_000, 5, 5_000_000},
		{999, 10, 100}, // 99.9 cents rounds half-up
		{5, 10, 1},     // 0.5 cents rounds up
		{4, 10, 0},
		{1234, 0, 0},
		{1234, 100, 1234},
	}
	for _, tc := range cases {
		got := Money{Cents: tc.cents}.PercentOf(tc.percent)
		if got.Cents != tc.want {
			t.Fatalf("%d @ %d%%: expected %d, got %d", tc.cents, tc.percent, tc.want, got.Cents)
		}
	}
}

func TestMoneyString(t *testing.T) {
	if got := (Money{Cents: 123456}).String(); got != "1234.56" {
		t.Fatalf("expected 1234.56, got %s", got)
	}
	if got := (Money{Cents: -50}).String(); got != "-0.50" {
		t.Fatalf("expected -0.50, got %s", got)
	}
}
