package utils

import (
	"strings"
	"testing"
)

func TestFormatPhoneNumber(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"4", "4"},
		{"0", "+61"},
		{"04", "+614"},
		{"0412", "+61 412"},
		{"04123", "+61 4123"},
		{"041234", "+61 412 34"},
		{"0412345678", "+61 412 345 678"},
		{"+61 412 345 678", "+61 412 345 678"},
		{"61412345678", "+61 412 345 678"},
		{"(04) 1234-5678", "+61 412 345 678"},
	}
	for _, tc := range cases {
		if got := FormatPhoneNumber(tc.in); got != tc.want {
			t.Fatalf("FormatPhoneNumber(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatPhoneNumberIsStable(t *testing.T) {
	once := FormatPhoneNumber("0412345678")
	if twice := FormatPhoneNumber(once); twice != once {
		t.Fatalf("reformatting changed value: %q -> %q", once, twice)
	}
}

func TestFormatPhoneNumberPreservesDigits(t *testing.T) {
	inputs := []string{
		"412345678", "61 4 1", "+++61412", "abc123def456", "9 8 7 6 5 4 3 2 1 0",
		"0412345678901234", "00", "0x0y0z", "+", "  ",
	}
	for _, in := range inputs {
		out := FormatPhoneNumber(in)
		if strings.Count(out, "+") > 1 || (strings.Contains(out, "+") && !strings.HasPrefix(out, "+")) {
			t.Fatalf("FormatPhoneNumber(%q) = %q has a misplaced +", in, out)
		}

		want := DigitsOnly(in)
		if strings.HasPrefix(want, "0") {
			want = "61" + want[1:]
		}
		if got := DigitsOnly(out); got != want {
			t.Fatalf("FormatPhoneNumber(%q) digits = %q, want %q", in, got, want)
		}
	}
}

func TestFormatFileSize(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0 Bytes"},
		{512, "512 Bytes"},
		{1024, "1 KB"},
		{1536, "1.5 KB"},
		{5 * 1024 * 1024, "5 MB"},
		{10*1024*1024 + 5000, "10 MB"},
		{3 * 1024 * 1024 * 1024, "3 GB"},
		{2048 * 1024 * 1024 * 1024, "2048 GB"},
	}
	for _, tc := range cases {
		if got := FormatFileSize(tc.in); got != tc.want {
			t.Fatalf("FormatFileSize(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
