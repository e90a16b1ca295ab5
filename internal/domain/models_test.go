package domain

import "testing"

func TestNormalizePlate(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"hvls65", "HVLS65"},
		{" HVLS65 ", "HVLS65"},
		{"lx-bw 68", "LXBW68"},
		{"LX·BW-68", "LXBW68"},
		{"ab\tcd 12", "ABCD12"},
		{"", ""},
		{"---", ""},
	}
	for _, c := range cases {
		if got := NormalizePlate(c.in); got != c.want {
			t.Errorf("NormalizePlate(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
