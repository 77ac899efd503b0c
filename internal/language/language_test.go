package language

import "testing"

func TestToISO2(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"en", "en"},
		{"EN", "en"},
		{"zh-CN", "zh"},
		{"zh_TW", "zh"},
		{"eng", "en"},
		{"fra", "fr"},
		{"english", "en"},
		{"Japanese", "ja"},
		{"", ""},
		{"not a language", ""},
	}
	for _, tc := range tests {
		if got := ToISO2(tc.input); got != tc.expected {
			t.Errorf("ToISO2(%q) = %q, want %q", tc.input, got, tc.expected)
		}
	}
}

func TestToISO3(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"en", "eng"},
		{"zh-CN", "zho"},
		{"german", "deu"},
		{"??", "und"},
	}
	for _, tc := range tests {
		if got := ToISO3(tc.input); got != tc.expected {
			t.Errorf("ToISO3(%q) = %q, want %q", tc.input, got, tc.expected)
		}
	}
}

func TestCanonical(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"zh_cn", "zh-CN"},
		{" en ", "en"},
		{"pt-br", "pt-BR"},
		{"bad tag!", "bad tag!"},
	}
	for _, tc := range tests {
		if got := Canonical(tc.input); got != tc.expected {
			t.Errorf("Canonical(%q) = %q, want %q", tc.input, got, tc.expected)
		}
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"en", "English"},
		{"ja", "Japanese"},
		{"french", "French"},
		{"", "Unknown"},
		{"!!", "!!"},
	}
	for _, tc := range tests {
		if got := DisplayName(tc.input); got != tc.expected {
			t.Errorf("DisplayName(%q) = %q, want %q", tc.input, got, tc.expected)
		}
	}
}

func TestNormalizeList(t *testing.T) {
	got := NormalizeList([]string{"zh_CN", "zh-cn", "", "en", "EN"})
	want := []string{"zh-CN", "en"}
	if len(got) != len(want) {
		t.Fatalf("NormalizeList = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("NormalizeList = %v, want %v", got, want)
		}
	}
}
