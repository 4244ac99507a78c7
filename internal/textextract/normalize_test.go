package textextract

import "testing"

func TestNormalizeUnicode_CollapsesSpaceVariants(t *testing.T) {
	input := []byte("widgets and gadgets　today")
	got := string(normalizeUnicode(input))
	want := "widgets and gadgets today"
	if got != want {
		t.Fatalf("normalizeUnicode() = %q, want %q", got, want)
	}
}

func TestNormalizeUnicode_DropsZeroWidthAndFormatChars(t *testing.T) {
	input := []byte("wid​gets﻿ and‌ gadgets᠎")
	got := string(normalizeUnicode(input))
	want := "widgets and gadgets"
	if got != want {
		t.Fatalf("normalizeUnicode() = %q, want %q", got, want)
	}
}

func TestNormalizeUnicode_PreservesNewlinesAndTabs(t *testing.T) {
	input := []byte("line one\nline\ttwo\r\n")
	got := string(normalizeUnicode(input))
	if got != string(input) {
		t.Fatalf("normalizeUnicode() = %q, want unchanged %q", got, string(input))
	}
}

func TestNormalizeUnicode_LeavesPlainASCIIUnchanged(t *testing.T) {
	input := []byte("Revenue increased 12% year over year.")
	got := string(normalizeUnicode(input))
	if got != string(input) {
		t.Fatalf("normalizeUnicode() = %q, want unchanged %q", got, string(input))
	}
}
