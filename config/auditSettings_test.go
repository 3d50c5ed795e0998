package config

import (
	"testing"
	"time"
)

func TestBoolFromEnv(t *testing.T) {
	cases := []struct {
		raw  string
		def  bool
		want bool
	}{
		{"", true, true},
		{"", false, false},
		{"TRUE", false, true},
		{" yes ", false, true},
		{"0", true, false},
		{"off", true, false},
		{"maybe", true, true},
	}
	for _, tc := range cases {
		t.Setenv("AUDIT_TEST_FLAG", tc.raw)
		if got := boolFromEnv("AUDIT_TEST_FLAG", tc.def); got != tc.want {
			t.Fatalf("boolFromEnv(%q, %v)=%v want %v", tc.raw, tc.def, got, tc.want)
		}
	}
}

func TestReportCacheTTL(t *testing.T) {
	t.Setenv("REPORT_CACHE_TTL_SECONDS", "")
	if got := ReportCacheTTL(); got != 120*time.Second {
		t.Fatalf("default ttl=%s", got)
	}
	t.Setenv("REPORT_CACHE_TTL_SECONDS", "42")
	if got := ReportCacheTTL(); got != 42*time.Second {
		t.Fatalf("ttl=%s", got)
	}
	t.Setenv("REPORT_CACHE_TTL_SECONDS", "abc")
	if got := ReportCacheTTL(); got != 120*time.Second {
		t.Fatalf("invalid ttl should fall back, got %s", got)
	}
}

func TestRetryDelayCaps(t *testing.T) {
	if got := retryDelay(1); got != 2*time.Second {
		t.Fatalf("attempt 1 delay=%s", got)
	}
	if got := retryDelay(10); got != 30*time.Second {
		t.Fatalf("attempt 10 delay=%s", got)
	}
}

func TestLogLevelFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	if got := logLevelFromEnv().String(); got != "debug" {
		t.Fatalf("level=%s", got)
	}
	t.Setenv("LOG_LEVEL", "nonsense")
	if got := logLevelFromEnv().String(); got != "error" {
		t.Fatalf("level=%s", got)
	}
}
