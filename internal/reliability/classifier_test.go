package reliability

import (
	"testing"
	"time"
)

func TestIsRetryableHTTPStatus(t *testing.T) {
	cases := []struct {
		code int
		want bool
	}{
		{200, false},
		{400, false},
		{401, false},
		{429, true},
		{500, true},
		{503, true},
		{504, true},
	}
	for _, tc := range cases {
		got := IsRetryableHTTPStatus(tc.code)
		if got != tc.want {
			t.Fatalf("IsRetryableHTTPStatus(%d) = %v, want %v", tc.code, got, tc.want)
		}
	}
}

func TestIsRetryableWebsocketClose(t *testing.T) {
	cases := []struct {
		code int
		want bool
	}{
		{1000, false}, // normal closure
		{1001, true},
		{1006, true},
		{1008, false}, // policy violation
		{1011, true},
		{1013, true},
	}
	for _, tc := range cases {
		got := IsRetryableWebsocketClose(tc.code)
		if got != tc.want {
			t.Fatalf("IsRetryableWebsocketClose(%d) = %v, want %v", tc.code, got, tc.want)
		}
	}
}

func TestExponentialBackoffCap(t *testing.T) {
	base := 100 * time.Millisecond
	capDur := 700 * time.Millisecond
	if got := ExponentialBackoff(0, base, capDur); got != base {
		t.Fatalf("attempt 0 = %v, want %v", got, base)
	}
	if got := ExponentialBackoff(1, base, capDur); got != 200*time.Millisecond {
		t.Fatalf("attempt 1 = %v, want 200ms", got)
	}
	if got := ExponentialBackoff(10, base, capDur); got != capDur {
		t.Fatalf("attempt 10 = %v, want %v", got, capDur)
	}
}
