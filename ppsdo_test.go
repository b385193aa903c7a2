package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap/zaptest"

	"example.com/ppsdo/core/config"
)

func TestSimulate(t *testing.T) {
	cfg, err := config.Parse([]byte(`
[loop]
reference_frequency = 1000000
min_adjust = -100000
max_adjust = 100000

[simulation]
periods = 6

[actuator]
kind = "log"
`))
	if err != nil {
		t.Fatalf("config.Parse failed: %v", err)
	}

	var out bytes.Buffer
	err = simulate(context.Background(), zaptest.NewLogger(t), cfg, prometheus.NewRegistry(), &out)
	if err != nil {
		t.Fatalf("simulate failed: %v", err)
	}

	for _, want := range []string{
		"edges: 6 accepted: 5 rejected: 1 timeouts: 0\n",
		"locked: true (first lock at edge 5)\n",
		"adjust: 0 increments: 0 decrements: 0\n",
		"status: 0x8000\n",
		"frequency offset: 0.000 ppm\n",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output misses %q:\n%s", want, out.String())
		}
	}
}

func TestDescribeStatus(t *testing.T) {
	tests := []struct {
		word string
		want string
	}{
		{"0x8000", "locked: true\nlast error: 0\n"},
		{"0x7f9c", "locked: false\nlast error: -100\n"},
		{"49152", "locked: true\nlast error: -16384\n"},
	}

	for _, tt := range tests {
		var out bytes.Buffer
		err := describeStatus(&out, tt.word)
		if err != nil {
			t.Fatalf("describeStatus(%q) failed: %v", tt.word, err)
		}
		if out.String() != tt.want {
			t.Errorf("describeStatus(%q) = %q, want %q", tt.word, out.String(), tt.want)
		}
	}

	var out bytes.Buffer
	if err := describeStatus(&out, "0x10000"); err == nil {
		t.Errorf("describeStatus accepted a word wider than 16 bits")
	}
}
