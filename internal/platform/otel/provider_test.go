package otel

import (
	"context"
	"os"
	"testing"

	"github.com/louisbranch/warehouse/internal/platform/config"
)

func TestLoadSettingsFromEnv(t *testing.T) {
	t.Setenv("WAREHOUSE_OTEL_ENDPOINT", "http://collector:4318")
	t.Setenv("WAREHOUSE_OTEL_SAMPLE_RATIO", "0.25")

	s, err := LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	if s.Endpoint != "http://collector:4318" || s.SampleRatio != 0.25 || s.Disabled {
		t.Fatalf("LoadSettings() = %+v", s)
	}
}

func TestSettingsDefaults(t *testing.T) {
	for _, key := range []string{"WAREHOUSE_OTEL_ENDPOINT", "WAREHOUSE_OTEL_DISABLED", "WAREHOUSE_OTEL_SAMPLE_RATIO"} {
		t.Setenv(key, "")
		_ = os.Unsetenv(key)
	}

	var s Settings
	if err := config.ParseEnv(&s); err != nil {
		t.Fatalf("ParseEnv() error = %v", err)
	}
	if s.SampleRatio != 1 {
		t.Fatalf("SampleRatio = %v, want 1", s.SampleRatio)
	}
	if s.Active() {
		t.Fatal("Active() = true without an endpoint")
	}
}

func TestSettingsActive(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		s    Settings
		want bool
	}{
		{name: "no endpoint", s: Settings{}, want: false},
		{name: "blank endpoint", s: Settings{Endpoint: "  "}, want: false},
		{name: "endpoint", s: Settings{Endpoint: "http://collector:4318"}, want: true},
		{name: "disabled", s: Settings{Endpoint: "http://collector:4318", Disabled: true}, want: false},
	}
	for _, tc := range tests {
		if got := tc.s.Active(); got != tc.want {
			t.Fatalf("%s: Active() = %t, want %t", tc.name, got, tc.want)
		}
	}
}

func TestSetupWithRejectsBadRatio(t *testing.T) {
	t.Parallel()

	for _, ratio := range []float64{-0.1, 1.5} {
		shutdown, err := SetupWith(context.Background(), "web", Settings{Endpoint: "http://collector:4318", SampleRatio: ratio})
		if err == nil {
			t.Fatalf("SetupWith(ratio=%v) error = nil, want error", ratio)
		}
		if err := shutdown(context.Background()); err != nil {
			t.Fatalf("noop shutdown error = %v", err)
		}
	}
}

func TestSetupWithInactiveIsNoop(t *testing.T) {
	t.Parallel()

	shutdown, err := SetupWith(context.Background(), "web", Settings{SampleRatio: 1})
	if err != nil {
		t.Fatalf("SetupWith() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := shutdown(ctx); err != nil {
		t.Fatalf("noop shutdown error = %v", err)
	}
}

func TestSetupWithEndpointInstallsProvider(t *testing.T) {
	// Non-routable address so nothing is exported.
	shutdown, err := SetupWith(context.Background(), "web", Settings{Endpoint: "http://192.0.2.1:4318", SampleRatio: 0.5})
	if err != nil {
		t.Fatalf("SetupWith() error = %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error = %v", err)
	}
}
