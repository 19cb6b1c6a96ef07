package config

import (
	"os"
	"testing"
	"time"
)

func TestGetEnv(t *testing.T) {
	t.Run("returns default when unset", func(t *testing.T) {
		os.Unsetenv("SW_TEST_GETENV_UNSET")
		got := GetEnv("SW_TEST_GETENV_UNSET", "default")
		if got != "default" {
			t.Errorf("GetEnv(unset) = %q, want %q", got, "default")
		}
	})

	t.Run("returns value when set", func(t *testing.T) {
		os.Setenv("SW_TEST_GETENV_SET", "myvalue")
		defer os.Unsetenv("SW_TEST_GETENV_SET")
		got := GetEnv("SW_TEST_GETENV_SET", "default")
		if got != "myvalue" {
			t.Errorf("GetEnv(set) = %q, want %q", got, "myvalue")
		}
	})

	t.Run("returns default when empty", func(t *testing.T) {
		os.Setenv("SW_TEST_GETENV_EMPTY", "")
		defer os.Unsetenv("SW_TEST_GETENV_EMPTY")
		got := GetEnv("SW_TEST_GETENV_EMPTY", "default")
		if got != "default" {
			t.Errorf("GetEnv(empty) = %q, want %q", got, "default")
		}
	})

	t.Run("trims space", func(t *testing.T) {
		os.Setenv("SW_TEST_GETENV_TRIM", "  trimmed  ")
		defer os.Unsetenv("SW_TEST_GETENV_TRIM")
		got := GetEnv("SW_TEST_GETENV_TRIM", "default")
		if got != "trimmed" {
			t.Errorf("GetEnv(trim) = %q, want %q", got, "trimmed")
		}
	})
}

func TestGetEnvInt(t *testing.T) {
	t.Run("parses valid integer", func(t *testing.T) {
		os.Setenv("SW_TEST_INT_VALID", "42")
		defer os.Unsetenv("SW_TEST_INT_VALID")
		if got := GetEnvInt("SW_TEST_INT_VALID", 7); got != 42 {
			t.Errorf("GetEnvInt(42) = %d, want 42", got)
		}
	})

	t.Run("returns default on invalid integer", func(t *testing.T) {
		os.Setenv("SW_TEST_INT_INVALID", "not-a-number")
		defer os.Unsetenv("SW_TEST_INT_INVALID")
		if got := GetEnvInt("SW_TEST_INT_INVALID", 7); got != 7 {
			t.Errorf("GetEnvInt(invalid) = %d, want 7", got)
		}
	})
}

func TestGetEnvFloat(t *testing.T) {
	t.Run("parses valid float", func(t *testing.T) {
		os.Setenv("SW_TEST_FLOAT_VALID", "12.5")
		defer os.Unsetenv("SW_TEST_FLOAT_VALID")
		if got := GetEnvFloat("SW_TEST_FLOAT_VALID", 1); got != 12.5 {
			t.Errorf("GetEnvFloat(12.5) = %v, want 12.5", got)
		}
	})

	t.Run("returns default on invalid float", func(t *testing.T) {
		os.Setenv("SW_TEST_FLOAT_INVALID", "nope")
		defer os.Unsetenv("SW_TEST_FLOAT_INVALID")
		if got := GetEnvFloat("SW_TEST_FLOAT_INVALID", 2.5); got != 2.5 {
			t.Errorf("GetEnvFloat(invalid) = %v, want 2.5", got)
		}
	})
}

func TestGetEnvDuration(t *testing.T) {
	t.Run("parses valid duration", func(t *testing.T) {
		os.Setenv("SW_TEST_DURATION_VALID", "30s")
		defer os.Unsetenv("SW_TEST_DURATION_VALID")
		got := GetEnvDuration("SW_TEST_DURATION_VALID", time.Second)
		if got != 30*time.Second {
			t.Errorf("GetEnvDuration(30s) = %v, want 30s", got)
		}
	})

	t.Run("returns default on invalid duration", func(t *testing.T) {
		os.Setenv("SW_TEST_DURATION_INVALID", "not-a-duration")
		defer os.Unsetenv("SW_TEST_DURATION_INVALID")
		got := GetEnvDuration("SW_TEST_DURATION_INVALID", 7*time.Second)
		if got != 7*time.Second {
			t.Errorf("GetEnvDuration(invalid) = %v, want 7s", got)
		}
	})
}

func TestDefaultEngineConfig(t *testing.T) {
	os.Unsetenv("WINDOW_MAX_COUNT")
	os.Unsetenv("WINDOW_MAX_AGE")
	os.Unsetenv("NORMAL_REQUESTS_PER_MINUTE")
	os.Unsetenv("NORMAL_DAILY_TRANSFER_MB")

	cfg := DefaultEngineConfig()
	if cfg.WindowMaxCount != 100 {
		t.Errorf("WindowMaxCount = %d", cfg.WindowMaxCount)
	}
	if cfg.WindowMaxAge != time.Minute {
		t.Errorf("WindowMaxAge = %v", cfg.WindowMaxAge)
	}
	if cfg.NormalRequestsPerMinute != 50 {
		t.Errorf("NormalRequestsPerMinute = %d", cfg.NormalRequestsPerMinute)
	}
	if cfg.NormalDailyTransferMB != 20 {
		t.Errorf("NormalDailyTransferMB = %v", cfg.NormalDailyTransferMB)
	}
}

func TestDefaultEngineConfig_Env(t *testing.T) {
	os.Setenv("WINDOW_MAX_COUNT", "500")
	os.Setenv("WINDOW_MAX_AGE", "5m")
	defer os.Unsetenv("WINDOW_MAX_COUNT")
	defer os.Unsetenv("WINDOW_MAX_AGE")

	cfg := DefaultEngineConfig()
	if cfg.WindowMaxCount != 500 {
		t.Errorf("WindowMaxCount = %d, want 500", cfg.WindowMaxCount)
	}
	if cfg.WindowMaxAge != 5*time.Minute {
		t.Errorf("WindowMaxAge = %v, want 5m", cfg.WindowMaxAge)
	}
}

func TestDefaultServerConfig(t *testing.T) {
	os.Unsetenv("HTTP_ADDR")
	os.Unsetenv("ALERT_SINK_ENDPOINT")
	os.Unsetenv("ALERT_SINK_API_KEY")
	os.Unsetenv("EVENT_SPOOL_DIR")

	cfg := DefaultServerConfig()
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.RecentEventCount != 100 || cfg.RecentAnomalyCount != 50 {
		t.Errorf("recent buffer sizes = %d/%d", cfg.RecentEventCount, cfg.RecentAnomalyCount)
	}
	if cfg.AlertSinkEnabled {
		t.Error("AlertSinkEnabled should be false when env unset")
	}
	if cfg.SpoolDir != "" {
		t.Errorf("SpoolDir = %q, want empty", cfg.SpoolDir)
	}
}

func TestDefaultServerConfig_AlertSinkRequiresBothValues(t *testing.T) {
	os.Setenv("ALERT_SINK_ENDPOINT", "https://alerts.example.com")
	os.Unsetenv("ALERT_SINK_API_KEY")
	defer os.Unsetenv("ALERT_SINK_ENDPOINT")

	if cfg := DefaultServerConfig(); cfg.AlertSinkEnabled {
		t.Error("endpoint without key must not enable the sink")
	}

	os.Setenv("ALERT_SINK_API_KEY", "secret")
	defer os.Unsetenv("ALERT_SINK_API_KEY")
	if cfg := DefaultServerConfig(); !cfg.AlertSinkEnabled {
		t.Error("endpoint plus key must enable the sink")
	}
}
