package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"APP_ENV", "DATABASE_URL", "TARGET_BALLS", "TUNING_PROFILE", "STRICT_INVARIANTS", "TABLE_WIDTH"} {
		t.Setenv(key, "")
	}
	cfg := Load()

	if cfg.Environment != "development" {
		t.Errorf("environment = %q", cfg.Environment)
	}
	if !cfg.IsSQLite() {
		t.Errorf("default database %q is not sqlite", cfg.DatabaseURL)
	}
	if cfg.TargetBalls != 2 || cfg.TableWidth != 0.5 || cfg.TuningProfile != "canonical" {
		t.Errorf("table defaults = %d balls, width %v, profile %q", cfg.TargetBalls, cfg.TableWidth, cfg.TuningProfile)
	}
	if !cfg.StrictInvariants {
		t.Error("strict invariants should default on outside production")
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DATABASE_URL", "postgres://localhost/slamdunk")
	t.Setenv("TARGET_BALLS", "6")
	t.Setenv("TABLE_WIDTH", "0.75")
	t.Setenv("STRICT_INVARIANTS", "")
	t.Setenv("TUNING_PROFILE", "legacy")

	cfg := Load()
	if cfg.IsSQLite() {
		t.Error("postgres URL reported as sqlite")
	}
	if cfg.TargetBalls != 6 || cfg.TableWidth != 0.75 || cfg.TuningProfile != "legacy" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.StrictInvariants {
		t.Error("strict invariants should default off in production")
	}
}

func TestMalformedNumbersFallBack(t *testing.T) {
	t.Setenv("TARGET_BALLS", "many")
	t.Setenv("TABLE_WIDTH", "wide")
	t.Setenv("STRICT_INVARIANTS", "sometimes")

	if got := getEnvInt("TARGET_BALLS", 2); got != 2 {
		t.Errorf("int fallback = %d", got)
	}
	if got := getEnvFloat("TABLE_WIDTH", 0.5); got != 0.5 {
		t.Errorf("float fallback = %v", got)
	}
	if got := getEnvBool("STRICT_INVARIANTS", true); !got {
		t.Error("bool fallback lost")
	}
}
