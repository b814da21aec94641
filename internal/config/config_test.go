package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":8080")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load returned nil config")
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":8080")
	}
	if cfg.JWTIssuer != "votegate-auth" {
		t.Errorf("JWTIssuer = %q, want %q", cfg.JWTIssuer, "votegate-auth")
	}
	if cfg.JWTAudience != "votegate-api" {
		t.Errorf("JWTAudience = %q, want %q", cfg.JWTAudience, "votegate-api")
	}
	if cfg.JWTAccessTTL != "15m" {
		t.Errorf("JWTAccessTTL = %q, want %q", cfg.JWTAccessTTL, "15m")
	}
	if cfg.JWTRefreshTTL != "168h" {
		t.Errorf("JWTRefreshTTL = %q, want %q", cfg.JWTRefreshTTL, "168h")
	}
	if cfg.BcryptCost != 12 {
		t.Errorf("BcryptCost = %d, want 12", cfg.BcryptCost)
	}
	if cfg.CookieSecure {
		t.Error("CookieSecure should default to false")
	}
	if cfg.RetentionHorizon != "720h" {
		t.Errorf("RetentionHorizon = %q, want %q", cfg.RetentionHorizon, "720h")
	}
	if cfg.SweepInterval != "1h" {
		t.Errorf("SweepInterval = %q, want %q", cfg.SweepInterval, "1h")
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":9090")
	os.Setenv("JWT_ISSUER", "custom-issuer")
	os.Setenv("BCRYPT_COST", "14")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":9090")
	}
	if cfg.JWTIssuer != "custom-issuer" {
		t.Errorf("JWTIssuer = %q, want %q", cfg.JWTIssuer, "custom-issuer")
	}
	if cfg.BcryptCost != 14 {
		t.Errorf("BcryptCost = %d, want 14", cfg.BcryptCost)
	}
}

func TestLoad_BcryptCostOutOfRange(t *testing.T) {
	os.Clearenv()
	os.Setenv("BCRYPT_COST", "99")

	if _, err := Load(); err == nil {
		t.Error("Load should fail when BCRYPT_COST is out of range")
	}
}

func TestLoad_ProductionForcesSecureCookie(t *testing.T) {
	os.Clearenv()
	os.Setenv("APP_ENV", "production")
	os.Setenv("COOKIE_SECURE", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.CookieSecure {
		t.Error("CookieSecure must be forced true when APP_ENV=production")
	}
}

func TestConfig_TTLParsing(t *testing.T) {
	cfg := &Config{JWTAccessTTL: "5m", JWTRefreshTTL: "48h"}
	if got := cfg.AccessTTL(); got != 5*time.Minute {
		t.Errorf("AccessTTL = %v, want 5m", got)
	}
	if got := cfg.RefreshTTL(); got != 48*time.Hour {
		t.Errorf("RefreshTTL = %v, want 48h", got)
	}

	bad := &Config{JWTAccessTTL: "soon", JWTRefreshTTL: "-1h"}
	if got := bad.AccessTTL(); got != 15*time.Minute {
		t.Errorf("AccessTTL fallback = %v, want 15m", got)
	}
	if got := bad.RefreshTTL(); got != 168*time.Hour {
		t.Errorf("RefreshTTL fallback = %v, want 168h", got)
	}
}

func TestConfig_SweeperDurations(t *testing.T) {
	cfg := &Config{RetentionHorizon: "24h", SweepInterval: "10m"}
	if got := cfg.RetentionHorizonDuration(); got != 24*time.Hour {
		t.Errorf("RetentionHorizonDuration = %v, want 24h", got)
	}
	if got := cfg.SweepIntervalDuration(); got != 10*time.Minute {
		t.Errorf("SweepIntervalDuration = %v, want 10m", got)
	}

	bad := &Config{RetentionHorizon: "forever", SweepInterval: ""}
	if got := bad.RetentionHorizonDuration(); got != 720*time.Hour {
		t.Errorf("RetentionHorizonDuration fallback = %v, want 720h", got)
	}
	if got := bad.SweepIntervalDuration(); got != time.Hour {
		t.Errorf("SweepIntervalDuration fallback = %v, want 1h", got)
	}
}

func TestConfig_CORSAllowedOriginsList(t *testing.T) {
	cfg := &Config{CORSAllowedOrigins: "https://app.example.com, https://admin.example.com ,"}
	got := cfg.CORSAllowedOriginsList()
	if len(got) != 2 {
		t.Fatalf("CORSAllowedOriginsList len = %d, want 2 (%v)", len(got), got)
	}
	if got[0] != "https://app.example.com" || got[1] != "https://admin.example.com" {
		t.Errorf("CORSAllowedOriginsList = %v", got)
	}

	empty := &Config{}
	if l := empty.CORSAllowedOriginsList(); l != nil {
		t.Errorf("empty CORSAllowedOriginsList = %v, want nil", l)
	}
}
