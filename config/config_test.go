package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestLoadCreatesDefault(t *testing.T) {
	t.Setenv(AuthTokenEnv, "")
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected default file to be written: %v", err)
	}
	if !common.IsHexAddress(cfg.Marketplace.Owner) {
		t.Fatalf("expected generated owner, got %q", cfg.Marketplace.Owner)
	}
	if cfg.Marketplace.FeeBps != 200 || cfg.Storage.Backend != "leveldb" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.RPC.AuthToken == "" {
		t.Fatalf("expected generated auth token")
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Marketplace.Owner != cfg.Marketplace.Owner || reloaded.RPC.AuthToken != cfg.RPC.AuthToken {
		t.Fatalf("reload changed persisted values")
	}
}

func TestLoadParsesSections(t *testing.T) {
	t.Setenv(AuthTokenEnv, "")
	path := filepath.Join(t.TempDir(), "config.toml")
	contents := `AllowMigrate = true

[Marketplace]
Owner = "0x00000000000000000000000000000000000000aa"
FeePayoutAddress = "0x47A90D927DfA99EC3a3582D2C4DAbf12cF58f340"
FeeBps = 250
AlternateCurrency = "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"
RequireNestedDeposit = true

[Storage]
Backend = "bolt"
DataDir = "/var/lib/birdswap"

[RPC]
ListenAddress = "127.0.0.1:9000"
AuthToken = "secret"
RequestsPerMinute = 30

[Logging]
File = "/var/log/birdswap.log"
Env = "prod"

[Telemetry]
Endpoint = "otel:4318"
Traces = true

[Pauses]
Birdswap = true
`
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.AllowMigrate || !cfg.Marketplace.RequireNestedDeposit {
		t.Fatalf("flags not parsed: %+v", cfg)
	}
	if cfg.Marketplace.FeeBps != 250 || cfg.Storage.Backend != "bolt" {
		t.Fatalf("unexpected marketplace/storage: %+v %+v", cfg.Marketplace, cfg.Storage)
	}
	if cfg.RPC.RequestsPerMinute != 30 || cfg.RPC.Burst != 20 {
		t.Fatalf("unexpected rpc limits: %+v", cfg.RPC)
	}
	if !cfg.Telemetry.Traces || cfg.Telemetry.Metrics {
		t.Fatalf("unexpected telemetry: %+v", cfg.Telemetry)
	}
	pauses := cfg.Pauses.PauseView()
	if !pauses.IsPaused("Birdswap") || pauses.IsPaused("moonbirds") {
		t.Fatalf("unexpected pauses: %+v", pauses)
	}
	if got := Address(cfg.Marketplace.AlternateCurrency); got != common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2") {
		t.Fatalf("unexpected alternate currency %s", got.Hex())
	}
}

func TestLoadTokenFromEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if _, err := Load(path); err != nil {
		t.Fatalf("create default: %v", err)
	}
	t.Setenv(AuthTokenEnv, "from-env")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RPC.AuthToken != "from-env" {
		t.Fatalf("expected env token, got %q", cfg.RPC.AuthToken)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	contents := `[Marketplace]
Owner = "0x00000000000000000000000000000000000000aa"
FeePayoutAddress = "0x00000000000000000000000000000000000000ab"
Typo = 1
`
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "Typo") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := &Config{Marketplace: Marketplace{
			Owner:            "0x00000000000000000000000000000000000000aa",
			FeePayoutAddress: "0x00000000000000000000000000000000000000ab",
		}}
		applyDefaults(cfg)
		return cfg
	}
	if err := Validate(base()); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cfg := base()
	cfg.Marketplace.FeeBps = 10_001
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected fee bps rejection")
	}

	cfg = base()
	cfg.Marketplace.Owner = ""
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected missing owner rejection")
	}

	cfg = base()
	cfg.Marketplace.FeePayoutAddress = "0x0000000000000000000000000000000000000000"
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected zero payout rejection")
	}

	cfg = base()
	cfg.Marketplace.AlternateCurrency = "weth"
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected malformed address rejection")
	}

	cfg = base()
	cfg.Storage.Backend = "postgres"
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected unknown backend rejection")
	}
}
