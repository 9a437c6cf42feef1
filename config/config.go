package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// AuthTokenEnv overrides RPC.AuthToken when set.
const AuthTokenEnv = "BIRDSWAP_RPC_TOKEN"

type Config struct {
	Marketplace  Marketplace `toml:"Marketplace"`
	Storage      Storage     `toml:"Storage"`
	RPC          RPC         `toml:"RPC"`
	Logging      Logging     `toml:"Logging"`
	Telemetry    Telemetry   `toml:"Telemetry"`
	AllowMigrate bool        `toml:"AllowMigrate"`
	Pauses       Pauses      `toml:"Pauses"`
}

// Load loads the configuration from the given path. A missing file is created
// with defaults and a freshly generated owner address.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg, err = createDefault(path)
		if err != nil {
			return nil, err
		}
	} else {
		meta, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, err
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("config file %s has unknown key %s", path, undecoded[0].String())
		}
	}

	applyDefaults(cfg)
	if token := strings.TrimSpace(os.Getenv(AuthTokenEnv)); token != "" {
		cfg.RPC.AuthToken = token
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.Storage.Backend) == "" {
		cfg.Storage.Backend = "leveldb"
	}
	if strings.TrimSpace(cfg.Storage.DataDir) == "" {
		cfg.Storage.DataDir = "./birdswap-data"
	}
	if strings.TrimSpace(cfg.RPC.ListenAddress) == "" {
		cfg.RPC.ListenAddress = ":8645"
	}
	if cfg.RPC.RequestsPerMinute == 0 {
		cfg.RPC.RequestsPerMinute = 120
	}
	if cfg.RPC.Burst <= 0 {
		cfg.RPC.Burst = 20
	}
	if cfg.RPC.ReadTimeoutSecs <= 0 {
		cfg.RPC.ReadTimeoutSecs = 15
	}
	if cfg.RPC.WriteTimeoutSecs <= 0 {
		cfg.RPC.WriteTimeoutSecs = 15
	}
	if strings.TrimSpace(cfg.Logging.Env) == "" {
		cfg.Logging.Env = "dev"
	}
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	key, err := ethcrypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	owner := ethcrypto.PubkeyToAddress(key.PublicKey).Hex()
	token, err := randomToken()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Marketplace: Marketplace{
			Owner:            owner,
			FeePayoutAddress: owner,
			FeeBps:           200,
			RoyaltyReceiver:  owner,
			RoyaltyBps:       500,
		},
		Storage: Storage{
			Backend: "leveldb",
			DataDir: "./birdswap-data",
		},
		RPC: RPC{
			ListenAddress:     ":8645",
			AuthToken:         token,
			RequestsPerMinute: 120,
			Burst:             20,
		},
		Logging: Logging{Env: "dev"},
	}

	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func randomToken() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	// The file carries the RPC token.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
