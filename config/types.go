package config

// Marketplace holds the genesis parameters of the marketplace and the
// collection it escrows. They only take effect when the node bootstraps an
// empty database; afterwards the owner changes them through admin calls.
type Marketplace struct {
	Owner                string `toml:"Owner"`
	FeePayoutAddress     string `toml:"FeePayoutAddress"`
	FeeBps               uint16 `toml:"FeeBps"`
	AlternateCurrency    string `toml:"AlternateCurrency"`
	RequireNestedDeposit bool   `toml:"RequireNestedDeposit"`
	RoyaltyReceiver      string `toml:"RoyaltyReceiver"`
	RoyaltyBps           uint16 `toml:"RoyaltyBps"`
}

// Storage selects the database backend.
type Storage struct {
	Backend string `toml:"Backend"` // leveldb, bolt or memory
	DataDir string `toml:"DataDir"`
}

// RPC configures the JSON-RPC listener.
type RPC struct {
	ListenAddress     string `toml:"ListenAddress"`
	AuthToken         string `toml:"AuthToken"`
	RequestsPerMinute uint32 `toml:"RequestsPerMinute"`
	Burst             int    `toml:"Burst"`
	ReadTimeoutSecs   int    `toml:"ReadTimeoutSecs"`
	WriteTimeoutSecs  int    `toml:"WriteTimeoutSecs"`
	TrustProxyHeaders bool   `toml:"TrustProxyHeaders"`
}

type Logging struct {
	File       string `toml:"File"`
	Env        string `toml:"Env"`
	Level      string `toml:"Level"`
	MaxSizeMB  int    `toml:"MaxSizeMB"`
	MaxBackups int    `toml:"MaxBackups"`
	MaxAgeDays int    `toml:"MaxAgeDays"`
}

// Telemetry wires the OTLP exporters.
type Telemetry struct {
	Endpoint string `toml:"Endpoint"`
	Insecure bool   `toml:"Insecure"`
	Traces   bool   `toml:"Traces"`
	Metrics  bool   `toml:"Metrics"`
}

type Pauses struct {
	Birdswap  bool `toml:"Birdswap"`
	Moonbirds bool `toml:"Moonbirds"`
}
