package config

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config describes one deployment of the suite: where the daemon listens and
// stores data, how it logs, and the economic parameters of the staking and
// membership ledgers.
type Config struct {
	ListenAddress string `toml:"ListenAddress"`
	DataDir       string `toml:"DataDir"`
	LogFile       string `toml:"LogFile"`
	LogLevel      string `toml:"LogLevel"`

	Staking    StakingConfig    `toml:"Staking"`
	Membership MembershipConfig `toml:"Membership"`
}

// StakingConfig parameterizes the bonding derivative.
type StakingConfig struct {
	BondDenom       string `toml:"BondDenom"`
	Validator       string `toml:"Validator"`
	UnbondingBlocks uint64 `toml:"UnbondingBlocks"`
	ExitTaxBps      uint64 `toml:"ExitTaxBps"`
	MinWithdrawal   string `toml:"MinWithdrawal"`
	OwnerAddress    string `toml:"OwnerAddress"`
	ContractAddress string `toml:"ContractAddress"`
}

// MembershipConfig parameterizes the stake-weighted group.
type MembershipConfig struct {
	Denom           string `toml:"Denom"`
	TokensPerWeight string `toml:"TokensPerWeight"`
	MinBond         string `toml:"MinBond"`
	UnbondingBlocks uint64 `toml:"UnbondingBlocks"`
	AdminAddress    string `toml:"AdminAddress"`
}

// Load reads the configuration from path, creating a commented default file
// on first run. Unknown keys are rejected so typos fail fast.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	cfg := &Config{}
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, key := range undecoded {
			keys[i] = key.String()
		}
		return nil, fmt.Errorf("config file %s has unknown keys: %s", path, strings.Join(keys, ", "))
	}
	cfg.applyDefaults()
	return cfg, cfg.Validate()
}

// Validate checks the invariants that cannot wait until an engine trips over
// them at runtime.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Staking.BondDenom) == "" {
		return fmt.Errorf("config: Staking.BondDenom must be set")
	}
	if strings.TrimSpace(c.Membership.Denom) == "" {
		return fmt.Errorf("config: Membership.Denom must be set")
	}
	if c.Staking.ExitTaxBps > 10_000 {
		return fmt.Errorf("config: Staking.ExitTaxBps %d exceeds 100%%", c.Staking.ExitTaxBps)
	}
	amounts := map[string]string{
		"Staking.MinWithdrawal":      c.Staking.MinWithdrawal,
		"Membership.TokensPerWeight": c.Membership.TokensPerWeight,
		"Membership.MinBond":         c.Membership.MinBond,
	}
	for key, value := range amounts {
		if _, ok := new(big.Int).SetString(value, 10); !ok {
			return fmt.Errorf("config: %s %q is not a decimal integer", key, value)
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.ListenAddress == "" {
		c.ListenAddress = ":8080"
	}
	if c.DataDir == "" {
		c.DataDir = "./vault-data"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Staking.MinWithdrawal == "" {
		c.Staking.MinWithdrawal = "1"
	}
	if c.Membership.TokensPerWeight == "" {
		c.Membership.TokensPerWeight = "1000"
	}
	if c.Membership.MinBond == "" {
		c.Membership.MinBond = "5000"
	}
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{
		ListenAddress: ":8080",
		DataDir:       "./vault-data",
		LogLevel:      "info",
		Staking: StakingConfig{
			BondDenom:       "stake",
			UnbondingBlocks: 100_800,
			MinWithdrawal:   "1",
		},
		Membership: MembershipConfig{
			Denom:           "stake",
			TokensPerWeight: "1000",
			MinBond:         "5000",
			UnbondingBlocks: 100_800,
		},
	}
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
