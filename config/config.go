// Package config loads go-esign settings from TOML.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	logging "github.com/ipfs/go-log/v2"
	"github.com/storacha/go-esign/attest"
	"github.com/storacha/go-esign/ledger"
)

type Config struct {
	// LogLevel applies to every logger: debug, info, warn or error.
	LogLevel string `toml:"log_level"`
	// VerifierCacheSize is how many verified proofs the Ed25519 primitive
	// remembers. Zero disables the cache.
	VerifierCacheSize int `toml:"verifier_cache_size"`
	// RequireCIDHandles rejects content handles that do not parse as CIDs.
	RequireCIDHandles bool `toml:"require_cid_handles"`
	// SnapshotPath is where the CLI reads and writes snapshots.
	SnapshotPath string `toml:"snapshot_path"`
	// DatabaseURL selects the Postgres store when set.
	DatabaseURL string `toml:"database_url"`
}

func Default() Config {
	return Config{
		LogLevel:          "info",
		VerifierCacheSize: attest.DefaultCacheSize,
		SnapshotPath:      "esign.car",
	}
}

// Load reads a TOML file on top of [Default]. Unknown keys are an error.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	c, err := Parse(string(data))
	if err != nil {
		return Config{}, fmt.Errorf("loading %s: %w", path, err)
	}
	return c, nil
}

func Parse(data string) (Config, error) {
	c := Default()
	md, err := toml.Decode(data, &c)
	if err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return Config{}, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	if _, err := logging.LevelFromString(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	if c.VerifierCacheSize < 0 {
		return fmt.Errorf("verifier_cache_size must not be negative")
	}
	return nil
}

// WriteTo writes the config to path as TOML.
func (c Config) WriteTo(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return toml.NewEncoder(file).Encode(c)
}

// ApplyLogging sets the level of every logger.
func (c Config) ApplyLogging() error {
	lvl, err := logging.LevelFromString(c.LogLevel)
	if err != nil {
		return err
	}
	logging.SetAllLoggers(lvl)
	return nil
}

func (c Config) LedgerOptions() []ledger.Option {
	var opts []ledger.Option
	if c.RequireCIDHandles {
		opts = append(opts, ledger.WithContentValidator(ledger.CIDContentValidator))
	}
	return opts
}

func (c Config) AttestOptions() []attest.Option {
	return []attest.Option{attest.WithCacheSize(c.VerifierCacheSize)}
}
