package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"
)

// EnvPrefix starts the name of every environment variable read by LoadEnv.
const EnvPrefix = "FATTREE_"

type envBinding struct {
	key string
	set func(c *Config, value string) error
}

func stringField(field func(c *Config) *string) func(*Config, string) error {
	return func(c *Config, value string) error {
		*field(c) = value
		return nil
	}
}

func intField(field func(c *Config) *int) func(*Config, string) error {
	return func(c *Config, value string) error {
		v, err := strconv.Atoi(value)
		if err != nil {
			return err
		}

		*field(c) = v

		return nil
	}
}

func boolField(field func(c *Config) *bool) func(*Config, string) error {
	return func(c *Config, value string) error {
		v, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}

		*field(c) = v

		return nil
	}
}

func uint64Field(field func(c *Config) *uint64) func(*Config, string) error {
	return func(c *Config, value string) error {
		v, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}

		*field(c) = v

		return nil
	}
}

func linkBindings(prefix string, link func(c *Config) *LinkConfig) []envBinding {
	return []envBinding{
		{prefix + "_DATA_RATE", stringField(func(c *Config) *string {
			return &link(c).DataRate
		})},
		{prefix + "_DELAY", stringField(func(c *Config) *string {
			return &link(c).Delay
		})},
		{prefix + "_MTU", intField(func(c *Config) *int {
			return &link(c).MTU
		})},
	}
}

// spaceBindings binds <prefix>_POOL<suffix>, <prefix>_SUBNET_LENGTH<suffix>,
// and <prefix>_MAX_SUBNETS<suffix>.
func spaceBindings(
	prefix, suffix string,
	space func(c *Config) *SpaceConfig,
) []envBinding {
	return []envBinding{
		{prefix + "_POOL" + suffix, stringField(func(c *Config) *string {
			return &space(c).Pool
		})},
		{prefix + "_SUBNET_LENGTH" + suffix, intField(func(c *Config) *int {
			return &space(c).SubnetLength
		})},
		{prefix + "_MAX_SUBNETS" + suffix, uint64Field(func(c *Config) *uint64 {
			return &space(c).MaxSubnets
		})},
	}
}

var envBindings = slices.Concat(
	[]envBinding{
		{"NAME", stringField(func(c *Config) *string { return &c.Name })},
		{"CORE", intField(func(c *Config) *int { return &c.Core })},
		{"AGGREGATOR", intField(func(c *Config) *int { return &c.Aggregator })},
		{"EDGE", intField(func(c *Config) *int { return &c.Edge })},
	},
	linkBindings("CA", func(c *Config) *LinkConfig {
		return &c.CoreAggregatorLink
	}),
	linkBindings("AE", func(c *Config) *LinkConfig {
		return &c.AggregatorEdgeLink
	}),
	spaceBindings("CA", "", func(c *Config) *SpaceConfig {
		return &c.CoreAggregatorSpace
	}),
	spaceBindings("AE", "", func(c *Config) *SpaceConfig {
		return &c.AggregatorEdgeSpace
	}),
	[]envBinding{
		{"IPV6", boolField(func(c *Config) *bool { return &c.IPv6 })},
	},
	spaceBindings("CA", "_IPV6", func(c *Config) *SpaceConfig {
		return &c.CoreAggregatorSpaceIPv6
	}),
	spaceBindings("AE", "_IPV6", func(c *Config) *SpaceConfig {
		return &c.AggregatorEdgeSpaceIPv6
	}),
	[]envBinding{
		{"RECORD", stringField(func(c *Config) *string { return &c.Record })},
		{"PORT", intField(func(c *Config) *int { return &c.Port })},
	},
)

// LoadEnv loads the given dotenv files into the environment and then applies
// the FATTREE_* variables to the configuration. Without files, .env is
// loaded if it exists. Variables already set in the environment win over the
// dotenv files.
func (c *Config) LoadEnv(files ...string) error {
	if len(files) == 0 {
		if _, err := os.Stat(".env"); err == nil {
			files = []string{".env"}
		}
	}

	if len(files) > 0 {
		if err := godotenv.Load(files...); err != nil {
			return err
		}
	}

	return c.ApplyEnv(os.LookupEnv)
}

// ApplyEnv sets the fields that have a FATTREE_* variable in lookup. All the
// malformed values are reported together.
func (c *Config) ApplyEnv(lookup func(key string) (string, bool)) error {
	var err error

	for _, b := range envBindings {
		key := EnvPrefix + b.key

		value, ok := lookup(key)
		if !ok {
			continue
		}

		if setErr := b.set(c, value); setErr != nil {
			err = multierr.Append(err, fmt.Errorf("%s: %w", key, setErr))
		}
	}

	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	return nil
}

// EnvKeys lists the environment variables read by ApplyEnv.
func EnvKeys() []string {
	keys := make([]string, 0, len(envBindings))
	for _, b := range envBindings {
		keys = append(keys, EnvPrefix+b.key)
	}

	return keys
}
