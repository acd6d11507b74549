// Package config holds the parameters of a fat-tree scenario and loads them
// from files and the environment.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/netip"
	"os"
	"path"
	"strings"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/sarchlab/fattree/addressing"
	"github.com/sarchlab/fattree/network"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid configuration")

// LinkConfig describes the links between two tiers.
type LinkConfig struct {
	DataRate string `yaml:"data_rate" json:"data_rate"`
	Delay    string `yaml:"delay" json:"delay"`
	MTU      int    `yaml:"mtu,omitempty" json:"mtu,omitempty"`
}

// SpaceConfig describes an address space. MaxSubnets of zero means the
// whole pool can be used.
type SpaceConfig struct {
	Pool         string `yaml:"pool" json:"pool"`
	SubnetLength int    `yaml:"subnet_length" json:"subnet_length"`
	MaxSubnets   uint64 `yaml:"max_subnets,omitempty" json:"max_subnets,omitempty"`
}

// Config is a fat-tree scenario.
type Config struct {
	Name       string `yaml:"name" json:"name"`
	Core       int    `yaml:"core" json:"core"`
	Aggregator int    `yaml:"aggregator" json:"aggregator"`
	Edge       int    `yaml:"edge" json:"edge"`

	CoreAggregatorLink LinkConfig `yaml:"core_aggregator_link" json:"core_aggregator_link"`
	AggregatorEdgeLink LinkConfig `yaml:"aggregator_edge_link" json:"aggregator_edge_link"`

	CoreAggregatorSpace SpaceConfig `yaml:"core_aggregator_space" json:"core_aggregator_space"`
	AggregatorEdgeSpace SpaceConfig `yaml:"aggregator_edge_space" json:"aggregator_edge_space"`

	IPv6                    bool        `yaml:"ipv6" json:"ipv6"`
	CoreAggregatorSpaceIPv6 SpaceConfig `yaml:"core_aggregator_space_ipv6" json:"core_aggregator_space_ipv6"`
	AggregatorEdgeSpaceIPv6 SpaceConfig `yaml:"aggregator_edge_space_ipv6" json:"aggregator_edge_space_ipv6"`

	Record string `yaml:"record,omitempty" json:"record,omitempty"`
	Port   int    `yaml:"port" json:"port"`
}

// Default returns the scenario of the classic fat-tree example: three core
// nodes, four aggregators with three edge nodes each.
func Default() Config {
	return Config{
		Name:       "FatTree",
		Core:       3,
		Aggregator: 4,
		Edge:       3,
		CoreAggregatorLink: LinkConfig{
			DataRate: "5Mbps",
			Delay:    "2ms",
		},
		AggregatorEdgeLink: LinkConfig{
			DataRate: "10Mbps",
			Delay:    "10ms",
		},
		CoreAggregatorSpace: SpaceConfig{
			Pool:         "10.1.0.0/16",
			SubnetLength: 24,
		},
		AggregatorEdgeSpace: SpaceConfig{
			Pool:         "10.2.0.0/16",
			SubnetLength: 24,
		},
		CoreAggregatorSpaceIPv6: SpaceConfig{
			Pool:         "2001:db8:1::/48",
			SubnetLength: 64,
		},
		AggregatorEdgeSpaceIPv6: SpaceConfig{
			Pool:         "2001:db8:2::/48",
			SubnetLength: 64,
		},
	}
}

func useYAML(filename string) (bool, error) {
	switch strings.ToLower(path.Ext(filename)) {
	case ".yaml", ".yml":
		return true, nil
	case ".json":
		return false, nil
	default:
		return false, fmt.Errorf("%s: extension must be .yaml, .yml, or .json",
			filename)
	}
}

// Load reads a YAML or JSON file, chosen by extension, over the defaults.
// Fields missing from the file keep their default values.
func Load(filename string) (Config, error) {
	c := Default()

	yamlFile, err := useYAML(filename)
	if err != nil {
		return c, err
	}

	dict, err := os.ReadFile(filename)
	if err != nil {
		return c, err
	}

	if yamlFile {
		err = yaml.Unmarshal(dict, &c)
	} else {
		err = json.Unmarshal(dict, &c)
	}

	if err != nil {
		return c, fmt.Errorf("parsing %s: %w", filename, err)
	}

	return c, nil
}

// WriteToFile serializes the configuration. The extension of the file name
// selects YAML or JSON.
func (c Config) WriteToFile(filename string) error {
	yamlFile, err := useYAML(filename)
	if err != nil {
		return err
	}

	var bytes []byte
	if yamlFile {
		bytes, err = yaml.Marshal(c)
	} else {
		bytes, err = json.MarshalIndent(c, "", "\t")
	}

	if err != nil {
		return err
	}

	return os.WriteFile(filename, bytes, 0o644)
}

// Validate reports every problem of the configuration at once. Negative node
// counts are allowed and build an empty tier.
func (c Config) Validate() error {
	var err error

	_, _, linkErr := c.LinkProfiles()
	err = multierr.Append(err, linkErr)

	_, _, spaceErr := c.AddressSpaces()
	err = multierr.Append(err, spaceErr)

	if c.IPv6 {
		_, _, spaceErr = c.IPv6AddressSpaces()
		err = multierr.Append(err, spaceErr)
	}

	if c.Name == "" {
		err = multierr.Append(err, errors.New("name must not be empty"))
	}

	if c.Port < 0 || c.Port > 65535 {
		err = multierr.Append(err, fmt.Errorf("port %d is out of range", c.Port))
	}

	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	return nil
}

// LinkProfiles returns the profiles of the core-aggregator and the
// aggregator-edge links.
func (c Config) LinkProfiles() (ca, ae network.LinkProfile, err error) {
	ca, caErr := c.CoreAggregatorLink.profile()
	if caErr != nil {
		err = multierr.Append(err,
			fmt.Errorf("core_aggregator_link: %w", caErr))
	}

	ae, aeErr := c.AggregatorEdgeLink.profile()
	if aeErr != nil {
		err = multierr.Append(err,
			fmt.Errorf("aggregator_edge_link: %w", aeErr))
	}

	return ca, ae, err
}

func (l LinkConfig) profile() (network.LinkProfile, error) {
	p, err := network.ParseLinkProfile(l.DataRate, l.Delay)
	if err != nil {
		return p, err
	}

	p.MTU = l.MTU

	return p, p.Validate()
}

// AddressSpaces returns fresh IPv4 spaces for the core-aggregator and the
// aggregator-edge links.
func (c Config) AddressSpaces() (ca, ae *addressing.Space, err error) {
	return spacePair(addressing.IPv4,
		"core_aggregator_space", c.CoreAggregatorSpace,
		"aggregator_edge_space", c.AggregatorEdgeSpace)
}

// IPv6AddressSpaces returns fresh IPv6 spaces for the core-aggregator and
// the aggregator-edge links.
func (c Config) IPv6AddressSpaces() (ca, ae *addressing.Space, err error) {
	return spacePair(addressing.IPv6,
		"core_aggregator_space_ipv6", c.CoreAggregatorSpaceIPv6,
		"aggregator_edge_space_ipv6", c.AggregatorEdgeSpaceIPv6)
}

func spacePair(
	family addressing.Family,
	caKey string, caCfg SpaceConfig,
	aeKey string, aeCfg SpaceConfig,
) (ca, ae *addressing.Space, err error) {
	ca, caErr := caCfg.space(family)
	if caErr != nil {
		err = multierr.Append(err, fmt.Errorf("%s: %w", caKey, caErr))
	}

	ae, aeErr := aeCfg.space(family)
	if aeErr != nil {
		err = multierr.Append(err, fmt.Errorf("%s: %w", aeKey, aeErr))
	}

	if err != nil {
		return nil, nil, err
	}

	if caCfg == aeCfg {
		return ca, ca, nil
	}

	return ca, ae, nil
}

func (s SpaceConfig) space(family addressing.Family) (*addressing.Space, error) {
	pool, err := netip.ParsePrefix(strings.TrimSpace(s.Pool))
	if err != nil {
		return nil, err
	}

	var opts []addressing.Option
	if s.MaxSubnets > 0 {
		opts = append(opts, addressing.WithMaxSubnets(s.MaxSubnets))
	}

	space, err := addressing.NewSpace(pool, s.SubnetLength, opts...)
	if err != nil {
		return nil, err
	}

	if space.Family() != family {
		return nil, fmt.Errorf("%s is not an %s pool", s.Pool, family)
	}

	return space, nil
}

// Stack returns the installer of the protocol stack the scenario needs.
func (c Config) Stack() *network.InternetStack {
	return network.NewInternetStack().WithIPv6(c.IPv6)
}
