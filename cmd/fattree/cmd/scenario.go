package cmd

import (
	"fmt"
	"net/netip"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go4.org/netipx"

	"github.com/sarchlab/fattree/addressing"
	"github.com/sarchlab/fattree/config"
	"github.com/sarchlab/fattree/datarecording"
	"github.com/sarchlab/fattree/hooking"
	"github.com/sarchlab/fattree/network"
	"github.com/sarchlab/fattree/topology"
)

// runScenario builds the fat-tree of cfg, installs the stacks, and assigns
// the addresses. The topology is only returned when all the steps succeed.
func runScenario(
	cfg config.Config,
	logger *zap.Logger,
	hooks ...hooking.Hook,
) (*topology.Topology, error) {
	caLink, aeLink, err := cfg.LinkProfiles()
	if err != nil {
		return nil, err
	}

	links := network.NewPointToPoint()

	b := topology.MakeBuilder().
		WithCoreCount(cfg.Core).
		WithAggregatorCount(cfg.Aggregator).
		WithEdgeNodesPerAggregator(cfg.Edge).
		WithCoreAggregatorLink(caLink).
		WithAggregatorEdgeLink(aeLink).
		WithNodeFactory(network.NewNetwork()).
		WithLinkFactory(links).
		WithHook(topology.NewLogHook(logger))

	for _, h := range hooks {
		b = b.WithHook(h)
	}

	t, err := b.Build(cfg.Name)
	if err != nil {
		return nil, err
	}

	if err := t.InstallStacks(cfg.Stack()); err != nil {
		return nil, err
	}

	caSpace, aeSpace, err := cfg.AddressSpaces()
	if err != nil {
		return nil, err
	}

	if err := t.AssignAddresses(caSpace, aeSpace); err != nil {
		return nil, err
	}

	spaces := []*addressing.Space{caSpace, aeSpace}

	if cfg.IPv6 {
		caSpace, aeSpace, err = cfg.IPv6AddressSpaces()
		if err != nil {
			return nil, err
		}

		if err := t.AssignIPv6Addresses(caSpace, aeSpace); err != nil {
			return nil, err
		}

		spaces = append(spaces, caSpace, aeSpace)
	}

	allocated, err := allocatedPrefixes(spaces...)
	if err != nil {
		return nil, err
	}

	logger.Info("fat-tree ready",
		zap.String("topology", t.Name()),
		zap.Int("core", t.Count(topology.Core)),
		zap.Int("aggregator", t.Count(topology.Aggregator)),
		zap.Int("edge", t.TotalEdgeCount()),
		zap.Int("links", t.NumLinks()),
		zap.Int("channels", links.NumChannels()),
		zap.Stringers("allocated", allocated),
	)

	return t, nil
}

// allocatedPrefixes returns the smallest set of prefixes covering every
// subnet handed out by the spaces.
func allocatedPrefixes(spaces ...*addressing.Space) ([]netip.Prefix, error) {
	var b netipx.IPSetBuilder

	for _, s := range spaces {
		set, err := s.AllocatedSet()
		if err != nil {
			return nil, err
		}

		b.AddSet(set)
	}

	set, err := b.IPSet()
	if err != nil {
		return nil, err
	}

	return set.Prefixes(), nil
}

// recordScenario writes the topology to path.sqlite3 and returns the file
// name. An existing file is left untouched and reported as an error.
func recordScenario(t *topology.Topology, path string) (string, error) {
	recorder, err := datarecording.Open(path)
	if err != nil {
		return "", err
	}

	run := datarecording.NewRunRecorder(recorder)
	run.Start()

	err = topology.Record(t, recorder)

	run.End()

	return fmt.Sprintf("%s.sqlite3", path), multierr.Append(err, recorder.Close())
}
