package topology

import (
	"fmt"

	"github.com/sarchlab/fattree/naming"
	"github.com/sarchlab/fattree/network"
)

// InstallStacks installs a protocol stack on every node: all core nodes, then
// all aggregator nodes, then the edge nodes of each aggregator in aggregator
// order. Empty groups are skipped. The first failure stops the installation
// and is returned; the setup cannot continue after it.
func (t *Topology) InstallStacks(installer network.StackInstaller) error {
	if err := t.mustBeBuilt(); err != nil {
		return err
	}

	if installer == nil {
		return fmt.Errorf("%w: stack installer is not set", ErrInvalidConfig)
	}

	err := t.installOnGroup(installer, t.core,
		StackGroup{Tier: Core, Aggregator: -1})
	if err != nil {
		return err
	}

	err = t.installOnGroup(installer, t.aggregators,
		StackGroup{Tier: Aggregator, Aggregator: -1})
	if err != nil {
		return err
	}

	for i, edges := range t.edges {
		err = t.installOnGroup(installer, edges,
			StackGroup{Tier: Edge, Aggregator: i})
		if err != nil {
			return err
		}
	}

	return nil
}

func (t *Topology) installOnGroup(
	installer network.StackInstaller,
	nodes []*network.Node,
	group StackGroup,
) error {
	if len(nodes) == 0 {
		return nil
	}

	if err := installer.Install(nodes...); err != nil {
		return fmt.Errorf("installing stack on %s: %w", group, err)
	}

	t.invokeHook(HookPosStackInstalled, nodes, group)

	return nil
}

func (g StackGroup) String() string {
	if g.Tier == Edge {
		return naming.BuildNameWithIndex("", "Edge", g.Aggregator)
	}

	return g.Tier.String()
}
