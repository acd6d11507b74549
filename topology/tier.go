package topology

import (
	"fmt"
	"strings"
)

// Tier is the role of a node in a fat-tree.
type Tier int

// The three tiers, from the top of the tree to the bottom.
const (
	Core Tier = iota
	Aggregator
	Edge
)

var tierNames = []string{"Core", "Aggregator", "Edge"}

func (t Tier) String() string {
	if t < 0 || int(t) >= len(tierNames) {
		return fmt.Sprintf("Tier(%d)", int(t))
	}

	return tierNames[t]
}

// ParseTier parses a tier name, ignoring case.
func ParseTier(s string) (Tier, error) {
	for i, name := range tierNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return Tier(i), nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrInvalidTier, s)
}

// Relation names one direction of the links between two adjacent tiers. The
// device container of a relation is indexed by the node on the near side
// first and by the peer on the far side second.
type Relation int

// The four directional relations.
const (
	// CoreToAggregator is indexed [core][aggregator].
	CoreToAggregator Relation = iota
	// AggregatorToCore is indexed [aggregator][core].
	AggregatorToCore
	// AggregatorToEdge is indexed [aggregator][edge].
	AggregatorToEdge
	// EdgeToAggregator is indexed [aggregator][edge], the edge index being
	// local to the aggregator that owns the edge node.
	EdgeToAggregator

	numRelations = 4
)

var relationNames = []string{
	"CoreToAggregator",
	"AggregatorToCore",
	"AggregatorToEdge",
	"EdgeToAggregator",
}

// Relations lists all the relations in a fixed order.
func Relations() []Relation {
	return []Relation{
		CoreToAggregator,
		AggregatorToCore,
		AggregatorToEdge,
		EdgeToAggregator,
	}
}

func (r Relation) String() string {
	if !r.valid() {
		return fmt.Sprintf("Relation(%d)", int(r))
	}

	return relationNames[r]
}

func (r Relation) valid() bool {
	return r >= 0 && r < numRelations
}

// ParseRelation parses names such as "CoreToAggregator",
// "core-to-aggregator", or "edge_to_aggregator".
func ParseRelation(s string) (Relation, error) {
	normalized := strings.NewReplacer("-", "", "_", "", " ", "").
		Replace(strings.ToLower(s))

	for i, name := range relationNames {
		if strings.ToLower(name) == normalized {
			return Relation(i), nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrInvalidRelation, s)
}

// LinkKind tells which two tiers a link connects.
type LinkKind int

// The two link populations.
const (
	CoreAggregatorLink LinkKind = iota
	AggregatorEdgeLink
)

func (k LinkKind) String() string {
	switch k {
	case CoreAggregatorLink:
		return "CoreAggregator"
	case AggregatorEdgeLink:
		return "AggregatorEdge"
	default:
		return fmt.Sprintf("LinkKind(%d)", int(k))
	}
}

// Relations returns the relation seen from the upper node and the relation
// seen from the lower node.
func (k LinkKind) Relations() (down, up Relation) {
	if k == CoreAggregatorLink {
		return CoreToAggregator, AggregatorToCore
	}

	return AggregatorToEdge, EdgeToAggregator
}
