package topology

import (
	"go.uber.org/zap"

	"github.com/sarchlab/fattree/hooking"
	"github.com/sarchlab/fattree/network"
)

// LogHook writes a debug log line for every construction event of a
// topology.
type LogHook struct {
	logger *zap.Logger
}

// NewLogHook creates a LogHook that writes to logger.
func NewLogHook(logger *zap.Logger) *LogHook {
	return &LogHook{logger: logger}
}

// Func logs the event.
func (h *LogHook) Func(ctx hooking.HookCtx) {
	fields := []zap.Field{}
	if named, ok := ctx.Domain.(interface{ Name() string }); ok {
		fields = append(fields, zap.String("topology", named.Name()))
	}

	switch ctx.Pos {
	case HookPosNodeCreated:
		h.logNode(ctx, fields)
	case HookPosLinkCreated:
		h.logLink(ctx, fields)
	case HookPosStackInstalled:
		h.logStack(ctx, fields)
	case HookPosAddressAssigned:
		h.logAddress(ctx, fields)
	}
}

func (h *LogHook) logNode(ctx hooking.HookCtx, fields []zap.Field) {
	node := ctx.Item.(*network.Node)
	info := ctx.Detail.(NodeInfo)

	fields = append(fields,
		zap.String("node", node.Name()),
		zap.Stringer("tier", info.Tier),
		zap.Int("index", info.Index),
	)

	if info.Tier == Edge {
		fields = append(fields, zap.Int("aggregator", info.Aggregator))
	}

	h.logger.Debug("node created", fields...)
}

func (h *LogHook) logLink(ctx hooking.HookCtx, fields []zap.Field) {
	l := ctx.Item.(Link)

	h.logger.Debug("link created", append(fields,
		zap.Stringer("kind", l.Kind),
		zap.Int("link", l.Index),
		zap.Int("upper", l.Upper),
		zap.Int("lower", l.Lower),
		zap.String("upper_device", l.UpperDevice.Name()),
		zap.String("lower_device", l.LowerDevice.Name()),
	)...)
}

func (h *LogHook) logStack(ctx hooking.HookCtx, fields []zap.Field) {
	nodes := ctx.Item.([]*network.Node)
	group := ctx.Detail.(StackGroup)

	h.logger.Debug("stack installed", append(fields,
		zap.Stringer("group", group),
		zap.Int("nodes", len(nodes)),
	)...)
}

func (h *LogHook) logAddress(ctx hooking.HookCtx, fields []zap.Field) {
	la := ctx.Item.(LinkAddress)

	h.logger.Debug("address assigned", append(fields,
		zap.Stringer("family", la.Family),
		zap.Stringer("kind", la.Link.Kind),
		zap.Int("link", la.Link.Index),
		zap.Stringer("subnet", la.Upper.Subnet()),
		zap.Stringer("upper", la.Upper.Addr()),
		zap.Stringer("lower", la.Lower.Addr()),
	)...)
}
