package cmd

import (
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/sarchlab/fattree/network"
	"github.com/sarchlab/fattree/topology"
)

// writeLinkTable prints one row per link with the addresses of both ends.
func writeLinkTable(w io.Writer, t *topology.Topology) {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.SetHeaderLine(false)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeader([]string{
		"#", "KIND", "UPPER", "UPPER ADDRESS", "LOWER", "LOWER ADDRESS",
	})

	for _, l := range t.Links() {
		table.Append([]string{
			strconv.Itoa(l.Index),
			l.Kind.String(),
			l.UpperDevice.Name(),
			addresses(l.UpperDevice),
			l.LowerDevice.Name(),
			addresses(l.LowerDevice),
		})
	}

	table.Render()
}

func addresses(d *network.Device) string {
	prefixes := d.Addresses()
	if len(prefixes) == 0 {
		return "-"
	}

	s := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		s = append(s, p.String())
	}

	return strings.Join(s, " ")
}
