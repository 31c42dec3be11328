// Network error statistics monitor: samples `sar -n EDEV` once and projects
// per-interface error, drop and fifo counters.
package network

import (
	"context"

	"github.com/Guliveer/vitalis/monitor/internal/monitor"
	"github.com/Guliveer/vitalis/monitor/internal/sampler"
	"github.com/Guliveer/vitalis/monitor/internal/tabular"
)

// Row indexes of a sar -n EDEV line.
const (
	edevTime = iota
	edevNIC
	edevRxErrs
	edevTxErrs
	edevColls
	edevRxDrops
	edevTxDrops
	edevTxCarrs
	edevRxFrams
	edevRxFifos
	edevTxFifos
	edevWidth
)

// EstatFields is the field registry of NET/ESTAT.
var EstatFields = tabular.MustSchema("NET/ESTAT", edevWidth,
	tabular.Column("time", edevTime),
	tabular.Column("nic", edevNIC),
	tabular.Column("rxerrs", edevRxErrs),
	tabular.Column("txerrs", edevTxErrs),
	tabular.Column("colls", edevColls),
	tabular.Column("rxdrops", edevRxDrops),
	tabular.Column("txdrops", edevTxDrops),
	tabular.Column("txcarrs", edevTxCarrs),
	tabular.Column("rxframs", edevRxFrams),
	tabular.Column("rxfifos", edevRxFifos),
	tabular.Column("txfifos", edevTxFifos),
	tabular.Derived("errs", tabular.DerivedErrors, edevRxErrs, edevTxErrs),
	tabular.Derived("util", tabular.DerivedUtilization, edevRxDrops, edevTxDrops, edevRxFifos, edevTxFifos),
)

// DefaultEstatLayout matches sar's fixed-width EDEV report on Linux.
func DefaultEstatLayout() tabular.Layout {
	return tabular.Layout{
		Columns:       edevWidth - 2,
		Separator:     1,
		LastSeparator: 2,
		DefaultDevice: `e\S*`,
	}
}

// DefaultEstatCommand is `sar -n EDEV <interval> 1`: one sample after one interval.
func DefaultEstatCommand() sampler.Command {
	return sampler.Command{
		Tool: "sar",
		Args: []string{"-n", "EDEV", sampler.IntervalPlaceholder, "1"},
	}
}

// EstatOptions configures an EstatCollector. Zero values take the defaults.
type EstatOptions struct {
	Command  sampler.Command
	Layout   tabular.Layout
	Interval int
	Runner   sampler.Runner
}

// EstatCollector is the NET/ESTAT monitor.
type EstatCollector struct {
	sampler  *sampler.Sampler
	decoder  *tabular.Decoder
	interval int
}

// NewEstatCollector creates a NET/ESTAT monitor.
func NewEstatCollector(opts EstatOptions) (*EstatCollector, error) {
	if opts.Command.Tool == "" {
		opts.Command = DefaultEstatCommand()
	}
	if opts.Layout == (tabular.Layout{}) {
		opts.Layout = DefaultEstatLayout()
	}
	if opts.Interval <= 0 {
		opts.Interval = 1
	}

	dec, err := tabular.NewDecoder(opts.Layout, EstatFields)
	if err != nil {
		return nil, err
	}
	return &EstatCollector{
		sampler:  sampler.New(opts.Command, opts.Runner),
		decoder:  dec,
		interval: opts.Interval,
	}, nil
}

// Identity returns NET/ESTAT.
func (c *EstatCollector) Identity() monitor.Identity {
	return monitor.Identity{Module: "NET", Purpose: "ESTAT"}
}

// Fields lists the names accepted by --fields.
func (c *EstatCollector) Fields() []string { return EstatFields.Names() }

// Get runs the sampling tool once. para may carry --interval=N; a malformed
// value fails before any process is started.
func (c *EstatCollector) Get(ctx context.Context, para string) (string, error) {
	interval, err := monitor.ParseInterval(para, c.interval)
	if err != nil {
		return "", err
	}
	return c.sampler.Sample(ctx, interval)
}

// Check validates a Decode parameter string without scanning any text.
func (c *EstatCollector) Check(para string) error {
	return c.decoder.Check(para)
}

// Decode projects --fields from the last EDEV line whose device matches --nic.
func (c *EstatCollector) Decode(raw, para string) (string, error) {
	return c.decoder.Decode(raw, para)
}
