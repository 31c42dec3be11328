// Network throughput monitor: samples interface counters through gopsutil,
// renders per-second rates as a sar-style table and decodes it with the same
// tabular decoder as NET/ESTAT.
package network

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/net"

	"github.com/Guliveer/vitalis/monitor/internal/monitor"
	"github.com/Guliveer/vitalis/monitor/internal/tabular"
)

// Row indexes of a rendered NET/STAT line.
const (
	statTime = iota
	statNIC
	statRxPck
	statTxPck
	statRxKBs
	statTxKBs
	statWidth
)

// StatFields is the field registry of NET/STAT.
var StatFields = tabular.MustSchema("NET/STAT", statWidth,
	tabular.Column("time", statTime),
	tabular.Column("nic", statNIC),
	tabular.Column("rxpck", statRxPck),
	tabular.Column("txpck", statTxPck),
	tabular.Column("rxkbs", statRxKBs),
	tabular.Column("txkbs", statTxKBs),
	tabular.Derived("util", tabular.DerivedUtilization, statRxKBs, statTxKBs),
)

// DefaultStatLayout matches the table written by StatCollector.Get.
func DefaultStatLayout() tabular.Layout {
	return tabular.Layout{
		Columns:       statWidth - 2,
		Separator:     1,
		LastSeparator: 2,
		DefaultDevice: `e\S*`,
	}
}

// CounterSource returns per-interface counters.
type CounterSource func(ctx context.Context) ([]net.IOCountersStat, error)

// StatOptions configures a StatCollector. Zero values take the defaults.
type StatOptions struct {
	Interval int
	Layout   tabular.Layout
	Counters CounterSource

	// Unit is the length of one interval step; tests shorten it.
	Unit time.Duration
}

// StatCollector is the NET/STAT monitor.
type StatCollector struct {
	decoder  *tabular.Decoder
	counters CounterSource
	interval int
	unit     time.Duration
	now      func() time.Time
}

// NewStatCollector creates a NET/STAT monitor.
func NewStatCollector(opts StatOptions) (*StatCollector, error) {
	if opts.Layout == (tabular.Layout{}) {
		opts.Layout = DefaultStatLayout()
	}
	if opts.Interval <= 0 {
		opts.Interval = 1
	}
	if opts.Counters == nil {
		opts.Counters = func(ctx context.Context) ([]net.IOCountersStat, error) {
			return net.IOCountersWithContext(ctx, true)
		}
	}
	if opts.Unit <= 0 {
		opts.Unit = time.Second
	}

	dec, err := tabular.NewDecoder(opts.Layout, StatFields)
	if err != nil {
		return nil, err
	}
	return &StatCollector{
		decoder:  dec,
		counters: opts.Counters,
		interval: opts.Interval,
		unit:     opts.Unit,
		now:      time.Now,
	}, nil
}

// Identity returns NET/STAT.
func (c *StatCollector) Identity() monitor.Identity {
	return monitor.Identity{Module: "NET", Purpose: "STAT"}
}

// Fields lists the names accepted by --fields.
func (c *StatCollector) Fields() []string { return StatFields.Names() }

// Get reads the counters twice, one interval apart, and returns the
// per-second rates of every interface as text.
func (c *StatCollector) Get(ctx context.Context, para string) (string, error) {
	interval, err := monitor.ParseInterval(para, c.interval)
	if err != nil {
		return "", err
	}

	before, err := c.counters(ctx)
	if err != nil {
		return "", &monitor.SamplingError{Tool: "gopsutil", Err: err}
	}

	timer := time.NewTimer(time.Duration(interval) * c.unit)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return "", &monitor.SamplingError{Tool: "gopsutil", Err: ctx.Err()}
	case <-timer.C:
	}

	after, err := c.counters(ctx)
	if err != nil {
		return "", &monitor.SamplingError{Tool: "gopsutil", Err: err}
	}

	return renderRates(c.now(), before, after, float64(interval)), nil
}

// Check validates a Decode parameter string without scanning any text.
func (c *StatCollector) Check(para string) error {
	return c.decoder.Check(para)
}

// Decode projects --fields from the last line whose device matches --nic.
func (c *StatCollector) Decode(raw, para string) (string, error) {
	return c.decoder.Decode(raw, para)
}

// renderRates writes one line per interface present in both samples,
// sorted by name, preceded by a header. The header never starts with a
// digit, so the row pattern cannot match it.
func renderRates(at time.Time, before, after []net.IOCountersStat, seconds float64) string {
	prev := make(map[string]net.IOCountersStat, len(before))
	for _, s := range before {
		prev[s.Name] = s
	}

	sorted := append([]net.IOCountersStat(nil), after...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	ts := at.Format("15:04:05")
	var b strings.Builder
	fmt.Fprintf(&b, "%-8s %-9s %9s %9s %9s  %9s\n", "TIME", "IFACE", "rxpck/s", "txpck/s", "rxkB/s", "txkB/s")
	for _, cur := range sorted {
		old, ok := prev[cur.Name]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "%s %-9s %9.2f %9.2f %9.2f  %9.2f\n", ts, cur.Name,
			rate(old.PacketsRecv, cur.PacketsRecv, seconds),
			rate(old.PacketsSent, cur.PacketsSent, seconds),
			rate(old.BytesRecv, cur.BytesRecv, seconds)/1024,
			rate(old.BytesSent, cur.BytesSent, seconds)/1024,
		)
	}
	return b.String()
}

// rate is the per-second delta between two counter readings; a counter that
// went backwards (reset or wrap) yields zero.
func rate(old, cur uint64, seconds float64) float64 {
	if cur < old || seconds <= 0 {
		return 0
	}
	return float64(cur-old) / seconds
}
