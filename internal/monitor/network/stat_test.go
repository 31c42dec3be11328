package network

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shirou/gopsutil/v3/net"

	"github.com/Guliveer/vitalis/monitor/internal/monitor"
	"github.com/Guliveer/vitalis/monitor/internal/monitor/monitortest"
)

// sequenceCounters returns each reading in turn and then repeats the last.
func sequenceCounters(readings ...[]net.IOCountersStat) (CounterSource, *int) {
	calls := 0
	return func(ctx context.Context) ([]net.IOCountersStat, error) {
		i := calls
		if i >= len(readings) {
			i = len(readings) - 1
		}
		calls++
		return readings[i], nil
	}, &calls
}

func newStat(t *testing.T, src CounterSource) *StatCollector {
	t.Helper()
	c, err := NewStatCollector(StatOptions{Counters: src, Unit: time.Millisecond})
	if err != nil {
		t.Fatalf("NewStatCollector: %v", err)
	}
	c.now = func() time.Time { return time.Date(2024, 2, 20, 14, 31, 8, 0, time.UTC) }
	return c
}

var (
	firstReading = []net.IOCountersStat{
		{Name: "eth0", PacketsRecv: 100, PacketsSent: 50, BytesRecv: 10240, BytesSent: 2048},
		{Name: "lo", PacketsRecv: 10, PacketsSent: 10, BytesRecv: 1024, BytesSent: 1024},
	}
	secondReading = []net.IOCountersStat{
		{Name: "lo", PacketsRecv: 12, PacketsSent: 12, BytesRecv: 2048, BytesSent: 2048},
		{Name: "eth0", PacketsRecv: 300, PacketsSent: 90, BytesRecv: 30720, BytesSent: 6144},
		{Name: "eth1", PacketsRecv: 1, PacketsSent: 1, BytesRecv: 1, BytesSent: 1},
	}
)

func TestStatCollector_Contract(t *testing.T) {
	src, _ := sequenceCounters(firstReading, secondReading)
	c := newStat(t, src)
	raw, err := c.Get(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	monitortest.Run(t, c, monitortest.Sample{Raw: raw, NIC: "eth0"})
}

func TestStatCollector_GetAndDecode(t *testing.T) {
	src, calls := sequenceCounters(firstReading, secondReading)
	c := newStat(t, src)

	raw, err := c.Get(context.Background(), "--interval=2")
	if err != nil {
		t.Fatal(err)
	}
	if *calls != 2 {
		t.Errorf("counters read %d times, want 2", *calls)
	}
	if strings.Contains(raw, "eth1") {
		t.Error("interface missing from the first reading should be skipped")
	}

	tests := []struct {
		para string
		want string
	}{
		{"--nic=eth0 --fields=rxpck --fields=txpck", " 100.00 20.00"},
		{"--nic=eth0 --fields=rxkbs --fields=txkbs --fields=util", " 10.00 2.00 12.0"},
		{"--nic=lo --fields=nic --fields=time", " lo 14:31:08"},
		{"--fields=nic", " eth0"},
	}
	for _, tt := range tests {
		t.Run(tt.para, func(t *testing.T) {
			got, err := c.Decode(raw, tt.para)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("Decode(%q) = %q, want %q\nraw:\n%s", tt.para, got, tt.want, raw)
			}
		})
	}
}

func TestStatCollector_CounterReset(t *testing.T) {
	src, _ := sequenceCounters(secondReading, firstReading)
	c := newStat(t, src)
	raw, err := c.Get(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	got, err := c.Decode(raw, "--nic=eth0 --fields=util")
	if err != nil {
		t.Fatal(err)
	}
	if got != " 0.0" {
		t.Errorf("Decode() = %q, want zero rate after reset", got)
	}
}

func TestStatCollector_NoSurvivingInterface(t *testing.T) {
	src, _ := sequenceCounters(nil, []net.IOCountersStat{{Name: "eth9", PacketsRecv: 1}})
	c := newStat(t, src)
	raw, err := c.Get(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(raw, "TIME ") || strings.Count(raw, "\n") != 1 {
		t.Fatalf("raw = %q, want a lone header", raw)
	}

	for _, para := range []string{"--nic= --fields=nic --fields=rxpck", "--fields=time"} {
		if _, err := c.Decode(raw, para); !errors.Is(err, monitor.ErrNoDataFound) {
			t.Errorf("Decode(%q) error = %v, want ErrNoDataFound", para, err)
		}
	}
}

func TestStatCollector_Cancelled(t *testing.T) {
	src, _ := sequenceCounters(firstReading, secondReading)
	c, err := NewStatCollector(StatOptions{Counters: src, Unit: time.Hour})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.Get(ctx, ""); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestStatCollector_CounterError(t *testing.T) {
	boom := errors.New("no /proc")
	c, err := NewStatCollector(StatOptions{
		Counters: func(context.Context) ([]net.IOCountersStat, error) { return nil, boom },
		Unit:     time.Millisecond,
	})
	if err != nil {
		t.Fatal(err)
	}
	_, err = c.Get(context.Background(), "")
	if !errors.Is(err, monitor.ErrSamplingTool) || !errors.Is(err, boom) {
		t.Errorf("error = %v, want sampling failure wrapping the cause", err)
	}
}
