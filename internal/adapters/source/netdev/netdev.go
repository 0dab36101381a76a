// Package netdev implements a counter source over the local host's
// network interfaces, for running the tool off-device.
package netdev

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	gopsnet "github.com/shirou/gopsutil/v3/net"
	"go.uber.org/zap"

	"github.com/vshulcz/Intfstat/internal/domain"
	"github.com/vshulcz/Intfstat/internal/ports"
)

const defaultSysfsNet = "/sys/class/net"

// Source samples local NIC counters via gopsutil. The host has a
// single namespace; FEC and trimming counters are not exposed by the
// kernel's generic statistics and are reported absent.
type Source struct {
	log   *zap.Logger
	sysfs string
}

var _ ports.CounterSource = (*Source)(nil)

// New returns a local-host source.
func New(logger *zap.Logger) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Source{log: logger, sysfs: defaultSysfsNet}
}

// Namespaces reports the single local namespace.
func (s *Source) Namespaces(_ context.Context) ([]string, error) {
	return []string{domain.DefaultNamespace}, nil
}

// FetchNamespace reads the current per-NIC counters.
func (s *Source) FetchNamespace(ctx context.Context, ns string) (domain.PortTable, error) {
	if ns != domain.DefaultNamespace {
		return nil, fmt.Errorf("%w: unknown namespace %q", domain.ErrSourceUnavailable, ns)
	}

	stats, err := gopsnet.IOCountersWithContext(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("%w: read nic counters: %v", domain.ErrSourceUnavailable, err)
	}

	table := make(domain.PortTable, len(stats))
	for _, st := range stats {
		pc := domain.PortCounters{
			Counters:  make(map[domain.CounterName]*uint64, len(domain.Names())),
			SpeedMbps: s.readSpeed(st.Name),
			Internal:  isInternal(st.Name),
		}
		for _, name := range domain.Names() {
			pc.Counters[name] = nil
		}
		pc.Counters[domain.RxPackets] = domain.U64(st.PacketsRecv)
		pc.Counters[domain.RxBytes] = domain.U64(st.BytesRecv)
		pc.Counters[domain.RxErrors] = domain.U64(st.Errin)
		pc.Counters[domain.RxDrops] = domain.U64(st.Dropin)
		pc.Counters[domain.RxOverruns] = domain.U64(st.Fifoin)
		pc.Counters[domain.TxPackets] = domain.U64(st.PacketsSent)
		pc.Counters[domain.TxBytes] = domain.U64(st.BytesSent)
		pc.Counters[domain.TxErrors] = domain.U64(st.Errout)
		pc.Counters[domain.TxDrops] = domain.U64(st.Dropout)
		pc.Counters[domain.TxOverruns] = domain.U64(st.Fifoout)

		table[domain.InterfaceID(st.Name)] = pc
	}
	return table, nil
}

// readSpeed pulls the link speed from sysfs; absent when the kernel
// does not report one (virtual devices, down links).
func (s *Source) readSpeed(name string) *uint64 {
	raw, err := os.ReadFile(filepath.Join(s.sysfs, name, "speed"))
	if err != nil {
		return nil
	}
	v, err := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64)
	if err != nil || v <= 0 {
		return nil
	}
	return domain.U64(uint64(v))
}

func isInternal(name string) bool {
	return name == "lo" || strings.HasPrefix(name, "veth") || strings.HasPrefix(name, "docker")
}
