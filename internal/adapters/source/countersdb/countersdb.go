// Package countersdb implements a counter source backed by the
// device's Redis counters database, one endpoint per namespace.
//
// Expected schema per namespace:
//
//	COUNTERS_PORT_NAME_MAP    hash: port name -> counter table OID
//	COUNTERS:<oid>            hash: counter name -> decimal value
//	PORT_INFO:<port>          hash: speed_mbps, internal ("true"/"false")
//
// A counter field that is missing or non-numeric is reported as absent,
// never as zero.
package countersdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/vshulcz/Intfstat/internal/domain"
	"github.com/vshulcz/Intfstat/internal/misc"
	"github.com/vshulcz/Intfstat/internal/ports"
)

const (
	portNameMapKey = "COUNTERS_PORT_NAME_MAP"
	countersPrefix = "COUNTERS:"
	portInfoPrefix = "PORT_INFO:"
)

// Options configures the adapter.
type Options struct {
	// Endpoints maps namespace name to a Redis address. A single-ASIC
	// device has one entry under domain.DefaultNamespace.
	Endpoints map[string]string
	DB        int
	Password  string
	// DialTimeout bounds connection setup; zero keeps go-redis's own
	// default.
	DialTimeout time.Duration
}

// Source reads counters out of per-namespace Redis databases with
// bounded retries on transient failures.
type Source struct {
	clients map[string]*redis.Client
	log     *zap.Logger
}

var _ ports.CounterSource = (*Source)(nil)

// New builds one Redis client per configured namespace.
func New(opts Options, logger *zap.Logger) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	clients := make(map[string]*redis.Client, len(opts.Endpoints))
	for ns, addr := range opts.Endpoints {
		clients[ns] = redis.NewClient(&redis.Options{
			Addr:        addr,
			DB:          opts.DB,
			Password:    opts.Password,
			DialTimeout: opts.DialTimeout,
		})
	}
	return &Source{clients: clients, log: logger}
}

// Close releases every namespace client.
func (s *Source) Close() error {
	var firstErr error
	for ns, c := range s.clients {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close namespace %q: %w", ns, err)
		}
	}
	return firstErr
}

// Namespaces lists the configured namespaces in sorted order.
func (s *Source) Namespaces(_ context.Context) ([]string, error) {
	out := make([]string, 0, len(s.clients))
	for ns := range s.clients {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out, nil
}

// FetchNamespace reads every port's counters from one namespace.
func (s *Source) FetchNamespace(ctx context.Context, ns string) (domain.PortTable, error) {
	c, ok := s.clients[ns]
	if !ok {
		return nil, fmt.Errorf("%w: unknown namespace %q", domain.ErrSourceUnavailable, ns)
	}

	nameMap, err := s.hgetall(ctx, c, portNameMapKey)
	if err != nil {
		return nil, fmt.Errorf("%w: namespace %q: port name map: %v", domain.ErrSourceUnavailable, ns, err)
	}

	table := make(domain.PortTable, len(nameMap))
	for port, oid := range nameMap {
		fields, err := s.hgetall(ctx, c, countersPrefix+oid)
		if err != nil {
			return nil, fmt.Errorf("%w: namespace %q: counters for %q: %v", domain.ErrSourceUnavailable, ns, port, err)
		}
		info, err := s.hgetall(ctx, c, portInfoPrefix+port)
		if err != nil {
			return nil, fmt.Errorf("%w: namespace %q: port info for %q: %v", domain.ErrSourceUnavailable, ns, port, err)
		}

		pc := domain.PortCounters{
			Counters:  make(map[domain.CounterName]*uint64, len(domain.Names())),
			SpeedMbps: parseU64(info["speed_mbps"]),
			Internal:  info["internal"] == "true",
		}
		for _, name := range domain.Names() {
			pc.Counters[name] = parseU64(fields[string(name)])
		}
		table[domain.InterfaceID(port)] = pc
	}
	return table, nil
}

func (s *Source) hgetall(ctx context.Context, c *redis.Client, key string) (map[string]string, error) {
	var out map[string]string
	op := func() error {
		m, err := c.HGetAll(ctx, key).Result()
		if err != nil {
			return err
		}
		out = m
		return nil
	}
	if err := misc.Retry(ctx, misc.DefaultBackoff, isTransient, op); err != nil {
		return nil, err
	}
	return out, nil
}

// parseU64 turns a database field into an optional counter value.
// Empty, "N/A", or otherwise non-numeric fields are absent.
func parseU64(raw string) *uint64 {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "n/a") {
		return nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil
	}
	return &v
}

func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, redis.Nil) {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
