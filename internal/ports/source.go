package ports

import (
	"context"

	"github.com/vshulcz/Intfstat/internal/domain"
)

// CounterSource pulls current counter values from a counters database.
// Implementations must return every interface they know about, with an
// explicit nil marker for counters they have no data for; they never
// silently drop an interface. Transient-failure retries belong inside
// the implementation; a returned error is fatal for the request.
type CounterSource interface {
	Namespaces(ctx context.Context) ([]string, error)
	FetchNamespace(ctx context.Context, ns string) (domain.PortTable, error)
}
