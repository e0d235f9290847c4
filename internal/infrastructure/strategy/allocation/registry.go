package allocation

import (
	"fmt"
	"slices"
	"strings"

	"github.com/tuition/backend/internal/domain/fee"
)

// factories maps a configured strategy name to its constructor
var factories = map[string]func() fee.AllocationStrategy{
	TermOrderStrategyName: func() fee.AllocationStrategy { return NewTermOrderStrategy() },
}

// New returns the strategy registered under name (fee.allocation_strategy).
func New(name string) (fee.AllocationStrategy, error) {
	build, ok := factories[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("allocation strategy %q is not supported (available: %s)",
			name, strings.Join(Names(), ", "))
	}
	return build(), nil
}

// Names lists the registered strategies in sorted order
func Names() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
