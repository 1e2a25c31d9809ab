// Package metrics holds the aggregator's Prometheus instrumentation,
// grounded in the pack's genuine client_golang usage (see DESIGN.md).
// It exports nothing but metric variables: the decision of when to
// increment or set each one belongs to the package producing the
// event (internal/aggcore, internal/dataplane), not to this package.
package metrics
