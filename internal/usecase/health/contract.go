package health

import "context"

// CachePinger checks cache store availability.
type CachePinger interface {
	Ping(ctx context.Context) error
}

// SynthesisChecker checks synthesis provider availability.
type SynthesisChecker interface {
	HealthCheck(ctx context.Context) error
}
