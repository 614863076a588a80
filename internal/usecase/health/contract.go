package health

import "context"

// DBPinger checks vector store availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// ProviderChecker checks an LLM provider's availability.
type ProviderChecker interface {
	HealthCheck(ctx context.Context) error
}
