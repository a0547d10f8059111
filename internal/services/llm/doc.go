// Package llm provides a chat completions client for any OpenAI-compatible
// endpoint, local Ollama by default.
//
// The enrichment stage sends one prompt per transcript through Client.Complete
// and parses the returned text itself; Client.HealthCheck backs the doctor
// command.
//
// # Configuration
//
// Requires base_url and model. The API key is optional: it is sent as a bearer
// token only when set, so unauthenticated local servers work unchanged.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx errors, empty completions, and
// network timeouts with exponential backoff (base 1s, max 10s, up to 5
// attempts by default). A Retry-After header overrides the backoff. Context
// cancellation aborts retries immediately.
//
// # Rate Limiting
//
// When RequestsPerMinute is positive every HTTP attempt first waits on a
// token bucket so long batches stay under hosted provider quotas.
package llm
