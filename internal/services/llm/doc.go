// Package llm wraps go-openai for the OpenAI-backed transcription and
// translation providers.
//
// # Entry Points
//
// NewClient: construct a client from Config (key, base URL, chat model, timeout).
// Client.Complete: send system/user prompts, receive the message content.
// Client.TranscribeSRT: upload an audio file, receive an SRT document.
// Client.HealthCheck: verify the API key by listing models.
// DecodeLLMJSON: decode JSON replies that arrive wrapped in code fences or prose.
//
// # Retry Behaviour
//
// Requests are retried on HTTP 408/429/5xx, empty completions and network
// timeouts with exponential backoff (base 1s, max 10s, up to 5 attempts by
// default). Context cancellation aborts retries immediately.
package llm
