// Package llm is the classifier gateway: a thin client for an
// OpenAI-compatible chat-completions endpoint that turns track descriptors
// into tag classifications. Full and primary-only request shapes run through
// the same prompt-build, call, and parse pipeline, so the primary genre
// judgment is identical no matter which caller asked. Transient failures are
// retried with exponential backoff; the gateway performs no caching.
package llm
