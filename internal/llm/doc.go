// Package llm provides a chat completion client for prompt recommendations.
//
// The client speaks the OpenAI chat-completions shape, which OpenRouter and
// most compatible gateways accept:
//
//	{"model": "...", "messages": [{"role": "user", "content": "..."}]}
//
// and reads the reply from choices[0].message.content.
//
// # Configuration
//
// Requires api_key and optionally base_url, model, referer, title, timeout.
// A missing or placeholder key does not fail construction; Available reports
// false and Complete returns ErrUnavailable so callers can choose a fallback.
//
// # Failure Behaviour
//
// Complete makes exactly one attempt. Transport failures, non-2xx statuses,
// malformed JSON, and replies without message content are all returned as
// errors tagged with the services sentinel markers.
package llm
