// Package api is the chat client helios uses to talk to an
// OpenAI-compatible /chat/completions endpoint.
//
// # Files
//
//   - chat.go: request/response wire types
//   - client.go: Client interface and the HTTP implementation
//   - stream.go: Server-Sent Events processor for streamed responses
//   - retry.go: exponential backoff and API key rotation
//
// # Usage
//
//	client, err := api.NewClient(cfg)
//	if err != nil {
//	    return err
//	}
//	resp, err := client.Stream(ctx, cfg.Model, messages, func(chunk string) {
//	    fmt.Print(chunk)
//	})
//
// Transient failures (429 and 5xx) are retried with backoff before the
// stream starts. 401, 403 and 429 rotate to the next configured API key.
// Once streaming has begun, a failure is returned as-is because a partial
// response cannot be replayed.
package api
