package engine

import (
	"log/slog"
	"net/http"
)

// Option configures an Engine before Init.
type Option func(*Engine)

// WithLogger sets the engine logger. A nil logger keeps slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithContext sets the real-time audio context the engine renders through.
// Init fails without one.
func WithContext(rt Context) Option {
	return func(e *Engine) {
		e.rt = rt
	}
}

// WithHRIRDataset provides the impulse-response dataset inline: the JSON
// metadata descriptor and the binary sample payload.
func WithHRIRDataset(metadata, payload []byte) Option {
	return func(e *Engine) {
		e.hrirMeta = metadata
		e.hrirData = payload
	}
}

// WithHRIRURLs points the engine at remote dataset resources, fetched
// during Init. Fetch or parse failures are recoverable: the engine logs
// them and falls back to a neutral filter bank.
func WithHRIRURLs(metadataURL, payloadURL string) Option {
	return func(e *Engine) {
		e.hrirMetaURL = metadataURL
		e.hrirDataURL = payloadURL
	}
}

// WithHTTPClient overrides the HTTP client used for remote resources.
func WithHTTPClient(client *http.Client) Option {
	return func(e *Engine) {
		if client != nil {
			e.httpClient = client
		}
	}
}
