// Package client implements the HTTP client for the panelctl CLI to
// communicate with the Pi Control Panel API, handling bearer token
// attachment, transparent token refresh with a single replay on 401, and
// normalized error reporting including correlation-ID tracing.
package client
