package common

// HTTP header names and values shared by the remote providers and the
// reference server.
const (
	AuthorizationHeader = "Authorization"
	BearerPrefix        = "Bearer "
	APIKeyHeader        = "apikey"
	PreferHeader        = "Prefer"
	ContentTypeHeader   = "Content-Type"
	ContentTypeJSON     = "application/json"
)
