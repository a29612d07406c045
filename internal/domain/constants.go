package domain

const (
	DefaultClientName               = "mcpdiscover"
	DefaultTypeVersion              = 2
	DefaultTransport                = TransportStreamableHTTP
	DefaultAuthMode                 = AuthNone
	DefaultIncludeMode              = IncludeAll
	DefaultTimeoutSeconds           = 30
	DefaultStreamableHTTPMaxRetries = 5
	DefaultCredentialStoreFile      = "credentials.db"

	// LegacyTypeVersion is the node version that only spoke the SSE transport.
	LegacyTypeVersion = 1
)
