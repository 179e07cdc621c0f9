package common

const (
	// AuthorizationHeaderName carries the bearer access token on HTTP requests.
	AuthorizationHeaderName = "Authorization"

	// BearerScheme is the authorization scheme expected in AuthorizationHeaderName.
	BearerScheme = "Bearer"

	// RequestIDHeaderName is echoed back on every response.
	RequestIDHeaderName = "X-Request-ID"
)

// CodeAccessTokenExpired is the envelope code of a 401 caused by an expired
// access token. Clients treat it as the one failure a refresh can repair.
const CodeAccessTokenExpired = "access_token_expired"
