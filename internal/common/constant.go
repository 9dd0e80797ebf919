package common

const (
	// TokenCookieName is the cookie carrying the identity token for
	// browser clients.
	TokenCookieName = "jwt"

	// LoggedOutCookieValue replaces the token on logout. It never
	// verifies, so the guard treats it as no token at all.
	LoggedOutCookieValue = "loggedout"

	// AuthorizationHeaderName carries "Bearer <token>" for API clients.
	AuthorizationHeaderName = "Authorization"

	// RequestIDHeaderName echoes the per-request correlation id.
	RequestIDHeaderName = "X-Request-ID"

	// GenericFailureMessage is the only text a client sees for
	// non-operational failures.
	GenericFailureMessage = "Something went wrong!"
)
