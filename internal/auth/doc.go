// Package auth authenticates the library's administrators.
//
// Passwords are stored as a 64-character hex salt followed by the hex
// PBKDF2-HMAC-SHA512 derived key and are compared in constant time. A failed
// login always reports ErrInvalidCredentials, whether the username or the
// password was wrong.
//
// A successful login produces an explicit Session value carrying a signed
// HS256 bearer token, and also starts a cookie session for browser clients.
// Middleware accepts either; cookie-authenticated unsafe requests must echo
// the X-CSRF-Token header.
//
// # Configuration
//
//	ADMIN_USERNAME=admin                 # Bootstrap account created on first start
//	ADMIN_PASSWORD=admin123
//	AUTH_SESSION_SECRET=<hex-32-bytes>   # Auto-generated if empty
//	AUTH_SESSION_LIFETIME=12h
//	AUTH_TOKEN_EXPIRY=12h
//	AUTH_PBKDF2_ITERATIONS=100000
//	AUTH_SECURE_COOKIES=true
//
// # Usage
//
//	authService := auth.NewService(db.DB, cfg.Auth)
//	tokens := auth.NewTokenIssuer(secret, cfg.Auth.TokenIssuer, cfg.Auth.TokenExpiry)
//	middleware := auth.NewMiddleware(authService, tokens, sessionManager)
//	api.Use(middleware.Handler())
//
// Handlers read the caller with auth.GetAdminID(c) or auth.ActorFromContext(c).
package auth
