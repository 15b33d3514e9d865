// Package auth provides registration, login and session-backed identity.
//
// Every visitor gets an scs session stored in the application's SQLite
// database. A successful registration or login renews the session token and
// stores the user ID in it; the Middleware resolves that ID into the current
// user on every request.
//
// # Configuration
//
//	AUTH_SESSION_SECRET=<hex-32-bytes>  # CSRF signing key, generated if empty
//	AUTH_SESSION_LIFETIME=336h          # Session duration
//	AUTH_BCRYPT_COST=12                 # bcrypt cost factor
//	AUTH_SECURE_COOKIES=true            # HTTPS-only cookies
//	AUTH_RATE_LIMIT_REDIS_ADDR=         # Share login throttling across instances
//
// # Usage
//
//	sessions, _ := auth.NewSessionManager(sqlDB, cfg.Auth)
//	service := auth.NewService(usersRepo, cfg.Auth)
//	mw := auth.NewMiddleware(usersRepo, sessions)
//
//	router.Use(sessions.SessionLoadSave(), mw.Handler())
//	router.GET("/catalog/", mw.RequireAuth(), handler)
//
// Extract the user in handlers:
//
//	user := auth.CurrentUser(c) // nil for anonymous visitors
//
// Flash messages ride in the same session and are consumed by the next page
// that renders them:
//
//	sessions.AddFlash(c.Request, auth.FlashSuccess, "Book added.")
package auth
