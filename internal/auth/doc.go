// Package auth signs library users in and decides what they may do.
//
// Two modes are supported:
//   - "local" (default): users live in the application database; browsers
//     sign in with a session cookie and API clients send a Bearer token
//   - "none": nobody signs in and every request may do everything
//
// Members may browse the catalog and see their own loans. Librarians and
// admins additionally hold catalog.can_mark_returned and
// catalog.can_edit_catalog.
//
// # Configuration
//
//	AUTH_MODE=local
//	AUTH_SESSION_SECRET=<hex-32-bytes>  # generated per process if empty
//	AUTH_SESSION_LIFETIME=24h
//	AUTH_TOKEN_EXPIRY=720h
//	AUTH_BCRYPT_COST=12
//	AUTH_SECURE_COOKIES=true
//
// # Usage
//
//	authService := auth.NewService(users.NewRepository(db), cfg.Auth)
//	authMiddleware := auth.NewMiddleware(authService, sessions, cfg.Auth)
//	router.Use(authMiddleware.Handler())
//	router.GET("/borrowed", authMiddleware.RequirePermission(entities.PermissionMarkReturned), handler)
//
// Handlers read the caller with GetUserID and check rights with HasPermission.
package auth
