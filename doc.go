// Package authcore implements password authentication with an optional
// TOTP second factor and the server-side session state that gates access
// between "password verified" and "fully authenticated".
//
// The entry point is [Engine], built via [New]:
//
//	engine, err := authcore.New().
//		WithConfig(cfg).
//		WithRedis(redisClient).
//		WithUserProvider(users).
//		Build()
//
// The engine owns credential verification, at-rest encryption of TOTP
// seeds, enrollment, and session state transitions. Persistence of user
// records is delegated to a caller-supplied [UserProvider]; sessions are
// kept in Redis. HTTP routing, QR rendering, and process bootstrap are
// intentionally out of scope.
package authcore
