// Package httpapp serves the socialfeed JSON API.
//
// Public routes:
//
//	POST /api/auth/register   create a user, returns {token}
//	POST /api/auth/login      exchange email and password for {token}
//	GET  /health              store liveness
//	GET  /openapi.json        OpenAPI document
//	GET  /swagger/            Swagger UI
//
// Every other route requires "Authorization: Bearer <token>":
//
//	GET    /api/users
//	GET    /api/users/{id}
//	GET    /api/me
//	PUT    /api/me/edit
//	POST   /api/posts
//	GET    /api/posts
//	GET    /api/posts/author/{authorId}
//	GET    /api/posts/{postCid}
//	PUT    /api/posts/{postId}/like/{userId}
//	DELETE /api/posts/{postId}/like/{userId}
//
// Errors are always {"message": "..."}. The OpenAPI document is served at
// /openapi.json and browsable under /swagger/.
//
//	@title						socialfeed API
//	@version					1.0
//	@description				Users, posts and likes behind bearer-token authentication.
//	@description
//	@description				Register or log in to receive a token, then send it on every /api call:
//	@description				```bash
//	@description				curl -X POST /api/auth/login -d '{"email":"ada@example.com","password":"..."}'
//	@description				# Returns: {"token": "TOKEN"}
//	@description				curl /api/posts -H "Authorization: Bearer TOKEN"
//	@description				```
//
//	@contact.name				socialfeed
//	@license.name				MIT
//
//	@BasePath					/
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token from /api/auth/login or /api/auth/register
//
//	@tag.name					Authentication
//	@tag.description			Register and log in with email and password.
//
//	@tag.name					Users
//	@tag.description			Profiles and the current user's credentials.
//
//	@tag.name					Posts
//	@tag.description			Posts grouped by content id (postCid).
//
//	@tag.name					Likes
//	@tag.description			One like per user per post.
package httpapp
