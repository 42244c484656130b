package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

func (app *application) routes() http.Handler {
	router := httprouter.New()

	router.NotFound = http.HandlerFunc(app.notFoundErrorResponse)
	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowedErrorResponse)

	router.HandlerFunc(http.MethodGet, "/v1/healthcheck", app.healthCheckHandler)
	router.HandlerFunc(http.MethodGet, "/v1/readiness", app.readinessHandler)

	// auth
	router.HandlerFunc(http.MethodPost, "/v1/auth/login", app.loginHandler)
	router.HandlerFunc(http.MethodPost, "/v1/auth/logout", app.requireAuthenticatedUser(app.logoutHandler))
	router.HandlerFunc(http.MethodGet, "/v1/auth/me", app.requireAuthenticatedUser(app.showCurrentUserHandler))
	router.HandlerFunc(http.MethodGet, "/v1/auth/oauth/:provider", app.oauthRedirectHandler)
	router.HandlerFunc(http.MethodGet, "/v1/auth/oauth/:provider/callback", app.oauthCallbackHandler)

	// posts
	router.HandlerFunc(http.MethodGet, "/v1/posts", app.listPostsHandler)
	router.HandlerFunc(http.MethodPost, "/v1/posts", app.createPostHandler)
	router.HandlerFunc(http.MethodGet, "/v1/posts/:id", app.showPostHandler)
	router.HandlerFunc(http.MethodPut, "/v1/posts/:id", app.updatePostHandler)
	router.HandlerFunc(http.MethodDelete, "/v1/posts/:id", app.deletePostHandler)
	router.HandlerFunc(http.MethodPatch, "/v1/posts/:id/pin", app.togglePinHandler)
	router.HandlerFunc(http.MethodPut, "/v1/posts/:id/pin", app.setPinHandler)
	router.HandlerFunc(http.MethodGet, "/v1/posts/:id/comments", app.listCommentsHandler)

	// comments
	router.HandlerFunc(http.MethodPost, "/v1/comments", app.createCommentHandler)
	router.HandlerFunc(http.MethodPut, "/v1/comments/:id", app.updateCommentHandler)
	router.HandlerFunc(http.MethodDelete, "/v1/comments/:id", app.deleteCommentHandler)

	// likes
	router.HandlerFunc(http.MethodGet, "/v1/likes", app.showLikeStatusHandler)
	router.HandlerFunc(http.MethodPost, "/v1/likes", app.toggleLikeHandler)

	// tags
	router.HandlerFunc(http.MethodGet, "/v1/tags", app.listTagsHandler)
	router.HandlerFunc(http.MethodPost, "/v1/tags", app.createTagHandler)
	router.HandlerFunc(http.MethodPost, "/v1/tags/recount", app.recountTagsHandler)

	// uploads
	router.HandlerFunc(http.MethodPost, "/v1/uploads", app.uploadHandler)

	return app.recoverPanic(app.logRequest(app.enableCORS(app.rateLimit(app.authenticate(router)))))
}
