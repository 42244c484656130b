package main

import (
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/sushihentaime/devlog/internal/common"
	"github.com/sushihentaime/devlog/internal/userservice"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (app *application) loginHandler(w http.ResponseWriter, r *http.Request) {
	var input loginRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	session, err := app.userService.Login(r.Context(), input.Username, input.Password)
	if err != nil {
		switch {
		case errors.Is(err, userservice.ErrInvalidCredentials):
			app.invalidCredentialsErrorResponse(w, r)
		case errors.As(err, &common.ValidationError{}):
			validationErr := err.(common.ValidationError)
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"session": session}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) logoutHandler(w http.ResponseWriter, r *http.Request) {
	token := extractTokenFromHeader(r.Header.Get("Authorization"))

	err := app.userService.Logout(r.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, userservice.ErrInvalidToken):
			app.invalidAuthenticationTokenResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "logged out"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) showCurrentUserHandler(w http.ResponseWriter, r *http.Request) {
	user, err := app.userService.GetUser(r.Context(), app.contextGetPrincipal(r))
	if err != nil {
		switch {
		case errors.Is(err, common.ErrUnauthenticated), errors.Is(err, common.ErrRecordNotFound):
			app.authenticationRequiredResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"user": user}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) oauthRedirectHandler(w http.ResponseWriter, r *http.Request) {
	provider := httprouter.ParamsFromContext(r.Context()).ByName("provider")

	url, err := app.userService.OAuthURL(r.Context(), provider)
	if err != nil {
		switch {
		case errors.Is(err, userservice.ErrUnknownProvider):
			app.notFoundErrorResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	http.Redirect(w, r, url, http.StatusFound)
}

func (app *application) oauthCallbackHandler(w http.ResponseWriter, r *http.Request) {
	provider := httprouter.ParamsFromContext(r.Context()).ByName("provider")
	qs := r.URL.Query()

	if msg := qs.Get("error"); msg != "" {
		app.writeErrorResponse(w, r, http.StatusUnauthorized, "oauth provider denied access: "+msg)
		return
	}

	session, err := app.userService.OAuthCallback(r.Context(), provider, qs.Get("state"), qs.Get("code"))
	if err != nil {
		switch {
		case errors.Is(err, userservice.ErrUnknownProvider):
			app.notFoundErrorResponse(w, r)
		case errors.Is(err, userservice.ErrInvalidOAuthState):
			app.badRequestErrorResponse(w, r, err)
		case errors.As(err, &common.ValidationError{}):
			validationErr := err.(common.ValidationError)
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"session": session}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
