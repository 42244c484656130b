package main

import (
	"errors"
	"net/http"

	"github.com/sushihentaime/devlog/internal/common"
	"github.com/sushihentaime/devlog/internal/likeservice"
)

func (app *application) showLikeStatusHandler(w http.ResponseWriter, r *http.Request) {
	postID, err := app.readIntQuery(r, "post_id", 0)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	identity := likeservice.ResolveIdentity(app.contextGetPrincipal(r), r.Header)

	status, err := app.likeService.GetStatus(r.Context(), postID, identity)
	app.writeLikeResult(w, r, status, err)
}

func (app *application) toggleLikeHandler(w http.ResponseWriter, r *http.Request) {
	var input likeservice.ToggleInput

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	identity := likeservice.ResolveIdentity(app.contextGetPrincipal(r), r.Header)

	status, err := app.likeService.Toggle(r.Context(), input.PostID, identity)
	app.writeLikeResult(w, r, status, err)
}

func (app *application) writeLikeResult(w http.ResponseWriter, r *http.Request, status *likeservice.LikeStatus, err error) {
	if err != nil {
		switch {
		case errors.Is(err, common.ErrRecordNotFound):
			app.notFoundErrorResponse(w, r)
		case errors.As(err, &common.ValidationError{}):
			validationErr := err.(common.ValidationError)
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"likes": status}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
