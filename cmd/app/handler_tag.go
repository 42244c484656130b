package main

import (
	"errors"
	"net/http"

	"github.com/sushihentaime/devlog/internal/common"
)

func (app *application) listTagsHandler(w http.ResponseWriter, r *http.Request) {
	tags, err := app.postService.GetTags(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"tags": tags}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

type createTagRequest struct {
	Name string `json:"name"`
}

// createTagHandler answers 201 for a new tag and 200 when the tag already existed.
func (app *application) createTagHandler(w http.ResponseWriter, r *http.Request) {
	var input createTagRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	tag, created, err := app.postService.CreateTag(r.Context(), app.contextGetPrincipal(r), input.Name)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrUnauthenticated):
			app.authenticationRequiredResponse(w, r)
		case errors.Is(err, common.ErrForbidden):
			app.forbiddenResponse(w, r)
		case errors.As(err, &common.ValidationError{}):
			validationErr := err.(common.ValidationError)
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}

	err = app.writeJSON(w, status, envelope{"tag": tag}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) recountTagsHandler(w http.ResponseWriter, r *http.Request) {
	changed, err := app.postService.RecountTags(r.Context(), app.contextGetPrincipal(r))
	if err != nil {
		switch {
		case errors.Is(err, common.ErrUnauthenticated):
			app.authenticationRequiredResponse(w, r)
		case errors.Is(err, common.ErrForbidden):
			app.forbiddenResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"changed": changed}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
