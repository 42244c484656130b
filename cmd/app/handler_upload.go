package main

import (
	"errors"
	"net/http"

	"github.com/sushihentaime/devlog/internal/common"
	"github.com/sushihentaime/devlog/internal/mediaservice"
)

// uploadHandler accepts a multipart form with the image in the "upload" field. Only admins may
// upload, and the body is not read for anyone else.
func (app *application) uploadHandler(w http.ResponseWriter, r *http.Request) {
	principal := app.contextGetPrincipal(r)
	if principal.IsAnonymous() {
		app.authenticationRequiredResponse(w, r)
		return
	}
	if !principal.IsAdmin {
		app.forbiddenResponse(w, r)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, mediaservice.MaxUploadSize+1<<20)

	err := r.ParseMultipartForm(mediaservice.MaxUploadSize)
	if err != nil {
		var maxBytesError *http.MaxBytesError
		switch {
		case errors.As(err, &maxBytesError):
			app.failedValidationErrorResponse(w, r, map[string]string{"upload": "must not be larger than 5MB"})
		default:
			app.badRequestErrorResponse(w, r, err)
		}
		return
	}

	file, header, err := r.FormFile("upload")
	if err != nil {
		app.failedValidationErrorResponse(w, r, map[string]string{"upload": "must be provided"})
		return
	}
	defer file.Close()

	upload, err := app.mediaService.UploadImage(r.Context(), principal, header.Filename, file)
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

	err = app.writeJSON(w, http.StatusCreated, envelope{"upload": upload}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
