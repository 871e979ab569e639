package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"village-registry-system/pkg/response"
	"village-registry-system/services/registry-service/models"
	"village-registry-system/services/registry-service/session"
)

// submitResident accepts a JSON resident, or multipart form data with the
// resident JSON in "data" and an optional image in "photo".
func (h *Handler) submitResident(w http.ResponseWriter, r *http.Request) {
	var (
		rec   models.Resident
		photo *session.Photo
	)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(h.maxPhotoBytes); err != nil {
			response.Error(w, http.StatusBadRequest, "Invalid multipart payload", err.Error())
			return
		}
		if err := json.Unmarshal([]byte(r.FormValue("data")), &rec); err != nil {
			response.Error(w, http.StatusBadRequest, "Invalid request payload", err.Error())
			return
		}
		file, header, err := r.FormFile("photo")
		switch {
		case err == http.ErrMissingFile:
		case err != nil:
			response.Error(w, http.StatusBadRequest, "Invalid photo", err.Error())
			return
		default:
			defer file.Close()
			data, err := io.ReadAll(io.LimitReader(file, h.maxPhotoBytes+1))
			if err != nil {
				response.Error(w, http.StatusBadRequest, "Invalid photo", err.Error())
				return
			}
			if int64(len(data)) > h.maxPhotoBytes {
				response.Error(w, http.StatusRequestEntityTooLarge, "Photo is too large", "")
				return
			}
			contentType := header.Header.Get("Content-Type")
			if contentType == "" {
				contentType = "image/jpeg"
			}
			photo = &session.Photo{Data: data, ContentType: contentType}
		}
	} else if err := decodeJSON(r, &rec); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}

	out, err := h.residents.Submit(r.Context(), rec, photo)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, http.StatusCreated, "Resident submitted successfully", out)
}

func (h *Handler) submitLetter(w http.ResponseWriter, r *http.Request) {
	rec := models.NewLetterRequest()
	if err := decodeJSON(r, &rec); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}
	out, err := h.letters.Submit(r.Context(), rec)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, http.StatusCreated, "Letter request submitted successfully", out)
}
