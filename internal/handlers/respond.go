// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers implements the JSON HTTP API of the category catalog:
// the public storefront endpoints and the admin endpoints. Handlers stay
// thin and delegate every rule to the category and translation services.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"omexcatalog/internal/category"
	"omexcatalog/internal/translation"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Error codes returned in the error envelope.
const (
	codeValidation        = "VALIDATION_ERROR"
	codeInvalidSlugFormat = "INVALID_SLUG_FORMAT"
	codeCircular          = "CIRCULAR_REFERENCE"
	codeNotFound          = "CATEGORY_NOT_FOUND"
	codeSlugConflict      = "SLUG_CONFLICT"
	codeUnsupportedLocale = "UNSUPPORTED_LOCALE"
	codeInvalidLimit      = "INVALID_LIMIT"
	codeInvalidOffset     = "INVALID_OFFSET"
	codeInvalidID         = "INVALID_ID"
	codeInvalidBody       = "INVALID_BODY"
	codeInternal          = "INTERNAL_ERROR"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		slog.Error("encode response failed", "error", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "failed to encode response")
		return
	}
	writeBody(w, status, body)
}

func writeBody(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	body, _ := json.Marshal(errorBody{Error: errorDetail{Code: code, Message: message}})
	writeBody(w, status, body)
}

// writeServiceError maps a service error onto its HTTP status and code.
// Unknown errors are logged and reported as a generic 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := http.StatusInternalServerError, codeInternal
	switch {
	case errors.Is(err, category.ErrInvalidSlugFormat):
		status, code = http.StatusBadRequest, codeInvalidSlugFormat
	case errors.Is(err, category.ErrCircularReference):
		status, code = http.StatusBadRequest, codeCircular
	case errors.Is(err, category.ErrValidation), errors.Is(err, translation.ErrInvalid):
		status, code = http.StatusBadRequest, codeValidation
	case errors.Is(err, translation.ErrUnsupportedLocale):
		status, code = http.StatusBadRequest, codeUnsupportedLocale
	case errors.Is(err, category.ErrNotFound):
		status, code = http.StatusNotFound, codeNotFound
	case errors.Is(err, category.ErrSlugConflict):
		status, code = http.StatusConflict, codeSlugConflict
	}

	if status == http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, status, code, "internal server error")
		return
	}
	writeError(w, status, code, err.Error())
}

// decodeJSON reads a single JSON object from the request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("request body is empty")
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if dec.More() {
		return fmt.Errorf("request body must contain a single JSON object")
	}
	return nil
}
