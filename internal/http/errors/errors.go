// Package errors define los errores HTTP del BFF y su serialización JSON.
package errors

import (
	"encoding/json"
	"net/http"

	"github.com/dropDatabas3/hellojohn-admin/internal/observability/logger"
)

type errorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Detail   string `json:"detail,omitempty"`
	Location string `json:"location,omitempty"`
}

// WriteError escribe err como JSON. Los 5xx se loguean con su causa.
func WriteError(w http.ResponseWriter, err error) {
	appErr := FromError(err)
	if appErr.HTTPStatus >= 500 {
		logger.L().Error("request failed", logger.Kind(appErr.Code), logger.Err(appErr.Err))
	}

	resp := errorResponse{
		Code:     appErr.Code,
		Message:  appErr.Message,
		Detail:   appErr.Detail,
		Location: appErr.Location,
	}
	if appErr.HTTPStatus == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	}
	if appErr.Location != "" {
		w.Header().Set("X-Console-Location", appErr.Location)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(resp)
}
