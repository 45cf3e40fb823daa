package controllers

import (
	"encoding/json"
	"errors"
	"goldenapp/services"
	"goldenapp/utils"
	"net/http"
)

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		utils.LogError("failed to encode response: %v", err)
	}
}

// statusFor сопоставляет ошибку сервиса с HTTP-статусом
func statusFor(err error) int {
	var lookupErr *services.LookupError
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.As(err, &lookupErr), errors.Is(err, services.ErrInflowNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrScheduleExists), errors.Is(err, services.ErrInflowAlreadyVoided):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		utils.LogError("request failed: %v", err)
		utils.GetMetrics().RecordError(err)
		http.Error(w, "Internal server error", status)
		return
	}
	http.Error(w, err.Error(), status)
}
