package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/AdvisorySG/mentorship-analytics/internal/infrastructure/observability"
	apperrors "github.com/AdvisorySG/mentorship-analytics/pkg/errors"
)

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// respondWithAppError maps err onto a status code and a message safe to show
// to users. Source failures get a retry hint instead of driver details.
func respondWithAppError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperrors.AsAppError(err)
	status := appErr.HTTPStatus()
	logger := observability.LoggerFromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
	} else {
		logger.Debug().Err(err).Str("path", r.URL.Path).Msg("Request rejected")
	}

	respondWithError(w, status, appErr.UserMessage())
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.NewValidationError(fmt.Sprintf("%s must be an integer", name))
	}
	return v, nil
}

func boolParam(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, apperrors.NewValidationError(fmt.Sprintf("%s must be a boolean", name))
	}
	return v, nil
}

// maxMinutes is the largest bare minute count that fits in a time.Duration.
const maxMinutes = float64(math.MaxInt64) / float64(time.Minute)

// durationParam accepts a Go duration such as "10m" or a bare number of
// minutes. A bare number must be positive and finite.
func durationParam(r *http.Request, name string) (time.Duration, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	if minutes, err := strconv.ParseFloat(raw, 64); err == nil || errors.Is(err, strconv.ErrRange) {
		if err != nil || math.IsNaN(minutes) || minutes <= 0 || minutes >= maxMinutes {
			return 0, apperrors.NewValidationError(fmt.Sprintf("%s must be a positive number of minutes", name))
		}
		d := time.Duration(minutes * float64(time.Minute))
		if d <= 0 {
			return 0, apperrors.NewValidationError(fmt.Sprintf("%s must be a positive number of minutes", name))
		}
		return d, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, apperrors.NewValidationError(fmt.Sprintf("%s must be a duration such as 10m", name))
	}
	return d, nil
}
