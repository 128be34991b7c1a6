package apimodel

import (
	"encoding/json"
	"fmt"
	"github.com/sirupsen/logrus"
	"net/http"
)

// ErrorMessage is the json body of every non-data api answer, "Ok" included.
type ErrorMessage struct {
	ErrStatusCode int    `json:"status_code"`
	ErrMessage    string `json:"message"`
}

func (e *ErrorMessage) Error() string {
	if e.ErrMessage == "" {
		return fmt.Sprintf("%d", e.ErrStatusCode)
	}
	return fmt.Sprintf("%d:%s", e.ErrStatusCode, e.ErrMessage)
}

// SendError writes v with its status code, filling a default message from the code.
func (v ErrorMessage) SendError(w http.ResponseWriter) {
	if v.ErrMessage == "" {
		v.ErrMessage = defaultMessage(v.ErrStatusCode)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(v.ErrStatusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Warnf("error when encoding error: %v", err)
	}
}

func defaultMessage(statusCode int) string {
	switch statusCode {
	case http.StatusOK:
		return "Ok"
	case http.StatusNotFound:
		return "Page not found"
	case http.StatusForbidden:
		return "Forbidden"
	case http.StatusServiceUnavailable:
		return "Service unavailable"
	case http.StatusBadRequest:
		return "Bad request"
	case http.StatusMethodNotAllowed:
		return "Method not allowed"
	default:
		return "Internal error"
	}
}

var DisplayUnavailableErrorMessage = ErrorMessage{
	ErrStatusCode: http.StatusServiceUnavailable,
	ErrMessage:    "display unavailable",
}
