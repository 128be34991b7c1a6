package apimodel

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendErrorDefaultMessages(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{http.StatusOK, "Ok"},
		{http.StatusForbidden, "Forbidden"},
		{http.StatusNotFound, "Page not found"},
		{http.StatusTeapot, "Internal error"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.code), func(t *testing.T) {
			rec := httptest.NewRecorder()
			ErrorMessage{ErrStatusCode: tt.code}.SendError(rec)

			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			var msg ErrorMessage
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&msg))
			assert.Equal(t, tt.want, msg.ErrMessage)
		})
	}
}

func TestErrorMessageError(t *testing.T) {
	assert.Equal(t, "503:display unavailable", DisplayUnavailableErrorMessage.Error())
	assert.Equal(t, "404", (&ErrorMessage{ErrStatusCode: 404}).Error())
}
