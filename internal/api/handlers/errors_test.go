package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kushalyadavv/multi-address-backend/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		production  bool
		wantStatus  int
		wantDetails bool
		wantLogged  bool
	}{
		{
			name:        "validation keeps fields",
			err:         &errors.ErrValidation{Message: "Invalid address", Fields: map[string]string{"zip": "This field is required"}},
			production:  true,
			wantStatus:  http.StatusBadRequest,
			wantDetails: true,
		},
		{
			name:       "not found",
			err:        fmt.Errorf("lookup: %w", &errors.ErrNotFound{Resource: "order", ID: "9"}),
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "conflict",
			err:        &errors.ErrConflict{Message: "envelope changed"},
			wantStatus: http.StatusConflict,
		},
		{
			name:        "upstream outside production",
			err:         &errors.ErrUpstream{StatusCode: 503, Message: "maintenance"},
			wantStatus:  http.StatusBadGateway,
			wantDetails: true,
			wantLogged:  true,
		},
		{
			name:       "upstream in production",
			err:        &errors.ErrUpstream{StatusCode: 503, Message: "maintenance"},
			production: true,
			wantStatus: http.StatusBadGateway,
			wantLogged: true,
		},
		{
			name:       "unknown error in production",
			err:        fmt.Errorf("boom"),
			production: true,
			wantStatus: http.StatusInternalServerError,
			wantLogged: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.InfoLevel)
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			respondError(c, tt.err, tt.production, zap.New(core))

			assert.Equal(t, tt.wantStatus, w.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, false, body["success"])
			_, hasDetails := body["details"]
			assert.Equal(t, tt.wantDetails, hasDetails)
			assert.Equal(t, tt.wantLogged, logs.Len() > 0)
		})
	}
}
