package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"stitchtherapy/models"
)

func TestRespondErrorStatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		err  error
		want int
	}{
		{models.NewValidationError("date", "invalid"), http.StatusBadRequest},
		{models.NewAuthorizationError("forbidden"), http.StatusForbidden},
		{models.NewNotFoundError("booking", "b1"), http.StatusNotFound},
		{models.NewConflictError("overlap"), http.StatusConflict},
		{assert.AnError, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		respondError(c, tc.err)
		assert.Equal(t, tc.want, w.Code, "error %v", tc.err)
	}
}
