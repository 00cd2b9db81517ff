package models

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusError(t *testing.T) {
	assert.ErrorIs(t, StatusError("x", http.StatusRequestEntityTooLarge, ""), ErrCapacityExceeded)
	assert.ErrorIs(t, StatusError("x", http.StatusBadRequest, "Prompt is too long"), ErrCapacityExceeded)
	assert.ErrorIs(t, StatusError("x", http.StatusTooManyRequests, "quota"), ErrRateLimited)

	err := StatusError("x", http.StatusBadGateway, " upstream down ")
	assert.EqualError(t, err, "x request failed with status code '502' - upstream down")
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "bad key", ErrorMessage([]byte(`{"error":{"message":"bad key"}}`)))
	assert.Equal(t, "no model", ErrorMessage([]byte(`{"error":"no model"}`)))
	assert.Equal(t, "plain text", ErrorMessage([]byte("plain text")))
}
