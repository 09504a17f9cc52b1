package param

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBinding(t *testing.T) {
	var params struct {
		Type  string `json:"type"`
		Limit int    `json:"limit"`
	}

	r := httptest.NewRequest(http.MethodGet, "/events?type=supplied&limit=5&foo=bar", nil)
	assert.Nil(t, Binding(r, &params))
	assert.Equal(t, "supplied", params.Type)
	assert.Equal(t, 5, params.Limit)

	r = httptest.NewRequest(http.MethodGet, "/events?limit=abc", nil)
	assert.NotNil(t, Binding(r, &params))
}
