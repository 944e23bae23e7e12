package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"authcodelab/internal/auth"
	apperrors "authcodelab/internal/errors"
)

type testValidator struct {
	validator *validator.Validate
}

func (v *testValidator) Validate(i interface{}) error {
	return v.validator.Struct(i)
}

func newContext(method, target, body string, p *auth.Principal) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = &testValidator{validator: validator.New()}

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if p != nil {
		req = req.WithContext(auth.WithPrincipal(req.Context(), *p))
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func requireHTTPError(t *testing.T, err error, status int, code string) {
	t.Helper()
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, status, he.Code)
	body, ok := he.Message.(apperrors.ErrorResponse)
	require.True(t, ok, "message should be an ErrorResponse")
	assert.False(t, body.Success)
	assert.Equal(t, code, body.Code)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func cookiesByName(rec *httptest.ResponseRecorder) map[string]*http.Cookie {
	out := map[string]*http.Cookie{}
	for _, ck := range rec.Result().Cookies() {
		out[ck.Name] = ck
	}
	return out
}

func TestHandleServiceError(t *testing.T) {
	requireHTTPError(t, handleServiceError(apperrors.ErrInvalidOTP), http.StatusBadRequest, "INVALID_OTP")

	unexpected := assert.AnError
	assert.Same(t, unexpected, handleServiceError(unexpected), "unmapped errors reach the error handler untouched")
}

func TestPrincipalMissing(t *testing.T) {
	c, _ := newContext(http.MethodGet, "/", "", nil)
	_, err := principal(c)
	requireHTTPError(t, err, http.StatusUnauthorized, "UNAUTHORIZED")
}
