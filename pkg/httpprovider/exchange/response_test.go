package exchange

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirosfoundation/go-http-provider/pkg/httpprovider"
)

func newExchange() (*httptest.ResponseRecorder, *http.Request) {
	w := httptest.NewRecorder()
	_, r := Begin(w, httptest.NewRequest(http.MethodGet, "/", nil))
	return w, r
}

func TestResponse_Send(t *testing.T) {
	tests := []struct {
		name        string
		body        any
		contentType string
		want        string
	}{
		{"string", "hello world", "text/html; charset=utf-8", "hello world"},
		{"bytes", []byte{1, 2}, "application/octet-stream", "\x01\x02"},
		{"object", map[string]string{"message": "hi"}, "application/json; charset=utf-8", `{"message":"hi"}`},
		{"nil", nil, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, r := newExchange()
			res := NewResponse(w, r).Send(tt.body)

			assert.NoError(t, res.Err())
			assert.True(t, res.Written())
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.contentType, w.Header().Get("Content-Type"))
			assert.Equal(t, tt.want, w.Body.String())
		})
	}
}

func TestResponse_StatusSharedAcrossViews(t *testing.T) {
	w, r := newExchange()

	NewResponse(w, r).Status(http.StatusCreated)
	res := NewResponse(w, r)
	assert.Equal(t, http.StatusCreated, res.StatusCode())

	res.JSON(map[string]int{"id": 1})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestResponse_DoubleWrite(t *testing.T) {
	w, r := newExchange()
	res := NewResponse(w, r)

	res.Send("first")
	res.Send("second")

	assert.ErrorIs(t, res.Err(), ErrResponseWritten)
	assert.Equal(t, "first", w.Body.String())
}

func TestResponse_Headers(t *testing.T) {
	w, r := newExchange()
	NewResponse(w, r).
		Header("X-Multi", "a", "b").
		Headers(map[string]string{"X-One": "1"}).
		ContentType("json").
		Send("{}")

	assert.Equal(t, []string{"a", "b"}, w.Header().Values("X-Multi"))
	assert.Equal(t, "1", w.Header().Get("X-One"))
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
}

func TestResponse_Cookie(t *testing.T) {
	w, r := newExchange()
	NewResponse(w, r).
		Cookie("session", "a b", httpprovider.CookieOptions{HTTPOnly: true, MaxAge: time.Hour}).
		Cookie("prefs", map[string]string{"theme": "dark"}).
		ClearCookie("old")

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 3)

	assert.Equal(t, "session", cookies[0].Name)
	assert.Equal(t, "a%20b", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, 3600, cookies[0].MaxAge)
	assert.Equal(t, "/", cookies[0].Path)

	assert.True(t, strings.HasPrefix(cookies[1].Value, "j%3A"))

	assert.Equal(t, "old", cookies[2].Name)
	assert.Equal(t, -1, cookies[2].MaxAge)
}

func TestResponse_Redirect(t *testing.T) {
	w, r := newExchange()
	res := NewResponse(w, r)
	res.Redirect("/login")

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
	assert.True(t, res.Written())
	assert.Equal(t, http.StatusFound, res.StatusCode())
}

func TestWriteError(t *testing.T) {
	t.Run("writes error body", func(t *testing.T) {
		w, r := newExchange()
		NewResponse(w, r).Status(http.StatusTeapot).ContentType("text/plain")

		err := WriteError(w, r, errors.New("boom"))

		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
		assert.JSONEq(t, `{"name":"Error","message":"boom","status":500}`, w.Body.String())
	})

	t.Run("named error", func(t *testing.T) {
		w, r := newExchange()
		require.NoError(t, WriteError(w, r, &PayloadTooLargeError{Limit: 1}))
		assert.JSONEq(t, `{"name":"PayloadTooLargeError","message":"request entity too large","status":500}`, w.Body.String())
	})

	t.Run("already written", func(t *testing.T) {
		w, r := newExchange()
		NewResponse(w, r).Send("done")

		err := WriteError(w, r, errors.New("late"))
		assert.ErrorIs(t, err, ErrResponseWritten)
		assert.Equal(t, "done", w.Body.String())
	})
}
