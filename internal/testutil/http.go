// Package testutil holds helpers shared by package tests.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// Serve runs req through handler and returns the recorded response.
func Serve(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// Get issues a GET for path against handler.
func Get(handler http.Handler, path string) *httptest.ResponseRecorder {
	return Serve(handler, httptest.NewRequest(http.MethodGet, path, nil))
}

func RequireStatus(t testing.TB, want int, rr *httptest.ResponseRecorder) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("expected status %d, got %d (body %q)", want, rr.Code, rr.Body.String())
	}
}

func DecodeJSON(t testing.TB, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(dst); err != nil {
		t.Fatalf("decoding JSON response: %v", err)
	}
}
