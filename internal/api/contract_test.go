package api

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
)

// loadContract loads docs/api/openapi.yaml and routes it at baseURL.
func loadContract(t *testing.T, baseURL string) routers.Router {
	t.Helper()

	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile(filepath.Join("..", "..", "docs", "api", "openapi.yaml"))
	if err != nil {
		t.Fatalf("load openapi document: %v", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		t.Fatalf("openapi document invalid: %v", err)
	}

	doc.Servers = openapi3.Servers{{URL: baseURL}}
	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		t.Fatalf("build router: %v", err)
	}
	return router
}

func TestContract(t *testing.T) {
	srv := httptest.NewServer(newTestRouter(t))
	defer srv.Close()

	contract := loadContract(t, srv.URL)

	check := func(t *testing.T, req *http.Request, wantStatus int) []byte {
		t.Helper()

		resp, err := srv.Client().Do(req)
		if err != nil {
			t.Fatalf("do: %v", err)
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		if resp.StatusCode != wantStatus {
			t.Fatalf("%s %s: expected %d, got %d: %s", req.Method, req.URL.Path, wantStatus, resp.StatusCode, body)
		}

		route, params, err := contract.FindRoute(req)
		if err != nil {
			t.Fatalf("route %s %s not documented: %v", req.Method, req.URL.Path, err)
		}
		input := &openapi3filter.ResponseValidationInput{
			RequestValidationInput: &openapi3filter.RequestValidationInput{
				Request:    req,
				PathParams: params,
				Route:      route,
			},
			Status: resp.StatusCode,
			Header: resp.Header,
			Body:   io.NopCloser(bytes.NewReader(body)),
		}
		if err := openapi3filter.ValidateResponse(context.Background(), input); err != nil {
			t.Errorf("%s %s: response does not match contract: %v", req.Method, req.URL.Path, err)
		}
		return body
	}

	newJSON := func(method, path, body string) *http.Request {
		req, _ := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		return req
	}
	newGet := func(method, path string) *http.Request {
		req, _ := http.NewRequest(method, srv.URL+path, nil)
		return req
	}

	check(t, newGet(http.MethodGet, "/health"), http.StatusOK)
	check(t, newGet(http.MethodGet, "/api/users"), http.StatusOK)
	check(t, newJSON(http.MethodPost, "/api/users", `{"name":"Jane Doe","email":"jane@x.com"}`), http.StatusCreated)
	check(t, newJSON(http.MethodPost, "/api/users", `{"name":"Jane Doe","email":"jane@x.com"}`), http.StatusConflict)
	check(t, newGet(http.MethodGet, "/api/users"), http.StatusOK)
	check(t, newGet(http.MethodGet, "/api/users/1"), http.StatusOK)
	check(t, newGet(http.MethodGet, "/api/users/42"), http.StatusNotFound)
	check(t, newJSON(http.MethodPut, "/api/users/1", `{"name":"Jane Roe","email":"jane@x.com"}`), http.StatusOK)
	check(t, newJSON(http.MethodPut, "/api/users/42", `{"name":"Nobody","email":"nobody@x.com"}`), http.StatusNotFound)
	check(t, newGet(http.MethodGet, "/api/users/stats/growth"), http.StatusOK)
	check(t, newGet(http.MethodDelete, "/api/users/1"), http.StatusOK)
	check(t, newGet(http.MethodDelete, "/api/users/1"), http.StatusOK)
}
