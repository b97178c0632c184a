package source

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

type product struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func TestNewHTTPValidation(t *testing.T) {
	if _, err := NewHTTP[product](Config{Resource: "products"}); err == nil {
		t.Fatal("expected error without base URL")
	}
	if _, err := NewHTTP[product](Config{BaseURL: "http://localhost"}); err == nil {
		t.Fatal("expected error without resource")
	}
	if _, err := NewHTTP[product](Config{BaseURL: "://bad", Resource: "products"}); err == nil {
		t.Fatal("expected error for unparsable base URL")
	}
}

func TestFetchByID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/products/42" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer s3cr3t" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("Accept = %q", got)
		}
		_ = json.NewEncoder(w).Encode(product{ID: "42", Name: "notebook"})
	}))
	defer srv.Close()

	h, err := NewHTTP[product](Config{BaseURL: srv.URL + "/api", Resource: "products", Token: "s3cr3t"})
	if err != nil {
		t.Fatalf("NewHTTP: %v", err)
	}

	got, ok, err := h.FetchByID(context.Background(), "42")
	if err != nil || !ok {
		t.Fatalf("FetchByID: ok=%v err=%v", ok, err)
	}
	if got.Name != "notebook" {
		t.Fatalf("got %+v", got)
	}
}

func TestFetchByIDNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.NotFound(w, nil)
	}))
	defer srv.Close()

	h, err := NewHTTP[product](Config{BaseURL: srv.URL, Resource: "products"})
	if err != nil {
		t.Fatalf("NewHTTP: %v", err)
	}

	// 404 is an authoritative "does not exist", not an error
	_, ok, err := h.FetchByID(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("FetchByID: %v", err)
	}
	if ok {
		t.Fatal("expected not found")
	}
}

func TestFetchByIDServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	h, err := NewHTTP[product](Config{BaseURL: srv.URL, Resource: "products"})
	if err != nil {
		t.Fatalf("NewHTTP: %v", err)
	}

	_, ok, err := h.FetchByID(context.Background(), "42")
	if err == nil {
		t.Fatal("expected error for 500 answer")
	}
	if ok {
		t.Fatal("ok must be false on error")
	}
}

func TestFetchByIDNoToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "" {
			t.Errorf("Authorization set without token: %q", got)
		}
		_ = json.NewEncoder(w).Encode(product{ID: "1"})
	}))
	defer srv.Close()

	h, err := NewHTTP[product](Config{BaseURL: srv.URL, Resource: "products"})
	if err != nil {
		t.Fatalf("NewHTTP: %v", err)
	}
	if _, ok, err := h.FetchByID(context.Background(), "1"); err != nil || !ok {
		t.Fatalf("FetchByID: ok=%v err=%v", ok, err)
	}
}

func TestFetchByIDDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("{not json"))
	}))
	defer srv.Close()

	h, err := NewHTTP[product](Config{BaseURL: srv.URL, Resource: "products"})
	if err != nil {
		t.Fatalf("NewHTTP: %v", err)
	}
	if _, _, err := h.FetchByID(context.Background(), "1"); err == nil {
		t.Fatal("expected decode error")
	}
}
