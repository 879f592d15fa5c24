package skins

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func newTestServer(t *testing.T) (*httptest.Server, *int64) {
	t.Helper()
	var hits int64

	mux := http.NewServeMux()
	mux.HandleFunc("/minecraft/profile/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		name := r.URL.Path[len("/minecraft/profile/"):]
		if name == "nobody" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(Response{Result: &Texture{
			ID:    "uuid-" + name,
			Name:  name,
			Value: "base64-texture",
		}})
	})
	mux.HandleFunc("/head/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		id := r.URL.Path[len("/head/"):]
		json.NewEncoder(w).Encode(Response{Result: &Texture{
			ID:    id,
			Value: "base64-head",
		}})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestResolve(t *testing.T) {
	ctx := context.Background()

	t.Run("PlayerHead", func(t *testing.T) {
		srv, _ := newTestServer(t)
		c := NewClient(&ClientConfig{BaseURL: srv.URL})

		tex, err := c.Resolve(ctx, "HEAD:Notch")
		if err != nil {
			t.Fatalf("Failed to resolve: %v", err)
		}
		if tex == nil || tex.Name != "Notch" || tex.Value != "base64-texture" {
			t.Errorf("Unexpected texture: %+v", tex)
		}
	})

	t.Run("DatabaseHead", func(t *testing.T) {
		srv, _ := newTestServer(t)
		c := NewClient(&ClientConfig{BaseURL: srv.URL})

		for _, id := range []string{"HDB:23866", "CH:23866"} {
			tex, err := c.Resolve(ctx, id)
			if err != nil {
				t.Fatalf("Failed to resolve %s: %v", id, err)
			}
			if tex == nil || tex.Value != "base64-head" {
				t.Errorf("Unexpected texture for %s: %+v", id, tex)
			}
		}
	})

	t.Run("PlainMaterialNoLookup", func(t *testing.T) {
		srv, hits := newTestServer(t)
		c := NewClient(&ClientConfig{BaseURL: srv.URL})

		tex, err := c.Resolve(ctx, "DIAMOND")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if tex != nil {
			t.Errorf("Plain material should resolve to nil, got %+v", tex)
		}
		if *hits != 0 {
			t.Errorf("Plain material must not hit the API, saw %d requests", *hits)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		srv, _ := newTestServer(t)
		c := NewClient(&ClientConfig{BaseURL: srv.URL})

		_, err := c.Resolve(ctx, "HEAD:nobody")
		apiErr, ok := err.(*APIError)
		if !ok || apiErr.Code != ErrNotFound {
			t.Errorf("Expected a not-found APIError, got %v", err)
		}
	})

	t.Run("CachesResults", func(t *testing.T) {
		srv, hits := newTestServer(t)
		c := NewClient(&ClientConfig{BaseURL: srv.URL})

		for i := 0; i < 3; i++ {
			if _, err := c.Resolve(ctx, "HEAD:Notch"); err != nil {
				t.Fatalf("Failed to resolve: %v", err)
			}
		}
		if *hits != 1 {
			t.Errorf("Expected one API hit for repeated lookups, saw %d", *hits)
		}
	})
}

func TestSplitMaterial(t *testing.T) {
	cases := []struct {
		in     string
		prefix string
		arg    string
		ok     bool
	}{
		{"HEAD:Notch", PrefixHead, "Notch", true},
		{"head:Notch", PrefixHead, "Notch", true},
		{"HDB:123", PrefixDatabase, "123", true},
		{"CH:456", PrefixCustom, "456", true},
		{"DIAMOND", "", "", false},
		{"HEAD:", "", "", false},
		{":Notch", "", "", false},
		{"SKULL:abc", "", "", false},
	}
	for _, c := range cases {
		prefix, arg, ok := splitMaterial(c.in)
		if prefix != c.prefix || arg != c.arg || ok != c.ok {
			t.Errorf("splitMaterial(%q) = (%q, %q, %v), expected (%q, %q, %v)",
				c.in, prefix, arg, ok, c.prefix, c.arg, c.ok)
		}
	}
}
