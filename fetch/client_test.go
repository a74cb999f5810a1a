/*
 * Copyright 2024 Comcast Cable Communications Management, LLC
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func Test_Fetch_FollowsRedirectChain(t *testing.T) {
	final := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<index schemaVersion="1.0"></index>`))
	}))
	defer final.Close()

	hop := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, final.URL+"/index.vidx", http.StatusFound)
	}))
	defer hop.Close()

	c := NewClient(nil)
	body, err := c.Fetch(context.Background(), hop.URL+"/root.vidx")
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if !strings.Contains(string(body), "<index") {
		t.Fatalf("unexpected body: %s", body)
	}
}

func Test_Fetch_RelativeLocationResolvedAgainstRequestURI(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/a/root.vidx", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "../b/final.vidx", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/b/final.vidx", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(nil)
	body, err := c.Fetch(context.Background(), srv.URL+"/a/root.vidx")
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if string(body) != "ok" {
		t.Fatalf("unexpected body: %s", body)
	}
}

func Test_Fetch_NonRedirectErrorStatusIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(nil)
	_, err := c.Fetch(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("expected an error")
	}
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected *TransportError, got %T: %v", err, err)
	}
}

func Test_Fetch_RedirectLoopExceedsMaxRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/loop", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/loop", http.StatusFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(nil)
	_, err := c.Fetch(context.Background(), srv.URL+"/loop")
	if err == nil {
		t.Fatal("expected redirect chain to fail")
	}
	if !strings.Contains(err.Error(), "redirect chain exceeded") {
		t.Fatalf("unexpected error: %v", err)
	}
}
