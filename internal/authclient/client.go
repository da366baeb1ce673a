// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package authclient wraps an http.Client for consumers of the identity API.
// A request stage injects the current bearer token, a response stage discards
// it on any 401, so a rejected token is never retried unmodified. The two
// stages are composed into the transport instead of living in global state.
package authclient

import (
	"net/http"
	"sync"
)

// TokenStore holds the client's current bearer token. Discard must make the
// token unavailable to subsequent requests.
type TokenStore interface {
	Token() string
	Discard()
}

// Transport is an http.RoundTripper that attaches the stored token to every
// outgoing request and discards it when the server answers 401.
type Transport struct {
	Base  http.RoundTripper
	Store TokenStore
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	if token := t.Store.Token(); token != "" && req.Header.Get("Authorization") == "" {
		// RoundTrippers must not mutate the caller's request
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		t.Store.Discard()
	}
	return resp, nil
}

// New returns an http.Client whose transport injects and discards tokens
// through the given store.
func New(store TokenStore, base http.RoundTripper) *http.Client {
	return &http.Client{Transport: &Transport{Base: base, Store: store}}
}

// MemoryStore is a concurrency-safe in-process TokenStore.
type MemoryStore struct {
	mu    sync.Mutex
	token string
}

// Set replaces the stored token, typically after login or verification.
func (s *MemoryStore) Set(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// Token returns the current token, or "" if none is held.
func (s *MemoryStore) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Discard drops the stored token.
func (s *MemoryStore) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
}
