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

// Package credentials supplies bearer tokens for the small set of
// vendor VIDX/PIDX endpoints that require authentication. Most
// vendors need none; this is opt-in plumbing for cmd/cmsis-crawler,
// not something the core fetch.Client depends on.
package credentials

import (
	"context"
	"fmt"
	"sync"

	vault "github.com/hashicorp/vault/api"
	"github.com/hashicorp/vault/api/auth/approle"
)

// Parameters names the Vault connection and AppRole credentials.
type Parameters struct {
	Address         string
	ApproleRoleID   string
	ApproleSecretID string
	CACertBytes     []byte
}

// Profile identifies where in Vault a named vendor's bearer token
// lives.
type Profile struct {
	Name       string
	MountPath  string
	Path       string
	TokenField string
}

// Source fetches and caches bearer tokens for named vendor profiles,
// backed by a single Vault AppRole login.
type Source struct {
	mu     sync.RWMutex
	client *vault.Client
	tokens map[string]string
}

// NewSource logs in to Vault using the AppRole authentication method.
func NewSource(ctx context.Context, params Parameters) (*Source, error) {
	cfg := vault.DefaultConfig()
	cfg.Address = params.Address
	if len(params.CACertBytes) > 0 {
		if err := cfg.ConfigureTLS(&vault.TLSConfig{CACertBytes: params.CACertBytes}); err != nil {
			return nil, fmt.Errorf("unable to configure TLS: %w", err)
		}
	}

	client, err := vault.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize vault client: %w", err)
	}

	secretID := &approle.SecretID{FromString: params.ApproleSecretID}
	auth, err := approle.NewAppRoleAuth(params.ApproleRoleID, secretID)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize approle authentication method: %w", err)
	}
	if _, err := client.Auth().Login(ctx, auth); err != nil {
		return nil, fmt.Errorf("unable to login using approle auth method: %w", err)
	}

	return &Source{client: client, tokens: make(map[string]string)}, nil
}

// Token returns profile's bearer token, fetching and caching it from
// Vault's KV store on first use.
func (s *Source) Token(ctx context.Context, profile Profile) (string, error) {
	s.mu.RLock()
	if t, ok := s.tokens[profile.Name]; ok {
		s.mu.RUnlock()
		return t, nil
	}
	s.mu.RUnlock()
	return s.Refresh(ctx, profile)
}

// Refresh re-fetches profile's bearer token from Vault, replacing any
// cached value. Call this after a 401 from the profile's endpoint.
func (s *Source) Refresh(ctx context.Context, profile Profile) (string, error) {
	secretPath := profile.Path
	mount := profile.MountPath
	if mount == "" {
		mount = "kv2"
	}

	var kv *vault.KVSecret
	var err error
	if mount != "kv2" {
		kv, err = s.client.KVv1(mount).Get(ctx, secretPath)
	} else {
		kv, err = s.client.KVv2(mount).Get(ctx, secretPath)
	}
	if err != nil {
		return "", fmt.Errorf("unable to read secret for profile %s: %w", profile.Name, err)
	}

	field := profile.TokenField
	if field == "" {
		field = "token"
	}
	raw, ok := kv.Data[field].(string)
	if !ok {
		return "", fmt.Errorf("secret for profile %s has no string field %q", profile.Name, field)
	}

	s.mu.Lock()
	s.tokens[profile.Name] = raw
	s.mu.Unlock()

	return raw, nil
}
