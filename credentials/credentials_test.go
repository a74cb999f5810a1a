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

package credentials

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_NewSource_BadCACertBytes(t *testing.T) {
	assert := assert.New(t)

	_, err := NewSource(context.Background(), Parameters{
		Address:     "https://vault.example.invalid",
		CACertBytes: []byte("not a pem cert"),
	})

	assert.Error(err)
}

// fakeVault emulates just enough of Vault's HTTP API for NewSource's
// AppRole login and Source.Refresh's KVv2 read to succeed.
func fakeVault(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/auth/approle/login", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"auth": map[string]interface{}{
				"client_token":  "s.faketoken",
				"lease_duration": 3600,
				"renewable":     false,
			},
		})
	})
	mux.HandleFunc("/v1/kv2/data/vendors/acme", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{
				"data": map[string]interface{}{
					"token": "acme-bearer-token",
				},
				"metadata": map[string]interface{}{
					"version": 1,
				},
			},
		})
	})
	return httptest.NewServer(mux)
}

func Test_Source_Token_FetchesAndCaches(t *testing.T) {
	assert := assert.New(t)
	srv := fakeVault(t)
	defer srv.Close()

	src, err := NewSource(context.Background(), Parameters{
		Address:         srv.URL,
		ApproleRoleID:   "role",
		ApproleSecretID: "secret",
	})
	assert.NoError(err)

	profile := Profile{Name: "acme", MountPath: "kv2", Path: "vendors/acme"}

	tok, err := src.Token(context.Background(), profile)
	assert.NoError(err)
	assert.Equal("acme-bearer-token", tok)

	src.mu.RLock()
	_, cached := src.tokens["acme"]
	src.mu.RUnlock()
	assert.True(cached)
}

func Test_Source_Refresh_ReplacesCachedToken(t *testing.T) {
	assert := assert.New(t)
	srv := fakeVault(t)
	defer srv.Close()

	src, err := NewSource(context.Background(), Parameters{
		Address:         srv.URL,
		ApproleRoleID:   "role",
		ApproleSecretID: "secret",
	})
	assert.NoError(err)

	profile := Profile{Name: "acme", MountPath: "kv2", Path: "vendors/acme"}

	src.mu.Lock()
	src.tokens["acme"] = "stale-token"
	src.mu.Unlock()

	tok, err := src.Refresh(context.Background(), profile)
	assert.NoError(err)
	assert.Equal("acme-bearer-token", tok)
}
