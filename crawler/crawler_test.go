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

package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/comcast/cmsis-crawler/fetch"
	"github.com/comcast/cmsis-crawler/vidx"
)

func parseVidxFixture(xml string) (*vidx.Vidx, error) {
	return vidx.Parse([]byte(xml), "fixture")
}

func Test_FlatmapPdscs_AggregatesRootAndPidxEntries(t *testing.T) {
	pidx := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<index><pdsc_index>
			<pdsc vendor="Acme" name="P2" version="1.0" url="http://x/"/>
			<pdsc vendor="Acme" name="P3" version="1.0" url="http://x/"/>
		</pdsc_index></index>`))
	}))
	defer pidx.Close()

	c := New(fetch.NewClient(nil), nil)

	rootXML := fmt.Sprintf(`<index>
		<vendor_index><pidx url="%s/" vendor="Acme"/></vendor_index>
		<pdsc_index><pdsc vendor="Acme" name="P1" version="1.0" url="http://x/"/></pdsc_index>
	</index>`, pidx.URL)

	v, err := parseVidxFixture(rootXML)
	if err != nil {
		t.Fatalf("fixture parse: %v", err)
	}

	got := map[string]bool{}
	for ref := range c.FlatmapPdscs(context.Background(), v) {
		got[ref.Name] = true
	}

	for _, want := range []string{"P1", "P2", "P3"} {
		if !got[want] {
			t.Fatalf("missing %s in result set %v", want, got)
		}
	}
}

func Test_FlatmapPdscs_DropsFailedPidxSilently(t *testing.T) {
	pidx := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer pidx.Close()

	c := New(fetch.NewClient(nil), nil)

	rootXML := fmt.Sprintf(`<index>
		<vendor_index><pidx url="%s/" vendor="Acme"/></vendor_index>
		<pdsc_index><pdsc vendor="Acme" name="P1" version="1.0" url="http://x/"/></pdsc_index>
	</index>`, pidx.URL)

	v, err := parseVidxFixture(rootXML)
	if err != nil {
		t.Fatalf("fixture parse: %v", err)
	}

	var refs []string
	for ref := range c.FlatmapPdscs(context.Background(), v) {
		refs = append(refs, ref.Name)
	}

	if len(refs) != 1 || refs[0] != "P1" {
		t.Fatalf("expected only P1, got %v", refs)
	}
}

func Test_DownloadVidxList_OneFailureDoesNotAbortTheRest(t *testing.T) {
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<index></index>`))
	}))
	defer ok.Close()

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	c := New(fetch.NewClient(nil), nil)
	results := c.DownloadVidxList(context.Background(), []string{ok.URL, bad.URL})

	var okCount, errCount int
	for r := range results {
		if r.Err != nil {
			errCount++
		} else {
			okCount++
		}
	}

	if okCount != 1 || errCount != 1 {
		t.Fatalf("got okCount=%d errCount=%d, want 1 and 1", okCount, errCount)
	}
}
