/*
 * Copyright 2023 Comcast Cable Communications Management, LLC
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

// Package vidx holds the value objects carried by the CMSIS pack-index
// crawl pipeline: vendor index (VIDX) and pack index (PIDX) documents,
// and the PDSC references they enumerate.
package vidx

import "encoding/xml"

// Pidx is a reference to a vendor's own pack index document. Its
// effective location is Url+Vendor+".pidx".
type Pidx struct {
	XMLName xml.Name `xml:"pidx"`
	URL     string   `xml:"url,attr"`
	Vendor  string   `xml:"vendor,attr"`
}

// URI returns the resolved location of the PIDX document this Pidx
// refers to.
func (p Pidx) URI() string {
	return p.URL + p.Vendor + ".pidx"
}

// PdscRef identifies a single PDSC archive advertised by a VIDX or PIDX
// document.
type PdscRef struct {
	XMLName xml.Name `xml:"pdsc"`
	Vendor  string   `xml:"vendor,attr"`
	Name    string   `xml:"name,attr"`
	Version string   `xml:"version,attr"`
	URL     string   `xml:"url,attr"`
}

// Vidx is the parsed form of a VIDX or PIDX document: both share the
// same <index> root shape, a PIDX simply never populates VendorIndex.
type Vidx struct {
	XMLName xml.Name `xml:"index"`

	VendorIndex struct {
		Pidx []Pidx `xml:"pidx"`
	} `xml:"vendor_index"`

	PdscIndex struct {
		Pdsc []PdscRef `xml:"pdsc"`
	} `xml:"pdsc_index"`
}
