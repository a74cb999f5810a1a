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

package vidx

import (
	"encoding/xml"
	"fmt"
)

// ParseError reports that a byte buffer did not decode into a well
// formed VIDX/PIDX document.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("vidx: parse %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Parse decodes a VIDX or PIDX document. source is used only to enrich
// error messages (typically the URL the body was fetched from).
func Parse(body []byte, source string) (*Vidx, error) {
	var v Vidx
	if err := xml.Unmarshal(body, &v); err != nil {
		return nil, &ParseError{Source: source, Err: err}
	}
	return &v, nil
}
