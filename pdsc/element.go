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

// Package pdsc parses a PDSC device subtree into a normalized catalog
// of devices, each fully inheriting memory regions, flash algorithms
// and processor descriptors from its family/subFamily/device/variant
// ancestry.
package pdsc

import "encoding/xml"

// element is a generic, order-preserving XML tree node. PDSC's device
// subtree mixes tags the parser dispatches on (memory, algorithm,
// processor, subFamily, device, variant) with tags it ignores, so a
// generic tree is walked instead of tag-specific structs.
type element struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Nodes   []element  `xml:",any"`
}

// attr returns the named attribute's value and whether it was present.
func (e *element) attr(key string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name.Local == key {
			return a.Value, true
		}
	}
	return "", false
}

// children returns the immediate child elements with the given tag
// name, in document order.
func (e *element) children(tag string) []*element {
	var out []*element
	for i := range e.Nodes {
		if e.Nodes[i].XMLName.Local == tag {
			out = append(out, &e.Nodes[i])
		}
	}
	return out
}
