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

package pdsc

import "encoding/xml"

// Logger is the structured-logging capability this package needs: a
// warning sink for the entries the parser downgrades rather than
// fails on. *zap.SugaredLogger satisfies this directly.
type Logger interface {
	Warnw(msg string, keysAndValues ...interface{})
}

type nopLogger struct{}

func (nopLogger) Warnw(string, ...interface{}) {}

func warn(l Logger) Logger {
	if l == nil {
		return nopLogger{}
	}
	return l
}

// ParsePackage parses a full PDSC document's <devices> subtree into a
// catalog of devices keyed by name. body is the raw PDSC XML; source
// is used only as the context of the error returned for malformed XML.
func ParsePackage(body []byte, source string, logger Logger) (map[string]*Device, error) {
	var pkg element
	if err := xml.Unmarshal(body, &pkg); err != nil {
		return nil, &ParseError{Kind: Xml, Context: source, Err: err}
	}
	devicesEl := firstChild(&pkg, "devices")
	if devicesEl == nil {
		return map[string]*Device{}, nil
	}
	return parseDevicesElement(devicesEl, warn(logger))
}

func firstChild(e *element, tag string) *element {
	children := e.children(tag)
	if len(children) == 0 {
		return nil
	}
	return children[0]
}

// parseDevicesElement is the catalog assembler (component F):
// Devices::from_element. It walks top-level <family> children,
// parsing each into the devices it directly or transitively
// contributes, and folds them into one name-keyed mapping. Later
// families replace earlier entries on a name collision (last-write
// wins, reflecting document order), per the Open Question resolution
// recorded in DESIGN.md. The first family-level error aborts the
// whole assembly.
func parseDevicesElement(e *element, l Logger) (map[string]*Device, error) {
	out := make(map[string]*Device)
	for _, family := range e.children("family") {
		devs, err := parseFamily(family, l)
		if err != nil {
			return nil, err
		}
		for _, d := range devs {
			if _, exists := out[d.Name]; exists {
				l.Warnw("duplicate device name across families, replacing", "device", d.Name)
			}
			out[d.Name] = d
		}
	}
	return out, nil
}

// parseFamily runs the three-pass level walk at the family level and
// finalizes every resulting leaf builder into a Device.
func parseFamily(e *element, l Logger) ([]*Device, error) {
	familyBuilder := newDeviceBuilder(e)
	childBuilders := walkLevelChildren(e, familyBuilder, l, func(child *element) []*deviceBuilder {
		switch child.XMLName.Local {
		case "subFamily":
			return parseSubFamily(child, l)
		case "device":
			return parseDevice(child, l)
		default:
			return nil
		}
	})

	devices := make([]*Device, 0, len(childBuilders))
	for _, b := range childBuilders {
		merged, err := addParent(b, familyBuilder)
		if err != nil {
			l.Warnw("dropping device", "error", err)
			continue
		}
		dev, err := merged.build()
		if err != nil {
			l.Warnw("dropping device", "error", err)
			continue
		}
		devices = append(devices, dev)
	}
	return devices, nil
}

// parseSubFamily runs the three-pass level walk at the subFamily
// level, folding its own contributions into every device builder its
// <device> children produce.
func parseSubFamily(e *element, l Logger) []*deviceBuilder {
	subFamilyBuilder := newDeviceBuilder(e)
	childBuilders := walkLevelChildren(e, subFamilyBuilder, l, func(child *element) []*deviceBuilder {
		if child.XMLName.Local == "device" {
			return parseDevice(child, l)
		}
		return nil
	})

	merged := make([]*deviceBuilder, 0, len(childBuilders))
	for _, b := range childBuilders {
		m, err := addParent(b, subFamilyBuilder)
		if err != nil {
			l.Warnw("dropping device", "error", err)
			continue
		}
		merged = append(merged, m)
	}
	return merged
}

// parseDevice runs the three-pass level walk at the device level. A
// device with no <variant> children is itself the single leaf;
// otherwise each variant is a leaf inheriting the device's
// contributions.
func parseDevice(e *element, l Logger) []*deviceBuilder {
	level := newDeviceBuilder(e)
	variants := walkLevelChildren(e, level, l, func(child *element) []*deviceBuilder {
		if child.XMLName.Local == "variant" {
			return []*deviceBuilder{newDeviceBuilder(child)}
		}
		return nil
	})

	if len(variants) == 0 {
		return []*deviceBuilder{level}
	}

	out := make([]*deviceBuilder, 0, len(variants))
	for _, v := range variants {
		merged, err := addParent(v, level)
		if err != nil {
			l.Warnw("dropping variant", "error", err)
			continue
		}
		out = append(out, merged)
	}
	return out
}

// walkLevelChildren implements pass 2 of the three-pass per-level
// walk shared by parseFamily/parseSubFamily/parseDevice: memory,
// algorithm and processor children are folded into level, and
// recurseInto dispatches subFamily/device/variant children into
// their own child builders. A parse error on a single memory,
// algorithm or processor child is logged and the child is skipped; it
// never aborts the level.
func walkLevelChildren(e *element, level *deviceBuilder, l Logger, recurseInto func(*element) []*deviceBuilder) []*deviceBuilder {
	var children []*deviceBuilder
	for i := range e.Nodes {
		child := &e.Nodes[i]
		switch child.XMLName.Local {
		case "memory":
			name, mem, err := parseMemElem(child)
			if err != nil {
				l.Warnw("skipping memory", "error", err)
				continue
			}
			level.addMemory(name, mem)
		case "algorithm":
			alg, err := parseAlgorithm(child)
			if err != nil {
				l.Warnw("skipping algorithm", "error", err)
				continue
			}
			level.addAlgorithm(alg)
		case "processor":
			proc, err := parseProcessorsBuilder(child)
			if err != nil {
				l.Warnw("skipping processor", "error", err)
				continue
			}
			level.addProcessor(proc)
		default:
			if more := recurseInto(child); more != nil {
				children = append(children, more...)
			}
		}
	}
	return children
}

// parseMemElem parses a <memory> element into its region name and
// Memory value. The id attribute (falling back to name) supplies the
// region name. When access is absent, permissions are inferred from
// id only; a region identified by name alone gets no permissions.
func parseMemElem(e *element) (string, Memory, error) {
	id, hasID := e.attr("id")
	name, hasName := e.attr("name")
	var regionName string
	switch {
	case hasID:
		regionName = id
	case hasName:
		regionName = name
	default:
		return "", Memory{}, missingAttrErr("memory", "id")
	}

	var access MemoryPermissions
	if raw, ok := e.attr("access"); ok {
		access = parseAccessBag(raw)
	} else if hasID {
		access = accessFromID(id)
	}

	start, err := attrParseHex(e, "start", "memory")
	if err != nil {
		return "", Memory{}, err
	}
	size, err := attrParseHex(e, "size", "memory")
	if err != nil {
		return "", Memory{}, err
	}
	startup := attrParseDefault(e, "startup", "memory", parseNumberBool)
	deflt := attrParseDefault(e, "default", "memory", parseNumberBool)

	return regionName, Memory{
		Access:  access,
		Start:   start,
		Size:    size,
		Startup: startup,
		Default: deflt,
	}, nil
}

// parseAlgorithm parses an <algorithm> element.
func parseAlgorithm(e *element) (Algorithm, error) {
	name, err := attrMap(e, "name", "algorithm")
	if err != nil {
		return Algorithm{}, err
	}
	start, err := attrParseHex(e, "start", "algorithm")
	if err != nil {
		return Algorithm{}, err
	}
	size, err := attrParseHex(e, "size", "algorithm")
	if err != nil {
		return Algorithm{}, err
	}
	deflt := attrParseDefault(e, "default", "algorithm", parseNumberBool)

	alg := Algorithm{FileName: name, Start: start, Size: size, Default: deflt}
	if _, ok := e.attr("RAMstart"); ok {
		if n, err := attrParseHex(e, "RAMstart", "algorithm"); err == nil {
			alg.RAMStart = &n
		}
	}
	if _, ok := e.attr("RAMsize"); ok {
		if n, err := attrParseHex(e, "RAMsize", "algorithm"); err == nil {
			alg.RAMSize = &n
		}
	}
	return alg, nil
}

// parseProcessorsBuilder parses a <processor> element into a
// processorsBuilder: a Pname attribute makes it an asymmetric
// single-entry slot, its absence a symmetric one.
func parseProcessorsBuilder(e *element) (processorsBuilder, error) {
	proc, err := parseProcBuilder(e)
	if err != nil {
		return nil, err
	}
	if name, ok := e.attr("Pname"); ok {
		return asymmetricBuilder{order: []string{name}, byName: map[string]procBuilder{name: proc}}, nil
	}
	return symmetricBuilder{proc: proc}, nil
}

func parseProcBuilder(e *element) (procBuilder, error) {
	var pb procBuilder
	if c, err := attrParse(e, "Dcore", "processor", parseCore); err == nil {
		pb.Core = &c
	} else if pe, ok := err.(*ParseError); !ok || pe.Kind != MissingAttr {
		return procBuilder{}, err
	}
	if f, err := attrParse(e, "Dfpu", "processor", parseFPU); err == nil {
		pb.FPU = &f
	}
	if m, err := attrParse(e, "Dmpu", "processor", parseMPU); err == nil {
		pb.MPU = &m
	}
	if v, ok := e.attr("Punits"); ok {
		if n, err := parseUnits(v); err == nil {
			pb.Units = n
		}
	}
	return pb, nil
}
