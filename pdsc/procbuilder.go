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

// procBuilder is a single processor's Option-valued scaffolding.
// Core's zero value (CortexM0) is a real core, so "unset" is tracked
// explicitly with a pointer rather than relying on the zero value.
type procBuilder struct {
	Units uint8
	Core  *Core
	FPU   *FPU
	MPU   *MPU
}

// processorsBuilder is the builder-stage analogue of Processors: a
// symmetricBuilder or an asymmetricBuilder, carrying Option-valued
// processor fields until a leaf's build() resolves and defaults them.
type processorsBuilder interface {
	isProcessorsBuilder()
}

type symmetricBuilder struct {
	proc procBuilder
}

func (symmetricBuilder) isProcessorsBuilder() {}

type asymmetricBuilder struct {
	order  []string
	byName map[string]procBuilder
}

func (asymmetricBuilder) isProcessorsBuilder() {}

func (a *asymmetricBuilder) set(name string, p procBuilder) {
	if a.byName == nil {
		a.byName = make(map[string]procBuilder)
	}
	if _, exists := a.byName[name]; !exists {
		a.order = append(a.order, name)
	}
	a.byName[name] = p
}

// mergeProcBuilderFields implements the field-wise OR: a child-set
// field wins, an unset one is filled from the parent.
func mergeProcBuilderFields(child, parent procBuilder) procBuilder {
	out := child
	if out.Units == 0 {
		out.Units = parent.Units
	}
	if out.Core == nil {
		out.Core = parent.Core
	}
	if out.FPU == nil {
		out.FPU = parent.FPU
	}
	if out.MPU == nil {
		out.MPU = parent.MPU
	}
	return out
}

// mergeProcessorsBuilder implements the 2x2 merge case table: both
// symmetric ORs fields; both asymmetric unions per-pname with
// child-wins; a symmetric/asymmetric mix in either direction is
// fatal; a nil side simply adopts the other.
func mergeProcessorsBuilder(child, parent processorsBuilder) (processorsBuilder, error) {
	if child == nil {
		return parent, nil
	}
	if parent == nil {
		return child, nil
	}

	switch c := child.(type) {
	case symmetricBuilder:
		p, ok := parent.(symmetricBuilder)
		if !ok {
			return nil, errProcessorMergeConflict
		}
		return symmetricBuilder{proc: mergeProcBuilderFields(c.proc, p.proc)}, nil
	case asymmetricBuilder:
		p, ok := parent.(asymmetricBuilder)
		if !ok {
			return nil, errProcessorMergeConflict
		}
		out := asymmetricBuilder{order: append([]string(nil), c.order...), byName: make(map[string]procBuilder, len(c.byName))}
		for name, proc := range c.byName {
			out.byName[name] = proc
		}
		for _, name := range p.order {
			if _, exists := out.byName[name]; !exists {
				out.order = append(out.order, name)
				out.byName[name] = p.byName[name]
			}
		}
		return out, nil
	default:
		return nil, errProcessorMergeConflict
	}
}

// addProcessorBuilder folds a sibling <processor> element into a
// level's existing slot (intra-level merge): empty slot installs
// outright; both-asymmetric extends the map; any other combination
// leaves the first-seen value in place.
func addProcessorBuilder(existing, incoming processorsBuilder) processorsBuilder {
	if existing == nil {
		return incoming
	}
	e, eok := existing.(asymmetricBuilder)
	n, nok := incoming.(asymmetricBuilder)
	if eok && nok {
		for _, name := range n.order {
			e.set(name, n.byName[name])
		}
		return e
	}
	return existing
}

// finalizeProcessorsBuilder resolves a processorsBuilder into an immutable Processors,
// applying defaults (units=1, fpu=None, mpu=NotPresent) and rejecting
// any processor that never resolved a Core.
func finalizeProcessorsBuilder(pb processorsBuilder, deviceName string) (Processors, error) {
	switch v := pb.(type) {
	case symmetricBuilder:
		proc, err := finalizeProcBuilder(v.proc, deviceName)
		if err != nil {
			return nil, err
		}
		return Symmetric{Processor: proc}, nil
	case asymmetricBuilder:
		if len(v.byName) == 0 {
			return nil, &ParseError{Kind: MissingProcessor, Context: deviceName}
		}
		out := Asymmetric{Order: v.order, ByName: make(map[string]Processor, len(v.byName))}
		for name, pb := range v.byName {
			proc, err := finalizeProcBuilder(pb, deviceName+"."+name)
			if err != nil {
				return nil, err
			}
			out.ByName[name] = proc
		}
		return out, nil
	default:
		return nil, &ParseError{Kind: MissingProcessor, Context: deviceName}
	}
}

func finalizeProcBuilder(pb procBuilder, ctx string) (Processor, error) {
	if pb.Core == nil {
		return Processor{}, &ParseError{Kind: MissingCore, Context: ctx}
	}
	p := Processor{Core: *pb.Core, Units: pb.Units}
	if pb.FPU != nil {
		p.FPU = *pb.FPU
	}
	if pb.MPU != nil {
		p.MPU = *pb.MPU
	}
	if p.Units == 0 {
		p.Units = 1
	}
	return p, nil
}
