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

// deviceBuilder is the transient, mutable scaffolding for a single
// level of the family/subFamily/device/variant hierarchy, or for a
// leaf awaiting finalization. name and processor are Option-valued
// until build freezes them into a Device.
type deviceBuilder struct {
	name       string
	hasName    bool
	algorithms []Algorithm
	memories   map[string]Memory
	processor  processorsBuilder
}

// newDeviceBuilder seeds a builder from a level element's own
// attributes. Dname falls back to Dvariant for the name field.
func newDeviceBuilder(e *element) *deviceBuilder {
	b := &deviceBuilder{memories: make(map[string]Memory)}
	if v, ok := e.attr("Dname"); ok {
		b.name, b.hasName = v, true
	} else if v, ok := e.attr("Dvariant"); ok {
		b.name, b.hasName = v, true
	}
	return b
}

func (b *deviceBuilder) addMemory(name string, m Memory) {
	b.memories[name] = m
}

func (b *deviceBuilder) addAlgorithm(a Algorithm) {
	b.algorithms = append(b.algorithms, a)
}

// addProcessor folds a sibling <processor> element into this level's
// slot, per the intra-level merge rule (spec §4.E "add_processor").
func (b *deviceBuilder) addProcessor(p processorsBuilder) {
	b.processor = addProcessorBuilder(b.processor, p)
}

// build finalizes a leaf builder into an immutable Device.
func (b *deviceBuilder) build() (*Device, error) {
	if !b.hasName {
		return nil, &ParseError{Kind: MissingName, Context: "device"}
	}
	if b.processor == nil {
		return nil, &ParseError{Kind: MissingProcessor, Context: b.name}
	}
	proc, err := finalizeProcessorsBuilder(b.processor, b.name)
	if err != nil {
		return nil, err
	}
	return &Device{
		Name:       b.name,
		Memories:   b.memories,
		Algorithms: append([]Algorithm(nil), b.algorithms...),
		Processor:  proc,
	}, nil
}

// addParent folds parent's level contributions into child, returning
// a new builder per the merge rules: child-wins name, algorithm
// concatenation (parent then child), child-wins memories, and a
// recursive processor merge.
func addParent(child, parent *deviceBuilder) (*deviceBuilder, error) {
	merged := &deviceBuilder{
		name:    child.name,
		hasName: child.hasName,
	}
	if !merged.hasName {
		merged.name, merged.hasName = parent.name, parent.hasName
	}

	merged.algorithms = make([]Algorithm, 0, len(parent.algorithms)+len(child.algorithms))
	merged.algorithms = append(merged.algorithms, parent.algorithms...)
	merged.algorithms = append(merged.algorithms, child.algorithms...)

	merged.memories = make(map[string]Memory, len(child.memories)+len(parent.memories))
	for k, v := range child.memories {
		merged.memories[k] = v
	}
	for k, v := range parent.memories {
		if _, exists := merged.memories[k]; !exists {
			merged.memories[k] = v
		}
	}

	proc, err := mergeProcessorsBuilder(child.processor, parent.processor)
	if err != nil {
		ctx := merged.name
		if ctx == "" {
			ctx = "device"
		}
		return nil, &ParseError{Kind: ProcessorMergeConflict, Context: ctx}
	}
	merged.processor = proc

	return merged, nil
}

var errProcessorMergeConflict = &ParseError{Kind: ProcessorMergeConflict}
