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

import (
	"fmt"
	"strings"
)

// Core is the closed set of ARM core identifiers a PDSC Dcore
// attribute may name.
type Core int

const (
	CortexM0 Core = iota
	CortexM0Plus
	CortexM1
	CortexM3
	CortexM4
	CortexM7
	CortexM23
	CortexM33
	SC000
	SC300
	ARMV8MBL
	ARMV8MML
	CortexR4
	CortexR5
	CortexR7
	CortexR8
	CortexA5
	CortexA7
	CortexA8
	CortexA9
	CortexA15
	CortexA17
	CortexA32
	CortexA35
	CortexA53
	CortexA57
	CortexA72
	CortexA73
)

var coreNames = map[string]Core{
	"Cortex-M0":  CortexM0,
	"Cortex-M0+": CortexM0Plus,
	"Cortex-M1":  CortexM1,
	"Cortex-M3":  CortexM3,
	"Cortex-M4":  CortexM4,
	"Cortex-M7":  CortexM7,
	"Cortex-M23": CortexM23,
	"Cortex-M33": CortexM33,
	"SC000":      SC000,
	"SC300":      SC300,
	"ARMV8MBL":   ARMV8MBL,
	"ARMV8MML":   ARMV8MML,
	"Cortex-R4":  CortexR4,
	"Cortex-R5":  CortexR5,
	"Cortex-R7":  CortexR7,
	"Cortex-R8":  CortexR8,
	"Cortex-A5":  CortexA5,
	"Cortex-A7":  CortexA7,
	"Cortex-A8":  CortexA8,
	"Cortex-A9":  CortexA9,
	"Cortex-A15": CortexA15,
	"Cortex-A17": CortexA17,
	"Cortex-A32": CortexA32,
	"Cortex-A35": CortexA35,
	"Cortex-A53": CortexA53,
	"Cortex-A57": CortexA57,
	"Cortex-A72": CortexA72,
	"Cortex-A73": CortexA73,
}

var coreStrings = func() map[Core]string {
	m := make(map[Core]string, len(coreNames))
	for s, c := range coreNames {
		m[c] = s
	}
	return m
}()

func parseCore(s string) (Core, error) {
	c, ok := coreNames[s]
	if !ok {
		return 0, fmt.Errorf("unknown core %q", s)
	}
	return c, nil
}

func (c Core) String() string {
	return coreStrings[c]
}

// FPU is the floating point unit a processor may carry.
type FPU int

const (
	FPUNone FPU = iota
	FPUSinglePrecision
	FPUDoublePrecision
)

// parseFPU accepts both the named Dfpu spellings and the numeric
// legacy spellings real-world packs still ship.
func parseFPU(s string) (FPU, error) {
	switch s {
	case "NO_FPU", "0":
		return FPUNone, nil
	case "SP_FPU", "1":
		return FPUSinglePrecision, nil
	case "DP_FPU", "2":
		return FPUDoublePrecision, nil
	default:
		return 0, fmt.Errorf("unknown fpu %q", s)
	}
}

// MPU is whether a processor has a memory protection unit.
type MPU int

const (
	MPUNotPresent MPU = iota
	MPUPresent
)

func parseMPU(s string) (MPU, error) {
	switch s {
	case "NO_MPU":
		return MPUNotPresent, nil
	case "MPU":
		return MPUPresent, nil
	default:
		return 0, fmt.Errorf("unknown mpu %q", s)
	}
}

// MemoryPermissions is the access bag a memory region grants, parsed
// from the character set r w x p s n c.
type MemoryPermissions struct {
	Read              bool `json:"read"`
	Write             bool `json:"write"`
	Execute           bool `json:"execute"`
	Peripheral        bool `json:"peripheral"`
	Secure            bool `json:"secure"`
	NonSecure         bool `json:"non_secure"`
	NonSecureCallable bool `json:"non_secure_callable"`
}

// parseAccessBag parses the access attribute's character bag;
// unrecognized characters are ignored.
func parseAccessBag(s string) MemoryPermissions {
	var p MemoryPermissions
	for _, c := range s {
		switch c {
		case 'r':
			p.Read = true
		case 'w':
			p.Write = true
		case 'x':
			p.Execute = true
		case 'p':
			p.Peripheral = true
		case 's':
			p.Secure = true
		case 'n':
			p.NonSecure = true
		case 'c':
			p.NonSecureCallable = true
		}
	}
	return p
}

// accessFromID infers default permissions from a region id when no
// explicit access attribute is present.
func accessFromID(id string) MemoryPermissions {
	switch {
	case strings.Contains(id, "ROM"):
		return parseAccessBag("rx")
	case strings.Contains(id, "RAM"):
		return parseAccessBag("rw")
	default:
		return MemoryPermissions{}
	}
}

// Memory is a single named memory region.
type Memory struct {
	Access  MemoryPermissions `json:"access"`
	Start   uint64            `json:"start"`
	Size    uint64            `json:"size"`
	Startup bool              `json:"startup"`
	Default bool              `json:"default"`
}

// Algorithm is a flash programming algorithm reference. RAMStart and
// RAMSize are nil when the PDSC entry omits RAMstart/RAMsize.
type Algorithm struct {
	FileName string  `json:"file_name"`
	Start    uint64  `json:"start"`
	Size     uint64  `json:"size"`
	Default  bool    `json:"default"`
	RAMStart *uint64 `json:"ram_start,omitempty"`
	RAMSize  *uint64 `json:"ram_size,omitempty"`
}

// Processor is a single core descriptor.
type Processor struct {
	Units uint8 `json:"units"`
	Core  Core  `json:"core"`
	FPU   FPU   `json:"fpu"`
	MPU   MPU   `json:"mpu"`
}

// Processors is the tagged union of a device's core configuration: a
// single Processor for symmetric devices, or an ordered, pname-keyed
// set for asymmetric multi-core devices. It is implemented as an
// interface with two concrete types rather than a shared struct so
// that mixing the two kinds is a compile-time impossibility anywhere
// but the merge functions that must police it explicitly.
type Processors interface {
	isProcessors()
}

// Symmetric is a single-core device's Processors value.
type Symmetric struct {
	Processor Processor
}

func (Symmetric) isProcessors() {}

// Asymmetric is a heterogeneous multi-core device's Processors value.
// Order lists the Pname keys: those declared at one level keep their
// document order, and keys inherited from an enclosing level follow
// the inheriting level's own keys.
type Asymmetric struct {
	Order  []string
	ByName map[string]Processor
}

func (Asymmetric) isProcessors() {}

// Device is a fully materialized, immutable device record.
type Device struct {
	Name       string            `json:"name"`
	Memories   map[string]Memory `json:"memories"`
	Algorithms []Algorithm       `json:"algorithms"`
	Processor  Processors        `json:"processor"`
}
