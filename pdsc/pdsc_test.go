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
	"testing"

	"github.com/stretchr/testify/assert"
)

func parseDevicesXML(t *testing.T, xmlDevices string) map[string]*Device {
	t.Helper()
	body := `<package><devices>` + xmlDevices + `</devices></package>`
	devs, err := ParsePackage([]byte(body), "test", nil)
	if err != nil {
		t.Fatalf("ParsePackage: %v", err)
	}
	return devs
}

func Test_SubFamily_Inheritance_Idempotence(t *testing.T) {
	assert := assert.New(t)

	withSubFamily := parseDevicesXML(t, `
		<family Dfamily="F1">
			<processor Dcore="Cortex-M4"/>
			<subFamily DsubFamily="SF1">
				<device Dname="Dev1"/>
			</subFamily>
		</family>`)

	direct := parseDevicesXML(t, `
		<family Dfamily="F1">
			<processor Dcore="Cortex-M4"/>
			<device Dname="Dev1"/>
		</family>`)

	assert.Equal(direct["Dev1"], withSubFamily["Dev1"])
}

func Test_Memory_ChildWins(t *testing.T) {
	assert := assert.New(t)

	devs := parseDevicesXML(t, `
		<family Dfamily="F1">
			<processor Dcore="Cortex-M4"/>
			<memory id="IRAM1" start="0x20000000" size="0x10000"/>
			<device Dname="Dev1">
				<memory id="IRAM1" start="0x20000000" size="0x20000"/>
			</device>
		</family>`)

	dev, ok := devs["Dev1"]
	if !assert.True(ok) {
		return
	}
	assert.EqualValues(0x20000, dev.Memories["IRAM1"].Size)
}

func Test_Algorithm_Concatenation(t *testing.T) {
	assert := assert.New(t)

	devs := parseDevicesXML(t, `
		<family Dfamily="F1">
			<processor Dcore="Cortex-M4"/>
			<algorithm name="A" start="0x0" size="0x100"/>
			<algorithm name="B" start="0x100" size="0x100"/>
			<device Dname="Dev1">
				<algorithm name="C" start="0x200" size="0x100"/>
			</device>
		</family>`)

	dev := devs["Dev1"]
	names := make([]string, len(dev.Algorithms))
	for i, a := range dev.Algorithms {
		names[i] = a.FileName
	}
	assert.Equal([]string{"A", "B", "C"}, names)
}

func Test_Processor_Merge_Symmetric_Asymmetric_Conflict(t *testing.T) {
	assert := assert.New(t)

	devs := parseDevicesXML(t, `
		<family Dfamily="F1">
			<processor Dcore="Cortex-M4"/>
			<device Dname="Dev1">
				<processor Pname="cm0" Dcore="Cortex-M0"/>
			</device>
		</family>`)

	_, ok := devs["Dev1"]
	assert.False(ok)
}

func Test_Processor_Symmetric_Inheritance(t *testing.T) {
	assert := assert.New(t)

	devs := parseDevicesXML(t, `
		<family Dfamily="F1">
			<processor Dcore="Cortex-M4" Dfpu="SP_FPU"/>
			<device Dname="Dev1">
				<processor Dmpu="MPU"/>
			</device>
		</family>`)

	dev := devs["Dev1"]
	sym, ok := dev.Processor.(Symmetric)
	if !assert.True(ok) {
		return
	}
	assert.Equal(CortexM4, sym.Processor.Core)
	assert.Equal(FPUSinglePrecision, sym.Processor.FPU)
	assert.Equal(MPUPresent, sym.Processor.MPU)
	assert.EqualValues(1, sym.Processor.Units)
}

func Test_Processor_Asymmetric_Union(t *testing.T) {
	assert := assert.New(t)

	devs := parseDevicesXML(t, `
		<family Dfamily="F1">
			<processor Pname="cm0" Dcore="Cortex-M0"/>
			<device Dname="Dev1">
				<processor Pname="cm4" Dcore="Cortex-M4"/>
			</device>
		</family>`)

	dev := devs["Dev1"]
	asym, ok := dev.Processor.(Asymmetric)
	if !assert.True(ok) {
		return
	}
	assert.Equal(CortexM0, asym.ByName["cm0"].Core)
	assert.Equal(CortexM4, asym.ByName["cm4"].Core)
}

func Test_MissingCore_RejectsDevice(t *testing.T) {
	assert := assert.New(t)

	devs := parseDevicesXML(t, `
		<family Dfamily="F1">
			<device Dname="Dev1">
				<processor Dfpu="1"/>
			</device>
		</family>`)

	_, ok := devs["Dev1"]
	assert.False(ok)
}

func Test_AccessBag_Parses_AllSevenFlags(t *testing.T) {
	assert := assert.New(t)

	p := parseAccessBag("rwxpsn")
	assert.True(p.Read)
	assert.True(p.Write)
	assert.True(p.Execute)
	assert.True(p.Peripheral)
	assert.True(p.Secure)
	assert.True(p.NonSecure)
	assert.False(p.NonSecureCallable)
}

func Test_AccessInference_FromRegionID(t *testing.T) {
	assert := assert.New(t)

	devs := parseDevicesXML(t, `
		<family Dfamily="F1">
			<processor Dcore="Cortex-M4"/>
			<device Dname="Dev1">
				<memory id="IRAM1" start="0x20000000" size="0x1000"/>
				<memory id="IROM1" start="0x08000000" size="0x1000"/>
			</device>
		</family>`)

	dev := devs["Dev1"]
	assert.Equal(MemoryPermissions{Read: true, Write: true}, dev.Memories["IRAM1"].Access)
	assert.Equal(MemoryPermissions{Read: true, Execute: true}, dev.Memories["IROM1"].Access)
}

func Test_DuplicateDeviceName_LastFamilyWins(t *testing.T) {
	assert := assert.New(t)

	devs := parseDevicesXML(t, `
		<family Dfamily="F1">
			<processor Dcore="Cortex-M0"/>
			<device Dname="Dup"/>
		</family>
		<family Dfamily="F2">
			<processor Dcore="Cortex-M4"/>
			<device Dname="Dup"/>
		</family>`)

	dev := devs["Dup"]
	sym := dev.Processor.(Symmetric)
	assert.Equal(CortexM4, sym.Processor.Core)
}
