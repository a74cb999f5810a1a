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

import "strconv"

// parseUnits parses the Punits attribute (a small processor count,
// not a hex field).
func parseUnits(s string) (uint8, error) {
	n, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, err
	}
	return uint8(n), nil
}

// attrMap extracts a raw string attribute, failing if absent.
func attrMap(e *element, key, ctx string) (string, error) {
	v, ok := e.attr(key)
	if !ok {
		return "", missingAttrErr(ctx, key)
	}
	return v, nil
}

// fromString is implemented by every enum this package parses from an
// attribute value (Core, FPU, MPU).
type fromString[T any] func(string) (T, error)

// attrParse extracts and parses a typed attribute, failing on either
// absence or a parse error.
func attrParse[T any](e *element, key, ctx string, parse fromString[T]) (T, error) {
	var zero T
	v, ok := e.attr(key)
	if !ok {
		return zero, missingAttrErr(ctx, key)
	}
	t, err := parse(v)
	if err != nil {
		return zero, invalidAttrErr(ctx, key, v, err)
	}
	return t, nil
}

// attrParseHex extracts an unsigned integer attribute, accepting an
// optional "0x"/"0X" prefix.
func attrParseHex(e *element, key, ctx string) (uint64, error) {
	v, ok := e.attr(key)
	if !ok {
		return 0, missingAttrErr(ctx, key)
	}
	s := v
	if len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	n, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, invalidAttrErr(ctx, key, v, err)
	}
	return n, nil
}

// attrParseDefault extracts and parses a typed attribute, returning
// T's zero value on either absence or a parse error rather than
// failing. Used for attributes whose real-world PDSC files frequently
// omit or botch (startup, default).
func attrParseDefault[T any](e *element, key, ctx string, parse fromString[T]) T {
	var zero T
	v, ok := e.attr(key)
	if !ok {
		return zero
	}
	t, err := parse(v)
	if err != nil {
		return zero
	}
	return t
}

// parseNumberBool implements the NumberBool enum: "true"/"1" -> true,
// "false"/"0" -> false, anything else is invalid.
func parseNumberBool(s string) (bool, error) {
	switch s {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	default:
		return false, &ParseError{Kind: InvalidAttr, Value: s}
	}
}
