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

package pool

import "sync"

// Task encapsulates a work item that should go in a work pool. T is
// whatever a single fetch-and-parse step produces: a crawler task
// returns a VidxResult or a PdscRef slice, never a raw byte body.
type Task[T any] struct {
	// Result and Err hold the outcome of a task. They are only
	// meaningful after Run has been called for the pool that holds
	// it.
	Result T
	Err    error

	f func() (T, error)
}

// NewTask initializes a new task based on a given work function.
func NewTask[T any](f func() (T, error)) *Task[T] {
	return &Task[T]{f: f}
}

// Run runs a Task and does appropriate accounting via a given
// sync.WaitGroup.
func (t *Task[T]) Run(wg *sync.WaitGroup) {
	t.Result, t.Err = t.f()
	wg.Done()
}
