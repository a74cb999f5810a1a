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

import (
	"testing"
)

func Test_Run_PopulatesEveryTaskResult(t *testing.T) {
	tasks := make([]*Task[int], 0, 10)
	for i := 0; i < 10; i++ {
		i := i
		tasks = append(tasks, NewTask(func() (int, error) { return i * i, nil }))
	}

	p := NewPool(tasks, 4)
	p.Run()

	for i, task := range tasks {
		if task.Err != nil {
			t.Fatalf("task %d: unexpected error: %v", i, task.Err)
		}
		if task.Result != i*i {
			t.Fatalf("task %d: got %d, want %d", i, task.Result, i*i)
		}
	}
}

func Test_Stream_YieldsEveryResultExactlyOnce(t *testing.T) {
	tasks := make([]*Task[int], 0, 20)
	for i := 0; i < 20; i++ {
		i := i
		tasks = append(tasks, NewTask(func() (int, error) { return i, nil }))
	}

	p := NewPool(tasks, 5)
	seen := make(map[int]bool)
	for v := range p.Stream() {
		seen[v] = true
	}

	if len(seen) != len(tasks) {
		t.Fatalf("got %d distinct results, want %d", len(seen), len(tasks))
	}
}
