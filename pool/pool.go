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

// Package pool is a small bounded-concurrency worker pool: a fixed
// number of goroutines drain a task channel until it's exhausted.
package pool

import "sync"

// Pool is a worker group that runs a number of tasks at a configured
// concurrency.
type Pool[T any] struct {
	Tasks []*Task[T]

	concurrency int
	tasksChan   chan *Task[T]
	wg          sync.WaitGroup
}

// NewPool initializes a new pool with the given tasks and at the
// given concurrency.
func NewPool[T any](tasks []*Task[T], concurrency int) *Pool[T] {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Pool[T]{
		Tasks:       tasks,
		concurrency: concurrency,
		tasksChan:   make(chan *Task[T]),
	}
}

func (p *Pool[T]) AddTask(task *Task[T]) {
	p.Tasks = append(p.Tasks, task)
}

// Run runs all work within the pool and blocks until it's finished.
// Each Task's Result/Err is populated in place; inspect p.Tasks once
// Run returns.
func (p *Pool[T]) Run() {
	for i := 0; i < p.concurrency; i++ {
		go p.work()
	}

	p.wg.Add(len(p.Tasks))
	for _, task := range p.Tasks {
		p.tasksChan <- task
	}

	// all workers return
	close(p.tasksChan)

	p.wg.Wait()
}

// Stream runs all tasks at the configured concurrency and returns a
// channel that yields each Task's result as soon as it completes, in
// completion order rather than Tasks order. The channel is closed
// once every task has been drained.
func (p *Pool[T]) Stream() <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)

		var wg sync.WaitGroup
		wg.Add(p.concurrency)
		for i := 0; i < p.concurrency; i++ {
			go func() {
				defer wg.Done()
				for task := range p.tasksChan {
					var done sync.WaitGroup
					done.Add(1)
					task.Run(&done)
					out <- task.Result
				}
			}()
		}

		for _, task := range p.Tasks {
			p.tasksChan <- task
		}
		close(p.tasksChan)
		wg.Wait()
	}()
	return out
}

// The work loop for any single goroutine.
func (p *Pool[T]) work() {
	for task := range p.tasksChan {
		task.Run(&p.wg)
	}
}
