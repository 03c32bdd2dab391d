// File: adapters/executors.go
// Package adapters
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package adapters

import "github.com/rohankumardubey/xnio-core/api"

// DirectExecutor returns an executor that runs the task inline on the
// submitting goroutine.
func DirectExecutor() api.Executor {
	return api.ExecutorFunc(func(task func()) error {
		task()
		return nil
	})
}

// NullExecutor returns an executor that accepts and drops every task.
func NullExecutor() api.Executor {
	return api.ExecutorFunc(func(func()) error {
		return nil
	})
}
