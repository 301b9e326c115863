package tracing

import "github.com/hdlab/svsim/sim"

// A TaskStep represents a milestone in the processing of a task.
type TaskStep struct {
	Tick sim.SimTime `json:"tick"`
	What string      `json:"what"`
}

// A Task is a time span of activity, such as one activation of a process
// between a wakeup and the next suspension.
type Task struct {
	ID         string      `json:"id"`
	ParentID   string      `json:"parent_id"`
	Kind       string      `json:"kind"`
	What       string      `json:"what"`
	Where      string      `json:"where"`
	StartTime  sim.SimTime `json:"start_time"`
	EndTime    sim.SimTime `json:"end_time"`
	Steps      []TaskStep  `json:"steps"`
	Detail     interface{} `json:"-"`
	ParentTask *Task       `json:"-"`
}

// TaskFilter is a function that can filter interesting tasks. If this
// function returns true, the task is considered useful.
type TaskFilter func(t Task) bool
