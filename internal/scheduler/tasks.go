package scheduler

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TaskAssignmentsSweep = "assignments.sweep"

type AssignmentsSweepPayload struct {
	RequestedAt time.Time `json:"requestedAt"`
}

func NewAssignmentsSweepTask(payload AssignmentsSweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAssignmentsSweep, data), nil
}

func ParseAssignmentsSweepPayload(task *asynq.Task) (AssignmentsSweepPayload, error) {
	var payload AssignmentsSweepPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return AssignmentsSweepPayload{}, err
	}
	return payload, nil
}
