package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskSheetSync = "leads.sheet_sync"

type SheetSyncPayload struct {
	Trigger string `json:"trigger"`
}

func NewSheetSyncTask(payload SheetSyncPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSheetSync, data), nil
}

func ParseSheetSyncPayload(task *asynq.Task) (SheetSyncPayload, error) {
	var payload SheetSyncPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return SheetSyncPayload{}, err
	}
	return payload, nil
}
