package worker

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/local/pdfimages/internal/extract"
)

// Job is the queue payload for one async extraction.
type Job struct {
	ID         string          `json:"job_id"`
	FileID     string          `json:"file_id"`
	FileRef    string          `json:"file_ref"`
	FileName   string          `json:"file_name,omitempty"`
	Options    extract.Options `json:"options"`
	Attempt    int             `json:"attempt"`
	Source     string          `json:"source,omitempty"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// Encode serializes the job for the queue.
func (j Job) Encode() ([]byte, error) {
	return json.Marshal(j)
}

// ParseJob decodes a queue payload and validates the fields the worker
// cannot proceed without.
func ParseJob(data []byte) (Job, error) {
	var j Job
	if err := json.Unmarshal(data, &j); err != nil {
		return Job{}, fmt.Errorf("failed to decode job payload: %w", err)
	}
	if j.ID == "" {
		return Job{}, fmt.Errorf("job payload missing job_id")
	}
	if j.FileRef == "" {
		return Job{}, fmt.Errorf("job %s missing file_ref", j.ID)
	}
	if j.FileID == "" {
		j.FileID = j.ID
	}
	return j, nil
}
