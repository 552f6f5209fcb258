package domain

import "time"

// PrintKind tells which endpoint produced a print job.
type PrintKind string

const (
	PrintText  PrintKind = "text"
	PrintGrocy PrintKind = "grocy"
)

// PrintRecord describes one print attempt. It is written to the print
// journal and published as a print event.
type PrintRecord struct {
	RequestID string    `json:"request_id"`
	Kind      PrintKind `json:"kind"`
	LabelSize string    `json:"label_size"`
	Model     string    `json:"model"`
	Printer   string    `json:"printer"`
	Rows      int       `json:"rows"`
	Bytes     int       `json:"bytes"`
	DryRun    bool      `json:"dry_run"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
