package model

import (
	"strconv"
	"strings"
	"time"
)

// JobStatus is the lifecycle state of a print job. Values are stored verbatim in the database.
type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusReady      JobStatus = "ready"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// successors is the operator transition table. Completed and failed are terminal.
var successors = map[JobStatus]JobStatus{
	StatusPending:    StatusProcessing,
	StatusProcessing: StatusReady,
	StatusReady:      StatusCompleted,
}

// Next returns the only status s may advance to, and false when s is terminal.
func (s JobStatus) Next() (JobStatus, bool) {
	n, ok := successors[s]
	return n, ok
}

// CanAdvanceTo reports whether target is the successor of s.
func (s JobStatus) CanAdvanceTo(target JobStatus) bool {
	n, ok := s.Next()
	return ok && n == target
}

func (s JobStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusReady, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// ParseJobStatus parses a status name, case-insensitively.
func ParseJobStatus(v string) (JobStatus, bool) {
	s := JobStatus(strings.ToLower(strings.TrimSpace(v)))
	return s, s.Valid()
}

// Paper sizes accepted for a print job.
const (
	PaperA4     = "A4"
	PaperA3     = "A3"
	PaperLetter = "Letter"
	PaperLegal  = "Legal"
)

// ParsePaperSize normalizes a paper size. Empty input means A4.
func ParsePaperSize(v string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "a4":
		return PaperA4, true
	case "a3":
		return PaperA3, true
	case "letter":
		return PaperLetter, true
	case "legal":
		return PaperLegal, true
	}
	return "", false
}

// ClampCopies enforces the minimum of one copy.
func ClampCopies(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// ParseCopies reads a copy count from user input. Only the leading integer is
// used, so "2.5" is 2 and "3 copies" is 3. Input without a leading integer
// counts as one copy.
func ParseCopies(v string) int {
	v = strings.TrimLeft(v, " \t\r\n")
	end := 0
	if end < len(v) && (v[end] == '+' || v[end] == '-') {
		end++
	}
	digits := end
	for end < len(v) && v[end] >= '0' && v[end] <= '9' {
		end++
	}
	if end == digits {
		return 1
	}
	n, err := strconv.Atoi(v[:end])
	if err != nil {
		return 1
	}
	return ClampCopies(n)
}

// PrintOptions are the per-job print settings chosen by the student.
type PrintOptions struct {
	Color     bool   `json:"color"`
	Copies    int    `json:"copies"`
	PaperSize string `json:"paper_size"`
}

// Owner is the presentation subset of the submitting identity, attached to jobs listed for operators.
type Owner struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	CollegeID string `json:"college_id,omitempty"`
}

// PrintJob is one submitted document together with its options, cost and lifecycle state.
// Cost is fixed at submission time; CompletedAt is set only when Status is completed.
type PrintJob struct {
	ID          string       `json:"id"`
	OwnerID     string       `json:"user_id"`
	FileName    string       `json:"file_name"`
	FileKey     string       `json:"-"`
	FileURL     string       `json:"file_url"`
	FileSize    int64        `json:"file_size"`
	Options     PrintOptions `json:"print_options"`
	Status      JobStatus    `json:"status"`
	Cost        float64      `json:"cost"`
	CreatedAt   time.Time    `json:"created_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
	Owner       *Owner       `json:"user,omitempty"`
}
