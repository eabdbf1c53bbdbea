package service

import (
	"strings"

	"printconnect/internal/model"
)

// JobFilter narrows a job listing. Status is empty, "all" or a job status;
// Search matches file name, owner name and owner email, case-insensitively.
type JobFilter struct {
	Status string
	Search string
}

func (f JobFilter) Validate() error {
	if f.allStatuses() {
		return nil
	}
	if _, ok := model.ParseJobStatus(f.Status); !ok {
		return invalid("status", "unknown status filter")
	}
	return nil
}

func (f JobFilter) allStatuses() bool {
	s := strings.TrimSpace(f.Status)
	return s == "" || strings.EqualFold(s, "all")
}

// FilterJobs returns the jobs matching f, preserving order. The input is not modified.
func FilterJobs(jobs []model.PrintJob, f JobFilter) []model.PrintJob {
	var status model.JobStatus
	if !f.allStatuses() {
		status, _ = model.ParseJobStatus(f.Status)
	}
	needle := strings.ToLower(strings.TrimSpace(f.Search))

	out := make([]model.PrintJob, 0, len(jobs))
	for _, j := range jobs {
		if status != "" && j.Status != status {
			continue
		}
		if needle != "" && !matches(j, needle) {
			continue
		}
		out = append(out, j)
	}
	return out
}

func matches(j model.PrintJob, needle string) bool {
	if strings.Contains(strings.ToLower(j.FileName), needle) {
		return true
	}
	if j.Owner == nil {
		return false
	}
	return strings.Contains(strings.ToLower(j.Owner.Name), needle) ||
		strings.Contains(strings.ToLower(j.Owner.Email), needle)
}

func CountByStatus(jobs []model.PrintJob) StatusCounts {
	var c StatusCounts
	for _, j := range jobs {
		switch j.Status {
		case model.StatusPending:
			c.Pending++
		case model.StatusProcessing:
			c.Processing++
		case model.StatusReady:
			c.Ready++
		}
	}
	return c
}
