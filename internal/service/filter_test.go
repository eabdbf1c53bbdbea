package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"printconnect/internal/model"
)

func TestFilterJobs(t *testing.T) {
	jobs := []model.PrintJob{
		{ID: "a", FileName: "Thesis.pdf", Status: model.StatusPending},
		{ID: "b", FileName: "poster.png", Status: model.StatusProcessing, Owner: &model.Owner{Name: "Meera", Email: "meera@jiit.ac.in"}},
		{ID: "c", FileName: "notes.docx", Status: model.StatusPending, Owner: &model.Owner{Name: "Kabir", Email: "kabir@jiit.ac.in"}},
		{ID: "d", FileName: "old.pdf", Status: model.StatusFailed},
	}

	tests := []struct {
		name   string
		filter JobFilter
		want   []string
	}{
		{"no filter", JobFilter{}, []string{"a", "b", "c", "d"}},
		{"all keyword", JobFilter{Status: "ALL"}, []string{"a", "b", "c", "d"}},
		{"by status", JobFilter{Status: "pending"}, []string{"a", "c"}},
		{"failed is filterable", JobFilter{Status: "failed"}, []string{"d"}},
		{"file name", JobFilter{Search: "thesis"}, []string{"a"}},
		{"owner name", JobFilter{Search: "MEERA"}, []string{"b"}},
		{"owner email", JobFilter{Search: "kabir@"}, []string{"c"}},
		{"status and text", JobFilter{Status: "pending", Search: "pdf"}, []string{"a"}},
		{"no match", JobFilter{Search: "zzz"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(FilterJobs(jobs, tt.filter)))
		})
	}
}

func TestJobFilter_Validate(t *testing.T) {
	assert.NoError(t, JobFilter{}.Validate())
	assert.NoError(t, JobFilter{Status: "all"}.Validate())
	assert.NoError(t, JobFilter{Status: "Ready"}.Validate())
	assert.ErrorIs(t, JobFilter{Status: "lost"}.Validate(), ErrValidation)
}

func TestCountByStatus(t *testing.T) {
	jobs := []model.PrintJob{
		{Status: model.StatusPending},
		{Status: model.StatusPending},
		{Status: model.StatusProcessing},
		{Status: model.StatusReady},
		{Status: model.StatusCompleted},
		{Status: model.StatusFailed},
	}
	assert.Equal(t, StatusCounts{Pending: 2, Processing: 1, Ready: 1}, CountByStatus(jobs))
	assert.Equal(t, StatusCounts{}, CountByStatus(nil))
}
