package inmemory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dvloznov/pocket-pulse/internal/jobs"
)

func TestStore_CopiesJobs(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	job := &jobs.ProcessRecurringJob{JobID: "j1", UserID: "alice", Status: jobs.JobStatusPending}
	if err := s.SaveJob(ctx, job); err != nil {
		t.Fatalf("SaveJob: %v", err)
	}
	job.Status = jobs.JobStatusFailed

	got, err := s.GetJob(ctx, "j1")
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if got.Status != jobs.JobStatusPending {
		t.Errorf("store shares state with caller: %s", got.Status)
	}

	if err := s.SaveJob(ctx, &jobs.ProcessRecurringJob{}); err == nil {
		t.Error("expected error for missing job ID")
	}
	if _, err := s.GetJob(ctx, "nope"); !errors.Is(err, jobs.ErrJobNotFound) {
		t.Errorf("err = %v, want ErrJobNotFound", err)
	}
}

func TestStore_ListJobs(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	seed := []jobs.ProcessRecurringJob{
		{JobID: "a", UserID: "alice", Status: jobs.JobStatusCompleted, CreatedAt: base},
		{JobID: "b", UserID: "bob", Status: jobs.JobStatusFailed, CreatedAt: base.Add(time.Minute)},
		{JobID: "c", UserID: "alice", Status: jobs.JobStatusPending, CreatedAt: base.Add(2 * time.Minute)},
		{JobID: "d", UserID: "alice", Status: jobs.JobStatusCompleted, CreatedAt: base.Add(3 * time.Minute)},
	}
	for i := range seed {
		if err := s.SaveJob(ctx, &seed[i]); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name   string
		filter jobs.JobFilter
		want   []string
	}{
		{"all newest first", jobs.JobFilter{}, []string{"d", "c", "b", "a"}},
		{"by user", jobs.JobFilter{UserID: "alice"}, []string{"d", "c", "a"}},
		{"by status", jobs.JobFilter{Status: jobs.JobStatusCompleted}, []string{"d", "a"}},
		{"paged", jobs.JobFilter{Limit: 2, Offset: 1}, []string{"c", "b"}},
		{"offset past end", jobs.JobFilter{Offset: 10}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListJobs(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListJobs: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d jobs, want %v", len(got), tt.want)
			}
			for i, id := range tt.want {
				if got[i].JobID != id {
					t.Errorf("job[%d] = %s, want %s", i, got[i].JobID, id)
				}
			}
		})
	}
}

func TestStore_UpdateJobStatus(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	_ = s.SaveJob(ctx, &jobs.ProcessRecurringJob{JobID: "j1", Status: jobs.JobStatusRunning})

	if err := s.UpdateJobStatus(ctx, "j1", jobs.JobStatusFailed, "timeout"); err != nil {
		t.Fatalf("UpdateJobStatus: %v", err)
	}
	got, _ := s.GetJob(ctx, "j1")
	if got.Status != jobs.JobStatusFailed || got.Error != "timeout" {
		t.Errorf("job = %+v", got)
	}
	if err := s.UpdateJobStatus(ctx, "missing", jobs.JobStatusFailed, ""); !errors.Is(err, jobs.ErrJobNotFound) {
		t.Errorf("err = %v, want ErrJobNotFound", err)
	}
}
