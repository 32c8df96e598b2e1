package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseJobStatus(t *testing.T) {
	t.Parallel()

	cases := map[string]JobStatus{
		"open":          JobStatusOpen,
		" Interviewing": JobStatusInterviewing,
		"CLOSED":        JobStatusClosed,
	}
	for in, want := range cases {
		got, ok := ParseJobStatus(in)
		if !ok || got != want {
			t.Fatalf("ParseJobStatus(%q) = %q, %v", in, got, ok)
		}
	}
	if _, ok := ParseJobStatus("Hired"); ok {
		t.Fatalf("expected unknown status to fail")
	}
}

func TestPastDeadline(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 12, 15, 10, 0, 0, 0, time.UTC)
	if !(Job{Deadline: now.Add(-time.Minute)}).PastDeadline(now) {
		t.Fatalf("expected past deadline")
	}
	if (Job{Deadline: now}).PastDeadline(now) {
		t.Fatalf("deadline equal to now is not past")
	}
	if (Job{}).PastDeadline(now) {
		t.Fatalf("missing deadline must never be past")
	}
}

func TestJobUnmarshalDeadlineFormats(t *testing.T) {
	t.Parallel()

	cases := map[string]time.Time{
		`"2024-12-15T10:00:00Z"`: time.Date(2024, 12, 15, 10, 0, 0, 0, time.UTC),
		`"2024-12-15T10:00"`:     time.Date(2024, 12, 15, 10, 0, 0, 0, time.Local),
		`"2024-12-15"`:           time.Date(2024, 12, 15, 0, 0, 0, 0, time.Local),
		`"soon"`:                 {},
		`""`:                     {},
	}
	for raw, want := range cases {
		var job Job
		if err := json.Unmarshal([]byte(`{"id":3,"company":"Acme","deadline":`+raw+`}`), &job); err != nil {
			t.Fatalf("unmarshal %s: %v", raw, err)
		}
		if job.ID != 3 || job.Company != "Acme" {
			t.Fatalf("other fields lost: %+v", job)
		}
		if !job.Deadline.Equal(want) {
			t.Fatalf("deadline %s: got %v want %v", raw, job.Deadline, want)
		}
	}
}

func TestJobMarshalRoundTrip(t *testing.T) {
	t.Parallel()

	in := Job{ID: 1, Company: "Acme", Title: "SDE", Status: JobStatusOpen, Deadline: time.Date(2025, 1, 2, 3, 4, 0, 0, time.UTC)}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out Job
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.ID != in.ID || out.Status != in.Status || !out.Deadline.Equal(in.Deadline) {
		t.Fatalf("round trip mismatch: %+v", out)
	}
}
