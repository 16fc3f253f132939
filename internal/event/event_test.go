package event

import (
	"testing"
	"time"

	"github.com/odinuv/intent-generator/internal/source"
)

func TestParseTime_RFC3339(t *testing.T) {
	got, ok := parseTime("2024-12-05T09:15:00Z")
	if !ok {
		t.Fatal("expected parse to succeed")
	}
	want := time.Date(2024, 12, 5, 9, 15, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("parsed %v, want %v", got, want)
	}
}

func TestParseTime_SpaceSeparated(t *testing.T) {
	if _, ok := parseTime("2024-12-05 09:15:00"); !ok {
		t.Error("expected space-separated layout to parse")
	}
}

func TestParseTime_Malformed(t *testing.T) {
	if _, ok := parseTime("not-a-timestamp"); ok {
		t.Error("expected parse to fail")
	}
}

func TestTrimEventPrefix(t *testing.T) {
	if got := TrimEventPrefix("storage.tableCreated"); got != "tableCreated" {
		t.Errorf("got %q, want tableCreated", got)
	}
	if got := TrimEventPrefix("tableCreated"); got != "tableCreated" {
		t.Errorf("got %q, want tableCreated unchanged", got)
	}
}

func TestNormalize_DropsUnparseableRows(t *testing.T) {
	res := Normalize(source.Scope{},
		[]source.ConfigVersionRow{
			{ConfigurationID: "c1", UpdatedAt: "garbage"},
			{ConfigurationID: "c2", UpdatedAt: "2024-12-05T09:00:00Z"},
		},
		nil, nil, nil)

	if res.Dropped != 1 {
		t.Errorf("dropped = %d, want 1", res.Dropped)
	}
	if len(res.Events) != 1 {
		t.Fatalf("events = %d, want 1", len(res.Events))
	}
	if res.Events[0].EntityID != "c2" {
		t.Errorf("kept entity %s, want c2", res.Events[0].EntityID)
	}
}

func TestNormalize_AppliesScopeRange(t *testing.T) {
	scope := source.Scope{
		Start: time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
	}
	res := Normalize(scope,
		[]source.ConfigVersionRow{
			{ConfigurationID: "before", UpdatedAt: "2024-11-30T23:59:59Z"},
			{ConfigurationID: "inside", UpdatedAt: "2024-12-15T12:00:00Z"},
			{ConfigurationID: "after", UpdatedAt: "2025-01-01T00:00:01Z"},
		},
		nil, nil, nil)

	if res.Dropped != 0 {
		t.Errorf("dropped = %d, want 0 (out-of-range is not a parse failure)", res.Dropped)
	}
	if len(res.Events) != 1 || res.Events[0].EntityID != "inside" {
		t.Fatalf("expected only the in-range event, got %v", res.Events)
	}
}

func TestNormalize_DropsWorkspaceEvents(t *testing.T) {
	res := Normalize(source.Scope{}, nil, nil, nil,
		[]source.TableEventRow{
			{EventID: "e1", Event: "storage.workspaceTableCloned", CreatedAt: "2024-12-05T09:00:00Z"},
			{EventID: "e2", Event: "storage.workspaceLoaded", CreatedAt: "2024-12-05T09:01:00Z"},
			{EventID: "e3", Event: "storage.tableCreated", CreatedAt: "2024-12-05T09:02:00Z"},
		})

	if len(res.Events) != 1 {
		t.Fatalf("events = %d, want 1", len(res.Events))
	}
	if res.Events[0].EntityID != "e3" {
		t.Errorf("kept %s, want e3", res.Events[0].EntityID)
	}
}

func TestNormalize_MergesStreamsInTimeOrder(t *testing.T) {
	res := Normalize(source.Scope{},
		[]source.ConfigVersionRow{
			{ConfigurationID: "c1", UpdatedAt: "2024-12-05T09:00:00Z"},
			{ConfigurationID: "c2", UpdatedAt: "2024-12-05T11:00:00Z"},
		},
		nil,
		[]source.JobRow{
			{JobID: "j1", CreatedAt: "2024-12-05T10:00:00Z"},
		},
		[]source.TableEventRow{
			{EventID: "t1", Event: "storage.tableCreated", CreatedAt: "2024-12-05T08:00:00Z"},
		})

	var got []string
	for _, e := range res.Events {
		got = append(got, e.EntityID)
	}
	want := []string{"t1", "c1", "j1", "c2"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestNormalize_TieBreakIsDeterministic(t *testing.T) {
	// Same timestamp in two streams: the config stream (lower index) must
	// win, every time.
	for range 5 {
		res := Normalize(source.Scope{},
			[]source.ConfigVersionRow{
				{ConfigurationID: "c1", UpdatedAt: "2024-12-05T09:00:00Z"},
			},
			nil,
			[]source.JobRow{
				{JobID: "j1", CreatedAt: "2024-12-05T09:00:00Z"},
			},
			nil)

		if res.Events[0].Kind != KindConfiguration || res.Events[1].Kind != KindJob {
			t.Fatalf("tie-break order changed: %v, %v", res.Events[0].Kind, res.Events[1].Kind)
		}
	}
}

func TestNormalize_Empty(t *testing.T) {
	res := Normalize(source.Scope{}, nil, nil, nil, nil)
	if len(res.Events) != 0 || res.Dropped != 0 {
		t.Errorf("expected empty result, got %+v", res)
	}
}
