package notification

import (
	"encoding/json"
	"testing"
	"time"

	"placement-portal/internal/apperr"
	"placement-portal/internal/model"

	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestAddKeepsTenMostRecent(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.SetClock(fixedClock(time.UnixMilli(1_700_000_000_000)))

	var added []Notification
	for i := 0; i < 15; i++ {
		added = append(added, r.Add(Draft{Title: "Announcement", Message: "msg"}))
	}

	list := r.List()
	require.Len(t, list, MaxEntries)
	for i, n := range list {
		require.Equal(t, added[14-i].ID, n.ID, "position %d", i)
	}
}

func TestAddAssignsUniqueIncreasingIDs(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.SetClock(fixedClock(time.UnixMilli(5000)))

	a := r.Add(Draft{Title: "a"})
	b := r.Add(Draft{Title: "b"})
	require.Equal(t, int64(5000), a.ID)
	require.Equal(t, int64(5001), b.ID)
	require.Equal(t, TypeInfo, b.Type)
}

func TestAddStripsMarkup(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	n := r.Add(Draft{
		Type:    TypeWarning,
		Title:   "<b>Drive</b> update",
		Message: `Report at <a href="#">Hall &amp; Lab</a><script>x</script>`,
	})
	require.Equal(t, "Drive update", n.Title)
	require.Equal(t, "Report at Hall & Labx", n.Message)
	require.Equal(t, TypeWarning, n.Type)
}

func TestAddActionKindInference(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	withLink := r.Add(Draft{Title: "Form", Action: &Action{Text: "Apply", Link: "https://forms.example.com"}})
	require.Equal(t, ActionLink, withLink.Action.Kind)

	plain := r.Add(Draft{Title: "Hello", Action: &Action{Text: "OK"}})
	require.Equal(t, ActionAck, plain.Action.Kind)

	blank := r.Add(Draft{Title: "No button", Action: &Action{Text: "  "}})
	require.Nil(t, blank.Action)
}

func TestSerializeDropsIncompleteEntries(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.SetClock(fixedClock(time.UnixMilli(9000)))
	r.Add(Draft{Title: "", Message: "no title"})
	r.Add(Draft{Title: "Drive", Message: "See form", Action: &Action{Text: "Open", Link: "https://x.example"}})
	r.Add(Draft{Title: "Plain"})

	out := r.Serialize()
	require.Len(t, out, 2)
	require.Equal(t, "Plain", out[0].Title)
	require.Nil(t, out[0].Action)
	require.Equal(t, &PersistedAction{Text: "Open", Link: "https://x.example"}, out[1].Action)
	require.Equal(t, int64(9000), out[1].Timestamp)

	data, err := json.Marshal(out[1])
	require.NoError(t, err)
	require.NotContains(t, string(data), "kind", "behaviour is never persisted")
}

func TestRehydrateActionPriority(t *testing.T) {
	t.Parallel()

	jobs := []model.Job{{ID: 7, Company: "Acme", Title: "SDE Intern"}}
	persisted := []Persisted{
		{ID: 1, Title: "Acme shortlisted", Action: &PersistedAction{Text: "Open form", Link: "https://f.example"}},
		{ID: 2, Title: "Acme Shortlist Updated!", Message: "3 candidates shortlisted for SDE Intern position.", Action: &PersistedAction{Text: "View Shortlist"}},
		{ID: 3, Title: "New Job Opening: SDE Intern", Message: "Acme is hiring", Action: &PersistedAction{Text: "View Details"}},
		{ID: 4, Title: "New Job Opening: Analyst", Message: "Globex is hiring", Action: &PersistedAction{Text: "View Details"}},
		{ID: 5, Title: "Welcome", Action: &PersistedAction{Text: "Got it"}},
		{ID: 6, Title: "No button"},
		{ID: 0, Title: "broken"},
	}

	r := NewRegistry()
	r.Rehydrate(persisted, jobs)
	list := r.List()
	require.Len(t, list, 6)

	require.Equal(t, ActionLink, list[0].Action.Kind)
	require.Equal(t, ActionShortlisted, list[1].Action.Kind)
	require.Equal(t, ActionJobDetail, list[2].Action.Kind)
	require.Equal(t, 7, list[2].Action.JobID)
	require.Equal(t, ActionNotFound, list[3].Action.Kind)
	require.Equal(t, ActionAck, list[4].Action.Kind)
	require.Nil(t, list[5].Action)
}

func TestRehydrateIsDeterministic(t *testing.T) {
	t.Parallel()

	jobs := []model.Job{{ID: 1, Company: "Acme", Title: "SDE"}}
	src := NewRegistry()
	src.Add(Draft{Title: "New Job Opening: SDE", Message: "Acme is hiring", Action: &Action{Kind: ActionJobDetail, Text: "View Details", JobID: 1}})
	src.Add(Draft{Title: "Acme Shortlist Updated!", Message: "2 candidates shortlisted", Action: &Action{Kind: ActionShortlisted, Text: "View Shortlist"}})
	persisted := src.Serialize()

	a, b := NewRegistry(), NewRegistry()
	a.Rehydrate(persisted, jobs)
	b.Rehydrate(persisted, jobs)
	require.Equal(t, a.List(), b.List())
	require.Equal(t, src.List()[0].Action.Kind, a.List()[0].Action.Kind)
	require.Equal(t, src.List()[1].Action.JobID, a.List()[1].Action.JobID)
}

func TestRehydrateRestoresIDCounter(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.SetClock(fixedClock(time.UnixMilli(100)))
	r.Rehydrate([]Persisted{{ID: 5000, Title: "old", Timestamp: 5000}}, nil)

	n := r.Add(Draft{Title: "new"})
	require.Equal(t, int64(5001), n.ID)
	require.Equal(t, time.UnixMilli(5000), r.List()[1].CreatedAt)
}

func TestInvokeEffects(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Rehydrate([]Persisted{
		{ID: 1, Title: "Form", Action: &PersistedAction{Text: "Open", Link: "https://f.example"}},
		{ID: 2, Title: "Shortlisted!", Action: &PersistedAction{Text: "View"}},
		{ID: 3, Title: "New Job Opening: SDE", Action: &PersistedAction{Text: "View Details"}},
		{ID: 4, Title: "Hi", Action: &PersistedAction{Text: "OK"}},
		{ID: 5, Title: "Plain"},
	}, []model.Job{})

	eff, err := r.Invoke(1)
	require.NoError(t, err)
	require.Equal(t, Effect{Kind: EffectOpenLink, URL: "https://f.example"}, eff)

	eff, err = r.Invoke(2)
	require.NoError(t, err)
	require.Equal(t, ViewShortlisted, eff.View)

	eff, err = r.Invoke(3)
	require.NoError(t, err)
	require.Equal(t, EffectNotice, eff.Kind)
	require.Equal(t, TypeError, eff.Severity)

	eff, err = r.Invoke(4)
	require.NoError(t, err)
	require.Equal(t, TypeInfo, eff.Severity)

	_, err = r.Invoke(5)
	require.True(t, apperr.Is(err, apperr.KindInvalidInput))

	_, err = r.Invoke(42)
	require.True(t, apperr.Is(err, apperr.KindNotFound))

	read := map[int64]bool{}
	for _, n := range r.List() {
		read[n.ID] = n.Read
	}
	require.Equal(t, map[int64]bool{1: true, 2: true, 3: false, 4: true, 5: false}, read)
}

func TestMarkReadAndRemove(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.SetClock(fixedClock(time.UnixMilli(1)))
	a := r.Add(Draft{Title: "a"})
	r.Add(Draft{Title: "b"})
	require.Equal(t, 2, r.Unread())

	changed, found := r.MarkRead(a.ID)
	require.True(t, changed)
	require.True(t, found)
	changed, found = r.MarkRead(a.ID)
	require.False(t, changed)
	require.True(t, found)
	_, found = r.MarkRead(999)
	require.False(t, found)

	require.Equal(t, 1, r.MarkAllRead())
	require.Equal(t, 0, r.MarkAllRead())
	require.Equal(t, 0, r.Unread())

	require.True(t, r.Remove(a.ID))
	require.False(t, r.Remove(a.ID))
	require.Equal(t, 1, r.Len())
}

func TestUpdateKeepsIdentity(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	n := r.Add(Draft{Title: "Draft", Message: "old"})
	r.MarkRead(n.ID)

	updated, ok := r.Update(n.ID, Draft{Type: TypeSuccess, Title: "Final", Message: "new", Action: &Action{Text: "Apply", Link: "https://a.example"}})
	require.True(t, ok)
	require.Equal(t, n.ID, updated.ID)
	require.Equal(t, n.CreatedAt, updated.CreatedAt)
	require.True(t, updated.Read)
	require.Equal(t, ActionLink, updated.Action.Kind)

	_, ok = r.Update(12345, Draft{Title: "x"})
	require.False(t, ok)
}
