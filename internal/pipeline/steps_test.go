package pipeline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/ransomwatch/internal/feed"
	"github.com/nao1215/ransomwatch/internal/model"
)

// fakeSource is an in-memory Source.
type fakeSource struct {
	victims    []*model.Victim
	attacks    []*model.Attack
	countries  map[string][]*model.Victim
	victimErr  error
	attackErr  error
	countryErr map[string]error
}

func (f *fakeSource) RecentVictims(context.Context) ([]*model.Victim, error) {
	return f.victims, f.victimErr
}

func (f *fakeSource) RecentAttacks(context.Context) ([]*model.Attack, error) {
	return f.attacks, f.attackErr
}

func (f *fakeSource) CountryVictims(_ context.Context, code string) ([]*model.Victim, error) {
	if err := f.countryErr[code]; err != nil {
		return nil, err
	}
	return f.countries[code], nil
}

var fixedTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedTime }

// TestAggregateFetchStep tests the required aggregate feeds.
func TestAggregateFetchStep(t *testing.T) {
	t.Parallel()

	t.Run("stores both collections", func(t *testing.T) {
		t.Parallel()

		src := &fakeSource{
			victims: []*model.Victim{{Victim: "A", AttackDate: "d"}},
			attacks: []*model.Attack{{Group: "g", AttackDate: "d", Country: "SA"}},
		}
		snap := newTestSnapshot()
		if err := NewAggregateFetchStep(src, nil).Do(context.Background(), snap); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(snap.Victims) != 1 || len(snap.Attacks) != 1 {
			t.Errorf("unexpected collections victims=%d attacks=%d", len(snap.Victims), len(snap.Attacks))
		}
		if len(snap.Sources) != 2 || !snap.Sources[0].Fatal {
			t.Errorf("unexpected sources %+v", snap.Sources)
		}
	})

	t.Run("attack failure is fatal", func(t *testing.T) {
		t.Parallel()

		cause := errors.New("down")
		src := &fakeSource{attackErr: cause}
		snap := newTestSnapshot()

		err := NewAggregateFetchStep(src, nil).Do(context.Background(), snap)
		if !errors.Is(err, ErrAggregateFetch) || !errors.Is(err, cause) {
			t.Errorf("expected aggregate fetch error wrapping cause, got %v", err)
		}
		if len(snap.FailedSources()) == 0 {
			t.Error("expected failed source to be recorded")
		}
	})
}

// TestTargetFeedStep tests merging of the dedicated feed.
func TestTargetFeedStep(t *testing.T) {
	t.Parallel()

	t.Run("failure keeps local matches", func(t *testing.T) {
		t.Parallel()

		src := &fakeSource{countryErr: map[string]error{"EG": errors.New("503")}}
		snap := newTestSnapshot()
		snap.TargetVictims = []*model.ClassifiedVictim{
			{Victim: &model.Victim{Victim: "A", AttackDate: "d", Country: "EG"}, MatchedKeywords: []string{"egypt in country"}},
		}

		if err := NewTargetFeedStep(src, nil).Do(context.Background(), snap); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(snap.TargetVictims) != 1 {
			t.Errorf("expected 1 target victim, got %d", len(snap.TargetVictims))
		}
		failed := snap.FailedSources()
		if len(failed) != 1 || failed[0].Name != "countryvictims/EG" || failed[0].Fatal {
			t.Errorf("unexpected failed sources %+v", failed)
		}
	})

	t.Run("drops non-matching and duplicate entries", func(t *testing.T) {
		t.Parallel()

		src := &fakeSource{countries: map[string][]*model.Victim{
			"EG": {
				{Victim: "A", AttackDate: "d", Country: "EG"},
				{Victim: "Unrelated", AttackDate: "d", Country: "US"},
				{Victim: "Cairo Bank", AttackDate: "d2", Website: "cairobank.com.eg"},
			},
		}}
		snap := newTestSnapshot()
		snap.TargetVictims = []*model.ClassifiedVictim{
			{Victim: &model.Victim{Victim: "A", AttackDate: "d", Country: "EG"}, MatchedKeywords: []string{"egypt in country"}},
		}

		if err := NewTargetFeedStep(src, nil).Do(context.Background(), snap); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(snap.TargetVictims) != 2 {
			t.Fatalf("expected 2 target victims, got %d", len(snap.TargetVictims))
		}
		added := snap.TargetVictims[1]
		if added.Victim.Victim != "Cairo Bank" || added.MatchedKeywords[0] != ".eg domain" {
			t.Errorf("unexpected merged victim %+v", added)
		}
	})
}

// TestRegionFanOutStep tests regional fetching.
func TestRegionFanOutStep(t *testing.T) {
	t.Parallel()

	src := &fakeSource{
		countries: map[string][]*model.Victim{
			"SA": {{Victim: "S", AttackDate: "d"}},
			"BH": {{Victim: "B", AttackDate: "d"}},
		},
		countryErr: map[string]error{"KW": errors.New("timeout")},
	}
	snap := newTestSnapshot()

	if err := NewRegionFanOutStep(src, 0, nil).Do(context.Background(), snap); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snap.RegionVictims) != 2 || snap.RegionVictims[0].Victim != "S" || snap.RegionVictims[1].Victim != "B" {
		t.Errorf("unexpected region victims %v", snap.RegionVictims)
	}
	if len(snap.Sources) != 6 {
		t.Errorf("expected 6 sources, got %d", len(snap.Sources))
	}
	if failed := snap.FailedSources(); len(failed) != 1 || failed[0].Name != "countryvictims/KW" {
		t.Errorf("unexpected failed sources %+v", failed)
	}
}

// TestStampStep tests the freshness timestamp.
func TestStampStep(t *testing.T) {
	t.Parallel()

	snap := newTestSnapshot()
	if err := NewStampStep(fixedClock).Do(context.Background(), snap); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !snap.AsOf.Equal(fixedTime) {
		t.Errorf("expected %v, got %v", fixedTime, snap.AsOf)
	}
}

// TestNewRefresh tests the step order of the refresh pipeline.
func TestNewRefresh(t *testing.T) {
	t.Parallel()

	p := NewRefresh(&fakeSource{}, RefreshConfig{})
	want := []string{"aggregate_fetch", "classify", "target_feed", "region_fanout", "stamp"}
	got := p.StepNames()
	if len(got) != len(want) {
		t.Fatalf("expected %d steps, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("step %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

// newFeedServer serves the aggregate feeds and lets every country feed
// either return countryBody or fail with 500 when countryBody is empty.
func newFeedServer(t *testing.T, countryBody string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch path := strings.TrimPrefix(r.URL.Path, "/api/v2/"); {
		case path == "recentvictims":
			_, _ = w.Write([]byte(`[{"victim":"A Corp","group":"X","attackdate":"2024-01-01","country":"EG"}]`))
		case path == "recentcyberattacks":
			_, _ = w.Write([]byte(`[]`))
		case path == "countryvictims/EG" && countryBody != "":
			_, _ = w.Write([]byte(countryBody))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

// TestRefreshEndToEnd runs the refresh pipeline against a local feed server.
func TestRefreshEndToEnd(t *testing.T) {
	t.Parallel()

	run := func(t *testing.T, countryBody string) *model.Snapshot {
		t.Helper()

		srv := newFeedServer(t, countryBody)
		client, err := feed.NewClient(srv.URL + "/api/v2")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		snap := newTestSnapshot()
		if err := NewRefresh(client, RefreshConfig{Clock: fixedClock}).Execute(context.Background(), snap); err != nil {
			t.Fatalf("expected no fatal error, got %v", err)
		}
		return snap
	}

	t.Run("dedicated and regional feeds down", func(t *testing.T) {
		t.Parallel()

		snap := run(t, "")

		if len(snap.Victims) != 1 || snap.Victims[0].Victim != "A Corp" {
			t.Errorf("unexpected victims %v", snap.Victims)
		}
		if len(snap.Attacks) != 0 {
			t.Errorf("expected no attacks, got %d", len(snap.Attacks))
		}
		if len(snap.TargetVictims) != 1 {
			t.Fatalf("expected 1 target victim, got %d", len(snap.TargetVictims))
		}
		kw := snap.TargetVictims[0].MatchedKeywords
		if len(kw) != 1 || kw[0] != "egypt in country" {
			t.Errorf("unexpected keywords %v", kw)
		}
		if len(snap.RegionVictims) != 0 {
			t.Errorf("expected no region victims, got %d", len(snap.RegionVictims))
		}
		if len(snap.FailedSources()) != 7 {
			t.Errorf("expected 7 failed sources, got %d", len(snap.FailedSources()))
		}
		if !snap.AsOf.Equal(fixedTime) {
			t.Errorf("unexpected AsOf %v", snap.AsOf)
		}
	})

	t.Run("dedicated feed repeats the same record", func(t *testing.T) {
		t.Parallel()

		snap := run(t, `[{"victim":"A Corp","group":"X","attackdate":"2024-01-01","country":"EG"}]`)

		if len(snap.TargetVictims) != 1 {
			t.Errorf("expected exactly 1 target victim, got %d", len(snap.TargetVictims))
		}
	})

	t.Run("aggregate failure aborts the cycle", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		client, err := feed.NewClient(srv.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		err = NewRefresh(client, RefreshConfig{}).Execute(context.Background(), newTestSnapshot())
		if !errors.Is(err, ErrAggregateFetch) {
			t.Errorf("expected ErrAggregateFetch, got %v", err)
		}
		if !feed.IsFetchError(err) {
			t.Errorf("expected wrapped fetch error, got %v", err)
		}
	})
}
