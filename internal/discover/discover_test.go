package discover

import (
	"context"
	"errors"
	"testing"

	"github.com/gamedex-hq/gamedex-catalog-harvester/pkg/listing"
)

// scriptedSource returns a fixed sequence of visible-set snapshots, one per
// Advance, repeating the last snapshot once exhausted.
type scriptedSource struct {
	steps      [][]listing.ItemRef
	pos        int
	advanceErr error
	advances   int
}

func (s *scriptedSource) Advance(context.Context) error {
	s.advances++
	if s.advanceErr != nil {
		return s.advanceErr
	}
	return nil
}

func (s *scriptedSource) VisibleItemRefs() ([]listing.ItemRef, error) {
	if s.pos < len(s.steps) {
		out := s.steps[s.pos]
		s.pos++
		return out, nil
	}
	if len(s.steps) == 0 {
		return nil, nil
	}
	return s.steps[len(s.steps)-1], nil
}

func (s *scriptedSource) Close() error { return nil }

func ref(id string) listing.ItemRef {
	return listing.ItemRef{ID: id, URL: "https://store.example.com/app/" + id + "/"}
}

func TestDiscoverSkipsKnownAndDedups(t *testing.T) {
	src := &scriptedSource{steps: [][]listing.ItemRef{
		{ref("1"), ref("2"), ref("3")},
		{ref("1"), ref("2"), ref("3"), ref("4"), ref("2")},
	}}
	known := map[string]struct{}{"2": {}}

	refs, err := New(Options{MaxIdleSteps: 2}).Discover(context.Background(), src, known)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	got := make([]string, 0, len(refs))
	seen := map[string]int{}
	for _, r := range refs {
		got = append(got, r.ID)
		seen[r.ID]++
	}
	for id, n := range seen {
		if n > 1 {
			t.Errorf("id %s yielded %d times", id, n)
		}
	}
	if _, ok := seen["2"]; ok {
		t.Errorf("known id 2 was yielded: %v", got)
	}
	want := []string{"1", "3", "4"}
	if len(got) != len(want) {
		t.Fatalf("refs = %v, want ids %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("refs = %v, want encounter order %v", got, want)
		}
	}
}

func TestDiscoverStopsAfterIdleThreshold(t *testing.T) {
	src := &scriptedSource{steps: [][]listing.ItemRef{{ref("1")}}}

	refs, err := New(Options{MaxIdleSteps: 3}).Discover(context.Background(), src, nil)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(refs) != 1 {
		t.Fatalf("refs = %v", refs)
	}
	// Step 1 finds the item, then three idle steps hit the threshold.
	if src.advances != 4 {
		t.Errorf("advances = %d, want 4", src.advances)
	}
}

func TestDiscoverFirstAdvanceFailureAborts(t *testing.T) {
	src := &scriptedSource{advanceErr: errors.New("browser gone")}
	if _, err := New(Options{}).Discover(context.Background(), src, nil); err == nil {
		t.Fatal("expected error when the listing cannot start")
	}
}

func TestDiscoverHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &scriptedSource{steps: [][]listing.ItemRef{{ref("1")}}}
	if _, err := New(Options{}).Discover(ctx, src, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
