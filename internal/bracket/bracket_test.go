package bracket

import (
	"math/rand"
	"reflect"
	"testing"
)

func standings(scores ...int) []Standing {
	out := make([]Standing, len(scores))
	for i, s := range scores {
		out[i] = Standing{TeamID: string(rune('a' + i)), Score: s}
	}
	return out
}

func ids(st []Standing) []string {
	out := make([]string, len(st))
	for i, s := range st {
		out[i] = s.TeamID
	}
	return out
}

func TestResolveCutoffClean(t *testing.T) {
	ranked := standings(90, 80, 70, 60, 50, 40, 30, 20, 10)

	res := ResolveCutoff(ranked, 9)
	if !res.Clean {
		t.Fatal("expected clean cutoff")
	}
	if len(res.Selected) != 9 {
		t.Fatalf("expected 9 selected, got %d", len(res.Selected))
	}
	if !reflect.DeepEqual(res.Selected, ranked) {
		t.Error("expected the full ranked list selected")
	}
}

func TestResolveCutoffCleanDistinctBoundary(t *testing.T) {
	// Rank n-1 strictly above rank n: always clean.
	ranked := standings(50, 40, 30, 20, 10)

	res := ResolveCutoff(ranked, 3)
	if !res.Clean {
		t.Fatal("expected clean cutoff")
	}
	if got := ids(res.Selected); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("selected = %v, want top 3", got)
	}
}

func TestResolveCutoffContestedStraddle(t *testing.T) {
	// Scores [50,50,40,40,40,30,30,20,10,10], n=9. Boundary
	// score 10 sits at indices 8 and 9, straddling the cut.
	ranked := standings(50, 50, 40, 40, 40, 30, 30, 20, 10, 10)

	res := ResolveCutoff(ranked, 9)
	if res.Clean {
		t.Fatal("expected contested cutoff")
	}
	if len(res.Tied) != 2 {
		t.Fatalf("expected 2 tied teams, got %d", len(res.Tied))
	}
	for _, s := range res.Tied {
		if s.Score != 10 {
			t.Errorf("tied team %s has score %d, want 10", s.TeamID, s.Score)
		}
	}
	if len(res.Advancing) != 8 {
		t.Fatalf("expected 8 unambiguous advancers, got %d", len(res.Advancing))
	}
	if res.OpenSlots != 1 {
		t.Errorf("open slots = %d, want 1", res.OpenSlots)
	}
}

func TestResolveCutoffTieAboveCut(t *testing.T) {
	// Two teams share first place; boundary at rank 3 is unique.
	ranked := standings(50, 50, 30, 20)

	res := ResolveCutoff(ranked, 3)
	if !res.Clean {
		t.Fatal("tie entirely above the cut must not contest it")
	}
	if got := ids(res.Selected); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("selected = %v", got)
	}
}

func TestResolveCutoffTieBelowCut(t *testing.T) {
	ranked := standings(50, 40, 30, 20, 20)

	res := ResolveCutoff(ranked, 3)
	if !res.Clean {
		t.Fatal("tie entirely below the cut must not contest it")
	}
}

func TestResolveCutoffWholeBandTied(t *testing.T) {
	// Everyone shares one score and the band crosses the cut.
	ranked := standings(10, 10, 10, 10)

	res := ResolveCutoff(ranked, 3)
	if res.Clean {
		t.Fatal("expected contested cutoff")
	}
	if len(res.Tied) != 4 || len(res.Advancing) != 0 || res.OpenSlots != 3 {
		t.Errorf("tied=%d advancing=%d slots=%d, want 4/0/3",
			len(res.Tied), len(res.Advancing), res.OpenSlots)
	}
}

func TestResolveCutoffShortList(t *testing.T) {
	ranked := standings(30, 20)

	res := ResolveCutoff(ranked, 3)
	if !res.Clean || len(res.Selected) != 2 {
		t.Errorf("short list should select everyone")
	}
}

func TestPartition(t *testing.T) {
	in := []string{"1", "2", "3", "4", "5", "6", "7", "8", "9"}

	groups := Partition(in, 3)
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}
	if !reflect.DeepEqual(groups[0], []string{"1", "2", "3"}) {
		t.Errorf("first group = %v, want sequential slice", groups[0])
	}
	if !reflect.DeepEqual(groups[2], []string{"7", "8", "9"}) {
		t.Errorf("last group = %v", groups[2])
	}
}

func TestPartitionUneven(t *testing.T) {
	groups := Partition([]string{"1", "2", "3", "4"}, 3)
	if len(groups) != 2 || len(groups[1]) != 1 {
		t.Errorf("expected trailing short group, got %v", groups)
	}
}

func TestSampleNoDuplicatesAndBounded(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	in := []string{"a", "b", "c", "d", "e", "f"}

	got := Sample(rnd, in, 4)
	if len(got) != 4 {
		t.Fatalf("expected 4 samples, got %d", len(got))
	}
	seen := map[string]bool{}
	for _, id := range got {
		if seen[id] {
			t.Fatalf("duplicate id %q in sample", id)
		}
		seen[id] = true
	}
}

func TestSampleRequestingMoreThanAvailable(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	in := []string{"a", "b"}

	got := Sample(rnd, in, 10)
	if len(got) != 2 {
		t.Fatalf("expected all 2 elements, got %d", len(got))
	}
}

func TestSampleDoesNotMutateInput(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	in := []string{"a", "b", "c", "d"}
	want := append([]string(nil), in...)

	Sample(rnd, in, 2)
	if !reflect.DeepEqual(in, want) {
		t.Errorf("input mutated: %v", in)
	}
}

func TestSampleDeterministicWithSeed(t *testing.T) {
	in := []string{"a", "b", "c", "d", "e"}

	first := Sample(rand.New(rand.NewSource(99)), in, 3)
	second := Sample(rand.New(rand.NewSource(99)), in, 3)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("same seed produced %v then %v", first, second)
	}
}

func TestRequiredTeams(t *testing.T) {
	if RequiredTeams(StageSemiFinal) != 9 {
		t.Error("semifinal requires 9 teams")
	}
	if RequiredTeams(StageFinal) != 3 {
		t.Error("final requires 3 teams")
	}
}
