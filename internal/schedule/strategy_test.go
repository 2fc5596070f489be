package schedule

import (
	"math"
	"testing"
)

// layoutOf builds a bare schedule from a compact picture, one rune per
// slot, '.' meaning free.
func layoutOf(picture string) *Schedule {
	s := &Schedule{}
	for i, r := range picture {
		slot := Slot{Index: i, Start: slotTime(i)}
		if r != '.' {
			slot.TaskID = string(r)
		}
		s.Slots = append(s.Slots, slot)
	}
	return s
}

func almost(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestMeanFocusRunScoresContiguousBlocks(t *testing.T) {
	focused := layoutOf("aaa.bb")
	scattered := layoutOf("ab.ab.")
	goal := MeanFocusRun()
	if got := goal(focused); !almost(got, 2.5) {
		t.Fatalf("focused layout scored %f, want 2.5", got)
	}
	if got := goal(scattered); !almost(got, 1) {
		t.Fatalf("scattered layout scored %f, want 1", got)
	}
	if goal(focused) <= goal(scattered) {
		t.Fatalf("focus goal must prefer contiguous blocks")
	}
}

func TestMeanFreeRunScoresRestStretches(t *testing.T) {
	banked := layoutOf("aaa...")
	peppered := layoutOf(".a.a.a")
	goal := MeanFreeRun()
	if got := goal(banked); !almost(got, 3) {
		t.Fatalf("banked layout scored %f, want 3", got)
	}
	if got := goal(peppered); !almost(got, 1) {
		t.Fatalf("peppered layout scored %f, want 1", got)
	}
}

func TestMeanCompletionMeasuresLastHeldSlot(t *testing.T) {
	early := layoutOf("aa....")
	late := layoutOf("....aa")
	goal := MeanCompletion(t0)
	if goal(early) >= goal(late) {
		t.Fatalf("finishing early must score lower than finishing late")
	}
	// One task ending at slot 1: distance is one slice.
	if got := goal(early); !almost(got, slice.Seconds()) {
		t.Fatalf("early completion scored %f, want %f", got, slice.Seconds())
	}
}

func TestMeanFreeDistancePushesFreeTimeLate(t *testing.T) {
	workFirst := layoutOf("aa..")
	restFirst := layoutOf("..aa")
	goal := MeanFreeDistance(t0)
	if goal(workFirst) <= goal(restFirst) {
		t.Fatalf("front-loaded work must leave its free slots later")
	}
}

func TestInvertFlipsAGoal(t *testing.T) {
	s := layoutOf("aaa...")
	goal := MeanFreeRun()
	if got := Invert(goal)(s); !almost(got, -goal(s)) {
		t.Fatalf("inverted goal = %f, want %f", got, -goal(s))
	}
}

func TestGoalsToleratePathologicalLayouts(t *testing.T) {
	empty := layoutOf("......")
	full := layoutOf("aaaaaa")
	now := t0
	for _, strat := range Strategies(now) {
		for _, s := range []*Schedule{empty, full} {
			if got := strat.Goal(s); math.IsNaN(got) {
				t.Fatalf("strategy %q produced NaN", strat.Name)
			}
		}
	}
}

func TestStrategiesComeInOpposedPairs(t *testing.T) {
	s := layoutOf("aab.cc.a..")
	strategies := Strategies(t0)
	pairs := [][2]string{
		{"Small Victories", "Procrastinator"},
		{"Early Riser", "Problem for Future Me"},
		{"PWM", "Explosive"},
		{"Context Switch", "Hyperfocus"},
	}
	byName := make(map[string]Goal, len(strategies))
	for _, strat := range strategies {
		byName[strat.Name] = strat.Goal
	}
	for _, pair := range pairs {
		a, ok := byName[pair[0]]
		if !ok {
			t.Fatalf("missing strategy %q", pair[0])
		}
		b, ok := byName[pair[1]]
		if !ok {
			t.Fatalf("missing strategy %q", pair[1])
		}
		if !almost(a(s), -b(s)) {
			t.Fatalf("%q and %q are not opposites: %f vs %f", pair[0], pair[1], a(s), b(s))
		}
	}
}
