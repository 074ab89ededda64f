package wizard

import "testing"

func TestTransitionTable(t *testing.T) {
	legal := []struct{ from, to State }{
		{StateIdle, StateFetching},
		{StateFetching, StateReviewing},
		{StateFetching, StateIdle},
		{StateReviewing, StateCommitting},
		{StateReviewing, StateIdle},
		{StateCommitting, StateDone},
		{StateCommitting, StateFailed},
		{StateDone, StateIdle},
		{StateFailed, StateIdle},
	}
	for _, tc := range legal {
		if !CanTransition(tc.from, tc.to) {
			t.Errorf("expected %s -> %s to be legal", tc.from, tc.to)
		}
	}

	illegal := []struct{ from, to State }{
		{StateIdle, StateReviewing},
		{StateIdle, StateCommitting},
		{StateFetching, StateCommitting},
		{StateReviewing, StateDone},
		{StateDone, StateCommitting},
		{StateFailed, StateReviewing},
		{StateCommitting, StateReviewing},
	}
	for _, tc := range illegal {
		if CanTransition(tc.from, tc.to) {
			t.Errorf("expected %s -> %s to be rejected", tc.from, tc.to)
		}
	}
}

func TestValidVariant(t *testing.T) {
	if !ValidVariant(VariantImport) || !ValidVariant(VariantSync) {
		t.Fatalf("known variants must validate")
	}
	if ValidVariant(Variant("export")) {
		t.Fatalf("unknown variant must not validate")
	}
}
