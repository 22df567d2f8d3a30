package status

import "testing"

func TestSystemStatusCounters(t *testing.T) {
	var s SystemStatus

	s.RecordProcessCreated()
	s.RecordProcessCreated()
	s.RecordViolation()
	s.RecordError(TableFull)

	snap := s.Snapshot()
	s.RecordViolation()

	if snap.TotalProcessesCreated != 2 || snap.ActiveProcesses != 2 {
		t.Fatalf("expected 2 created/active processes; got %d/%d", snap.TotalProcessesCreated, snap.ActiveProcesses)
	}

	if snap.SecurityViolations != 1 {
		t.Fatalf("expected snapshot to hold 1 violation; got %d", snap.SecurityViolations)
	}

	if s.SecurityViolations != 2 {
		t.Fatalf("expected live status to hold 2 violations; got %d", s.SecurityViolations)
	}

	if snap.LastErrorCode != TableFull {
		t.Fatalf("expected last error %v; got %v", TableFull, snap.LastErrorCode)
	}
}

func TestStringers(t *testing.T) {
	specs := []struct {
		got, exp string
	}{
		{None.String(), "none"},
		{TableFull.String(), "table-full"},
		{ResourceExhausted.String(), "resource-exhausted"},
		{InvalidArgument.String(), "invalid-argument"},
		{CapacityMisconfigured.String(), "capacity-misconfigured"},
		{InitFailed.String(), "init-failed"},
		{ErrorCode(99).String(), "unknown"},
		{Off.String(), "off"},
		{Running.String(), "running"},
		{Halted.String(), "halted"},
		{State(99).String(), "unknown"},
	}

	for specIndex, spec := range specs {
		if spec.got != spec.exp {
			t.Errorf("[spec %d] expected %q; got %q", specIndex, spec.exp, spec.got)
		}
	}
}
