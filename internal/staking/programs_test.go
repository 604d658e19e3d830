package staking

import "testing"

func TestDeprecatedPrograms_TableShape(t *testing.T) {
	programs := DeprecatedPrograms()
	if len(programs) != 3 {
		t.Fatalf("expected 3 deprecated programs, got %d", len(programs))
	}
	if programs[0].Name != "Everest" || programs[0].Kind != KindMembership {
		t.Fatalf("expected Everest first with membership check, got %+v", programs[0])
	}
	for _, p := range programs[1:] {
		if p.Kind != KindFlag {
			t.Fatalf("expected flag check for %s, got %v", p.Name, p.Kind)
		}
	}
}

func TestParseProgramKind(t *testing.T) {
	if k, err := ParseProgramKind("membership"); err != nil || k != KindMembership {
		t.Fatalf("membership: got %v, %v", k, err)
	}
	if k, err := ParseProgramKind("flag"); err != nil || k != KindFlag {
		t.Fatalf("flag: got %v, %v", k, err)
	}
	if _, err := ParseProgramKind("boolean"); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}
