package pass

import "testing"

func TestDescriptions(t *testing.T) {
	if got := None.String(); got != "<no pass>" {
		t.Fatalf("None.String() = %q", got)
	}
	if got := Regalloc.String(); got != "Register allocation" {
		t.Fatalf("Regalloc.String() = %q", got)
	}
	if got := Describe(-1); got != "<no pass>" {
		t.Fatalf("Describe(-1) = %q", got)
	}
	if got := Describe(Count + 3); got != "<no pass>" {
		t.Fatalf("Describe(out of range) = %q", got)
	}
	if got := Pass(200).String(); got != "<no pass>" {
		t.Fatalf("Pass(200).String() = %q", got)
	}
}

func TestCatalogueIsDense(t *testing.T) {
	all := All()
	if len(all) != Count {
		t.Fatalf("All() len = %d, want %d", len(all), Count)
	}
	seen := make(map[string]bool, Count)
	for i, p := range all {
		if p.Index() != i {
			t.Fatalf("pass %s has index %d, want %d", p.Name(), p.Index(), i)
		}
		if p.String() == "" || p.String() == "<no pass>" {
			t.Fatalf("pass %d has no description", i)
		}
		if seen[p.Name()] {
			t.Fatalf("duplicate pass name %q", p.Name())
		}
		seen[p.Name()] = true
	}
	if None.Index() != Count {
		t.Fatalf("None index = %d, want %d", None.Index(), Count)
	}
}

func TestLookup(t *testing.T) {
	tests := []struct {
		name string
		want Pass
		ok   bool
	}{
		{"process_file", ProcessFile, true},
		{"ra_coloring", RAColoring, true},
		{"layout_renumber", LayoutRenumber, true},
		{"nope", None, false},
	}
	for _, tt := range tests {
		got, ok := Lookup(tt.name)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Lookup(%q) = (%v, %v), want (%v, %v)", tt.name, got, ok, tt.want, tt.ok)
		}
	}
}
