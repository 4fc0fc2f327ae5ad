package traits

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		family  string
		pathway string
		annual  bool
		want    Trait
		wantErr bool
	}{
		{"perennial grass", "Grass", "C3", false, Grass | C3 | Perennial, false},
		{"annual grass", "annual grass", "c4", true, Grass | C4 | Annual, false},
		{"legume default pathway", "legume", "", false, Legume | C3 | Perennial, false},
		{"empty family is forb", "", "C3", false, Forb | C3 | Perennial, false},
		{"bad pathway", "grass", "CAM", false, 0, true},
		{"bad family", "shrub", "C3", false, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.family, tt.pathway, tt.annual)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Parse() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTraitString(t *testing.T) {
	tr := Legume | C3 | Perennial
	if got := tr.String(); got != "legume|C3|perennial" {
		t.Errorf("String() = %q", got)
	}
	if !IsLegume(tr) || IsAnnual(tr) {
		t.Errorf("unexpected predicates for %v", tr)
	}
	if tr.Remove(Legume).Has(Legume) {
		t.Error("Remove did not clear Legume")
	}
}
