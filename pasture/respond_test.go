package pasture

import (
	"math"
	"testing"
)

// ---------- temperature response ----------

func TestTemperatureLimitingFactor(t *testing.T) {
	c3 := TempResponse{Tmin: 2, Topt: 20, Tq: 1.75}
	c4 := TempResponse{Tmin: 12, Topt: 32, Tq: 2, C4: true}

	tests := []struct {
		name string
		t    float64
		r    TempResponse
		want float64
	}{
		{"C3 at optimum", 20, c3, 1},
		{"C3 at minimum", 2, c3, 0},
		{"C3 below minimum", -5, c3, 0},
		{"C3 beyond maximum", c3.Tmax() + 1, c3, 0},
		{"C4 at optimum", 32, c4, 1},
		{"C4 above optimum holds", 38, c4, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TemperatureLimitingFactor(tt.t, tt.r)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("TemperatureLimitingFactor(%v) = %v, want %v", tt.t, got, tt.want)
			}
		})
	}
}

func TestTemperatureLimitingFactor_ExactAtOptimum(t *testing.T) {
	r := TempResponse{Tmin: 2, Topt: 20, Tq: 1.75}
	if got := TemperatureLimitingFactor(r.Topt, r); got != 1.0 {
		t.Errorf("factor at Topt = %v, want exactly 1", got)
	}
}

func TestTemperatureLimitingFactor_Bounded(t *testing.T) {
	r := TempResponse{Tmin: 2, Topt: 20, Tq: 1.75}
	for temp := -10.0; temp <= 45; temp += 0.5 {
		got := TemperatureLimitingFactor(temp, r)
		if got < 0 || got > 1 {
			t.Fatalf("factor at %.1f = %v, outside [0,1]", temp, got)
		}
	}
}

// ---------- CO2 ----------

func TestCO2Effects_ReferenceIdentity(t *testing.T) {
	const ref = 380.0
	if got := PCO2Effects(ref, ref, 700); got != 1.0 {
		t.Errorf("PCO2Effects at reference = %v, want exactly 1", got)
	}
	if got := NCO2Effects(ref, ref, 600, 0.7, 2); got != 1.0 {
		t.Errorf("NCO2Effects at reference = %v, want exactly 1", got)
	}
	if got := ConductanceCO2Effects(ref, ref); got != 1.0 {
		t.Errorf("ConductanceCO2Effects at reference = %v, want exactly 1", got)
	}
}

func TestCO2Effects_Elevated(t *testing.T) {
	if got := PCO2Effects(550, 380, 700); got <= 1 {
		t.Errorf("PCO2Effects(550) = %v, want > 1", got)
	}
	got := NCO2Effects(550, 380, 600, 0.7, 2)
	if got >= 1 || got < 0.7 {
		t.Errorf("NCO2Effects(550) = %v, want in [0.7, 1)", got)
	}
	if got := NCO2Effects(300, 380, 600, 0.7, 2); got != 1 {
		t.Errorf("NCO2Effects below reference = %v, want 1", got)
	}
}

// ---------- turnover factors ----------

func TestTurnoverTempFactor(t *testing.T) {
	tests := []struct {
		t, want float64
	}{
		{0, 0}, {2, 0}, {11, 0.5}, {20, 1}, {30, 1},
	}
	for _, tt := range tests {
		if got := TurnoverTempFactor(tt.t, 2, 20); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("TurnoverTempFactor(%v) = %v, want %v", tt.t, got, tt.want)
		}
	}
}

func TestTurnoverWaterFactor(t *testing.T) {
	tests := []struct {
		glf, want float64
	}{
		{1, 1}, {0.5, 1}, {0.25, 1.5}, {0, 2},
	}
	for _, tt := range tests {
		if got := TurnoverWaterFactor(tt.glf, 0.5, 2); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("TurnoverWaterFactor(%v) = %v, want %v", tt.glf, got, tt.want)
		}
	}
}

// ---------- broken stick ----------

func TestBrokenStick(t *testing.T) {
	b, err := NewBrokenStick([]float64{0, 1000, 2000}, []float64{0, 50, 150})
	if err != nil {
		t.Fatalf("NewBrokenStick: %v", err)
	}
	tests := []struct {
		x, want float64
	}{
		{-10, 0}, {0, 0}, {500, 25}, {1500, 100}, {2000, 150}, {5000, 150},
	}
	for _, tt := range tests {
		if got := b.Value(tt.x); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Value(%v) = %v, want %v", tt.x, got, tt.want)
		}
	}
}

func TestBrokenStick_Errors(t *testing.T) {
	if _, err := NewBrokenStick([]float64{0, 1}, []float64{0}); err == nil {
		t.Error("expected error for mismatched lengths")
	}
	if _, err := NewBrokenStick([]float64{0}, []float64{0}); err == nil {
		t.Error("expected error for a single point")
	}
}

// ---------- atmosphere ----------

func TestVPD(t *testing.T) {
	// Saturated air has no deficit
	if got := VPD(10, 10, SVP(10)); math.Abs(got) > 1e-9 {
		t.Errorf("VPD of saturated air = %v, want 0", got)
	}
	if got := VPD(25, 10, 10); got <= 0 {
		t.Errorf("VPD(25,10,10) = %v, want > 0", got)
	}
}

func TestPlantCover(t *testing.T) {
	if got := PlantCover(0, 0.5); got != 0 {
		t.Errorf("cover of bare ground = %v", got)
	}
	want := 1 - math.Exp(-1.5)
	if got := PlantCover(3, 0.5); math.Abs(got-want) > 1e-12 {
		t.Errorf("PlantCover(3, 0.5) = %v, want %v", got, want)
	}
}

func TestDivide(t *testing.T) {
	if got := divide(1, 0, 7); got != 7 {
		t.Errorf("divide by zero = %v, want default 7", got)
	}
	if got := divide(1, 4, 7); got != 0.25 {
		t.Errorf("divide(1,4) = %v", got)
	}
}
