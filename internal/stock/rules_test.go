package stock

import (
	"testing"

	"sitedesk-backend/internal/models"
)

func TestApply(t *testing.T) {
	tests := []struct {
		name         string
		current      float64
		typ          models.TransactionType
		qty          float64
		wantNext     float64
		wantAbsorbed float64
	}{
		{"added", 10, models.TransactionAdded, 5, 15, 0},
		{"used within stock", 10, models.TransactionUsed, 4, 6, 0},
		{"used all", 10, models.TransactionUsed, 10, 0, 0},
		{"used beyond stock", 15, models.TransactionUsed, 20, 0, 5},
		{"used from empty", 0, models.TransactionUsed, 3, 0, 3},
		{"unknown type", 7, models.TransactionType("moved"), 3, 7, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, absorbed := Apply(tt.current, tt.typ, tt.qty)
			if next != tt.wantNext || absorbed != tt.wantAbsorbed {
				t.Fatalf("Apply(%v, %s, %v) = (%v, %v), want (%v, %v)",
					tt.current, tt.typ, tt.qty, next, absorbed, tt.wantNext, tt.wantAbsorbed)
			}
		})
	}
}

func TestApplyRoundTrip(t *testing.T) {
	starts := []float64{0, 0.3, 1, 12.7, 100, 1234.567, 1.23456789, 0.1234564999, 987654.3210987}
	amounts := []float64{0.1, 0.2, 0.3, 1.1, 7.77, 99.99, 1, 0.000002}
	for _, raw := range starts {
		start := Normalize(raw)
		for _, q := range amounts {
			up, _ := Apply(start, models.TransactionAdded, q)
			back, absorbed := Apply(up, models.TransactionUsed, q)
			if back != start || absorbed != 0 {
				t.Errorf("start %v, q %v: got %v (absorbed %v)", start, q, back, absorbed)
			}
		}
	}
}

func TestApplyNeverNegative(t *testing.T) {
	q := 5.0
	seq := []struct {
		typ models.TransactionType
		qty float64
	}{
		{models.TransactionUsed, 3}, {models.TransactionUsed, 9}, {models.TransactionAdded, 0.5},
		{models.TransactionUsed, 0.25}, {models.TransactionUsed, 100}, {models.TransactionAdded, 2},
	}
	for i, s := range seq {
		q, _ = Apply(q, s.typ, s.qty)
		if q < 0 {
			t.Fatalf("step %d: quantity %v < 0", i, q)
		}
	}
	if q != 2 {
		t.Fatalf("final quantity = %v, want 2", q)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		quantity, min float64
		want          Status
	}{
		{50, 50, StatusSufficient},
		{80, 50, StatusSufficient},
		{0, 0, StatusSufficient},
		{3, 0, StatusSufficient},
		{45, 50, StatusLow},
		{20, 50, StatusLow},
		{19.5, 50, StatusCritical},
		{15, 50, StatusCritical},
		{0, 50, StatusCritical},
	}
	for _, tt := range tests {
		if got := Classify(tt.quantity, tt.min); got != tt.want {
			t.Errorf("Classify(%v, %v) = %s, want %s", tt.quantity, tt.min, got, tt.want)
		}
	}
}

func TestIsLow(t *testing.T) {
	if IsLow(models.Material{Quantity: 10, MinStockLevel: 10}) {
		t.Error("quantity at minimum must not be low")
	}
	if !IsLow(models.Material{Quantity: 9.99, MinStockLevel: 10}) {
		t.Error("quantity under minimum must be low")
	}
}

func TestNormalize(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{1.23456789, 1.234568},
		{0.0000004, 0},
		{2.5, 2.5},
		{-3.0000001, -3},
	}
	for _, c := range cases {
		if got := Normalize(c.in); got != c.want {
			t.Errorf("Normalize(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}
