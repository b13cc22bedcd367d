package series

import (
	"math"
	"reflect"
	"testing"
)

func TestRangesMask(t *testing.T) {
	cols := map[string][]float64{
		"uz": {-1, -0.1, 0, 2, 3},
		"w":  {1, 2, 3, 4, 5},
		"x":  {math.NaN(), 0, math.NaN(), 1, 2},
	}
	tests := []struct {
		name string
		r    Ranges
		want []bool
	}{
		{"inclusive", Ranges{"uz": {-0.1, 2}}, []bool{false, true, true, true, false}},
		{"two", Ranges{"uz": {-0.1, 2}, "w": {3, 10}}, []bool{false, false, true, true, false}},
		{"empty", Ranges{}, []bool{true, true, true, true, true}},
		{"nan", Ranges{"x": {math.Inf(-1), math.Inf(1)}}, []bool{false, true, false, true, true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.r.Mask(cols, 5)
			if err != nil {
				t.Fatalf("Mask failed: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := (Ranges{"y": {0, 1}}).Mask(cols, 5); err == nil {
		t.Error("missing column: expected error")
	}
	if _, err := (Ranges{"w": {math.NaN(), 1}}).Mask(cols, 5); err == nil {
		t.Error("nan bound: expected error")
	}
}

func TestExpressionSelectors(t *testing.T) {
	cols := map[string][]float64{
		"x":  {-2, -1, 0, 1, 2},
		"uz": {0, 1, 2, 3, 4},
	}
	tests := []struct {
		expr string
		cel  string
		vars []string
		want []bool
	}{
		{"uz > 1", "uz > 1.0", []string{"uz"}, []bool{false, false, true, true, true}},
		{"abs(x) <= 1 && uz >= 1", "(x <= 1.0 && x >= -1.0) && uz >= 1.0", []string{"uz", "x"}, []bool{false, true, true, true, false}},
		{"x * uz < 0", "x * uz < 0.0", []string{"uz", "x"}, []bool{false, true, false, false, false}},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			es, err := NewExprSelector(tt.expr)
			if err != nil {
				t.Fatalf("NewExprSelector failed: %v", err)
			}
			cs, err := NewCELSelector(tt.cel)
			if err != nil {
				t.Fatalf("NewCELSelector failed: %v", err)
			}
			for _, sel := range []Selection{es, cs} {
				if !reflect.DeepEqual(sel.Vars(), tt.vars) {
					t.Errorf("%T Vars = %v, want %v", sel, sel.Vars(), tt.vars)
				}
				got, err := sel.Mask(cols, 5)
				if err != nil {
					t.Fatalf("%T Mask failed: %v", sel, err)
				}
				if !reflect.DeepEqual(got, tt.want) {
					t.Errorf("%T got %v, want %v", sel, got, tt.want)
				}
			}
		})
	}
}

func TestExpressionSelectorErrors(t *testing.T) {
	for _, expr := range []string{"", "uz +", "uz + 1", "energy > 1"} {
		if _, err := NewExprSelector(expr); err == nil {
			t.Errorf("NewExprSelector(%q): expected error", expr)
		}
	}
	for _, expr := range []string{"", "uz >", "uz + 1.0", "energy > 1.0"} {
		if _, err := NewCELSelector(expr); err == nil {
			t.Errorf("NewCELSelector(%q): expected error", expr)
		}
	}
}
