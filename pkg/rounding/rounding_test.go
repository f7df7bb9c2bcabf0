package rounding

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestRoundDown(t *testing.T) {
	tests := []struct {
		x      string
		places int32
		want   string
	}{
		{"0.5", 2, "0.5"},
		{"0.56789", 2, "0.56"},
		{"0.56789", 4, "0.5678"},
		{"1", 0, "1"},
		{"1.999", 0, "1"},
		{"100.000001", 6, "100.000001"},
	}
	for _, tt := range tests {
		got := RoundDown(d(tt.x), tt.places)
		if !got.Equal(d(tt.want)) {
			t.Errorf("RoundDown(%s, %d) = %s, want %s", tt.x, tt.places, got, tt.want)
		}
	}
}

func TestRoundUp(t *testing.T) {
	tests := []struct {
		x      string
		places int32
		want   string
	}{
		{"0.5", 2, "0.5"},
		{"0.56189", 2, "0.57"},
		{"0.56011", 4, "0.5602"},
		{"1.001", 0, "2"},
		{"21.04", 2, "21.04"},
	}
	for _, tt := range tests {
		got := RoundUp(d(tt.x), tt.places)
		if !got.Equal(d(tt.want)) {
			t.Errorf("RoundUp(%s, %d) = %s, want %s", tt.x, tt.places, got, tt.want)
		}
	}
}

func TestRoundNormal(t *testing.T) {
	tests := []struct {
		x      string
		places int32
		want   string
	}{
		{"0.555", 2, "0.56"},
		{"0.554", 2, "0.55"},
		{"0.545", 2, "0.55"},
		{"0.5", 4, "0.5"},
		{"0.12345", 4, "0.1235"},
	}
	for _, tt := range tests {
		got := RoundNormal(d(tt.x), tt.places)
		if !got.Equal(d(tt.want)) {
			t.Errorf("RoundNormal(%s, %d) = %s, want %s", tt.x, tt.places, got, tt.want)
		}
	}
}

func TestDecimalPlaces(t *testing.T) {
	tests := []struct {
		x    string
		want int32
	}{
		{"0", 0},
		{"100", 0},
		{"1.50", 1},
		{"0.0001", 4},
		{"949.9970999999999", 13},
		{"1E3", 0},
	}
	for _, tt := range tests {
		if got := DecimalPlaces(d(tt.x)); got != tt.want {
			t.Errorf("DecimalPlaces(%s) = %d, want %d", tt.x, got, tt.want)
		}
	}
}

func TestRoundingBoundsAndIdempotence(t *testing.T) {
	values := []string{"0", "0.1", "0.123456789", "7.5", "12.0000001", "0.999999", "3.14159265358979"}
	for _, v := range values {
		x := d(v)
		for places := int32(0); places <= 8; places++ {
			down := RoundDown(x, places)
			up := RoundUp(x, places)
			near := RoundNormal(x, places)

			if down.GreaterThan(x) || up.LessThan(x) {
				t.Errorf("bounds broken for %s at %d: down=%s up=%s", v, places, down, up)
			}
			for name, r := range map[string]decimal.Decimal{"down": down, "up": up, "normal": near} {
				if DecimalPlaces(r) > places {
					t.Errorf("%s(%s, %d) = %s has too many places", name, v, places, r)
				}
			}
			if !RoundDown(down, places).Equal(down) || !RoundUp(up, places).Equal(up) || !RoundNormal(near, places).Equal(near) {
				t.Errorf("rounding %s at %d is not idempotent", v, places)
			}
		}
	}
}

func TestToBaseUnits(t *testing.T) {
	got, err := ToBaseUnits(d("21.04"), 6)
	if err != nil {
		t.Fatalf("ToBaseUnits: %v", err)
	}
	if got.String() != "21040000" {
		t.Errorf("ToBaseUnits = %s, want 21040000", got)
	}

	if _, err := ToBaseUnits(d("0.0000001"), 6); err == nil {
		t.Error("expected error for sub-unit amount")
	}
	if _, err := ToBaseUnits(d("-1"), 6); err == nil {
		t.Error("expected error for negative amount")
	}

	back := FromBaseUnits(got, 6)
	if !back.Equal(d("21.04")) {
		t.Errorf("FromBaseUnits = %s, want 21.04", back)
	}
}
