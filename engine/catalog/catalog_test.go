package catalog

import (
	"errors"
	"fmt"
	"testing"
)

func TestYearRange(t *testing.T) {
	to := 2023
	zero := 0
	tests := []struct {
		name string
		car  Car
		want string
	}{
		{"open", Car{Year: 2019}, "2019–"},
		{"closed", Car{Year: 2019, YearTo: &to}, "2019–2023"},
		{"zero end", Car{Year: 2019, YearTo: &zero}, "2019–"},
		{"unknown", Car{}, "0–"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.car.YearRange(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHTTPError(t *testing.T) {
	var err error = fmt.Errorf("carapi: list makes: %w", NewHTTPError(503, "https://x/makes"))
	var he *HTTPError
	if !errors.As(err, &he) {
		t.Fatal("expected HTTPError in chain")
	}
	if he.Status != 503 {
		t.Errorf("status = %d", he.Status)
	}
	if he.Error() != "HTTP 503 for https://x/makes" {
		t.Errorf("message = %q", he.Error())
	}
}

func TestSpecIsZero(t *testing.T) {
	if !(Spec{}).IsZero() {
		t.Error("empty spec should be zero")
	}
	if (Spec{Trim: "GT3"}).IsZero() {
		t.Error("spec with trim should not be zero")
	}
}
