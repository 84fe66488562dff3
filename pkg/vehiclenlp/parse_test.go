package vehiclenlp

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParse(t *testing.T) {
	p := NewParser([]string{"BMW", "Volkswagen", "Aston Martin", "Acme"})
	cases := []struct {
		in   string
		want Search
	}{
		{"", Search{}},
		{"2019 vw golf diesel manual", Search{Make: "Volkswagen", Year: 2019, Fuel: "diesel", Transmission: "Manual", Terms: "golf"}},
		{"bmw x5 hybrid", Search{Make: "BMW", Fuel: "hybrid", Terms: "x5"}},
		{"Aston Martin DB11 auto", Search{Make: "Aston Martin", Transmission: "Automatic", Terms: "db11"}},
		{"'98 acme roadster", Search{Make: "Acme", Year: 1998, Terms: "roadster"}},
		{"merc's eqs, electric", Search{Make: "Mercedes-Benz", Fuel: "electric", Terms: "eqs"}},
		{"range rover sport", Search{Make: "Land Rover", Terms: "sport"}},
		{"roadster 1700", Search{Terms: "roadster 1700"}},
		{"bmw vw", Search{Make: "BMW", Terms: "vw"}},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			if diff := cmp.Diff(c.want, p.Parse(c.in)); diff != "" {
				t.Fatalf("Parse(%q) (-want +got):\n%s", c.in, diff)
			}
		})
	}
}

func TestParseYear(t *testing.T) {
	cases := map[string]int{
		"2024": 2024,
		"1886": 1886,
		"1885": 0,
		"'05":  2005,
		"'75":  1975,
		"205":  0,
		"x5":   0,
	}
	for in, want := range cases {
		if got := parseYear(in); got != want {
			t.Errorf("parseYear(%q) = %d, want %d", in, got, want)
		}
	}
}
