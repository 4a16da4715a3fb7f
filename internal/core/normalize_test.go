package core

import "testing"

func TestNormalizeService(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Taller IA - Administrativos", "Talleres IA"},
		{"Taller IA - Abogados", "Talleres IA"},
		{"taller ia administrativos", "Talleres IA"},
		{"TALLER  IA   ABOGADOS", "Talleres IA"},
		{"  taller ia - abogados  ", "Talleres IA"},
		{"Clases particulares", "Clases particulares"},
		{"  Cápsulas  ", "Cápsulas"},
		{"", ""},
		{"   ", ""},
	}
	for _, tc := range cases {
		if got := NormalizeService(tc.in); got != tc.want {
			t.Fatalf("NormalizeService(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeServiceIdempotent(t *testing.T) {
	inputs := []string{
		"Taller IA - Administrativos",
		"taller ia abogados",
		"Programa acompañamiento",
		"  algo raro  ",
		"",
	}
	for _, in := range inputs {
		once := NormalizeService(in)
		if twice := NormalizeService(once); twice != once {
			t.Fatalf("NormalizeService not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}
