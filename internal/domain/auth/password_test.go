package auth

import "testing"

func TestValidatePassword(t *testing.T) {
	cases := []struct {
		password string
		problems int
	}{
		{"Str0ng!pass", 0},
		{"short1!A", 0},
		{"Sh0rt!", 1},
		{"alllower1!", 1},
		{"ALLUPPER1!", 1},
		{"NoDigits!!", 1},
		{"NoSpecial12", 1},
		{"", 5},
		{"Ämlaut1!x", 1},
	}
	for _, tc := range cases {
		if got := ValidatePassword(tc.password); len(got) != tc.problems {
			t.Fatalf("%q: expected %d problems, got %v", tc.password, tc.problems, got)
		}
	}
}
