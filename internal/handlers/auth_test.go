package handlers

import "testing"

func TestCheckPassword(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		password string
		ok       bool
	}{
		{"empty", "", false},
		{"too_short", "aB1!", false},
		{"one_class", "aaaaaaaa", false},
		{"two_classes", "aaaa1111", false},
		{"lower_upper_digit", "aaaAAA11", true},
		{"lower_digit_special", "aaaa11!!", true},
		{"all_classes", "Str0ng-pass", true},
		{"exactly_eight", "aB3defgh", true},
		{"unicode_letters", "aB3defgé", true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			err := CheckPassword(tt.password)
			if tt.ok && err != nil {
				t.Fatalf("CheckPassword(%q) = %v, want nil", tt.password, err)
			}
			if !tt.ok && err == nil {
				t.Fatalf("CheckPassword(%q) = nil, want error", tt.password)
			}
		})
	}
}
