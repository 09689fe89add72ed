package urgency

import "testing"

func TestFormatKmRemaining(t *testing.T) {
	tests := []struct {
		in   *int
		want string
	}{
		{nil, ""},
		{intp(-250), "Overdue by 250 distance units"},
		{intp(0), "Due now"},
		{intp(1200), "1200 distance units remaining"},
	}
	for _, tt := range tests {
		if got := FormatKmRemaining(tt.in); got != tt.want {
			t.Errorf("FormatKmRemaining(%v) = %q, want %q", intOrNil(tt.in), got, tt.want)
		}
	}
}

func TestFormatDaysRemaining(t *testing.T) {
	tests := []struct {
		in   *int
		want string
	}{
		{nil, ""},
		{intp(-3), "Overdue by 3 days"},
		{intp(0), "Due today"},
		{intp(1), "Due tomorrow"},
		{intp(12), "Due in 12 days"},
	}
	for _, tt := range tests {
		if got := FormatDaysRemaining(tt.in); got != tt.want {
			t.Errorf("FormatDaysRemaining(%v) = %q, want %q", intOrNil(tt.in), got, tt.want)
		}
	}
}
