package firmware

import "testing"

func TestProgress_Relative(t *testing.T) {
	{
		// Positive test case
		p := NewProgress(500, 1000)
		if p.Relative() != 0.5 {
			t.Fatalf("Expected relative 0.5, got %f", p.Relative())
		}
		if p.Percentage() != 50 {
			t.Fatalf("Expected percentage 50, got %f", p.Percentage())
		}
	}
	{
		// Zero total must not divide by zero
		p := NewProgress(5, 0)
		if p.Relative() != 0 {
			t.Fatalf("Expected relative 0 for zero total, got %f", p.Relative())
		}
		if p.Percentage() != 0 {
			t.Fatalf("Expected percentage 0 for zero total, got %f", p.Percentage())
		}
	}
	{
		// Completed transfer
		p := NewProgress(1000, 1000)
		if p.Percentage() != 100 {
			t.Fatalf("Expected percentage 100, got %f", p.Percentage())
		}
	}
}
