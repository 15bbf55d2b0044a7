package cases

import "testing"

func TestComputeBalance(t *testing.T) {
	tests := []struct {
		name string
		p    Payment
		want float64
	}{
		{"full due", Payment{Total: 1000}, 1000},
		{"discount applied", Payment{Total: 1000, Discount: 100}, 900},
		{"partially paid", Payment{Total: 1000, Discount: 100, Received: 400}, 500},
		{"settled", Payment{Total: 1000, Received: 1000}, 0},
		{"overpaid", Payment{Total: 1000, Received: 1200}, -200},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ComputeBalance(tc.p); got != tc.want {
				t.Errorf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestDeriveStatus(t *testing.T) {
	if got := DeriveStatus(0.01); got != StatusDue {
		t.Errorf("positive balance: expected due, got %q", got)
	}
	if got := DeriveStatus(0); got != StatusNoDue {
		t.Errorf("zero balance: expected no due, got %q", got)
	}
	if got := DeriveStatus(-50); got != StatusNoDue {
		t.Errorf("negative balance: expected no due, got %q", got)
	}
}

func TestRecalculateDerivesStatus(t *testing.T) {
	c := &Case{Payment: Payment{Total: 500, Received: 200}}
	c.Recalculate(true)
	if c.Payment.Balance != 300 {
		t.Errorf("expected balance 300, got %v", c.Payment.Balance)
	}
	if c.Status != StatusDue {
		t.Errorf("expected due, got %q", c.Status)
	}

	c.Payment.Received = 500
	c.Recalculate(true)
	if c.Status != StatusNoDue {
		t.Errorf("expected no due, got %q", c.Status)
	}
}

func TestRecalculatePreservesOverrideWithoutPaymentEdit(t *testing.T) {
	c := &Case{
		Status:  StatusCancelled,
		Payment: Payment{Total: 500},
	}
	c.Recalculate(false)
	if c.Status != StatusCancelled {
		t.Errorf("expected cancelled preserved, got %q", c.Status)
	}
	if c.Payment.Balance != 500 {
		t.Errorf("expected balance still computed, got %v", c.Payment.Balance)
	}
}

func TestRecalculateClearsOverrideOnPaymentEdit(t *testing.T) {
	c := &Case{
		Status:  StatusRefund,
		Payment: Payment{Total: 500, Received: 500},
	}
	c.Recalculate(true)
	if c.Status != StatusNoDue {
		t.Errorf("expected payment edit to re-derive status, got %q", c.Status)
	}
}
