package cases

// ComputeBalance derives the outstanding balance from the payment figures.
func ComputeBalance(p Payment) float64 {
	return p.Total - p.Discount - p.Received
}

// DeriveStatus maps a balance to the billing status: anything outstanding is
// due, zero or overpaid is settled.
func DeriveStatus(balance float64) CaseStatus {
	if balance > 0 {
		return StatusDue
	}
	return StatusNoDue
}

// Recalculate refreshes the balance and, unless an administrative override
// (cancelled/refund) is in force, the derived status. paymentEdited reports
// whether the caller changed any payment figure; an edit clears the override
// and re-derives.
func (c *Case) Recalculate(paymentEdited bool) {
	c.Payment.Balance = ComputeBalance(c.Payment)
	if c.Status.IsAdminOverride() && !paymentEdited {
		return
	}
	c.Status = DeriveStatus(c.Payment.Balance)
}
