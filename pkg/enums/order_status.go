package enums

// Order status is deliberately not an enum. Provider orders carry whatever
// string Secsers reports (Pending, In progress, Completed, Partial,
// Canceled, ...) and that vocabulary is not under our control, so the field
// is compared only by exact string equality. The constants below are the
// values this system itself writes.
const (
	// OrderStatusPending seeds a provider order whose placement response
	// carried no status.
	OrderStatusPending = "Pending"

	// Manual approval flow states. PendingApproval is the only non-terminal
	// state; Completed and Rejected are terminal.
	OrderStatusPendingApproval = "Pending Admin Approval"
	OrderStatusCompleted       = "Completed"
	OrderStatusRejected        = "Rejected"
)

// IsTerminalManualStatus reports whether a manual order status admits no
// further approval transitions.
func IsTerminalManualStatus(status string) bool {
	return status == OrderStatusCompleted || status == OrderStatusRejected
}
