package enums

// CheckoutState is the position of a checkout attempt in idle → confirming → submitting → done|failed.
type CheckoutState string

const (
	CheckoutStateIdle       CheckoutState = "idle"
	CheckoutStateConfirming CheckoutState = "confirming"
	CheckoutStateSubmitting CheckoutState = "submitting"
	CheckoutStateDone       CheckoutState = "done"
	CheckoutStateFailed     CheckoutState = "failed"
)

func (s CheckoutState) String() string {
	return string(s)
}

// Terminal reports whether the attempt has settled.
func (s CheckoutState) Terminal() bool {
	return s == CheckoutStateDone || s == CheckoutStateFailed
}
