package valueobjects

type SubscriptionStatus string

const (
	StatusTrialing  SubscriptionStatus = "trialing"
	StatusActive    SubscriptionStatus = "active"
	StatusPastDue   SubscriptionStatus = "past_due"
	StatusCancelled SubscriptionStatus = "cancelled"
)

func (s SubscriptionStatus) String() string {
	return string(s)
}

func (s SubscriptionStatus) IsTerminal() bool {
	return s == StatusCancelled
}

// CanTransitionTo reports whether the lifecycle allows moving from s to target.
// Leaving cancelled is only possible through reactivation, which targets active.
func (s SubscriptionStatus) CanTransitionTo(target SubscriptionStatus) bool {
	transitions := map[SubscriptionStatus][]SubscriptionStatus{
		StatusTrialing:  {StatusActive, StatusPastDue, StatusCancelled},
		StatusActive:    {StatusPastDue, StatusCancelled},
		StatusPastDue:   {StatusActive, StatusCancelled},
		StatusCancelled: {StatusActive},
	}

	for _, allowed := range transitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

var ValidStatuses = map[SubscriptionStatus]bool{
	StatusTrialing:  true,
	StatusActive:    true,
	StatusPastDue:   true,
	StatusCancelled: true,
}
