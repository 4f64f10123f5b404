package service

// cancelOutcome is what happens to the money when a booking is cancelled.
type cancelOutcome int

const (
	// outcomeRelease returns everything to the student: authorization
	// released or payment refunded, applied credits restored.
	outcomeRelease cancelOutcome = iota
	// outcomeCreditStudent captures the payment and gives the student
	// platform credit worth the lesson price. The instructor is not paid.
	outcomeCreditStudent
	// outcomePayInstructor captures the payment and pays the instructor.
	outcomePayInstructor
)

func (o cancelOutcome) String() string {
	switch o {
	case outcomeRelease:
		return "release"
	case outcomeCreditStudent:
		return "credit_student"
	case outcomePayInstructor:
		return "pay_instructor"
	}
	return "unknown"
}

// Hour thresholds of the cancellation and reschedule policy.
const (
	freeCancelHours  = 24
	lateCancelHours  = 12
	authorizeAhead   = 24
	finalRetryHours  = 6
	maxAuthAttempts  = 3
	minLeadTimeHours = 1
)

// decideCancellation applies the cancellation policy to an unlocked booking
// cancelled hours before its start.
func decideCancellation(byInstructor bool, hours float64) cancelOutcome {
	switch {
	case byInstructor || hours >= freeCancelHours:
		return outcomeRelease
	case hours >= lateCancelHours:
		return outcomeCreditStudent
	default:
		return outcomePayInstructor
	}
}

// decideLockedCancellation applies the policy to a booking whose payment was
// captured and locked by an earlier late reschedule. A release here means a
// refund of the locked amount.
func decideLockedCancellation(byInstructor bool, hours float64) cancelOutcome {
	switch {
	case byInstructor:
		return outcomeRelease
	case hours >= lateCancelHours:
		return outcomeCreditStudent
	default:
		return outcomePayInstructor
	}
}

// rescheduleMode is how a reschedule treats the original payment.
type rescheduleMode int

const (
	rescheduleFree rescheduleMode = iota
	rescheduleLock
	rescheduleRejected
)

func decideReschedule(hours float64) rescheduleMode {
	switch {
	case hours >= freeCancelHours:
		return rescheduleFree
	case hours >= lateCancelHours:
		return rescheduleLock
	default:
		return rescheduleRejected
	}
}
