package steer

// Mediator is the callback table a policy uses to interact with the
// owning stack/executor, decoupling policy FSMs from steering execution.
type Mediator interface {
	// ScheduleStackRecalc asks the stack owner to run a recalc pass soon
	// (not necessarily synchronously).
	ScheduleStackRecalc(policy *Policy)

	// TriggerExecutor asks to actually steer policy's station. Returns
	// true if the executor accepted and will attempt the steer, false if
	// it is unavailable or busy; the false case is not itself an error —
	// the policy runs its timers and behaves as if it had attempted a
	// steer either way.
	TriggerExecutor(policy *Policy) bool

	// DismissExecutor cancels a previously triggered executor request.
	DismissExecutor(policy *Policy)

	// NotifyBackoff reports that policy has entered a backoff interval.
	NotifyBackoff(policy *Policy, seconds uint32)

	// NotifySteeringAttempt reports that policy attempted a steer,
	// regardless of whether TriggerExecutor actually returned true.
	NotifySteeringAttempt(policy *Policy)
}
