package internaldefs

import (
	authcore "github.com/dverkh/authcore"
)

// CounterDef names one engine counter for exporters. Both the Prometheus
// and OpenTelemetry exporters iterate this table so the two surfaces stay in
// sync.
type CounterDef struct {
	ID   authcore.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: authcore.MetricLoginSuccess, Name: "authcore_login_success_total", Help: "Successful login attempts."},
	{ID: authcore.MetricLoginFailure, Name: "authcore_login_failure_total", Help: "Failed login attempts."},
	{ID: authcore.MetricLockoutTriggered, Name: "authcore_lockout_triggered_total", Help: "Lockouts tripped by consecutive credential failures."},
	{ID: authcore.MetricRefreshSuccess, Name: "authcore_refresh_success_total", Help: "Successful refresh rotations."},
	{ID: authcore.MetricRefreshFailure, Name: "authcore_refresh_failure_total", Help: "Failed refresh attempts."},
	{ID: authcore.MetricReplayDetected, Name: "authcore_replay_detected_total", Help: "Refresh tokens presented after they were already redeemed."},
	{ID: authcore.MetricTokenEvicted, Name: "authcore_token_evicted_total", Help: "Refresh tokens evicted by the per-account capacity limit."},
	{ID: authcore.MetricLogout, Name: "authcore_logout_total", Help: "Logout operations."},
	{ID: authcore.MetricRegisterSuccess, Name: "authcore_register_success_total", Help: "Successful account registrations."},
	{ID: authcore.MetricRegisterDuplicate, Name: "authcore_register_duplicate_total", Help: "Registrations rejected as duplicate email."},
	{ID: authcore.MetricPasswordResetRequest, Name: "authcore_password_reset_request_total", Help: "Password reset proofs issued."},
	{ID: authcore.MetricPasswordResetSuccess, Name: "authcore_password_reset_success_total", Help: "Successful password resets."},
	{ID: authcore.MetricPasswordResetFailure, Name: "authcore_password_reset_failure_total", Help: "Failed password resets."},
	{ID: authcore.MetricEmailConfirmSuccess, Name: "authcore_email_confirm_success_total", Help: "Successful email confirmations."},
	{ID: authcore.MetricEmailConfirmFailure, Name: "authcore_email_confirm_failure_total", Help: "Failed email confirmations."},
	{ID: authcore.MetricValidateAccessFailure, Name: "authcore_validate_access_failure_total", Help: "Access tokens rejected by validation."},
}

// AuditDroppedName is the exported name of the dispatcher drop counter,
// which lives outside the snapshot.
const AuditDroppedName = "authcore_audit_dropped_total"

// AuditDroppedHelp documents the drop counter on both export surfaces.
const AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."
