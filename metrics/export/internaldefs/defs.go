package internaldefs

import (
	goAccount "github.com/MrEthical07/goAccount"
)

// CounterDef names one goAccount counter for export.
type CounterDef struct {
	ID   goAccount.MetricID
	Name string
	Help string
}

// HistogramDef names one goAccount histogram for export.
type HistogramDef struct {
	ID   goAccount.MetricID
	Name string
	Help string
}

// AuditDroppedName is the counter exported for Manager.AuditDropped.
const (
	AuditDroppedName = "goaccount_audit_dropped_total"
	AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."
)

// CounterDefs lists every exported counter in MetricID order.
var CounterDefs = []CounterDef{
	{ID: goAccount.MetricRegistrationSuccess, Name: "goaccount_registration_success_total", Help: "Accounts created by self-registration."},
	{ID: goAccount.MetricRegistrationRejected, Name: "goaccount_registration_rejected_total", Help: "Registrations refused because the email or name is taken."},
	{ID: goAccount.MetricManualRegistration, Name: "goaccount_manual_registration_total", Help: "Accounts created by an administrator."},
	{ID: goAccount.MetricRegistrationConfirmSuccess, Name: "goaccount_registration_confirm_success_total", Help: "Successful registration confirmations."},
	{ID: goAccount.MetricRegistrationConfirmFailure, Name: "goaccount_registration_confirm_failure_total", Help: "Refused registration confirmations."},
	{ID: goAccount.MetricRegistrationEmailResent, Name: "goaccount_registration_email_resent_total", Help: "Resent registration emails."},
	{ID: goAccount.MetricLoginSuccess, Name: "goaccount_login_success_total", Help: "Successful password logins."},
	{ID: goAccount.MetricLoginFailure, Name: "goaccount_login_failure_total", Help: "Password logins refused for an unknown user or wrong password."},
	{ID: goAccount.MetricLoginUnconfirmed, Name: "goaccount_login_unconfirmed_total", Help: "Logins refused because the registration is unconfirmed."},
	{ID: goAccount.MetricLoginWithoutPassword, Name: "goaccount_login_without_password_total", Help: "Privileged logins without a password."},
	{ID: goAccount.MetricSocialLogin, Name: "goaccount_social_login_total", Help: "Logins through a linked external identity."},
	{ID: goAccount.MetricLogout, Name: "goaccount_logout_total", Help: "Logouts."},
	{ID: goAccount.MetricPasswordChangeSuccess, Name: "goaccount_password_change_success_total", Help: "Successful password changes."},
	{ID: goAccount.MetricPasswordChangeInvalidOld, Name: "goaccount_password_change_invalid_old_total", Help: "Password changes refused for a wrong old password."},
	{ID: goAccount.MetricAccountDeleted, Name: "goaccount_account_deleted_total", Help: "Cancelled registrations."},
	{ID: goAccount.MetricPasswordResetRequest, Name: "goaccount_password_reset_request_total", Help: "Issued password reset tokens."},
	{ID: goAccount.MetricPasswordResetConfirmSuccess, Name: "goaccount_password_reset_confirm_success_total", Help: "Successful password resets."},
	{ID: goAccount.MetricPasswordResetConfirmFailure, Name: "goaccount_password_reset_confirm_failure_total", Help: "Password resets refused for an invalid token."},
	{ID: goAccount.MetricEmailSendFailure, Name: "goaccount_email_send_failure_total", Help: "Failed email deliveries."},
	{ID: goAccount.MetricDatabaseError, Name: "goaccount_database_error_total", Help: "Storage failures reported as DATABASE_ERROR."},
}

var HistogramDefs = []HistogramDef{
	{ID: goAccount.MetricLoginLatency, Name: "goaccount_login_latency_seconds", Help: "LogIn latency."},
}

// HistogramBounds are the upper bounds of the core histogram buckets as
// Prometheus le labels.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundValues are HistogramBounds without the +Inf bucket.
var HistogramBoundValues = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed-size array, zero filling.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
