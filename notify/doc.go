// Package notify delivers goAccount emails.
//
// [Mailer] implements goAccount.Notifier. It renders each email from
// text/template sources and hands the resulting [Message] to a [Sender]:
// [SMTP] for direct delivery, [Outbox] to queue jobs in Redis for a separate
// worker, or [Log] for development. [Relay] drains an Outbox into another
// Sender.
package notify
