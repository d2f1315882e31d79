package goAccount

import "context"

func (m *Manager) emitAudit(ctx context.Context, eventType AuditEventType, userID int64, email, ip string, r Result, metadata map[string]string) {
	if m.audit == nil {
		return
	}
	if ip == "" {
		ip = clientIPFromContext(ctx)
	}
	if userID == UnassignedID {
		userID = 0
	}

	m.audit.Emit(ctx, AuditEvent{
		Timestamp: m.now(),
		EventType: eventType,
		UserID:    userID,
		Email:     email,
		IP:        ip,
		Success:   r == ResultOK,
		Result:    r.String(),
		Metadata:  metadata,
	})
}
