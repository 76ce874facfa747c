package incident

import (
	"context"
	"encoding/json"

	domainincident "insiden/internal/domain/incident"
	"insiden/internal/errs"
	"insiden/internal/ports"
)

// appendAuditTx inserts one immutable audit row inside the caller's
// transaction. fromStatus is nil only for the creation event.
func appendAuditTx(ctx context.Context, repo ports.IncidentRepository, incidentID int64, actorID int64, fromStatus *domainincident.IncidentStatus, toStatus domainincident.IncidentStatus, diff map[string]any) error {
	payload := ""
	if len(diff) > 0 {
		encoded, err := json.Marshal(diff)
		if err != nil {
			return errs.Wrap(err, "encode audit diff")
		}
		payload = string(encoded)
	}

	return repo.AppendAuditLog(ctx, ports.AuditLogCreate{
		IncidentID:  incidentID,
		ActorID:     actorID,
		FromStatus:  fromStatus,
		ToStatus:    toStatus,
		PayloadDiff: payload,
	})
}
