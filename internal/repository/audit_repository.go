package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/evgkirov/member-content-system/internal/model"
)

// AuditRepo appends to and reads the append-only audit_logs table. Append
// runs on whatever DBTX the repo was built with; mutating handlers bind it
// to their transaction so audit and mutation commit atomically.
type AuditRepo struct{ DB DBTX }

func NewAuditRepo(db DBTX) *AuditRepo { return &AuditRepo{DB: db} }

// Append inserts one audit row. Rows are never updated or deleted.
func (r *AuditRepo) Append(ctx context.Context, e model.AuditLog) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO audit_logs (user_id, action, target_id, device_info, ip_address, meta) VALUES (?,?,?,?,?,?)",
		e.UserID, e.Action, e.TargetID, e.DeviceInfo, e.IPAddress, e.Meta)
	return err
}

func scanAuditRows(rows *sql.Rows) ([]model.AuditLog, error) {
	defer rows.Close()
	logs := []model.AuditLog{}
	for rows.Next() {
		var (
			e          model.AuditLog
			userID     sql.NullString
			targetID   sql.NullString
			deviceInfo sql.NullString
			ip         sql.NullString
			meta       sql.NullString
		)
		if err := rows.Scan(&e.ID, &userID, &e.Action, &targetID, &deviceInfo, &ip, &meta, &e.CreatedAt); err != nil {
			return nil, err
		}
		if userID.Valid {
			e.UserID = &userID.String
		}
		if targetID.Valid {
			e.TargetID = &targetID.String
		}
		if deviceInfo.Valid {
			e.DeviceInfo = &deviceInfo.String
		}
		if ip.Valid {
			e.IPAddress = &ip.String
		}
		if meta.Valid {
			e.Meta = &meta.String
		}
		logs = append(logs, e)
	}
	return logs, rows.Err()
}

const auditColumns = "id,user_id,action,target_id,device_info,ip_address,meta,created_at"

// List returns audit entries ordered by recency.
func (r *AuditRepo) List(ctx context.Context, offset, limit int) ([]model.AuditLog, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+auditColumns+" FROM audit_logs ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?",
		limit, offset)
	if err != nil {
		return nil, err
	}
	return scanAuditRows(rows)
}

// RecentByAction returns the newest entries for one action recorded at or
// after since. Used by the dashboard.
func (r *AuditRepo) RecentByAction(ctx context.Context, action string, since time.Time, limit int) ([]model.AuditLog, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+auditColumns+" FROM audit_logs WHERE action=? AND created_at>=? ORDER BY created_at DESC, id DESC LIMIT ?",
		action, since, limit)
	if err != nil {
		return nil, err
	}
	return scanAuditRows(rows)
}
