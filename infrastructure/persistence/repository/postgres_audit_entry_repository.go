package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/sortline/sortline/api/domain/model"
	"github.com/sortline/sortline/api/domain/repository"
	"go.uber.org/zap"
)

type PostgresAuditEntryRepository struct {
	*BaseRepository
}

func NewAuditEntryRepository(zapLogger *zap.Logger) repository.AuditEntryRepository {
	return &PostgresAuditEntryRepository{
		BaseRepository: NewBaseRepository(zapLogger),
	}
}

type changeLogRow struct {
	ID           string
	ParcelID     string
	State        model.ParcelState
	Notes        sql.NullString
	CreatedAt    time.Time
	TrackingCode string
	BoxID        sql.NullString
	PrevState    sql.NullString
}

// history joins every audit entry with its owning parcel and the state of
// the chronologically preceding entry for the same parcel. Classification
// falls out of prev_state: absent or different means a status change.
const historyQuery = `
SELECT h.id, h.parcel_id, h.state, h.notes, h.created_at,
       h.tracking_code, h.box_id, h.prev_state
FROM (
    SELECT a.id, a.parcel_id, a.state, a.notes, a.created_at,
           p.tracking_code, p.box_id,
           LAG(a.state) OVER (
               PARTITION BY a.parcel_id
               ORDER BY a.created_at ASC, a.id ASC
           ) AS prev_state
    FROM audit_entries a
    JOIN parcels p ON p.id = a.parcel_id
) h
`

func classify(row changeLogRow) model.ChangeType {
	if !row.PrevState.Valid || model.ParcelState(row.PrevState.String) != row.State {
		return model.ChangeStatus
	}
	return model.ChangeDetails
}

func (r *PostgresAuditEntryRepository) QueryChangeLog(ctx context.Context, f repository.ChangeLogFilter) ([]model.ChangeLogEntry, error) {
	query := historyQuery + "WHERE 1=1"
	args := []any{}

	if f.State != "" {
		query += " AND h.state = ?"
		args = append(args, f.State)
	}
	if f.BoxID != "" {
		query += " AND h.box_id = ?"
		args = append(args, f.BoxID)
	}
	if f.TrackingCode != "" {
		query += " AND LOWER(h.tracking_code) LIKE ?"
		args = append(args, "%"+strings.ToLower(f.TrackingCode)+"%")
	}
	if f.After != nil {
		query += " AND h.created_at > ?"
		args = append(args, f.After.UTC())
	}
	if f.ChangeType != "" {
		query += ` AND (CASE WHEN h.prev_state IS NULL OR h.prev_state <> h.state
			THEN 'status_change' ELSE 'details_update' END) = ?`
		args = append(args, f.ChangeType)
	}

	query += " ORDER BY h.created_at DESC, h.id DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	var rows []changeLogRow
	err := r.database.WithContext(ctx).Raw(query, args...).Scan(&rows).Error
	if err != nil {
		r.logger.Error(ctx, "change log query failed: %v", err)
		return nil, err
	}

	entries := make([]model.ChangeLogEntry, 0, len(rows))
	for _, row := range rows {
		entry := model.ChangeLogEntry{
			ID:           row.ID,
			ParcelID:     row.ParcelID,
			TrackingCode: row.TrackingCode,
			State:        row.State,
			ChangeType:   classify(row),
			CreatedAt:    row.CreatedAt,
		}
		if row.BoxID.Valid {
			boxID := row.BoxID.String
			entry.BoxID = &boxID
		}
		if row.Notes.Valid {
			notes := row.Notes.String
			entry.Notes = &notes
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (r *PostgresAuditEntryRepository) GetByParcelID(ctx context.Context, parcelID string, limit int) ([]*model.AuditEntry, error) {
	query := r.database.WithContext(ctx).
		Where("parcel_id = ?", parcelID).
		Order("created_at ASC, id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var entries []*model.AuditEntry
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
