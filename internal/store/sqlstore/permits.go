package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"permitdesk.org/internal/permits"
)

const applicationColumns = `id, applicant_name, applicant_email, permit_type, application_status, submitted_at, user_id`

type applicationRow struct {
	ID             string         `db:"id"`
	ApplicantName  string         `db:"applicant_name"`
	ApplicantEmail string         `db:"applicant_email"`
	PermitType     string         `db:"permit_type"`
	Status         string         `db:"application_status"`
	SubmittedAt    time.Time      `db:"submitted_at"`
	UserID         sql.NullString `db:"user_id"`
}

func (r applicationRow) toApplication() *permits.Application {
	app := &permits.Application{
		ID:             r.ID,
		ApplicantName:  r.ApplicantName,
		ApplicantEmail: r.ApplicantEmail,
		PermitType:     r.PermitType,
		Status:         permits.Status(r.Status),
		SubmittedAt:    r.SubmittedAt.UTC(),
	}
	if r.UserID.Valid {
		owner := r.UserID.String
		app.OwnerUserID = &owner
	}
	return app
}

func ownerArg(owner *string) sql.NullString {
	if owner == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *owner, Valid: true}
}

func (s *Store) CreateApplication(ctx context.Context, app *permits.Application) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO permit_applications (`+applicationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		app.ID, app.ApplicantName, app.ApplicantEmail, app.PermitType, string(app.Status),
		app.SubmittedAt.UTC(), ownerArg(app.OwnerUserID))
	return translateError(err)
}

func (s *Store) GetApplication(ctx context.Context, id string) (*permits.Application, error) {
	var row applicationRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`SELECT `+applicationColumns+` FROM permit_applications WHERE id = ?`), id)
	if err != nil {
		return nil, translateError(err)
	}
	return row.toApplication(), nil
}

// ListApplications returns one page, newest first, and the unpaged total.
func (s *Store) ListApplications(ctx context.Context, f permits.ListFilter) ([]*permits.Application, int, error) {
	where := ""
	var args []any
	if f.OwnerUserID != nil {
		where = ` WHERE user_id = ?`
		args = append(args, *f.OwnerUserID)
	}

	var total int
	if err := s.db.GetContext(ctx, &total, s.db.Rebind(`SELECT COUNT(*) FROM permit_applications`+where), args...); err != nil {
		return nil, 0, translateError(err)
	}

	query := `SELECT ` + applicationColumns + ` FROM permit_applications` + where + ` ORDER BY submitted_at DESC, id DESC`
	if !f.Page.All() {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.Page.Limit, f.Page.Offset())
	}
	var rows []applicationRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, 0, translateError(err)
	}
	out := make([]*permits.Application, len(rows))
	for i, r := range rows {
		out[i] = r.toApplication()
	}
	return out, total, nil
}

func (s *Store) UpdateApplication(ctx context.Context, app *permits.Application) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE permit_applications
		SET applicant_name = ?, applicant_email = ?, permit_type = ?, application_status = ?
		WHERE id = ?`),
		app.ApplicantName, app.ApplicantEmail, app.PermitType, string(app.Status), app.ID)
	if err != nil {
		return translateError(err)
	}
	return requireAffected(res)
}

func (s *Store) DeleteApplication(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM permit_applications WHERE id = ?`), id)
	if err != nil {
		return translateError(err)
	}
	return requireAffected(res)
}
