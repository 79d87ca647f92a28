package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/ahmednader515/answer-guide-platform/core/access"
)

type accessRepository struct {
	db *sqlx.DB
}

var _ access.Repository = (*accessRepository)(nil) // interface compliance check

func NewAccessRepository(db *sqlx.DB) *accessRepository {
	return &accessRepository{db: db}
}

func (repo accessRepository) HasActivePurchase(ctx context.Context, userID, courseID string) (bool, error) {
	var exists bool
	err := repo.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM purchase WHERE user_id = $1 AND course_id = $2 AND status = $3)`,
		userID, courseID, access.PurchaseActive)
	if err != nil {
		return false, errors.Wrap(err, "checking active purchase")
	}
	return exists, nil
}

func (repo accessRepository) CreatePurchase(ctx context.Context, p access.Purchase) (access.Purchase, error) {
	p.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO purchase (id, user_id, course_id, status, created_at) VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.UserID, p.CourseID, p.Status, p.CreatedAt)
	if err != nil {
		return access.Purchase{}, errors.Wrap(err, "inserting purchase")
	}
	return p, nil
}

func (repo accessRepository) GetGrant(ctx context.Context, userID, chapterID string) (access.ChapterAccess, error) {
	var grant access.ChapterAccess
	err := repo.db.QueryRowContext(ctx,
		`SELECT id, user_id, chapter_id, created_at FROM chapter_access WHERE user_id = $1 AND chapter_id = $2`,
		userID, chapterID,
	).Scan(&grant.ID, &grant.UserID, &grant.ChapterID, &grant.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return access.ChapterAccess{}, access.ErrGrantNotFound
		}
		return access.ChapterAccess{}, errors.Wrap(err, "finding chapter grant")
	}
	return grant, nil
}

func (repo accessRepository) CreateGrant(ctx context.Context, g access.ChapterAccess) (access.ChapterAccess, error) {
	g.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO chapter_access (id, user_id, chapter_id, created_at) VALUES ($1, $2, $3, $4)`,
		g.ID, g.UserID, g.ChapterID, g.CreatedAt)
	if err != nil {
		// the (user_id, chapter_id) constraint is the real duplicate guard
		if isUniqueViolation(err) {
			return access.ChapterAccess{}, access.ErrGrantExists
		}
		return access.ChapterAccess{}, errors.Wrap(err, "inserting chapter grant")
	}
	return g, nil
}

func (repo accessRepository) DeleteGrant(ctx context.Context, userID, chapterID string) error {
	res, err := repo.db.ExecContext(ctx,
		`DELETE FROM chapter_access WHERE user_id = $1 AND chapter_id = $2`, userID, chapterID)
	if err != nil {
		return errors.Wrap(err, "deleting chapter grant")
	}
	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		return access.ErrGrantNotFound
	}
	return nil
}

func (repo accessRepository) QueryGrantedChapterIDs(ctx context.Context, userID, courseID, ownerID string) ([]string, error) {
	q := `SELECT ca.chapter_id
	 FROM chapter_access ca
	 JOIN chapter ch ON ch.id = ca.chapter_id
	 JOIN course c ON c.id = ch.course_id
	 WHERE ca.user_id = $1`
	args := []interface{}{userID}
	if courseID != "" {
		q += ` AND ch.course_id = ` + arg(&args, courseID)
	}
	if ownerID != "" {
		q += ` AND c.owner_id = ` + arg(&args, ownerID)
	}

	var ids []string
	if err := repo.db.SelectContext(ctx, &ids, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying chapter grants")
	}
	return ids, nil
}
