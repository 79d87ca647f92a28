package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/ahmednader515/answer-guide-platform/core"
	"github.com/ahmednader515/answer-guide-platform/core/course"
)

type (
	courseRow struct {
		ID          string       `db:"id"`
		OwnerID     string       `db:"owner_id"`
		Title       string       `db:"title"`
		Description null.String  `db:"description"`
		ImageURL    null.String  `db:"image_url"`
		Price       null.Float64 `db:"price"`
		IsPublished bool         `db:"is_published"`
		CreatedAt   null.Time    `db:"created_at"`
		UpdatedAt   null.Time    `db:"updated_at"`
	}

	chapterRow struct {
		ID          string      `db:"id"`
		CourseID    string      `db:"course_id"`
		Title       string      `db:"title"`
		Description null.String `db:"description"`
		VideoKey    null.String `db:"video_key"`
		Position    int         `db:"position"`
		IsFree      bool        `db:"is_free"`
		IsPublished bool        `db:"is_published"`
		CreatedAt   null.Time   `db:"created_at"`
		UpdatedAt   null.Time   `db:"updated_at"`
	}

	quizRow struct {
		ID          string    `db:"id"`
		CourseID    string    `db:"course_id"`
		Title       string    `db:"title"`
		Position    int       `db:"position"`
		IsPublished bool      `db:"is_published"`
		CreatedAt   null.Time `db:"created_at"`
		UpdatedAt   null.Time `db:"updated_at"`
	}

	quizResultRow struct {
		ID          string    `db:"id"`
		QuizID      string    `db:"quiz_id"`
		UserID      string    `db:"user_id"`
		Score       int       `db:"score"`
		TotalPoints int       `db:"total_points"`
		Percentage  float64   `db:"percentage"`
		CreatedAt   null.Time `db:"created_at"`
		UserName    string    `db:"user_name"`
		QuizTitle   string    `db:"quiz_title"`
		CourseID    string    `db:"course_id"`
		CourseTitle string    `db:"course_title"`
	}
)

func (r courseRow) toDomain() course.Course {
	return course.Course{
		ID:          r.ID,
		OwnerID:     r.OwnerID,
		Title:       r.Title,
		Description: r.Description,
		ImageURL:    r.ImageURL,
		Price:       r.Price,
		IsPublished: r.IsPublished,
		CreatedAt:   r.CreatedAt.Time,
		UpdatedAt:   r.UpdatedAt.Time,
	}
}

func (r chapterRow) toDomain() course.Chapter {
	return course.Chapter{
		ID:          r.ID,
		CourseID:    r.CourseID,
		Title:       r.Title,
		Description: r.Description,
		VideoKey:    r.VideoKey,
		Position:    r.Position,
		IsFree:      r.IsFree,
		IsPublished: r.IsPublished,
		CreatedAt:   r.CreatedAt.Time,
		UpdatedAt:   r.UpdatedAt.Time,
	}
}

func (r quizRow) toDomain() course.Quiz {
	return course.Quiz{
		ID:          r.ID,
		CourseID:    r.CourseID,
		Title:       r.Title,
		Position:    r.Position,
		IsPublished: r.IsPublished,
		CreatedAt:   r.CreatedAt.Time,
		UpdatedAt:   r.UpdatedAt.Time,
	}
}

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *sqlx.DB) *courseRepository {
	return &courseRepository{db: db}
}

func (repo courseRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return course.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo courseRepository) GetCourseByID(ctx context.Context, id string) (course.Course, error) {
	if _, err := uuid.Parse(id); err != nil {
		return course.Course{}, course.ErrNotFound
	}
	var row courseRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM course WHERE id = $1`, id); err != nil {
		return course.Course{}, repo.trapNoRowsErr(err, "finding course by ID")
	}
	return row.toDomain(), nil
}

func (repo courseRepository) QueryPublishedCourses(ctx context.Context) ([]course.CourseSummary, error) {
	var rows []struct {
		courseRow
		OwnerName string `db:"owner_name"`
	}
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT c.*, u.name AS owner_name
		 FROM course c JOIN "user" u ON u.id = c.owner_id
		 WHERE c.is_published ORDER BY c.created_at DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}

	summaries := make([]course.CourseSummary, 0, len(rows))
	for _, row := range rows {
		s := course.CourseSummary{Course: row.toDomain(), OwnerName: row.OwnerName}

		if err = repo.db.SelectContext(ctx, &s.ChapterIDs,
			`SELECT id FROM chapter WHERE course_id = $1 AND is_published ORDER BY position`, s.ID); err != nil {
			return nil, errors.Wrap(err, "querying chapter ids")
		}
		if err = repo.db.SelectContext(ctx, &s.QuizIDs,
			`SELECT id FROM quiz WHERE course_id = $1 AND is_published ORDER BY position`, s.ID); err != nil {
			return nil, errors.Wrap(err, "querying quiz ids")
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}

func (repo courseRepository) GetChapter(ctx context.Context, courseID, chapterID string) (course.Chapter, error) {
	if _, err := uuid.Parse(chapterID); err != nil {
		return course.Chapter{}, course.ErrNotFound
	}
	var row chapterRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM chapter WHERE id = $1 AND course_id = $2`, chapterID, courseID)
	if err != nil {
		return course.Chapter{}, repo.trapNoRowsErr(err, "finding chapter")
	}
	return row.toDomain(), nil
}

func (repo courseRepository) GetChapterByID(ctx context.Context, chapterID string) (course.Chapter, error) {
	if _, err := uuid.Parse(chapterID); err != nil {
		return course.Chapter{}, course.ErrNotFound
	}
	var row chapterRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM chapter WHERE id = $1`, chapterID); err != nil {
		return course.Chapter{}, repo.trapNoRowsErr(err, "finding chapter by ID")
	}
	return row.toDomain(), nil
}

func (repo courseRepository) QueryPublishedChapters(ctx context.Context, courseID string) ([]course.Chapter, error) {
	var rows []chapterRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT * FROM chapter WHERE course_id = $1 AND is_published ORDER BY position`, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "querying chapters")
	}
	chapters := make([]course.Chapter, 0, len(rows))
	for _, row := range rows {
		chapters = append(chapters, row.toDomain())
	}
	return chapters, nil
}

func (repo courseRepository) QueryPublishedQuizzes(ctx context.Context, courseID string) ([]course.Quiz, error) {
	var rows []quizRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT * FROM quiz WHERE course_id = $1 AND is_published ORDER BY position`, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "querying quizzes")
	}
	quizzes := make([]course.Quiz, 0, len(rows))
	for _, row := range rows {
		quizzes = append(quizzes, row.toDomain())
	}
	return quizzes, nil
}

func (repo courseRepository) QueryCompletedChapterIDs(ctx context.Context, userID, courseID string) ([]string, error) {
	var ids []string
	err := repo.db.SelectContext(ctx, &ids,
		`SELECT up.chapter_id
		 FROM user_progress up JOIN chapter ch ON ch.id = up.chapter_id
		 WHERE up.user_id = $1 AND ch.course_id = $2 AND up.is_completed`, userID, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "querying progress")
	}
	return ids, nil
}

func (repo courseRepository) UpsertUserProgress(ctx context.Context, up course.UserProgress) (course.UserProgress, error) {
	up.ID = uuid.New().String()
	var id string
	err := repo.db.QueryRowContext(ctx,
		`INSERT INTO user_progress (id, user_id, chapter_id, is_completed, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id, chapter_id)
		 DO UPDATE SET is_completed = EXCLUDED.is_completed, updated_at = EXCLUDED.updated_at
		 RETURNING id`,
		up.ID, up.UserID, up.ChapterID, up.IsCompleted, up.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return course.UserProgress{}, errors.Wrap(err, "upserting progress")
	}
	up.ID = id
	return up, nil
}

func (repo courseRepository) QueryQuizResults(
	ctx context.Context,
	ownerID, quizID string,
	page core.Pagination,
) ([]course.QuizResultRow, int, error) {
	where := ` FROM quiz_result qr
		 JOIN quiz q ON q.id = qr.quiz_id
		 JOIN course c ON c.id = q.course_id
		 JOIN "user" u ON u.id = qr.user_id
		 WHERE c.owner_id = $1`
	args := []interface{}{ownerID}
	if quizID != "" {
		where += ` AND qr.quiz_id = $2`
		args = append(args, quizID)
	}

	var total int
	if err := repo.db.GetContext(ctx, &total, `SELECT COUNT(*)`+where, args...); err != nil {
		return nil, 0, errors.Wrap(err, "counting quiz results")
	}

	q := `SELECT qr.*, u.name AS user_name, q.title AS quiz_title, c.id AS course_id, c.title AS course_title` +
		where + ` ORDER BY qr.created_at DESC OFFSET ` + arg(&args, page.Skip) + ` LIMIT ` + arg(&args, page.Take)

	var rows []quizResultRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, 0, errors.Wrap(err, "querying quiz results")
	}

	results := make([]course.QuizResultRow, 0, len(rows))
	for _, row := range rows {
		results = append(results, course.QuizResultRow{
			QuizResult: course.QuizResult{
				ID:          row.ID,
				QuizID:      row.QuizID,
				UserID:      row.UserID,
				Score:       row.Score,
				TotalPoints: row.TotalPoints,
				Percentage:  row.Percentage,
				CreatedAt:   row.CreatedAt.Time,
			},
			UserName:    row.UserName,
			QuizTitle:   row.QuizTitle,
			CourseID:    row.CourseID,
			CourseTitle: row.CourseTitle,
		})
	}
	return results, total, nil
}
