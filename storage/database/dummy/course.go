package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/ahmednader515/answer-guide-platform/core"
	"github.com/ahmednader515/answer-guide-platform/core/course"
)

type courseRepository struct {
	db *DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) *courseRepository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) GetCourseByID(ctx context.Context, id string) (course.Course, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if crs, ok := repo.db.courses[id]; ok {
		return *crs, nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) QueryPublishedCourses(ctx context.Context) ([]course.CourseSummary, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	summaries := make([]course.CourseSummary, 0)
	for _, crs := range repo.db.courses {
		if !crs.IsPublished {
			continue
		}
		summary := course.CourseSummary{Course: *crs, ChapterIDs: []string{}, QuizIDs: []string{}}
		if owner, ok := repo.db.users[crs.OwnerID]; ok {
			summary.OwnerName = owner.Name
		}
		for _, ch := range repo.publishedChapters(crs.ID) {
			summary.ChapterIDs = append(summary.ChapterIDs, ch.ID)
		}
		for _, qz := range repo.publishedQuizzes(crs.ID) {
			summary.QuizIDs = append(summary.QuizIDs, qz.ID)
		}
		summaries = append(summaries, summary)
	}

	sort.Slice(summaries, func(i, j int) bool { return summaries[i].CreatedAt.After(summaries[j].CreatedAt) })
	return summaries, nil
}

func (repo *courseRepository) GetChapter(ctx context.Context, courseID, chapterID string) (course.Chapter, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if ch, ok := repo.db.chapters[chapterID]; ok && ch.CourseID == courseID {
		return *ch, nil
	}
	return course.Chapter{}, course.ErrNotFound
}

func (repo *courseRepository) GetChapterByID(ctx context.Context, chapterID string) (course.Chapter, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if ch, ok := repo.db.chapters[chapterID]; ok {
		return *ch, nil
	}
	return course.Chapter{}, course.ErrNotFound
}

func (repo *courseRepository) publishedChapters(courseID string) []course.Chapter {
	chapters := make([]course.Chapter, 0)
	for _, ch := range repo.db.chapters {
		if ch.CourseID == courseID && ch.IsPublished {
			chapters = append(chapters, *ch)
		}
	}
	sort.Slice(chapters, func(i, j int) bool { return chapters[i].Position < chapters[j].Position })
	return chapters
}

func (repo *courseRepository) publishedQuizzes(courseID string) []course.Quiz {
	quizzes := make([]course.Quiz, 0)
	for _, qz := range repo.db.quizzes {
		if qz.CourseID == courseID && qz.IsPublished {
			quizzes = append(quizzes, *qz)
		}
	}
	sort.Slice(quizzes, func(i, j int) bool { return quizzes[i].Position < quizzes[j].Position })
	return quizzes
}

func (repo *courseRepository) QueryPublishedChapters(ctx context.Context, courseID string) ([]course.Chapter, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.publishedChapters(courseID), nil
}

func (repo *courseRepository) QueryPublishedQuizzes(ctx context.Context, courseID string) ([]course.Quiz, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.publishedQuizzes(courseID), nil
}

func (repo *courseRepository) QueryCompletedChapterIDs(ctx context.Context, userID, courseID string) ([]string, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	ids := make([]string, 0)
	for _, up := range repo.db.progress {
		if up.UserID != userID || !up.IsCompleted {
			continue
		}
		if ch, ok := repo.db.chapters[up.ChapterID]; ok && ch.CourseID == courseID {
			ids = append(ids, up.ChapterID)
		}
	}
	return ids, nil
}

func (repo *courseRepository) UpsertUserProgress(ctx context.Context, up course.UserProgress) (course.UserProgress, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, existing := range repo.db.progress {
		if existing.UserID == up.UserID && existing.ChapterID == up.ChapterID {
			existing.IsCompleted = up.IsCompleted
			existing.UpdatedAt = up.UpdatedAt
			return *existing, nil
		}
	}

	up.ID = uuid.New().String()
	repo.db.progress[up.ID] = &up
	return up, nil
}

func (repo *courseRepository) QueryQuizResults(
	ctx context.Context,
	ownerID, quizID string,
	page core.Pagination,
) ([]course.QuizResultRow, int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	rows := make([]course.QuizResultRow, 0)
	for _, qr := range repo.db.quizResults {
		qz, ok := repo.db.quizzes[qr.QuizID]
		if !ok {
			continue
		}
		crs, ok := repo.db.courses[qz.CourseID]
		if !ok || crs.OwnerID != ownerID {
			continue
		}
		if quizID != "" && qr.QuizID != quizID {
			continue
		}

		row := course.QuizResultRow{
			QuizResult:  *qr,
			QuizTitle:   qz.Title,
			CourseID:    crs.ID,
			CourseTitle: crs.Title,
		}
		if usr, ok := repo.db.users[qr.UserID]; ok {
			row.UserName = usr.Name
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].CreatedAt.After(rows[j].CreatedAt) })

	total := len(rows)
	if page.Skip >= total {
		return []course.QuizResultRow{}, total, nil
	}
	end := page.Skip + page.Take
	if end > total {
		end = total
	}
	return rows[page.Skip:end], total, nil
}
