package course

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/ahmednader515/answer-guide-platform/core"
)

var ErrNotFound = errors.New("course not found")

type (
	Repository interface {
		GetCourseByID(ctx context.Context, id string) (Course, error)
		// QueryPublishedCourses returns published courses, newest first.
		QueryPublishedCourses(ctx context.Context) ([]CourseSummary, error)
		// GetChapter returns the chapter only if it belongs to the given course.
		GetChapter(ctx context.Context, courseID, chapterID string) (Chapter, error)
		GetChapterByID(ctx context.Context, chapterID string) (Chapter, error)
		QueryPublishedChapters(ctx context.Context, courseID string) ([]Chapter, error)
		QueryPublishedQuizzes(ctx context.Context, courseID string) ([]Quiz, error)
		QueryCompletedChapterIDs(ctx context.Context, userID, courseID string) ([]string, error)
		UpsertUserProgress(ctx context.Context, up UserProgress) (UserProgress, error)
		// QueryQuizResults returns results for quizzes whose course is owned by
		// ownerID, optionally narrowed to one quiz, newest first.
		QueryQuizResults(ctx context.Context, ownerID, quizID string, page core.Pagination) ([]QuizResultRow, int, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) PublishedCourses(ctx context.Context) ([]CourseSummary, error) {
	return svc.repo.QueryPublishedCourses(ctx)
}

// GetPublishedCourse treats an unpublished course as absent.
func (svc *Service) GetPublishedCourse(ctx context.Context, id string) (Course, error) {
	crs, err := svc.repo.GetCourseByID(ctx, id)
	if err != nil {
		return Course{}, err
	}
	if !crs.IsPublished {
		return Course{}, ErrNotFound
	}
	return crs, nil
}

// GetPublishedChapter treats an unpublished chapter, or one whose course is
// unpublished, as absent.
func (svc *Service) GetPublishedChapter(ctx context.Context, courseID, chapterID string) (Chapter, error) {
	if _, err := svc.GetPublishedCourse(ctx, courseID); err != nil {
		return Chapter{}, err
	}
	ch, err := svc.repo.GetChapter(ctx, courseID, chapterID)
	if err != nil {
		return Chapter{}, err
	}
	if !ch.IsPublished {
		return Chapter{}, ErrNotFound
	}
	return ch, nil
}

// MarkChapterComplete records completion of a chapter for a user. Access
// resolution is the caller's concern.
func (svc *Service) MarkChapterComplete(ctx context.Context, userID, courseID, chapterID string, completed bool) (UserProgress, error) {
	if _, err := svc.GetPublishedChapter(ctx, courseID, chapterID); err != nil {
		return UserProgress{}, err
	}
	return svc.repo.UpsertUserProgress(ctx, UserProgress{
		UserID:      userID,
		ChapterID:   chapterID,
		IsCompleted: completed,
		UpdatedAt:   time.Now().UTC(),
	})
}

// QuizResults lists results for quizzes of courses owned by ownerID.
func (svc *Service) QuizResults(ctx context.Context, ownerID, quizID string, page core.Pagination) ([]QuizResultRow, int, error) {
	page.Clean()
	return svc.repo.QueryQuizResults(ctx, ownerID, quizID, page)
}
