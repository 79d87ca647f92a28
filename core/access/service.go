package access

import (
	"context"
	"fmt"
	"net/mail"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/ahmednader515/answer-guide-platform/core"
	"github.com/ahmednader515/answer-guide-platform/core/course"
	"github.com/ahmednader515/answer-guide-platform/core/user"
)

var (
	// errors
	ErrNotAuthenticated = errors.New("authentication required")
	ErrForbidden        = errors.New("permission denied")
	ErrGrantExists      = errors.New("student already has access to this chapter")
	ErrGrantNotFound    = errors.New("chapter access not found for this student")
	ErrPurchaseExists   = errors.New("student already has an active purchase for this course")
)

type (
	Repository interface {
		HasActivePurchase(ctx context.Context, userID, courseID string) (bool, error)
		CreatePurchase(ctx context.Context, p Purchase) (Purchase, error)
		GetGrant(ctx context.Context, userID, chapterID string) (ChapterAccess, error)
		// CreateGrant relies on the store's unique constraint on
		// (user_id, chapter_id) and returns ErrGrantExists on violation; the
		// pre-insert existence check in the service is only for a friendlier
		// error under non-concurrent use.
		CreateGrant(ctx context.Context, g ChapterAccess) (ChapterAccess, error)
		DeleteGrant(ctx context.Context, userID, chapterID string) error
		// QueryGrantedChapterIDs returns the chapter ids the user holds
		// explicit grants for. courseID narrows to one course; ownerID narrows
		// to chapters of courses owned by that user. Empty strings disable the
		// respective filter.
		QueryGrantedChapterIDs(ctx context.Context, userID, courseID, ownerID string) ([]string, error)
	}

	Service struct {
		repo    Repository
		courses course.Repository
		users   user.Repository
		mailSvc core.EmailService
		conf    *core.Config
	}
)

func NewService(
	repo Repository,
	courses course.Repository,
	users user.Repository,
	mailSvc core.EmailService,
	conf *core.Config,
) *Service {
	return &Service{
		repo:    repo,
		courses: courses,
		users:   users,
		mailSvc: mailSvc,
		conf:    conf,
	}
}

// CheckChapterAccess resolves visibility of one chapter for one user.
// userID may be empty (anonymous): free chapters are the only path open then,
// ErrNotAuthenticated otherwise. A chapter or course that is missing or
// unpublished resolves to course.ErrNotFound.
func (svc *Service) CheckChapterAccess(ctx context.Context, userID, courseID, chapterID string) (Decision, error) {
	ch, err := svc.publishedChapter(ctx, courseID, chapterID)
	if err != nil {
		return Decision{}, err
	}

	if ch.IsFree {
		return Decision{Granted: true}, nil
	}
	if userID == "" {
		return Decision{}, ErrNotAuthenticated
	}

	hasCourseAccess, err := svc.repo.HasActivePurchase(ctx, userID, courseID)
	if err != nil {
		return Decision{}, errors.Wrap(err, "checking purchases")
	}
	granted, err := svc.repo.QueryGrantedChapterIDs(ctx, userID, courseID, "")
	if err != nil {
		return Decision{}, errors.Wrap(err, "querying chapter grants")
	}

	return ResolveChapter(ch, hasCourseAccess, NewGrantSet(granted...)), nil
}

// CourseContent merges the course's published chapters and quizzes into one
// list ordered by position, annotating chapters with the caller's resolved
// access (and completion when authenticated). The per-chapter policy is the
// same as CheckChapterAccess but computed from two batch queries, so the cost
// is O(chapters + quizzes) rather than one query per chapter.
func (svc *Service) CourseContent(ctx context.Context, userID, courseID string) ([]ContentItem, error) {
	crs, err := svc.courses.GetCourseByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !crs.IsPublished {
		return nil, course.ErrNotFound
	}

	chapters, err := svc.courses.QueryPublishedChapters(ctx, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "querying chapters")
	}
	quizzes, err := svc.courses.QueryPublishedQuizzes(ctx, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "querying quizzes")
	}

	var (
		hasCourseAccess bool
		grants          GrantSet
		completed       GrantSet
	)
	if userID != "" {
		if hasCourseAccess, err = svc.repo.HasActivePurchase(ctx, userID, courseID); err != nil {
			return nil, errors.Wrap(err, "checking purchases")
		}
		granted, err := svc.repo.QueryGrantedChapterIDs(ctx, userID, courseID, "")
		if err != nil {
			return nil, errors.Wrap(err, "querying chapter grants")
		}
		grants = NewGrantSet(granted...)

		done, err := svc.courses.QueryCompletedChapterIDs(ctx, userID, courseID)
		if err != nil {
			return nil, errors.Wrap(err, "querying progress")
		}
		completed = NewGrantSet(done...)
	}

	items := make([]ContentItem, 0, len(chapters)+len(quizzes))
	for i := range chapters {
		ch := chapters[i]
		items = append(items, ContentItem{
			Type:      ContentChapter,
			Chapter:   &ch,
			HasAccess: ResolveChapter(ch, hasCourseAccess, grants).Granted,
			Completed: completed.Has(ch.ID),
		})
	}
	for i := range quizzes {
		qz := quizzes[i]
		items = append(items, ContentItem{Type: ContentQuiz, Quiz: &qz, HasAccess: true})
	}

	// stable: chapters precede quizzes on equal positions
	sort.SliceStable(items, func(i, j int) bool { return items[i].Position() < items[j].Position() })
	return items, nil
}

// Grant creates an explicit chapter grant for a student. Admins may grant on
// any chapter; teachers only on chapters of courses they own.
func (svc *Service) Grant(ctx context.Context, actor user.User, targetUserID, chapterID string) (ChapterAccess, error) {
	target, ch, err := svc.checkGrantTarget(ctx, actor, targetUserID, chapterID)
	if err != nil {
		return ChapterAccess{}, err
	}

	if _, err = svc.repo.GetGrant(ctx, targetUserID, chapterID); err == nil {
		return ChapterAccess{}, ErrGrantExists
	} else if errors.Cause(err) != ErrGrantNotFound {
		return ChapterAccess{}, errors.Wrap(err, "checking existing grant")
	}

	grant, err := svc.repo.CreateGrant(ctx, ChapterAccess{
		UserID:    targetUserID,
		ChapterID: chapterID,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return ChapterAccess{}, err
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: target.Name, Address: target.Email}},
		Subject: "New chapter unlocked",
		TextContent: fmt.Sprintf(
			"Hi %s,\n\nThe chapter %q is now available on your account. Head to %s to continue learning.",
			target.Name, ch.Title, svc.conf.FrontendBaseURL),
	})
	return grant, nil
}

// Revoke removes an explicit chapter grant; ErrGrantNotFound when none exists.
func (svc *Service) Revoke(ctx context.Context, actor user.User, targetUserID, chapterID string) error {
	if _, _, err := svc.checkGrantTarget(ctx, actor, targetUserID, chapterID); err != nil {
		return err
	}
	return svc.repo.DeleteGrant(ctx, targetUserID, chapterID)
}

// ListGrants returns the chapter ids the target user holds explicit grants
// for, optionally narrowed to one course. Teachers only see grants on
// chapters of courses they own; this is an authorization boundary, not a
// different query shape.
func (svc *Service) ListGrants(ctx context.Context, actor user.User, targetUserID, courseID string) ([]string, error) {
	var ownerID string
	switch actor.Role {
	case user.RoleAdmin:
	case user.RoleTeacher:
		ownerID = actor.ID
	case user.RoleStudent:
		return nil, ErrForbidden
	default:
		return nil, ErrForbidden
	}

	ids, err := svc.repo.QueryGrantedChapterIDs(ctx, targetUserID, courseID, ownerID)
	if err != nil {
		return nil, errors.Wrap(err, "querying chapter grants")
	}
	if ids == nil {
		ids = []string{}
	}
	sort.Strings(ids)
	return ids, nil
}

// RecordPurchase books an ACTIVE whole-course purchase for a student
// (admin bookkeeping; payment flows live elsewhere).
func (svc *Service) RecordPurchase(ctx context.Context, actor user.User, targetUserID, courseID string) (Purchase, error) {
	switch actor.Role {
	case user.RoleAdmin:
	case user.RoleTeacher, user.RoleStudent:
		return Purchase{}, ErrForbidden
	default:
		return Purchase{}, ErrForbidden
	}

	target, err := svc.users.GetUserByID(ctx, targetUserID)
	if err != nil {
		return Purchase{}, err
	}
	if !target.IsStudent() {
		return Purchase{}, user.ErrNotFound
	}

	crs, err := svc.courses.GetCourseByID(ctx, courseID)
	if err != nil {
		return Purchase{}, err
	}
	if !crs.IsPublished {
		return Purchase{}, course.ErrNotFound
	}

	exists, err := svc.repo.HasActivePurchase(ctx, targetUserID, courseID)
	if err != nil {
		return Purchase{}, errors.Wrap(err, "checking purchases")
	}
	if exists {
		return Purchase{}, ErrPurchaseExists
	}

	return svc.repo.CreatePurchase(ctx, Purchase{
		UserID:    targetUserID,
		CourseID:  courseID,
		Status:    PurchaseActive,
		CreatedAt: time.Now().UTC(),
	})
}

// checkGrantTarget validates the actor's right to manage grants for the
// target user and chapter, and that both target and chapter are grantable.
func (svc *Service) checkGrantTarget(ctx context.Context, actor user.User, targetUserID, chapterID string) (user.User, course.Chapter, error) {
	target, err := svc.users.GetUserByID(ctx, targetUserID)
	if err != nil {
		return user.User{}, course.Chapter{}, err
	}
	if !target.IsStudent() {
		return user.User{}, course.Chapter{}, user.ErrNotFound
	}

	ch, err := svc.courses.GetChapterByID(ctx, chapterID)
	if err != nil {
		return user.User{}, course.Chapter{}, err
	}
	crs, err := svc.courses.GetCourseByID(ctx, ch.CourseID)
	if err != nil {
		return user.User{}, course.Chapter{}, err
	}
	if !ch.IsPublished || !crs.IsPublished {
		return user.User{}, course.Chapter{}, course.ErrNotFound
	}

	switch actor.Role {
	case user.RoleAdmin:
	case user.RoleTeacher:
		if crs.OwnerID != actor.ID {
			return user.User{}, course.Chapter{}, ErrForbidden
		}
	case user.RoleStudent:
		return user.User{}, course.Chapter{}, ErrForbidden
	default:
		return user.User{}, course.Chapter{}, ErrForbidden
	}

	return target, ch, nil
}

// publishedChapter loads a chapter under a course, treating unpublished
// content as absent.
func (svc *Service) publishedChapter(ctx context.Context, courseID, chapterID string) (course.Chapter, error) {
	crs, err := svc.courses.GetCourseByID(ctx, courseID)
	if err != nil {
		return course.Chapter{}, err
	}
	if !crs.IsPublished {
		return course.Chapter{}, course.ErrNotFound
	}
	ch, err := svc.courses.GetChapter(ctx, courseID, chapterID)
	if err != nil {
		return course.Chapter{}, err
	}
	if !ch.IsPublished {
		return course.Chapter{}, course.ErrNotFound
	}
	return ch, nil
}
