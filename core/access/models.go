package access

import (
	"time"

	"github.com/ahmednader515/answer-guide-platform/core/course"
)

type PurchaseStatus string

const (
	PurchaseActive   PurchaseStatus = "ACTIVE"
	PurchasePending  PurchaseStatus = "PENDING"
	PurchaseRefunded PurchaseStatus = "REFUNDED"
)

// Purchase is a whole-course entitlement. The resolver only consumes the
// presence of at least one ACTIVE purchase per (user, course).
type Purchase struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	CourseID  string         `json:"course_id"`
	Status    PurchaseStatus `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
}

// ChapterAccess is an explicit per-user-per-chapter grant, unique per pair.
// Its existence is the only state the policy consumes.
type ChapterAccess struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ChapterID string    `json:"chapter_id"`
	CreatedAt time.Time `json:"created_at"`
}

type Reason string

const (
	// ReasonChapterNotGranted: fine-grained mode is active for this user and
	// course but this chapter was not granted.
	ReasonChapterNotGranted Reason = "chapter_not_granted"
	// ReasonCourseNotPurchased: no course access and no chapter grant.
	ReasonCourseNotPurchased Reason = "course_not_purchased"
)

// Decision is the outcome of resolving one (user, chapter) pair.
type Decision struct {
	Granted bool   `json:"has_access"`
	Reason  Reason `json:"reason,omitempty"`
}

// PolicyMode names which tier of the policy governs a (user, course) pair.
type PolicyMode int

const (
	// CourseWide: a bare purchase unlocks every chapter (accounts predating
	// chapter-level grants keep working).
	CourseWide PolicyMode = iota
	// FineGrained: chapter-level grants govern visibility even for purchasers.
	FineGrained
)

func (m PolicyMode) String() string {
	if m == FineGrained {
		return "fine-grained"
	}
	return "course-wide"
}

type ContentType string

const (
	ContentChapter ContentType = "chapter"
	ContentQuiz    ContentType = "quiz"
)

// ContentItem is one entry of a course's merged curriculum listing. Exactly
// one of Chapter/Quiz is set according to Type; the access and completion
// flags apply to chapters only (quizzes are not gated).
type ContentItem struct {
	Type      ContentType     `json:"type"`
	Chapter   *course.Chapter `json:"chapter,omitempty"`
	Quiz      *course.Quiz    `json:"quiz,omitempty"`
	HasAccess bool            `json:"has_access"`
	Completed bool            `json:"completed,omitempty"`
}

func (it ContentItem) Position() int {
	if it.Type == ContentQuiz {
		return it.Quiz.Position
	}
	return it.Chapter.Position
}
