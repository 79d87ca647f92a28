package course

import (
	"time"

	"github.com/volatiletech/null/v8"
)

type Course struct {
	ID          string       `json:"id"`
	OwnerID     string       `json:"owner_id"`
	Title       string       `json:"title"`
	Description null.String  `json:"description"`
	ImageURL    null.String  `json:"image_url"`
	Price       null.Float64 `json:"price"`
	IsPublished bool         `json:"is_published"`
	CreatedAt   time.Time    `json:"created_at"` // UTC
	UpdatedAt   time.Time    `json:"updated_at"` // UTC
}

// Chapter is an ordered unit of a Course. Position is unique within the
// course and shared with the course's quizzes (one curriculum ordering).
type Chapter struct {
	ID          string      `json:"id"`
	CourseID    string      `json:"course_id"`
	Title       string      `json:"title"`
	Description null.String `json:"description"`
	VideoKey    null.String `json:"-"` // object storage key
	Position    int         `json:"position"`
	IsFree      bool        `json:"is_free"`
	IsPublished bool        `json:"is_published"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

type Quiz struct {
	ID          string    `json:"id"`
	CourseID    string    `json:"course_id"`
	Title       string    `json:"title"`
	Position    int       `json:"position"`
	IsPublished bool      `json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type UserProgress struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	ChapterID   string    `json:"chapter_id"`
	IsCompleted bool      `json:"is_completed"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type QuizResult struct {
	ID          string    `json:"id"`
	QuizID      string    `json:"quiz_id"`
	UserID      string    `json:"user_id"`
	Score       int       `json:"score"`
	TotalPoints int       `json:"total_points"`
	Percentage  float64   `json:"percentage"`
	CreatedAt   time.Time `json:"created_at"`
}

// CourseSummary is the public listing shape: the course plus its owner's
// display name and the ids of its published chapters and quizzes.
type CourseSummary struct {
	Course
	OwnerName  string   `json:"owner_name"`
	ChapterIDs []string `json:"chapter_ids"`
	QuizIDs    []string `json:"quiz_ids"`
}

// QuizResultRow is a QuizResult joined with its student, quiz and course for
// the teacher-facing results listing.
type QuizResultRow struct {
	QuizResult
	UserName    string `json:"user_name"`
	QuizTitle   string `json:"quiz_title"`
	CourseID    string `json:"course_id"`
	CourseTitle string `json:"course_title"`
}
