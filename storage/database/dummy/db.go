// Package dummydb provides in-memory repository implementations used in
// tests and local development without a Postgres instance.
package dummydb

import (
	"sync"

	"github.com/google/uuid"

	"github.com/ahmednader515/answer-guide-platform/core/access"
	"github.com/ahmednader515/answer-guide-platform/core/course"
	"github.com/ahmednader515/answer-guide-platform/core/user"
)

type DB struct {
	mu sync.RWMutex

	users       map[string]*user.User
	courses     map[string]*course.Course
	chapters    map[string]*course.Chapter
	quizzes     map[string]*course.Quiz
	purchases   map[string]*access.Purchase
	grants      map[string]*access.ChapterAccess
	progress    map[string]*course.UserProgress
	quizResults map[string]*course.QuizResult
}

func Open() (*DB, error) {
	db := &DB{
		users:       make(map[string]*user.User),
		courses:     make(map[string]*course.Course),
		chapters:    make(map[string]*course.Chapter),
		quizzes:     make(map[string]*course.Quiz),
		purchases:   make(map[string]*access.Purchase),
		grants:      make(map[string]*access.ChapterAccess),
		progress:    make(map[string]*course.UserProgress),
		quizResults: make(map[string]*course.QuizResult),
	}
	return db, nil
}

// Seed helpers; the catalog repositories are read-only so fixtures go in
// through the DB directly.

func (db *DB) SeedCourse(crs course.Course) course.Course {
	db.mu.Lock()
	defer db.mu.Unlock()
	if crs.ID == "" {
		crs.ID = uuid.New().String()
	}
	db.courses[crs.ID] = &crs
	return crs
}

func (db *DB) SeedChapter(ch course.Chapter) course.Chapter {
	db.mu.Lock()
	defer db.mu.Unlock()
	if ch.ID == "" {
		ch.ID = uuid.New().String()
	}
	db.chapters[ch.ID] = &ch
	return ch
}

func (db *DB) SeedQuiz(qz course.Quiz) course.Quiz {
	db.mu.Lock()
	defer db.mu.Unlock()
	if qz.ID == "" {
		qz.ID = uuid.New().String()
	}
	db.quizzes[qz.ID] = &qz
	return qz
}

func (db *DB) SeedQuizResult(qr course.QuizResult) course.QuizResult {
	db.mu.Lock()
	defer db.mu.Unlock()
	if qr.ID == "" {
		qr.ID = uuid.New().String()
	}
	db.quizResults[qr.ID] = &qr
	return qr
}
