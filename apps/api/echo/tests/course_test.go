package tests

import (
	"context"
	"net/http"
	"testing"

	"github.com/ahmednader515/answer-guide-platform/core/access"
	"github.com/ahmednader515/answer-guide-platform/core/course"
	"github.com/ahmednader515/answer-guide-platform/core/user"
)

// seedCourse creates a published course with chapters A (free, pos 1),
// B (paid, pos 2) and C (paid, pos 3) plus a quiz at pos 2.
func seedCourse(f *fixtures, ownerID string) (course.Course, []course.Chapter, course.Quiz) {
	crs := f.db.SeedCourse(course.Course{Title: "Algebra", OwnerID: ownerID, IsPublished: true})
	chA := f.db.SeedChapter(course.Chapter{CourseID: crs.ID, Title: "A", Position: 1, IsFree: true, IsPublished: true})
	chB := f.db.SeedChapter(course.Chapter{CourseID: crs.ID, Title: "B", Position: 2, IsPublished: true})
	chC := f.db.SeedChapter(course.Chapter{CourseID: crs.ID, Title: "C", Position: 3, IsPublished: true})
	qz := f.db.SeedQuiz(course.Quiz{CourseID: crs.ID, Title: "Quiz", Position: 2, IsPublished: true})
	return crs, []course.Chapter{chA, chB, chC}, qz
}

func Test_courseApi_query(t *testing.T) {
	app, f := setup(t)

	teacher := f.createUser(t, "teacher", user.RoleTeacher, true)
	seedCourse(f, teacher.ID)
	f.db.SeedCourse(course.Course{Title: "Hidden", OwnerID: teacher.ID}) // unpublished

	req, rec := newRequest(http.MethodGet, "/v1/courses")
	app.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("code = %v; want %v", rec.Code, http.StatusOK)
	}
	courses, err := f.courseRepo.QueryPublishedCourses(context.Background())
	if err != nil {
		t.Fatalf("QueryPublishedCourses() failed: %v", err)
	}
	if len(courses) != 1 {
		t.Fatalf("published courses = %d; want 1", len(courses))
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), marchallObj(t, courses))
	if err != nil || !ok {
		t.Errorf("body = %s; want published courses only", rec.Body.String())
	}
}

func Test_courseApi_chapterAccess(t *testing.T) {
	app, f := setup(t)
	ctx := context.Background()

	admin := f.createUser(t, "admin", user.RoleAdmin, true)
	teacher := f.createUser(t, "teacher", user.RoleTeacher, true)
	u := f.createUser(t, "u", user.RoleStudent, true)
	v := f.createUser(t, "v", user.RoleStudent, true)
	crs, chapters, _ := seedCourse(f, teacher.ID)
	chA, chB, chC := chapters[0], chapters[1], chapters[2]

	// U purchased the course and was granted B only
	if _, err := f.accessSvc.RecordPurchase(ctx, admin, u.ID, crs.ID); err != nil {
		t.Fatalf("RecordPurchase() failed: %v", err)
	}
	if _, err := f.accessSvc.Grant(ctx, admin, u.ID, chB.ID); err != nil {
		t.Fatalf("Grant() failed: %v", err)
	}

	uToken := getToken(t, f.conf, u)
	vToken := getToken(t, f.conf, v)

	path := func(chapterID string) string {
		return "/v1/courses/" + crs.ID + "/chapters/" + chapterID + "/access"
	}

	tests := []httpTest{
		{
			name: "anonymous sees free chapter", path: path(chA.ID), wantCode: http.StatusOK,
			wantData: marchallObj(t, access.Decision{Granted: true}),
		},
		{
			name: "anonymous denied paid chapter", path: path(chB.ID), wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, httpErr{Error: "authentication required"}),
		},
		{
			name: "U sees granted chapter", path: path(chB.ID), token: uToken, wantCode: http.StatusOK,
			wantData: marchallObj(t, access.Decision{Granted: true}),
		},
		{
			name: "U denied ungranted chapter", path: path(chC.ID), token: uToken, wantCode: http.StatusOK,
			wantData: marchallObj(t, access.Decision{Reason: access.ReasonChapterNotGranted}),
		},
		{
			name: "V denied paid chapter", path: path(chB.ID), token: vToken, wantCode: http.StatusOK,
			wantData: marchallObj(t, access.Decision{Reason: access.ReasonCourseNotPurchased}),
		},
		{
			name: "unknown chapter", path: path("ffffffff-0000-0000-0000-000000000000"), token: uToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "course not found"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_courseApi_content(t *testing.T) {
	app, f := setup(t)
	ctx := context.Background()

	admin := f.createUser(t, "admin", user.RoleAdmin, true)
	teacher := f.createUser(t, "teacher", user.RoleTeacher, true)
	u := f.createUser(t, "u", user.RoleStudent, true)
	crs, chapters, _ := seedCourse(f, teacher.ID)
	chB := chapters[1]

	if _, err := f.accessSvc.RecordPurchase(ctx, admin, u.ID, crs.ID); err != nil {
		t.Fatalf("RecordPurchase() failed: %v", err)
	}
	if _, err := f.accessSvc.Grant(ctx, admin, u.ID, chB.ID); err != nil {
		t.Fatalf("Grant() failed: %v", err)
	}

	want, err := f.accessSvc.CourseContent(ctx, u.ID, crs.ID)
	if err != nil {
		t.Fatalf("CourseContent() failed: %v", err)
	}

	tt := httpTest{
		name: "content with access flags", path: "/v1/courses/" + crs.ID + "/content",
		token: getToken(t, f.conf, u), wantCode: http.StatusOK, wantData: marchallObj(t, want),
	}
	req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, tt, rec)

	// anonymous listing still works
	req, rec = newRequest(http.MethodGet, tt.path)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("code = %v; want %v", rec.Code, http.StatusOK)
	}
}

func Test_courseApi_markProgress(t *testing.T) {
	app, f := setup(t)
	ctx := context.Background()

	teacher := f.createUser(t, "teacher", user.RoleTeacher, true)
	u := f.createUser(t, "u", user.RoleStudent, true)
	crs, chapters, _ := seedCourse(f, teacher.ID)
	chA, chB := chapters[0], chapters[1]

	uToken := getToken(t, f.conf, u)
	body := marchallObj(t, map[string]bool{"is_completed": true})

	path := func(chapterID string) string {
		return "/v1/courses/" + crs.ID + "/chapters/" + chapterID + "/progress"
	}

	// free chapter: accessible, progress recorded
	req, rec := newAuthRequest(http.MethodPut, path(chA.ID), uToken, body)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %v; want %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	done, err := f.courseRepo.QueryCompletedChapterIDs(ctx, u.ID, crs.ID)
	if err != nil {
		t.Fatalf("QueryCompletedChapterIDs() failed: %v", err)
	}
	if len(done) != 1 || done[0] != chA.ID {
		t.Errorf("completed = %v; want [%s]", done, chA.ID)
	}

	// inaccessible chapter: denied
	req, rec = newAuthRequest(http.MethodPut, path(chB.ID), uToken, body)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("code = %v; want %v", rec.Code, http.StatusForbidden)
	}

	// anonymous: rejected by the JWT middleware
	req, rec = newRequest(http.MethodPut, path(chA.ID), body)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("code = %v; want %v", rec.Code, http.StatusUnauthorized)
	}
}

func Test_courseApi_quizResults(t *testing.T) {
	app, f := setup(t)

	teacher := f.createUser(t, "teacher", user.RoleTeacher, true)
	other := f.createUser(t, "other", user.RoleTeacher, true)
	student := f.createUser(t, "student", user.RoleStudent, true)
	_, _, qz := seedCourse(f, teacher.ID)

	f.db.SeedQuizResult(course.QuizResult{QuizID: qz.ID, UserID: student.ID, Score: 8, TotalPoints: 10, Percentage: 80})

	tests := []httpTest{
		{name: "auth required", path: "/v1/teacher/quiz-results", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "students may not list results", path: "/v1/teacher/quiz-results", token: getToken(t, f.conf, student),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{name: "owner sees results", path: "/v1/teacher/quiz-results", token: getToken(t, f.conf, teacher), wantCode: http.StatusOK},
		{name: "quiz filter", path: "/v1/teacher/quiz-results?quiz_id=" + qz.ID, token: getToken(t, f.conf, teacher), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	// other teachers see an empty page
	req, rec := newAuthRequest(http.MethodGet, "/v1/teacher/quiz-results", getToken(t, f.conf, other))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %v; want %v", rec.Code, http.StatusOK)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), marchallObj(t, map[string]interface{}{"count": 0, "results": []interface{}{}}))
	if err != nil || !ok {
		t.Errorf("body = %s; want empty page", rec.Body.String())
	}
}
