package access_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"

	"github.com/ahmednader515/answer-guide-platform/core"
	"github.com/ahmednader515/answer-guide-platform/core/access"
	"github.com/ahmednader515/answer-guide-platform/core/course"
	"github.com/ahmednader515/answer-guide-platform/core/user"
	emailsvc "github.com/ahmednader515/answer-guide-platform/services/email"
	dummydb "github.com/ahmednader515/answer-guide-platform/storage/database/dummy"
)

type fixture struct {
	db         *dummydb.DB
	svc        *access.Service
	userRepo   user.Repository
	courseRepo course.Repository
}

func setup(t *testing.T) *fixture {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}

	conf := &core.Config{AppName: "TestApp", FrontendBaseURL: "http://localhost:3000"}
	mailSvc := emailsvc.NewConsoleServiceMock(conf)

	userRepo := dummydb.NewUserRepository(db)
	courseRepo := dummydb.NewCourseRepository(db)
	accessRepo := dummydb.NewAccessRepository(db)

	return &fixture{
		db:         db,
		svc:        access.NewService(accessRepo, courseRepo, userRepo, mailSvc, conf),
		userRepo:   userRepo,
		courseRepo: courseRepo,
	}
}

func (f *fixture) seedUser(t *testing.T, name string, role user.Role) user.User {
	t.Helper()
	usr, err := f.userRepo.CreateUser(context.Background(), user.User{
		Name:     name,
		Email:    name + "@test.cd",
		Role:     role,
		IsActive: true,
	})
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// seedCourse creates a published course with chapters A (free, pos 1),
// B (paid, pos 2) and C (paid, pos 3) plus a quiz at pos 2.
func (f *fixture) seedCourse(ownerID string) (course.Course, []course.Chapter, course.Quiz) {
	crs := f.db.SeedCourse(course.Course{Title: "Algebra", OwnerID: ownerID, IsPublished: true})
	chA := f.db.SeedChapter(course.Chapter{CourseID: crs.ID, Title: "A", Position: 1, IsFree: true, IsPublished: true})
	chB := f.db.SeedChapter(course.Chapter{CourseID: crs.ID, Title: "B", Position: 2, IsPublished: true})
	chC := f.db.SeedChapter(course.Chapter{CourseID: crs.ID, Title: "C", Position: 3, IsPublished: true})
	qz := f.db.SeedQuiz(course.Quiz{CourseID: crs.ID, Title: "Quiz", Position: 2, IsPublished: true})
	return crs, []course.Chapter{chA, chB, chC}, qz
}

func TestService_CheckChapterAccess(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	teacher := f.seedUser(t, "teacher", user.RoleTeacher)
	u := f.seedUser(t, "u", user.RoleStudent)
	v := f.seedUser(t, "v", user.RoleStudent)
	crs, chapters, _ := f.seedCourse(teacher.ID)
	chA, chB, chC := chapters[0], chapters[1], chapters[2]

	// U purchased the course and holds a grant on B only
	admin := f.seedUser(t, "admin", user.RoleAdmin)
	if _, err := f.svc.RecordPurchase(ctx, admin, u.ID, crs.ID); err != nil {
		t.Fatalf("RecordPurchase() failed: %v", err)
	}
	if _, err := f.svc.Grant(ctx, admin, u.ID, chB.ID); err != nil {
		t.Fatalf("Grant() failed: %v", err)
	}

	tests := []struct {
		name      string
		userID    string
		chapterID string
		want      access.Decision
		wantErr   error
	}{
		{name: "anonymous sees free chapter", userID: "", chapterID: chA.ID, want: access.Decision{Granted: true}},
		{name: "anonymous denied paid chapter", userID: "", chapterID: chB.ID, wantErr: access.ErrNotAuthenticated},
		{name: "U sees free chapter", userID: u.ID, chapterID: chA.ID, want: access.Decision{Granted: true}},
		{name: "U sees granted chapter", userID: u.ID, chapterID: chB.ID, want: access.Decision{Granted: true}},
		{
			name: "U denied ungranted chapter", userID: u.ID, chapterID: chC.ID,
			want: access.Decision{Reason: access.ReasonChapterNotGranted},
		},
		{name: "V sees free chapter", userID: v.ID, chapterID: chA.ID, want: access.Decision{Granted: true}},
		{
			name: "V denied paid chapter", userID: v.ID, chapterID: chB.ID,
			want: access.Decision{Reason: access.ReasonCourseNotPurchased},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.svc.CheckChapterAccess(ctx, tt.userID, crs.ID, tt.chapterID)
			if tt.wantErr != nil {
				if errors.Cause(err) != tt.wantErr {
					t.Fatalf("CheckChapterAccess() error = %v; want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("CheckChapterAccess() failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("CheckChapterAccess() = %+v; want %+v", got, tt.want)
			}
		})
	}
}

func TestService_CheckChapterAccess_unpublished(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	teacher := f.seedUser(t, "teacher", user.RoleTeacher)
	crs := f.db.SeedCourse(course.Course{Title: "Draft", OwnerID: teacher.ID, IsPublished: true})
	draft := f.db.SeedChapter(course.Chapter{CourseID: crs.ID, Title: "Draft", Position: 1, IsFree: true})

	if _, err := f.svc.CheckChapterAccess(ctx, "", crs.ID, draft.ID); errors.Cause(err) != course.ErrNotFound {
		t.Errorf("CheckChapterAccess() error = %v; want %v", err, course.ErrNotFound)
	}

	hidden := f.db.SeedCourse(course.Course{Title: "Hidden", OwnerID: teacher.ID})
	ch := f.db.SeedChapter(course.Chapter{CourseID: hidden.ID, Title: "A", Position: 1, IsFree: true, IsPublished: true})
	if _, err := f.svc.CheckChapterAccess(ctx, "", hidden.ID, ch.ID); errors.Cause(err) != course.ErrNotFound {
		t.Errorf("CheckChapterAccess() error = %v; want %v", err, course.ErrNotFound)
	}
}

func TestService_GrantAndRevoke(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	admin := f.seedUser(t, "admin", user.RoleAdmin)
	teacher := f.seedUser(t, "teacher", user.RoleTeacher)
	other := f.seedUser(t, "other", user.RoleTeacher)
	student := f.seedUser(t, "student", user.RoleStudent)
	crs, chapters, _ := f.seedCourse(teacher.ID)
	chB := chapters[1]

	// owning teacher may grant
	if _, err := f.svc.Grant(ctx, teacher, student.ID, chB.ID); err != nil {
		t.Fatalf("Grant() failed: %v", err)
	}

	// granting twice conflicts
	if _, err := f.svc.Grant(ctx, admin, student.ID, chB.ID); errors.Cause(err) != access.ErrGrantExists {
		t.Errorf("Grant() error = %v; want %v", err, access.ErrGrantExists)
	}

	// a non-owning teacher may not manage grants on this course
	if _, err := f.svc.Grant(ctx, other, student.ID, chapters[2].ID); errors.Cause(err) != access.ErrForbidden {
		t.Errorf("Grant() error = %v; want %v", err, access.ErrForbidden)
	}

	// grants can only target students
	if _, err := f.svc.Grant(ctx, admin, teacher.ID, chB.ID); errors.Cause(err) != user.ErrNotFound {
		t.Errorf("Grant() error = %v; want %v", err, user.ErrNotFound)
	}

	// revoke undoes the grant
	if err := f.svc.Revoke(ctx, admin, student.ID, chB.ID); err != nil {
		t.Fatalf("Revoke() failed: %v", err)
	}
	decision, err := f.svc.CheckChapterAccess(ctx, student.ID, crs.ID, chB.ID)
	if err != nil {
		t.Fatalf("CheckChapterAccess() failed: %v", err)
	}
	if decision.Granted {
		t.Error("CheckChapterAccess() still granted after revoke")
	}

	// revoking an absent grant reports it
	if err := f.svc.Revoke(ctx, admin, student.ID, chB.ID); errors.Cause(err) != access.ErrGrantNotFound {
		t.Errorf("Revoke() error = %v; want %v", err, access.ErrGrantNotFound)
	}
}

func TestService_CourseContent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	admin := f.seedUser(t, "admin", user.RoleAdmin)
	teacher := f.seedUser(t, "teacher", user.RoleTeacher)
	u := f.seedUser(t, "u", user.RoleStudent)
	crs, chapters, qz := f.seedCourse(teacher.ID)
	chA, chB, chC := chapters[0], chapters[1], chapters[2]

	// unpublished entries never appear
	f.db.SeedChapter(course.Chapter{CourseID: crs.ID, Title: "Draft", Position: 4})

	if _, err := f.svc.RecordPurchase(ctx, admin, u.ID, crs.ID); err != nil {
		t.Fatalf("RecordPurchase() failed: %v", err)
	}
	if _, err := f.svc.Grant(ctx, admin, u.ID, chB.ID); err != nil {
		t.Fatalf("Grant() failed: %v", err)
	}
	if _, err := f.courseRepo.UpsertUserProgress(ctx, course.UserProgress{
		UserID: u.ID, ChapterID: chA.ID, IsCompleted: true,
	}); err != nil {
		t.Fatalf("UpsertUserProgress() failed: %v", err)
	}

	items, err := f.svc.CourseContent(ctx, u.ID, crs.ID)
	if err != nil {
		t.Fatalf("CourseContent() failed: %v", err)
	}

	wantOrder := []struct {
		typ access.ContentType
		id  string
	}{
		{access.ContentChapter, chA.ID},
		{access.ContentChapter, chB.ID},
		{access.ContentQuiz, qz.ID},
		{access.ContentChapter, chC.ID},
	}
	if len(items) != len(wantOrder) {
		t.Fatalf("CourseContent() returned %d items; want %d", len(items), len(wantOrder))
	}
	for i, want := range wantOrder {
		var id string
		if items[i].Type == access.ContentQuiz {
			id = items[i].Quiz.ID
		} else {
			id = items[i].Chapter.ID
		}
		if items[i].Type != want.typ || id != want.id {
			t.Errorf("items[%d] = (%s, %s); want (%s, %s)", i, items[i].Type, id, want.typ, want.id)
		}
	}

	wantAccess := map[string]bool{chA.ID: true, chB.ID: true, chC.ID: false}
	for _, it := range items {
		if it.Type == access.ContentQuiz {
			if !it.HasAccess {
				t.Error("quizzes should not be gated")
			}
			continue
		}
		if it.HasAccess != wantAccess[it.Chapter.ID] {
			t.Errorf("chapter %s HasAccess = %v; want %v", it.Chapter.Title, it.HasAccess, wantAccess[it.Chapter.ID])
		}
		wantCompleted := it.Chapter.ID == chA.ID
		if it.Completed != wantCompleted {
			t.Errorf("chapter %s Completed = %v; want %v", it.Chapter.Title, it.Completed, wantCompleted)
		}
	}
}

func TestService_CourseContent_anonymous(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	teacher := f.seedUser(t, "teacher", user.RoleTeacher)
	crs, chapters, _ := f.seedCourse(teacher.ID)

	items, err := f.svc.CourseContent(ctx, "", crs.ID)
	if err != nil {
		t.Fatalf("CourseContent() failed: %v", err)
	}
	for _, it := range items {
		if it.Type != access.ContentChapter {
			continue
		}
		wantAccess := it.Chapter.ID == chapters[0].ID // only the free chapter
		if it.HasAccess != wantAccess {
			t.Errorf("chapter %s HasAccess = %v; want %v", it.Chapter.Title, it.HasAccess, wantAccess)
		}
	}
}

func TestService_ListGrants(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	admin := f.seedUser(t, "admin", user.RoleAdmin)
	teacher1 := f.seedUser(t, "teacher1", user.RoleTeacher)
	teacher2 := f.seedUser(t, "teacher2", user.RoleTeacher)
	student := f.seedUser(t, "student", user.RoleStudent)

	_, chapters1, _ := f.seedCourse(teacher1.ID)
	_, chapters2, _ := f.seedCourse(teacher2.ID)

	if _, err := f.svc.Grant(ctx, teacher1, student.ID, chapters1[1].ID); err != nil {
		t.Fatalf("Grant() failed: %v", err)
	}
	if _, err := f.svc.Grant(ctx, teacher2, student.ID, chapters2[1].ID); err != nil {
		t.Fatalf("Grant() failed: %v", err)
	}

	// admins see all grants
	ids, err := f.svc.ListGrants(ctx, admin, student.ID, "")
	if err != nil {
		t.Fatalf("ListGrants() failed: %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("ListGrants() returned %d ids; want 2", len(ids))
	}

	// teachers only see grants on their own courses
	ids, err = f.svc.ListGrants(ctx, teacher1, student.ID, "")
	if err != nil {
		t.Fatalf("ListGrants() failed: %v", err)
	}
	if len(ids) != 1 || ids[0] != chapters1[1].ID {
		t.Errorf("ListGrants() = %v; want [%s]", ids, chapters1[1].ID)
	}

	// students may not list grants
	if _, err = f.svc.ListGrants(ctx, student, student.ID, ""); errors.Cause(err) != access.ErrForbidden {
		t.Errorf("ListGrants() error = %v; want %v", err, access.ErrForbidden)
	}
}

func TestService_RecordPurchase(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	admin := f.seedUser(t, "admin", user.RoleAdmin)
	teacher := f.seedUser(t, "teacher", user.RoleTeacher)
	student := f.seedUser(t, "student", user.RoleStudent)
	crs, _, _ := f.seedCourse(teacher.ID)

	// only admins record purchases
	if _, err := f.svc.RecordPurchase(ctx, teacher, student.ID, crs.ID); errors.Cause(err) != access.ErrForbidden {
		t.Errorf("RecordPurchase() error = %v; want %v", err, access.ErrForbidden)
	}

	p, err := f.svc.RecordPurchase(ctx, admin, student.ID, crs.ID)
	if err != nil {
		t.Fatalf("RecordPurchase() failed: %v", err)
	}
	if p.Status != access.PurchaseActive {
		t.Errorf("RecordPurchase() status = %s; want %s", p.Status, access.PurchaseActive)
	}

	// a second active purchase conflicts
	if _, err = f.svc.RecordPurchase(ctx, admin, student.ID, crs.ID); errors.Cause(err) != access.ErrPurchaseExists {
		t.Errorf("RecordPurchase() error = %v; want %v", err, access.ErrPurchaseExists)
	}
}
