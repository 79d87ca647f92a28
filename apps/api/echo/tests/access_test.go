package tests

import (
	"context"
	"net/http"
	"sort"
	"testing"

	"github.com/ahmednader515/answer-guide-platform/core/user"
)

func Test_accessApi_grant(t *testing.T) {
	app, f := setup(t)

	admin := f.createUser(t, "admin", user.RoleAdmin, true)
	teacher := f.createUser(t, "teacher", user.RoleTeacher, true)
	other := f.createUser(t, "other", user.RoleTeacher, true)
	student := f.createUser(t, "student", user.RoleStudent, true)
	_, chapters, _ := seedCourse(f, teacher.ID)
	chB, chC := chapters[1], chapters[2]

	adminPath := "/v1/admin/users/" + student.ID + "/chapter-access"
	teacherPath := "/v1/teacher/users/" + student.ID + "/chapter-access"

	grantBody := func(chapterID string) []byte {
		return marchallObj(t, map[string]string{"chapter_id": chapterID})
	}

	tests := []httpTest{
		{
			name: "auth required", method: http.MethodPost, path: adminPath, body: grantBody(chB.ID),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "students may not grant", method: http.MethodPost, path: adminPath, body: grantBody(chB.ID),
			token: getToken(t, f.conf, student), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "teachers may not use the admin surface", method: http.MethodPost, path: adminPath,
			body: grantBody(chB.ID), token: getToken(t, f.conf, teacher), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "chapter_id is required", method: http.MethodPost, path: adminPath, body: marchallObj(t, map[string]string{}),
			token: getToken(t, f.conf, admin), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"chapter_id": "this field is required"}),
		},
		{
			name: "admin grants", method: http.MethodPost, path: adminPath, body: grantBody(chB.ID),
			token: getToken(t, f.conf, admin), wantCode: http.StatusCreated,
		},
		{
			name: "granting twice conflicts", method: http.MethodPost, path: adminPath, body: grantBody(chB.ID),
			token: getToken(t, f.conf, admin), wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Error: "student already has access to this chapter"}),
		},
		{
			name: "owning teacher grants", method: http.MethodPost, path: teacherPath, body: grantBody(chC.ID),
			token: getToken(t, f.conf, teacher), wantCode: http.StatusCreated,
		},
		{
			name: "non-owning teacher is denied", method: http.MethodPost, path: teacherPath, body: grantBody(chC.ID),
			token: getToken(t, f.conf, other), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_accessApi_revoke(t *testing.T) {
	app, f := setup(t)
	ctx := context.Background()

	admin := f.createUser(t, "admin", user.RoleAdmin, true)
	teacher := f.createUser(t, "teacher", user.RoleTeacher, true)
	student := f.createUser(t, "student", user.RoleStudent, true)
	_, chapters, _ := seedCourse(f, teacher.ID)
	chB := chapters[1]

	if _, err := f.accessSvc.Grant(ctx, admin, student.ID, chB.ID); err != nil {
		t.Fatalf("Grant() failed: %v", err)
	}

	path := "/v1/admin/users/" + student.ID + "/chapter-access?chapter_id=" + chB.ID
	adminToken := getToken(t, f.conf, admin)

	req, rec := newAuthRequest(http.MethodDelete, path, adminToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("code = %v; want %v; body %s", rec.Code, http.StatusNoContent, rec.Body.String())
	}

	// revoking again reports the missing grant
	req, rec = newAuthRequest(http.MethodDelete, path, adminToken)
	app.ServeHTTP(rec, req)
	tt := httpTest{
		wantCode: http.StatusNotFound,
		wantData: marchallObj(t, httpErr{Error: "chapter access not found for this student"}),
	}
	checkCodeAndData(t, tt, rec)
}

func Test_accessApi_listGrants(t *testing.T) {
	app, f := setup(t)
	ctx := context.Background()

	admin := f.createUser(t, "admin", user.RoleAdmin, true)
	teacher1 := f.createUser(t, "teacher1", user.RoleTeacher, true)
	teacher2 := f.createUser(t, "teacher2", user.RoleTeacher, true)
	student := f.createUser(t, "student", user.RoleStudent, true)

	crs1, chapters1, _ := seedCourse(f, teacher1.ID)
	_, chapters2, _ := seedCourse(f, teacher2.ID)

	if _, err := f.accessSvc.Grant(ctx, teacher1, student.ID, chapters1[1].ID); err != nil {
		t.Fatalf("Grant() failed: %v", err)
	}
	if _, err := f.accessSvc.Grant(ctx, teacher2, student.ID, chapters2[1].ID); err != nil {
		t.Fatalf("Grant() failed: %v", err)
	}

	adminPath := "/v1/admin/users/" + student.ID + "/chapter-access"
	teacherPath := "/v1/teacher/users/" + student.ID + "/chapter-access"

	allGranted := []string{chapters1[1].ID, chapters2[1].ID}
	sort.Strings(allGranted)

	tests := []httpTest{
		{
			name: "admin sees all grants", path: adminPath, token: getToken(t, f.conf, admin), wantCode: http.StatusOK,
			wantData: marchallObj(t, map[string][]string{"chapter_ids": allGranted}),
		},
		{
			name: "teacher only sees own courses", path: teacherPath, token: getToken(t, f.conf, teacher1),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, map[string][]string{"chapter_ids": {chapters1[1].ID}}),
		},
		{
			name: "course filter", path: adminPath + "?course_id=" + crs1.ID, token: getToken(t, f.conf, admin),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, map[string][]string{"chapter_ids": {chapters1[1].ID}}),
		},
		{
			name: "no grants is an empty list", path: "/v1/admin/users/" + teacher1.ID + "/chapter-access",
			token: getToken(t, f.conf, admin), wantCode: http.StatusOK,
			wantData: marchallObj(t, map[string][]string{"chapter_ids": {}}),
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

func Test_accessApi_recordPurchase(t *testing.T) {
	app, f := setup(t)

	admin := f.createUser(t, "admin", user.RoleAdmin, true)
	teacher := f.createUser(t, "teacher", user.RoleTeacher, true)
	student := f.createUser(t, "student", user.RoleStudent, true)
	crs, _, _ := seedCourse(f, teacher.ID)

	path := "/v1/admin/users/" + student.ID + "/purchases"
	body := marchallObj(t, map[string]string{"course_id": crs.ID})

	tests := []httpTest{
		{
			name: "teachers may not record purchases", method: http.MethodPost, path: path, body: body,
			token: getToken(t, f.conf, teacher), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "admin records a purchase", method: http.MethodPost, path: path, body: body,
			token: getToken(t, f.conf, admin), wantCode: http.StatusCreated,
		},
		{
			name: "second active purchase conflicts", method: http.MethodPost, path: path, body: body,
			token: getToken(t, f.conf, admin), wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Error: "student already has an active purchase for this course"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
