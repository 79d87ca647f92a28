package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	. "github.com/ahmednader515/answer-guide-platform/apps/api/echo"
	"github.com/ahmednader515/answer-guide-platform/core"
	"github.com/ahmednader515/answer-guide-platform/core/access"
	"github.com/ahmednader515/answer-guide-platform/core/course"
	"github.com/ahmednader515/answer-guide-platform/core/user"
	emailsvc "github.com/ahmednader515/answer-guide-platform/services/email"
	logsvc "github.com/ahmednader515/answer-guide-platform/services/logger"
	dummydb "github.com/ahmednader515/answer-guide-platform/storage/database/dummy"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type fixtures struct {
	conf       *core.Config
	db         *dummydb.DB
	userRepo   user.Repository
	courseRepo course.Repository
	accessRepo access.Repository
	accessSvc  *access.Service
}

func setup(t *testing.T) (*Server, *fixtures) {
	t.Helper()

	conf := core.NewConfig()
	conf.TestMode = true

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}

	userRepo := dummydb.NewUserRepository(db)
	courseRepo := dummydb.NewCourseRepository(db)
	accessRepo := dummydb.NewAccessRepository(db)

	mailSvc := emailsvc.NewConsoleServiceMock(conf)

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	userSvc := user.NewService(userRepo, mailSvc, validate, conf)
	courseSvc := course.NewService(courseRepo)
	accessSvc := access.NewService(accessRepo, courseRepo, userRepo, mailSvc, conf)

	logger := logsvc.NewConsoleLogger(log.New(io.Discard, "", 0))

	app := NewServer(ServerDeps{
		Conf:           conf,
		Logger:         logger,
		UserSvc:        userSvc,
		CourseSvc:      courseSvc,
		AccessSvc:      accessSvc,
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
	})

	return app, &fixtures{
		conf:       conf,
		db:         db,
		userRepo:   userRepo,
		courseRepo: courseRepo,
		accessRepo: accessRepo,
		accessSvc:  accessSvc,
	}
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

func (f *fixtures) createUser(t *testing.T, name string, role user.Role, active bool) user.User {
	t.Helper()
	usr := user.User{
		Name:     name,
		Email:    name + "@test.cd",
		Role:     role,
		IsActive: active,
	}
	if err := usr.SetPassword("V3ryS3cr3t!"); err != nil {
		t.Fatalf("SetPassword() failed: %v", err)
	}
	usr, err := f.userRepo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, conf *core.Config, usr user.User) string {
	claims := GetUserClaims(conf, usr)
	token, err := GenerateToken(conf, claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
