package tests

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"sync"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	. "github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/apps/api/echo"
	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/core"
	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/core/course"
	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/core/event"
	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/core/notification"
	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/core/user"
	emailsvc "github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/services/email"
	logsvc "github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/services/logger"
	pdfsvc "github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/services/pdf"
	inmemdb "github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/storage/database/inmem"
)

var (
	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errForbidden    = httpErr{Error: "permission denied"}

	initOnce sync.Once
)

type testApp struct {
	server Server
	conf   *core.Config

	usrRepo   user.Repository
	crsRepo   course.Repository
	evtRepo   event.Repository
	notifRepo notification.Repository
}

func setup(t *testing.T) *testApp {
	t.Helper()

	conf := core.NewConfig("test")
	conf.Debug = false
	conf.TestMode = true

	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "TEST : ", log.LstdFlags), conf)
	logger.Enable(false)

	// set up DB & repos
	db := inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)
	crsRepo := inmemdb.NewCourseRepository(db)
	evtRepo := inmemdb.NewEventRepository(db)
	notifRepo := inmemdb.NewNotificationRepository(db)

	// set up services
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	usrSvc := user.NewServiceMock(usrRepo, mailSvc, conf)
	crsSvc := course.NewService(db, crsRepo, usrRepo, notifRepo, mailSvc, conf)
	evtSvc := event.NewService(evtRepo, crsRepo)
	notifSvc := notification.NewService(db, notifRepo)
	reportSvc := pdfsvc.NewPDFService(conf)

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	event.InitValidators(validate, translator)

	initOnce.Do(func() {
		user.Init(conf)
		core.ParseEmailTemplates(conf, logger)
	})

	server := NewServer(
		ServerDeps{
			Conf:           conf,
			Logger:         logger,
			DisableReqLogs: true,
			UserSvc:        usrSvc,
			CourseSvc:      crsSvc,
			EventSvc:       evtSvc,
			NotifSvc:       notifSvc,
			ReportSvc:      reportSvc,
			Validate:       validate,
			Translator:     translator,
		},
	)

	return &testApp{
		server:    server,
		conf:      conf,
		usrRepo:   usrRepo,
		crsRepo:   crsRepo,
		evtRepo:   evtRepo,
		notifRepo: notifRepo,
	}
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
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
	extra    interface{}
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

func getToken(t *testing.T, usr user.User) string {
	claims := GetUserClaims(usr)
	token, err := GenerateToken(claims)
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

// nolint
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
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
