package tests

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/actionunitmanager/backend/apps/api/echo"
	"github.com/actionunitmanager/backend/core"
	"github.com/actionunitmanager/backend/core/attendance"
	"github.com/actionunitmanager/backend/core/book"
	"github.com/actionunitmanager/backend/core/church"
	"github.com/actionunitmanager/backend/core/class"
	"github.com/actionunitmanager/backend/core/offering"
	"github.com/actionunitmanager/backend/core/subscription"
	"github.com/actionunitmanager/backend/core/user"
	emailsvc "github.com/actionunitmanager/backend/services/email"
	"github.com/actionunitmanager/backend/storage/database/inmem"
)

var (
	app Server

	usrRepo    *inmem.UserRepository
	churchRepo *inmem.ChurchRepository
	subRepo    *inmem.SubscriptionRepository
	clsRepo    *inmem.ClassRepository
	attRepo    *inmem.AttendanceRepository
	offRepo    *inmem.OfferingRepository
	bookRepo   *inmem.BookRepository

	usrSvc user.ServiceInterface
	subSvc *subscription.Service

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
)

func TestMain(m *testing.M) {
	core.Conf.TestMode = true

	// set up repos
	usrRepo = inmem.NewUserRepository()
	churchRepo = inmem.NewChurchRepository()
	subRepo = inmem.NewSubscriptionRepository()
	clsRepo = inmem.NewClassRepository()
	attRepo = inmem.NewAttendanceRepository(clsRepo)
	offRepo = inmem.NewOfferingRepository(clsRepo)
	bookRepo = inmem.NewBookRepository(clsRepo)

	// set up services
	mailSvc := emailsvc.NewConsoleServiceMock()
	usrSvc = user.NewService(usrRepo, mailSvc)
	subSvc = subscription.NewService(subRepo)
	churchSvc := church.NewService(churchRepo, usrSvc, subSvc, mailSvc)
	clsSvc := class.NewService(clsRepo, usrSvc)
	attSvc := attendance.NewService(attRepo, clsRepo, usrSvc)
	offSvc := offering.NewService(offRepo, clsRepo, usrSvc)
	bookSvc := book.NewService(bookRepo, clsRepo, usrSvc)

	validate, translator := core.NewValidator()

	// set up server
	app = NewServer(
		&Options{
			DisableReqLogs:  true,
			Logger:          testLogger{},
			UserSvc:         usrSvc,
			ChurchSvc:       churchSvc,
			SubscriptionSvc: subSvc,
			ClassSvc:        clsSvc,
			AttendanceSvc:   attSvc,
			OfferingSvc:     offSvc,
			BookSvc:         bookSvc,
			Validate:        validate,
			Translator:      translator,
		},
	)

	os.Exit(m.Run())
}

func resetRepos() {
	usrRepo.Clear()
	churchRepo.Clear()
	subRepo.Clear()
	clsRepo.Clear()
	attRepo.Clear()
	offRepo.Clear()
	bookRepo.Clear()
}

// testLogger dumps server errors to stdout so failing tests show the cause.
type testLogger struct{}

func (testLogger) Enable(bool)                       {}
func (testLogger) Debug(string, ...interface{})      {}
func (testLogger) Info(string, ...interface{})       {}
func (testLogger) Warn(string, ...interface{})       {}
func (testLogger) Error(msg string, args ...interface{}) {
	log.Printf("%s: %+v", msg, args)
}
func (testLogger) Fatal(msg string, args ...interface{}) {
	log.Printf("%s: %+v", msg, args)
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

func getRefreshToken(t *testing.T, usr user.User) string {
	claims := GetUserRefreshClaims(usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getRefreshToken() failed: %v", err)
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

func unmarchallMap(t *testing.T, data []byte) map[string]interface{} {
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarchallMap() failed: %v; data %s", err, data)
	}
	return m
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
	return assert.ObjectsAreEqual(j1, j2), nil
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
