package echoapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	. "github.com/uwsprogram/tracker/apps/api/echo"
	"github.com/uwsprogram/tracker/core"
	"github.com/uwsprogram/tracker/core/activity"
	"github.com/uwsprogram/tracker/core/compliance"
	"github.com/uwsprogram/tracker/core/participant"
	"github.com/uwsprogram/tracker/core/rsvp"
	"github.com/uwsprogram/tracker/core/shabbaton"
	emailsvc "github.com/uwsprogram/tracker/services/email"
	inmemdb "github.com/uwsprogram/tracker/storage/database/inmem"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type nopLogger struct{}

func (nopLogger) Enable(bool)                  {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func testConfig() *core.Config {
	return &core.Config{
		TestMode:        true,
		AppName:         "UWS Tracker",
		SecretKey:       "secret",
		DefaultFromName: "UWS Tracker",
		DefaultFromAddr: "noreply@test.test",
		MealsRequired:   4,
		MinutesRequired: 600,
		Server: core.ServerConfig{
			JWTExpirationDelta: 10 * time.Minute,
		},
	}
}

type serverFixture struct {
	app             http.Handler
	participantRepo *inmemdb.ParticipantRepo
	participantSvc  *participant.Service
	rsvpSvc         *rsvp.Service
}

// newServerFixture wires a full API server over the in-memory repos;
// clock fixes "now" for the RSVP window checks.
func newServerFixture(t *testing.T, clock func() time.Time) *serverFixture {
	t.Helper()
	conf := testConfig()
	logger := nopLogger{}
	mailSvc := emailsvc.NewConsoleServiceMock(conf)

	db := inmemdb.Open()
	participantRepo := inmemdb.NewParticipantRepo(db)
	monthLogRepo := inmemdb.NewMonthLogRepo(db)
	activityRepo := inmemdb.NewActivityRepo(db)
	shabbatonRepo := inmemdb.NewShabbatonRepo(db)
	rsvpRepo := inmemdb.NewRsvpRepo(db)

	participantSvc := participant.NewService(participantRepo)
	complianceSvc := compliance.NewServiceMock(monthLogRepo, activityRepo, participantRepo, mailSvc, logger, conf, clock)
	activitySvc := activity.NewServiceMock(activityRepo, complianceSvc, clock)
	shabbatonSvc := shabbaton.NewServiceMock(shabbatonRepo, activityRepo, db, complianceSvc, participantRepo, mailSvc, logger, clock)
	rsvpSvc := rsvp.NewServiceMock(rsvpRepo, clock)

	server := NewServer(ServerDeps{
		Conf:           conf,
		Logger:         logger,
		ParticipantSvc: participantSvc,
		ComplianceSvc:  complianceSvc,
		ActivitySvc:    activitySvc,
		ShabbatonSvc:   shabbatonSvc,
		RsvpSvc:        rsvpSvc,
		DisableReqLogs: true,
	})
	return &serverFixture{
		app:             server,
		participantRepo: participantRepo,
		participantSvc:  participantSvc,
		rsvpSvc:         rsvpSvc,
	}
}

func (f *serverFixture) createParticipant(t *testing.T, name, email, role string) participant.Participant {
	t.Helper()
	p, err := f.participantSvc.Create(context.Background(), participant.NewParticipant{
		Email:         email,
		Role:          role,
		PreferredName: name,
	})
	if err != nil {
		t.Fatalf("createParticipant(): %v", err)
	}
	return p
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

func getToken(t *testing.T, p participant.Participant) string {
	t.Helper()
	token, err := GenerateToken(GetParticipantClaims(p))
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList(): %v", err)
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
