package echoapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/ecolage/core/staff"
	emailsvc "github.com/trezcool/ecolage/services/email"
	testutil "github.com/trezcool/ecolage/tests"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

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

type testApp struct {
	env    *testutil.Env
	server *Server
	admin  staff.Account
	bursar staff.Account
}

func setup(t *testing.T) *testApp {
	env := testutil.NewEnv(t)
	validate, translator := testutil.NewValidator()
	emailsvc.ResetSentMessages()

	server := NewServer(ServerDeps{
		Conf:       env.Conf,
		Logger:     testutil.NewLogger(),
		Students:   env.Students,
		Schedules:  env.Schedules,
		Settings:   env.Settings,
		Resolver:   env.Resolver,
		Payments:   env.Payments,
		Settlement: env.Settlement,
		Engine:     env.Engine,
		StaffSvc:   env.Staff,
		MailSvc:    emailsvc.NewConsoleServiceMock(env.Conf),
		Validate:   validate,
		Translator: translator,
	})
	return &testApp{
		env:    env,
		server: server,
		admin:  testutil.CreateAccount(t, env.Staff, "Directrice", "admin@ecolage.test", staff.RoleAdmin),
		bursar: testutil.CreateAccount(t, env.Staff, "Économe", "bursar@ecolage.test", staff.RoleBursar),
	}
}

func (app *testApp) token(t *testing.T, acc staff.Account) string {
	token, err := app.server.auth.generateToken(app.server.auth.claimsFor(acc))
	if err != nil {
		t.Fatalf("token() failed: %v", err)
	}
	return token
}

func (app *testApp) do(method, path, token string, data ...[]byte) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(method, path, token, data...)
	app.server.ServeHTTP(rec, req)
	return rec
}

func (app *testApp) run(t *testing.T, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			checkCodeAndData(t, tt, app.do(method, tt.path, tt.token, tt.body))
		})
	}
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

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func unmarchall(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("unmarchall() failed: %v; body %s", err, rec.Body.String())
	}
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
