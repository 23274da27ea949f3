package echoapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strconv"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/progression"
	"github.com/trezcool/academia/core/schedule"
	"github.com/trezcool/academia/core/term"
	"github.com/trezcool/academia/storage/database/dummy"
	"github.com/trezcool/academia/tests"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testApp struct {
	*testutil.Fixture
	conf *core.Config
	app  *Server

	// tokens
	principal string
	registrar string
	admin     string
	teacher   string
}

func setup(t *testing.T) *testApp {
	conf := testutil.NewConfig()
	conf.Server.DisableReqLogs = true
	logger := testutil.NewLogger()
	fx := testutil.NewFixture(t)

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	term.InitValidators(validate, translator)
	schedule.InitValidators(validate, translator)

	termSvc := term.NewService(fx.DB, dummydb.NewTermRepository(fx.DB), nil)
	app := NewServer(ServerDeps{
		Conf:        conf,
		Logger:      logger,
		TermSvc:     termSvc,
		ScheduleSvc: schedule.NewService(fx.DB, dummydb.NewScheduleRepository(fx.DB), termSvc, conf, logger),
		Engine: progression.NewEngine(
			fx.DB,
			dummydb.NewProgressionRepository(fx.DB),
			dummydb.NewRecordRepository(fx.DB),
			termSvc,
			logger,
		),
		Validate:   validate,
		Translator: translator,
	})

	return &testApp{
		Fixture:   fx,
		conf:      conf,
		app:       app,
		principal: getToken(t, conf, "1", RolePrincipal),
		registrar: getToken(t, conf, "2", RoleRegistrar),
		admin:     getToken(t, conf, "3", RoleAdmin),
		teacher:   getToken(t, conf, "4"),
	}
}

func (ta *testApp) run(t *testing.T, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			req, rec := newAuthRequest(method, tt.path, tt.token, tt.body)
			ta.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

// do sends a single request and returns the recorded response.
func (ta *testApp) do(method, path, token string, body ...[]byte) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(method, path, token, body...)
	ta.app.ServeHTTP(rec, req)
	return rec
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

func getToken(t *testing.T, conf *core.Config, subject string, roles ...string) string {
	claims := NewClaims(conf, subject, "user"+subject, "user"+subject+"@test.edu", roles...)
	token, err := GenerateToken(conf, claims)
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func unmarchall(t *testing.T, rec *httptest.ResponseRecorder, obj interface{}) {
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), obj), rec.Body.String())
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	wantCode := tt.wantCode
	if wantCode == 0 {
		wantCode = http.StatusOK
	}
	if rec.Code != wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
