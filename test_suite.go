package postboard

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"testing"

	"github.com/cucumber/godog"
	"github.com/cucumber/godog/colors"
	"github.com/gin-gonic/gin"
)

type DBSeeder interface {
	Seed(document string, data *godog.Table) error
}

// TestSuite drives gherkin scenarios against a gin engine, or against a
// running server when BaseURL is set.
type TestSuite struct {
	T           *testing.T
	Router      *gin.Engine
	Resp        *http.Response
	RespBody    []byte
	Storage     map[string]string
	RequestBody []byte
	BaseURL     string
	DbSeeders   map[string]DBSeeder
}

type TestLogger struct {
	T *testing.T
}

func (ts *TestSuite) RegisterDBSeeder(document string, seeder DBSeeder) {
	if ts.DbSeeders == nil {
		ts.DbSeeders = make(map[string]DBSeeder)
	}
	ts.DbSeeders[document] = seeder
}

func (ts *TestSuite) SetBaseURL(baseURL string) {
	ts.BaseURL = baseURL
}

func (ts *TestSuite) InitializeTestSuite(ctx *godog.TestSuiteContext) {
	ctx.BeforeSuite(func() {
		ts.Storage = make(map[string]string)
	})
}

func (ts *TestSuite) InitializeScenario(ctx *godog.ScenarioContext) {
	ctx.BeforeScenario(func(sc *godog.Scenario) {
		ts.Resp = nil
		ts.RespBody = nil
		ts.RequestBody = nil
	})

	ctx.Step(`^document "([^"]*)" has the following items$`, ts.documentHasTheFollowingItems)
	ctx.Step(`^I send a GET request to "([^"]*)"$`, ts.iSendAGETRequestTo)
	ctx.Step(`^I send a POST request to "([^"]*)" with body$`, ts.iSendAPOSTRequestToWithBody)
	ctx.Step(`^I submit the form to "([^"]*)" with$`, ts.iSubmitTheFormToWith)
	ctx.Step(`^the response status should be (\d+)$`, ts.theResponseStatusShouldBe)
	ctx.Step(`^I should be redirected to "([^"]*)"$`, ts.iShouldBeRedirectedTo)
	ctx.Step(`^the response should contain "([^"]*)"$`, ts.theResponseShouldContain)
	ctx.Step(`^the response should not contain "([^"]*)"$`, ts.theResponseShouldNotContain)
	ctx.Step(`^the response "([^"]*)" field is stored as "([^"]*)"$`, ts.theResponseFieldIsStoredAs)
	ctx.Step(`^the response should contain an item with$`, ts.theResponseShouldContainAnItemWith)
}

func (ts *TestSuite) documentHasTheFollowingItems(document string, data *godog.Table) error {
	seeder, ok := ts.DbSeeders[document]
	if !ok {
		return fmt.Errorf("no seeder registered for document %s", document)
	}
	return seeder.Seed(document, data)
}

// expand replaces {key} with values saved by "is stored as" steps.
func (ts *TestSuite) expand(path string) string {
	for key, value := range ts.Storage {
		path = strings.ReplaceAll(path, "{"+key+"}", value)
	}
	return path
}

func (ts *TestSuite) do(method, path string, body io.Reader, contentType string) error {
	target := ts.expand(path)
	if ts.BaseURL != "" {
		target = ts.BaseURL + target
	}

	req, err := http.NewRequest(method, target, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	if ts.BaseURL != "" {
		client := &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
		ts.Resp, err = client.Do(req)
		if err != nil {
			return err
		}
	} else {
		w := httptest.NewRecorder()
		ts.Router.ServeHTTP(w, req)
		ts.Resp = w.Result()
	}

	defer ts.Resp.Body.Close()
	ts.RespBody, err = io.ReadAll(ts.Resp.Body)
	return err
}

func (ts *TestSuite) iSendAGETRequestTo(path string) error {
	return ts.do(http.MethodGet, path, nil, "")
}

func (ts *TestSuite) iSendAPOSTRequestToWithBody(path string, body *godog.Table) error {
	var err error
	ts.RequestBody, err = ts.parseDataTableToJSON(body)
	if err != nil {
		return err
	}
	return ts.do(http.MethodPost, path, bytes.NewBuffer(ts.RequestBody), "application/json")
}

// iSubmitTheFormToWith posts a urlencoded form built from a two-column
// field/value table without a header row.
func (ts *TestSuite) iSubmitTheFormToWith(path string, fields *godog.Table) error {
	form := url.Values{}
	for _, row := range fields.Rows {
		if len(row.Cells) != 2 {
			return fmt.Errorf("form table rows must have two cells")
		}
		form.Set(row.Cells[0].Value, row.Cells[1].Value)
	}
	ts.RequestBody = []byte(form.Encode())
	return ts.do(http.MethodPost, path, bytes.NewBuffer(ts.RequestBody), "application/x-www-form-urlencoded")
}

func (ts *TestSuite) theResponseStatusShouldBe(status int) error {
	if ts.Resp.StatusCode != status {
		return fmt.Errorf("expected status %d, got %d: %s", status, ts.Resp.StatusCode, ts.RespBody)
	}
	return nil
}

func (ts *TestSuite) iShouldBeRedirectedTo(location string) error {
	if ts.Resp.StatusCode != http.StatusFound && ts.Resp.StatusCode != http.StatusSeeOther {
		return fmt.Errorf("expected a redirect, got %d", ts.Resp.StatusCode)
	}
	if got := ts.Resp.Header.Get("Location"); got != location {
		return fmt.Errorf("expected redirect to %q, got %q", location, got)
	}
	return nil
}

func (ts *TestSuite) theResponseShouldContain(text string) error {
	if !strings.Contains(string(ts.RespBody), text) {
		return fmt.Errorf("response does not contain %q", text)
	}
	return nil
}

func (ts *TestSuite) theResponseShouldNotContain(text string) error {
	if strings.Contains(string(ts.RespBody), text) {
		return fmt.Errorf("response unexpectedly contains %q", text)
	}
	return nil
}

func (ts *TestSuite) theResponseFieldIsStoredAs(field, key string) error {
	var data map[string]interface{}
	if err := json.Unmarshal(ts.RespBody, &data); err != nil {
		return err
	}
	if val, ok := data[field]; ok {
		ts.Storage[key] = fmt.Sprintf("%v", val)
		return nil
	}
	return fmt.Errorf("field %s not found in response", field)
}

// theResponseShouldContainAnItemWith accepts a JSON object or an array of
// objects; values are compared as strings.
func (ts *TestSuite) theResponseShouldContainAnItemWith(body *godog.Table) error {
	expected, err := ts.parseDataTableToMap(body)
	if err != nil {
		return err
	}

	var items []map[string]interface{}
	if err := json.Unmarshal(ts.RespBody, &items); err != nil {
		var item map[string]interface{}
		if err := json.Unmarshal(ts.RespBody, &item); err != nil {
			return err
		}
		items = []map[string]interface{}{item}
	}

	for _, item := range items {
		if matches(item, expected) {
			return nil
		}
	}
	return fmt.Errorf("no item matches %v in %s", expected, ts.RespBody)
}

func matches(item map[string]interface{}, expected map[string]string) bool {
	for key, want := range expected {
		got, ok := item[key]
		if !ok || fmt.Sprintf("%v", got) != want {
			return false
		}
	}
	return true
}

func (ts *TestSuite) parseDataTableToMap(body *godog.Table) (map[string]string, error) {
	if len(body.Rows) < 2 {
		return nil, fmt.Errorf("table must have at least two rows")
	}
	headers := body.Rows[0].Cells
	data := make(map[string]string)
	for j, cell := range body.Rows[1].Cells {
		data[headers[j].Value] = cell.Value
	}
	return data, nil
}

func (ts *TestSuite) parseDataTableToJSON(body *godog.Table) ([]byte, error) {
	data, err := ts.parseDataTableToMap(body)
	if err != nil {
		return nil, err
	}
	return json.Marshal(data)
}

// GenericDBSeeder turns table rows into structs by field name or json tag
// and hands them to the sink registered for the document.
type GenericDBSeeder struct {
	Constructors map[string]func() interface{}
	Sinks        map[string]func(docs []interface{}) error
}

func NewGenericDBSeeder() *GenericDBSeeder {
	return &GenericDBSeeder{
		Constructors: make(map[string]func() interface{}),
		Sinks:        make(map[string]func(docs []interface{}) error),
	}
}

func (gds *GenericDBSeeder) Register(name string, constructor func() interface{}, sink func(docs []interface{}) error) {
	gds.Constructors[name] = constructor
	gds.Sinks[name] = sink
}

func (gds *GenericDBSeeder) Seed(document string, data *godog.Table) error {
	constructor, ok := gds.Constructors[document]
	if !ok {
		return fmt.Errorf("no constructor registered for document type: %s", document)
	}

	if data == nil || len(data.Rows) == 0 {
		return fmt.Errorf("no rows given for document %s", document)
	}

	var docs []interface{}
	headers := data.Rows[0].Cells
	for i := 1; i < len(data.Rows); i++ {
		row := data.Rows[i]
		docInstance := constructor()

		val := reflect.ValueOf(docInstance).Elem()
		typ := val.Type()

		if len(row.Cells) != len(headers) {
			return fmt.Errorf("row %d of %s has %d cells, want %d", i, document, len(row.Cells), len(headers))
		}
		for j, cell := range row.Cells {
			fieldName := headers[j].Value

			field := val.FieldByName(toPascalCase(fieldName))
			if !field.IsValid() {
				for k := 0; k < typ.NumField(); k++ {
					if jsonTag := strings.Split(typ.Field(k).Tag.Get("json"), ",")[0]; jsonTag == fieldName {
						field = val.Field(k)
						break
					}
				}
			}

			if !field.IsValid() || !field.CanSet() {
				return fmt.Errorf("could not set field %s for document %s", fieldName, document)
			}

			switch field.Kind() {
			case reflect.String:
				field.SetString(cell.Value)
			case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
				if cell.Value == "" {
					field.SetInt(0)
					continue
				}
				intVal, err := strconv.Atoi(cell.Value)
				if err != nil {
					return fmt.Errorf("failed to parse int for field %s: %w", fieldName, err)
				}
				field.SetInt(int64(intVal))
			default:
				return fmt.Errorf("unsupported field type for %s: %s", fieldName, field.Kind())
			}
		}
		docs = append(docs, docInstance)
	}

	return gds.Sinks[document](docs)
}

func toPascalCase(s string) string {
	if len(s) == 0 {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func (tl *TestLogger) Write(p []byte) (n int, err error) {
	if tl.T != nil {
		tl.T.Logf("%s", p)
	}
	return len(p), nil
}

// RunFeatures runs the gherkin features under paths and fails t on any
// failing scenario.
func RunFeatures(t *testing.T, suite *TestSuite, paths ...string) {
	suite.T = t
	if len(paths) == 0 {
		paths = []string{"features"}
	}
	opts := godog.Options{
		Format:    "pretty",
		Output:    colors.Colored(&TestLogger{T: t}),
		Paths:     paths,
		Strict:    true,
		Randomize: 0,
	}

	status := godog.TestSuite{
		Name:                 "postboard",
		TestSuiteInitializer: suite.InitializeTestSuite,
		ScenarioInitializer:  suite.InitializeScenario,
		Options:              &opts,
	}.Run()
	if status != 0 {
		t.Fatalf("feature run failed with status %d", status)
	}
}
