package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"finance_tracker/internal/dbtest"
	"finance_tracker/internal/domain"
	"finance_tracker/internal/ledger"
	"finance_tracker/internal/store"
	"finance_tracker/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var today = time.Date(2024, time.May, 17, 0, 0, 0, 0, time.UTC)

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	return newRouterWithLocker(t, utils.NewLocker(nil, time.Second))
}

func newRouterWithLocker(t *testing.T, locker *utils.Locker) *gin.Engine {
	t.Helper()
	st := store.New(dbtest.New(t))
	ldg := ledger.New(st, func() time.Time { return today })
	tokens, err := utils.NewTokenIssuer("test-secret", "HS256", 90*time.Minute)
	require.NoError(t, err)

	r := gin.New()
	RegisterRoutes(r, Deps{
		Users:     st,
		Entries:   ldg,
		Generator: ldg,
		Tokens:    tokens,
		Locker:    locker,
	})
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func loginForm(r http.Handler, username, password string) *httptest.ResponseRecorder {
	form := url.Values{"username": {username}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/users/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func signUp(t *testing.T, r http.Handler, email string) string {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/users/", gin.H{"email": email, "password": "hunter22"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return login(t, r, email)
}

func login(t *testing.T, r http.Handler, email string) string {
	t.Helper()
	w := loginForm(r, email, "hunter22")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "bearer", resp.TokenType)
	return resp.AccessToken
}

func entryBody(name string, amount int64, freq domain.Frequency, cat domain.Category, date string) gin.H {
	return gin.H{"name": name, "amount": amount, "frequency": freq, "category": cat, "entry_date": date}
}

func createEntry(t *testing.T, r http.Handler, token string, body gin.H) domain.Entry {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/entries/", body, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var e domain.Entry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e))
	return e
}

func decodeSummary(t *testing.T, w *httptest.ResponseRecorder) map[string]decimal.Decimal {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var s map[string]decimal.Decimal
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &s))
	return s
}

func TestHealth(t *testing.T) {
	r := newRouter(t)
	w := doJSON(t, r, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRegister(t *testing.T) {
	r := newRouter(t)

	w := doJSON(t, r, http.MethodPost, "/users/", gin.H{"email": "Ann@Example.com", "password": "hunter22"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ann@example.com", body["email"])
	assert.NotZero(t, body["id"])
	assert.NotContains(t, body, "password")

	w = doJSON(t, r, http.MethodPost, "/users/", gin.H{"email": "ann@example.com", "password": "other"}, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, r, http.MethodPost, "/users/", gin.H{"email": "not-an-email", "password": "x"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin(t *testing.T) {
	r := newRouter(t)
	signUp(t, r, "ann@example.com")

	w := loginForm(r, "ann@example.com", "wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))

	w = loginForm(r, "nobody@example.com", "hunter22")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, r, http.MethodPost, "/users/login", gin.H{"username": "ann@example.com", "password": "hunter22"}, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = loginForm(r, "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMe(t *testing.T) {
	r := newRouter(t)
	token := signUp(t, r, "ann@example.com")

	w := doJSON(t, r, http.MethodGet, "/users/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, r, http.MethodGet, "/users/me", nil, "garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, r, http.MethodGet, "/users/me", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"email":"ann@example.com"`)
}

func TestEntryLifecycle(t *testing.T) {
	r := newRouter(t)
	token := signUp(t, r, "ann@example.com")

	w := doJSON(t, r, http.MethodPost, "/entries/", entryBody("Lunch", 25, domain.OneTime, domain.Food, "2024-05-02"), token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"amount":-25`)
	var lunch domain.Entry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &lunch))
	assert.True(t, lunch.Amount.Equal(decimal.NewFromInt(-25)))
	assert.Equal(t, "2024-05-02", lunch.EntryDate.Format(domain.DateLayout))

	path := "/entries/" + strconv.FormatUint(uint64(lunch.ID), 10)
	w = doJSON(t, r, http.MethodPut, path, entryBody("Refund", -25, domain.OneTime, domain.Income, "2024-05-03"), token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated domain.Entry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, lunch.ID, updated.ID)
	assert.True(t, updated.Amount.Equal(decimal.NewFromInt(25)))
	assert.Equal(t, domain.Income, updated.Category)

	w = doJSON(t, r, http.MethodDelete, path, nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `"Deleted"`, w.Body.String())

	w = doJSON(t, r, http.MethodDelete, path, nil, token)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = doJSON(t, r, http.MethodPut, path, entryBody("Refund", 25, domain.OneTime, domain.Income, "2024-05-03"), token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEntryOwnership(t *testing.T) {
	r := newRouter(t)
	ann := signUp(t, r, "ann@example.com")
	bob := signUp(t, r, "bob@example.com")

	e := createEntry(t, r, ann, entryBody("Rent", 1200, domain.Monthly, domain.Housing, "2024-05-01"))
	path := "/entries/" + strconv.FormatUint(uint64(e.ID), 10)

	w := doJSON(t, r, http.MethodPut, path, entryBody("Rent", 1, domain.Monthly, domain.Housing, "2024-05-01"), bob)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = doJSON(t, r, http.MethodDelete, path, nil, bob)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	list := doJSON(t, r, http.MethodGet, "/entries/month/5/?year=2024", nil, ann)
	assert.Contains(t, list.Body.String(), `"name":"Rent"`)
}

func TestCreateEntry_Invalid(t *testing.T) {
	r := newRouter(t)
	token := signUp(t, r, "ann@example.com")

	cases := map[string]gin.H{
		"unknown category":  entryBody("x", 1, domain.OneTime, domain.Category("Pets"), "2024-05-01"),
		"unknown frequency": entryBody("x", 1, domain.Frequency("Hourly"), domain.Food, "2024-05-01"),
		"bad date":          entryBody("x", 1, domain.OneTime, domain.Food, "05/01/2024"),
		"missing amount":    {"name": "x", "frequency": domain.OneTime, "category": domain.Food},
		"missing name":      {"amount": 1, "frequency": domain.OneTime, "category": domain.Food},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, "/entries/", body, token)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}

	w := doJSON(t, r, http.MethodPut, "/entries/abc", entryBody("x", 1, domain.OneTime, domain.Food, "2024-05-01"), token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateEntry_DefaultsDateToToday(t *testing.T) {
	r := newRouter(t)
	token := signUp(t, r, "ann@example.com")

	e := createEntry(t, r, token, gin.H{"name": "Coffee", "amount": 4, "frequency": domain.OneTime, "category": domain.Food})
	assert.Equal(t, today, e.EntryDate)
}

func TestLoginGeneratesRecurringEntries(t *testing.T) {
	r := newRouter(t)
	token := signUp(t, r, "ann@example.com")
	createEntry(t, r, token, entryBody("Salary", 3000, domain.Monthly, domain.Income, "2024-04-15"))

	login(t, r, "ann@example.com")
	login(t, r, "ann@example.com")

	w := doJSON(t, r, http.MethodGet, "/entries/month/5/?year=2024", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	var may []domain.Entry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &may))
	require.Len(t, may, 1)
	assert.Equal(t, "Salary", may[0].Name)
	assert.Equal(t, "2024-05-15", may[0].EntryDate.Format(domain.DateLayout))
	assert.True(t, may[0].Amount.Equal(decimal.NewFromInt(3000)))
}

func TestLogin_SkipsGenerationWhileLockHeld(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	r := newRouterWithLocker(t, utils.NewLocker(rdb, 30*time.Second))

	w := doJSON(t, r, http.MethodPost, "/users/", gin.H{"email": "ann@example.com", "password": "hunter22"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var user domain.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
	token := login(t, r, "ann@example.com")
	assert.False(t, mr.Exists(lockKey(user.ID)), "lock released after login")

	createEntry(t, r, token, entryBody("Salary", 3000, domain.Monthly, domain.Income, "2024-04-15"))

	// Another login is generating for this user
	require.NoError(t, mr.Set(lockKey(user.ID), "other-holder"))
	login(t, r, "ann@example.com")

	w = doJSON(t, r, http.MethodGet, "/entries/month/5/?year=2024", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
	got, err := mr.Get(lockKey(user.ID))
	require.NoError(t, err)
	assert.Equal(t, "other-holder", got)

	// Once the other holder is done, the next login catches up
	mr.Del(lockKey(user.ID))
	login(t, r, "ann@example.com")
	w = doJSON(t, r, http.MethodGet, "/entries/month/5/?year=2024", nil, token)
	assert.Contains(t, w.Body.String(), `"entry_date":"2024-05-15"`)
}

func lockKey(userID uint) string {
	return "recurring:lock:user:" + strconv.FormatUint(uint64(userID), 10)
}

func TestSummaries(t *testing.T) {
	r := newRouter(t)
	token := signUp(t, r, "ann@example.com")
	createEntry(t, r, token, entryBody("Salary", 100, domain.OneTime, domain.Income, "2024-05-01"))
	createEntry(t, r, token, entryBody("Lunch", 25, domain.OneTime, domain.Food, "2024-05-02"))
	createEntry(t, r, token, entryBody("Bus", 5, domain.OneTime, domain.Transportation, "2024-03-09"))

	month := decodeSummary(t, doJSON(t, r, http.MethodGet, "/entries/month/?year=2024&month=5", nil, token))
	assert.Len(t, month, 3)
	assert.True(t, month["Income"].Equal(decimal.NewFromInt(100)))
	assert.True(t, month["Food"].Equal(decimal.NewFromInt(-25)))
	assert.True(t, month[ledger.NetKey].Equal(decimal.NewFromInt(75)))

	// Query defaults fall back to the current month
	current := decodeSummary(t, doJSON(t, r, http.MethodGet, "/entries/month/", nil, token))
	assert.Equal(t, month, current)

	year := decodeSummary(t, doJSON(t, r, http.MethodGet, "/entries/year/2024/", nil, token))
	assert.True(t, year["Transportation"].Equal(decimal.NewFromInt(-5)))
	assert.True(t, year[ledger.NetKey].Equal(decimal.NewFromInt(70)))

	empty := decodeSummary(t, doJSON(t, r, http.MethodGet, "/entries/year/1999/", nil, token))
	assert.Len(t, empty, 1)
	assert.True(t, empty[ledger.NetKey].IsZero())

	w := doJSON(t, r, http.MethodGet, "/entries/month/?year=2024&month=13", nil, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = doJSON(t, r, http.MethodGet, "/entries/year/abc/", nil, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMonthEntries(t *testing.T) {
	r := newRouter(t)
	token := signUp(t, r, "ann@example.com")
	createEntry(t, r, token, entryBody("Lunch", 25, domain.OneTime, domain.Food, "2024-05-02"))
	createEntry(t, r, token, entryBody("Gift", 40, domain.OneTime, domain.OtherExpense, "2024-05-03"))
	createEntry(t, r, token, entryBody("Dinner", 60, domain.OneTime, domain.Food, "2024-06-01"))

	var list []domain.Entry
	w := doJSON(t, r, http.MethodGet, "/entries/month/5/?year=2024", nil, token)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 2)

	w = doJSON(t, r, http.MethodGet, "/entries/month/5/Food/?year=2024", nil, token)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Lunch", list[0].Name)

	w = doJSON(t, r, http.MethodGet, "/entries/month/5/Other%20Expense/?year=2024", nil, token)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Gift", list[0].Name)

	w = doJSON(t, r, http.MethodGet, "/entries/month/1/?year=2024", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = doJSON(t, r, http.MethodGet, "/entries/month/5/Pets/?year=2024", nil, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = doJSON(t, r, http.MethodGet, "/entries/month/0/", nil, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportYear(t *testing.T) {
	r := newRouter(t)
	token := signUp(t, r, "ann@example.com")
	createEntry(t, r, token, entryBody("Salary", 100, domain.OneTime, domain.Income, "2024-05-01"))
	createEntry(t, r, token, entryBody("Lunch", 25, domain.OneTime, domain.Food, "2024-05-02"))

	w := doJSON(t, r, http.MethodGet, "/entries/year/2024/export", nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "entries_2024.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Entries")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Date", "Name", "Category", "Frequency", "Amount"}, rows[0])
	assert.Equal(t, []string{"2024-05-01", "Salary", "Income", "One time", "100"}, rows[1])
	assert.Equal(t, []string{"2024-05-02", "Lunch", "Food", "One time", "-25"}, rows[2])

	summary, err := f.GetRows("Summary")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Income", "100"}, {"Food", "-25"}, {"Net", "75"}}, summary)

	w = doJSON(t, r, http.MethodGet, "/entries/year/2024/export", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
