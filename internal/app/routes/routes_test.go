package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"github.com/yigit/schoolrecords/internal/app/controllers"
	"github.com/yigit/schoolrecords/internal/app/models"
	"github.com/yigit/schoolrecords/internal/app/models/dto"
	"github.com/yigit/schoolrecords/internal/app/repositories"
	"github.com/yigit/schoolrecords/internal/app/repositories/memory"
	"github.com/yigit/schoolrecords/internal/app/services"
	"github.com/yigit/schoolrecords/internal/middleware"
	"github.com/yigit/schoolrecords/internal/pkg/auth"
	"github.com/yigit/schoolrecords/internal/pkg/changefeed"
	"github.com/yigit/schoolrecords/internal/pkg/export"
	"github.com/yigit/schoolrecords/internal/pkg/kvstore"
	"github.com/yigit/schoolrecords/internal/pkg/logger"
	"github.com/yigit/schoolrecords/internal/pkg/websocket"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.Nop()
	auth.BcryptCost = 4
	middleware.ConfigureBinding()
}

type envelope struct {
	Success bool             `json:"success"`
	Data    json.RawMessage  `json:"data"`
	Error   *dto.ErrorDetail `json:"error"`
}

type apiEnv struct {
	t      *testing.T
	repos  *repositories.Repositories
	svc    *services.Services
	router *gin.Engine
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	feed := changefeed.NewMemoryFeed(zerolog.Nop())
	t.Cleanup(func() { _ = feed.Close() })
	repos := memory.NewRepositories(memory.Open())
	svc := services.NewServices(services.Deps{
		Repos:      repos,
		Feed:       feed,
		KV:         kvstore.NewMemoryStore(),
		JWT:        auth.NewJWTService(auth.JWTConfig{SecretKey: "test", AccessTokenExp: time.Hour, TokenIssuer: "test"}),
		Sessions:   auth.NewSessionManager(),
		BaseLogger: zerolog.Nop(),
	})

	hub := websocket.NewHub(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	router := gin.New()
	SetupRouter(router,
		Handlers{
			Auth:          controllers.NewAuthController(svc.Auth, svc.Users, zerolog.Nop()),
			Users:         controllers.NewUserController(svc.Users),
			Students:      controllers.NewStudentController(svc.Students, svc.Corrections, zerolog.Nop()),
			Corrections:   controllers.NewCorrectionController(svc.Corrections),
			AcademicYears: controllers.NewAcademicYearController(svc.AcademicYears, svc.YearSelector),
			Dashboard:     controllers.NewDashboardController(svc.Dashboard),
			WebSocket:     websocket.NewHandler(hub, svc.Students, svc.Dashboard, svc.Corrections, zerolog.Nop()),
		},
		middleware.NewAuthMiddleware(svc.Auth, svc.Authorization),
		svc.YearSelector,
		middleware.NewTokenBucket(100, 100),
		nil,
	)
	return &apiEnv{t: t, repos: repos, svc: svc, router: router}
}

func (e *apiEnv) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// call performs a request, checks the status and decodes data into out.
func (e *apiEnv) call(method, path, token string, body interface{}, status int, out interface{}) *envelope {
	e.t.Helper()
	w := e.do(method, path, token, body)
	require.Equal(e.t, status, w.Code, w.Body.String())
	var env envelope
	require.NoError(e.t, json.Unmarshal(w.Body.Bytes(), &env))
	if out != nil {
		require.NoError(e.t, json.Unmarshal(env.Data, out))
	}
	return &env
}

// account registers a user, optionally promotes it, and returns its access token.
func (e *apiEnv) account(email string, admin bool) string {
	e.t.Helper()
	ctx := context.Background()
	role, err := e.svc.Users.Register(ctx, email, "rahasia123")
	require.NoError(e.t, err)
	if admin {
		require.NoError(e.t, e.repos.UserRoles.UpdateRole(ctx, role.UserID, models.RoleAdmin, time.Now()))
	}

	var resp dto.AuthResponse
	e.call(http.MethodPost, "/api/v1/auth/login", "", dto.LoginRequest{Email: email, Password: "rahasia123"}, http.StatusOK, &resp)
	return resp.Token.AccessToken
}

func studentBody(name string) map[string]string {
	return map[string]string{
		"fullName":      name,
		"gender":        "Laki-laki",
		"nisn":          "0012345678",
		"kelas":         "7A",
		"religion":      "Islam",
		"residenceType": "Bersama Orang Tua",
		"transportMode": "Jalan Kaki",
		"mobilePhone":   "081234567890",
		"fatherName":    "Budi",
		"motherName":    "Siti",
	}
}

func TestPublicEndpoints(t *testing.T) {
	env := newAPIEnv(t)

	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/ping", "", nil).Code)
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/healthz", "", nil).Code)

	w := env.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "schoolrecords_")

	w = env.do(http.MethodGet, "/api/v1/students", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginFailures(t *testing.T) {
	env := newAPIEnv(t)
	env.account("guru@sekolah.id", false)

	resp := env.call(http.MethodPost, "/api/v1/auth/login", "", dto.LoginRequest{Email: "guru@sekolah.id", Password: "salah"}, http.StatusUnauthorized, nil)
	assert.Equal(t, dto.ErrorCodeInvalidCredentials, resp.Error.Code)

	resp = env.call(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "bukan-email"}, http.StatusBadRequest, nil)
	assert.Equal(t, dto.ErrorCodeValidationFailed, resp.Error.Code)
	assert.NotEmpty(t, resp.Error.Fields)
}

func TestMeAndLogout(t *testing.T) {
	env := newAPIEnv(t)
	token := env.account("guru@sekolah.id", false)

	var me dto.UserResponse
	env.call(http.MethodGet, "/api/v1/auth/me", token, nil, http.StatusOK, &me)
	assert.Equal(t, "guru@sekolah.id", me.Email)
	assert.Equal(t, models.RoleUser, me.Role)

	env.call(http.MethodPost, "/api/v1/auth/logout", token, nil, http.StatusOK, nil)
	resp := env.call(http.MethodGet, "/api/v1/auth/me", token, nil, http.StatusUnauthorized, nil)
	assert.Equal(t, dto.ErrorCodeRevokedToken, resp.Error.Code)
}

func TestStudentRoutesRequireActiveYear(t *testing.T) {
	env := newAPIEnv(t)
	token := env.account("guru@sekolah.id", false)

	resp := env.call(http.MethodGet, "/api/v1/students", token, nil, http.StatusPreconditionRequired, nil)
	assert.Equal(t, dto.ErrorCodeAcademicYearMissing, resp.Error.Code)

	var active dto.ActiveYearResponse
	env.call(http.MethodGet, "/api/v1/session/academic-year", token, nil, http.StatusOK, &active)
	assert.Empty(t, active.Year)

	resp = env.call(http.MethodPut, "/api/v1/session/academic-year", token, dto.ActiveYearRequest{Year: "2030/2031"}, http.StatusNotFound, nil)
	assert.Equal(t, dto.ErrorCodeResourceNotFound, resp.Error.Code)

	admin := env.account("admin@sekolah.id", true)
	env.call(http.MethodPost, "/api/v1/admin/academic-years", admin, dto.AddAcademicYearRequest{Year: "2030/2031"}, http.StatusCreated, nil)
	env.call(http.MethodPut, "/api/v1/session/academic-year", token, dto.ActiveYearRequest{Year: "2030/2031"}, http.StatusOK, nil)
	env.call(http.MethodGet, "/api/v1/students", token, nil, http.StatusOK, nil)

	env.call(http.MethodDelete, "/api/v1/session/academic-year", token, nil, http.StatusOK, &active)
	assert.Empty(t, active.Year)
	env.call(http.MethodGet, "/api/v1/students", token, nil, http.StatusPreconditionRequired, nil)
}

func TestAdminRoutesRejectUsers(t *testing.T) {
	env := newAPIEnv(t)
	token := env.account("guru@sekolah.id", false)

	for _, path := range []string{"/api/v1/admin/users", "/api/v1/admin/academic-years", "/api/v1/corrections/pending"} {
		resp := env.call(http.MethodGet, path, token, nil, http.StatusForbidden, nil)
		assert.Equal(t, dto.ErrorCodeForbidden, resp.Error.Code, path)
	}
}

func TestCorrectionWorkflowOverHTTP(t *testing.T) {
	env := newAPIEnv(t)
	admin := env.account("admin@sekolah.id", true)
	teacher := env.account("guru@sekolah.id", false)

	var year models.AcademicYear
	env.call(http.MethodPost, "/api/v1/admin/academic-years", admin, dto.AddAcademicYearRequest{Year: "2024/2025"}, http.StatusCreated, &year)
	env.call(http.MethodPost, "/api/v1/admin/academic-years", admin, dto.AddAcademicYearRequest{Year: "2024/2025"}, http.StatusConflict, nil)

	for _, token := range []string{admin, teacher} {
		var active dto.ActiveYearResponse
		env.call(http.MethodPut, "/api/v1/session/academic-year", token, dto.ActiveYearRequest{Year: "2024/2025"}, http.StatusOK, &active)
		assert.Equal(t, "2024/2025", active.Year)
	}

	var created dto.CreatedResponse
	env.call(http.MethodPost, "/api/v1/students", teacher, studentBody("Rudi Hartono"), http.StatusCreated, &created)
	require.NotEmpty(t, created.ID)

	var page models.StudentPage
	env.call(http.MethodGet, "/api/v1/students?pageSize=10", teacher, nil, http.StatusOK, &page)
	require.Len(t, page.Records, 1)
	assert.Equal(t, "2024/2025", page.Records[0].AcademicYear)
	assert.Equal(t, "0012345678", page.Records[0].Profile.NISN)
	assert.False(t, page.HasMore)

	correction := dto.SubmitCorrectionRequest{
		StudentID:      created.ID,
		FieldToCorrect: "fatherName",
		NewValue:       "Ahmad",
		Notes:          "Nama ayah salah ketik saat pendaftaran",
	}
	var submitted dto.CreatedResponse
	env.call(http.MethodPost, "/api/v1/corrections", teacher, correction, http.StatusCreated, &submitted)

	var pending []models.CorrectionRequest
	env.call(http.MethodGet, "/api/v1/corrections/pending", admin, nil, http.StatusOK, &pending)
	require.Len(t, pending, 1)
	assert.Equal(t, "Budi", pending[0].OldValue)
	assert.Equal(t, "guru@sekolah.id", pending[0].RequestedByUserName)

	env.call(http.MethodPost, "/api/v1/corrections/"+submitted.ID+"/approve", teacher, nil, http.StatusForbidden, nil)

	var resolved models.CorrectionRequest
	env.call(http.MethodPost, "/api/v1/corrections/"+submitted.ID+"/approve", admin, nil, http.StatusOK, &resolved)
	assert.Equal(t, models.CorrectionApproved, resolved.Status)

	resp := env.call(http.MethodPost, "/api/v1/corrections/"+submitted.ID+"/reject", admin, nil, http.StatusConflict, nil)
	assert.Equal(t, dto.ErrorCodeAlreadyResolved, resp.Error.Code)

	var student models.Student
	env.call(http.MethodGet, "/api/v1/students/"+created.ID, teacher, nil, http.StatusOK, &student)
	assert.Equal(t, "Ahmad", student.Profile.FatherName)

	var history []models.CorrectionRequest
	env.call(http.MethodGet, "/api/v1/students/"+created.ID+"/corrections", teacher, nil, http.StatusOK, &history)
	require.Len(t, history, 1)

	var stats models.DashboardStats
	env.call(http.MethodGet, "/api/v1/admin/dashboard/stats", admin, nil, http.StatusOK, &stats)
	assert.Equal(t, 1, stats.StudentCount)
	assert.Equal(t, 0, stats.PendingRequestsCount)
}

func TestStudentValidationAndUpdate(t *testing.T) {
	env := newAPIEnv(t)
	admin := env.account("admin@sekolah.id", true)
	env.call(http.MethodPost, "/api/v1/admin/academic-years", admin, dto.AddAcademicYearRequest{Year: "2024/2025"}, http.StatusCreated, nil)
	env.call(http.MethodPut, "/api/v1/session/academic-year", admin, dto.ActiveYearRequest{Year: "2024/2025"}, http.StatusOK, nil)

	resp := env.call(http.MethodPost, "/api/v1/students", admin, map[string]string{"fullName": "R"}, http.StatusBadRequest, nil)
	assert.Equal(t, dto.ErrorCodeValidationFailed, resp.Error.Code)
	assert.NotEmpty(t, resp.Error.Fields)

	var created dto.CreatedResponse
	env.call(http.MethodPost, "/api/v1/students", admin, studentBody("Rudi Hartono"), http.StatusCreated, &created)

	var updated models.Student
	env.call(http.MethodPatch, "/api/v1/students/"+created.ID, admin, map[string]string{"kelas": "8B"}, http.StatusOK, &updated)
	assert.Equal(t, "8B", updated.Profile.Kelas)

	resp = env.call(http.MethodPatch, "/api/v1/students/"+created.ID, admin, map[string]string{"academicYear": "2025/2026"}, http.StatusBadRequest, nil)
	assert.Equal(t, dto.ErrorCodeValidationFailed, resp.Error.Code)

	env.call(http.MethodDelete, "/api/v1/students/"+created.ID, admin, nil, http.StatusOK, nil)
	env.call(http.MethodGet, "/api/v1/students/"+created.ID, admin, nil, http.StatusNotFound, nil)
}

func TestStudentByIDRoutesStayInActiveYear(t *testing.T) {
	env := newAPIEnv(t)
	admin := env.account("admin@sekolah.id", true)
	for _, y := range []string{"2024/2025", "2025/2026"} {
		env.call(http.MethodPost, "/api/v1/admin/academic-years", admin, dto.AddAcademicYearRequest{Year: y}, http.StatusCreated, nil)
	}
	env.call(http.MethodPut, "/api/v1/session/academic-year", admin, dto.ActiveYearRequest{Year: "2024/2025"}, http.StatusOK, nil)

	var created dto.CreatedResponse
	env.call(http.MethodPost, "/api/v1/students", admin, studentBody("Rudi Hartono"), http.StatusCreated, &created)
	path := "/api/v1/students/" + created.ID

	env.call(http.MethodPut, "/api/v1/session/academic-year", admin, dto.ActiveYearRequest{Year: "2025/2026"}, http.StatusOK, nil)
	for _, tc := range []struct {
		method, path string
		body         interface{}
	}{
		{http.MethodGet, path, nil},
		{http.MethodPatch, path, map[string]string{"kelas": "8B"}},
		{http.MethodGet, path + "/corrections", nil},
		{http.MethodDelete, path, nil},
	} {
		resp := env.call(tc.method, tc.path, admin, tc.body, http.StatusNotFound, nil)
		assert.Equal(t, dto.ErrorCodeResourceNotFound, resp.Error.Code, tc.method+" "+tc.path)
	}

	env.call(http.MethodPut, "/api/v1/session/academic-year", admin, dto.ActiveYearRequest{Year: "2024/2025"}, http.StatusOK, nil)
	var student models.Student
	env.call(http.MethodGet, path, admin, nil, http.StatusOK, &student)
	assert.Equal(t, "7A", student.Profile.Kelas)
}

func TestStudentFieldsListOptions(t *testing.T) {
	env := newAPIEnv(t)
	admin := env.account("admin@sekolah.id", true)
	env.call(http.MethodPost, "/api/v1/admin/academic-years", admin, dto.AddAcademicYearRequest{Year: "2024/2025"}, http.StatusCreated, nil)
	env.call(http.MethodPut, "/api/v1/session/academic-year", admin, dto.ActiveYearRequest{Year: "2024/2025"}, http.StatusOK, nil)

	var fields []dto.StudentFieldResponse
	env.call(http.MethodGet, "/api/v1/students/fields", admin, nil, http.StatusOK, &fields)
	byName := make(map[string]dto.StudentFieldResponse, len(fields))
	for _, f := range fields {
		byName[f.Name] = f
	}
	assert.Equal(t, models.GenderOptions, byName["gender"].Options)
	assert.Equal(t, models.EducationOptions, byName["motherEducation"].Options)
	assert.Empty(t, byName["fullName"].Options)
	assert.Equal(t, "Nama Lengkap", byName["fullName"].Label)
}

func TestExportDownload(t *testing.T) {
	env := newAPIEnv(t)
	admin := env.account("admin@sekolah.id", true)
	env.call(http.MethodPost, "/api/v1/admin/academic-years", admin, dto.AddAcademicYearRequest{Year: "2024/2025"}, http.StatusCreated, nil)
	env.call(http.MethodPut, "/api/v1/session/academic-year", admin, dto.ActiveYearRequest{Year: "2024/2025"}, http.StatusOK, nil)
	env.call(http.MethodPost, "/api/v1/students", admin, studentBody("Rudi Hartono"), http.StatusCreated, nil)

	w := env.do(http.MethodGet, "/api/v1/students/export", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), export.FileName)

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	name, err := f.GetCellValue(export.SheetName, "A5")
	require.NoError(t, err)
	assert.Equal(t, "Rudi Hartono", name)
}

func TestUserAdministration(t *testing.T) {
	env := newAPIEnv(t)
	admin := env.account("admin@sekolah.id", true)

	var role models.UserRole
	env.call(http.MethodPost, "/api/v1/admin/users", admin, dto.RegisterUserRequest{Email: "Wali@Sekolah.id", Password: "rahasia123"}, http.StatusCreated, &role)
	assert.Equal(t, models.RoleUser, role.Role)
	assert.Equal(t, "wali@sekolah.id", role.Email)

	var promoted models.UserRole
	env.call(http.MethodPut, "/api/v1/admin/users/"+role.UserID+"/role", admin, dto.ChangeRoleRequest{Role: models.RoleAdmin}, http.StatusOK, &promoted)
	assert.Equal(t, models.RoleAdmin, promoted.Role)

	var users []models.UserRole
	env.call(http.MethodGet, "/api/v1/admin/users", admin, nil, http.StatusOK, &users)
	assert.Len(t, users, 2)
}
