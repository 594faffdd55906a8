package services

import (
	"github.com/rs/zerolog"
	appauth "github.com/yigit/schoolrecords/internal/app/auth"
	"github.com/yigit/schoolrecords/internal/app/repositories"
	"github.com/yigit/schoolrecords/internal/pkg/auth"
	"github.com/yigit/schoolrecords/internal/pkg/changefeed"
	"github.com/yigit/schoolrecords/internal/pkg/kvstore"
)

// Services defined in this package:
// - StudentService: student records of one academic year
// - CorrectionService: correction requests and their resolution
// - AcademicYearService and YearSelector: the year catalog and each session's active year
// - UserService: accounts and roles
// - AuthService: login, logout and token authentication
// - DashboardService: per-year summary, one-shot and live
type Services struct {
	Students      StudentService
	Corrections   CorrectionService
	AcademicYears AcademicYearService
	YearSelector  *YearSelector
	Users         UserService
	Auth          AuthService
	Dashboard     DashboardService
	Authorization *appauth.AuthorizationService
	Sessions      *auth.SessionManager
}

// Deps are the collaborators shared by every service
type Deps struct {
	Repos      *repositories.Repositories
	Feed       changefeed.Feed
	KV         kvstore.Store
	JWT        *auth.JWTService
	Sessions   *auth.SessionManager
	BaseLogger zerolog.Logger
}

// NewServices wires every service over deps
func NewServices(deps Deps) *Services {
	log := func(component string) zerolog.Logger {
		return deps.BaseLogger.With().Str("component", component).Logger()
	}

	authz := appauth.NewAuthorizationService(deps.Repos.UserRoles)
	students := NewStudentService(deps.Repos.Students, deps.Feed, log("student_service"))
	corrections := NewCorrectionService(deps.Repos.Corrections, deps.Repos.Students, deps.Feed, log("correction_service"))
	years := NewAcademicYearService(deps.Repos.AcademicYears, deps.Feed, log("academic_year_service"))

	return &Services{
		Students:      students,
		Corrections:   corrections,
		AcademicYears: years,
		YearSelector:  NewYearSelector(deps.KV, years),
		Users:         NewUserService(deps.Repos.Accounts, deps.Repos.UserRoles, authz, log("user_service")),
		Auth:          NewAuthService(deps.Repos.Accounts, deps.Repos.Tokens, authz, deps.JWT, deps.Sessions, log("auth_service")),
		Dashboard:     NewDashboardService(students, corrections, deps.Feed, log("dashboard_service")),
		Authorization: authz,
		Sessions:      deps.Sessions,
	}
}
