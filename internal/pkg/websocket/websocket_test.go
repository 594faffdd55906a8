package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/schoolrecords/internal/app/models"
	"github.com/yigit/schoolrecords/internal/app/repositories/memory"
	"github.com/yigit/schoolrecords/internal/app/services"
	"github.com/yigit/schoolrecords/internal/middleware"
	"github.com/yigit/schoolrecords/internal/pkg/auth"
	"github.com/yigit/schoolrecords/internal/pkg/changefeed"
	"github.com/yigit/schoolrecords/internal/pkg/kvstore"
)

const testYear = "2024/2025"

func init() {
	gin.SetMode(gin.TestMode)
}

type wsEnv struct {
	svc    *services.Services
	hub    *Hub
	server *httptest.Server
}

func newWSEnv(t *testing.T) *wsEnv {
	t.Helper()
	feed := changefeed.NewMemoryFeed(zerolog.Nop())
	t.Cleanup(func() { _ = feed.Close() })
	svc := services.NewServices(services.Deps{
		Repos:      memory.NewRepositories(memory.Open()),
		Feed:       feed,
		KV:         kvstore.NewMemoryStore(),
		JWT:        auth.NewJWTService(auth.JWTConfig{SecretKey: "test", AccessTokenExp: time.Hour, TokenIssuer: "test"}),
		Sessions:   auth.NewSessionManager(),
		BaseLogger: zerolog.Nop(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := NewHub(zerolog.Nop())
	go hub.Run(ctx)

	h := NewHandler(hub, svc.Students, svc.Dashboard, svc.Corrections, zerolog.Nop())
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextAcademicYear, testYear)
		c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), auth.Identity{UserID: "admin-1", Email: "admin@sekolah.id"}))
		c.Next()
	})
	r.GET("/ws/dashboard", h.DashboardStream)
	r.GET("/ws/requests", h.RequestsStream)
	r.GET("/ws/students/count", h.StudentCountStream)

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return &wsEnv{svc: svc, hub: hub, server: server}
}

func (e *wsEnv) dial(t *testing.T, path string) *gorilla.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.server.URL, "http") + path
	conn, resp, err := gorilla.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	return conn
}

type frame[T any] struct {
	Type Stream `json:"type"`
	Data T      `json:"data"`
}

// readUntil reads frames until ok accepts one. Unread snapshots may be
// replaced by newer ones, so intermediate states are not asserted.
func readUntil[T any](t *testing.T, conn *gorilla.Conn, ok func(frame[T]) bool) frame[T] {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err)
		var f frame[T]
		require.NoError(t, json.Unmarshal(raw, &f))
		if ok(f) {
			return f
		}
	}
}

func profile(name string) models.StudentProfile {
	return models.StudentProfile{
		FullName:      name,
		Gender:        "Perempuan",
		Religion:      "Islam",
		ResidenceType: "Bersama Orang Tua",
		TransportMode: "Sepeda",
		MobilePhone:   "081200000000",
		FatherName:    "Budi",
		MotherName:    "Siti",
	}
}

func TestDashboardStream(t *testing.T) {
	env := newWSEnv(t)
	conn := env.dial(t, "/ws/dashboard")
	defer conn.Close()

	first := readUntil(t, conn, func(f frame[models.DashboardStats]) bool { return true })
	assert.Equal(t, StreamDashboard, first.Type)
	assert.Equal(t, testYear, first.Data.AcademicYear)

	_, err := env.svc.Students.Create(context.Background(), testYear, profile("Dewi Lestari"))
	require.NoError(t, err)

	got := readUntil(t, conn, func(f frame[models.DashboardStats]) bool { return f.Data.StudentCount == 1 })
	assert.Equal(t, 0, got.Data.PendingRequestsCount)
	assert.Eventually(t, func() bool { return env.hub.ClientCount(StreamDashboard) == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestStudentCountStream(t *testing.T) {
	env := newWSEnv(t)
	ctx := context.Background()
	conn := env.dial(t, "/ws/students/count")
	defer conn.Close()

	first := readUntil(t, conn, func(f frame[int]) bool { return true })
	assert.Equal(t, StreamCount, first.Type)
	assert.Equal(t, 0, first.Data)

	id, err := env.svc.Students.Create(ctx, testYear, profile("Dewi Lestari"))
	require.NoError(t, err)
	readUntil(t, conn, func(f frame[int]) bool { return f.Data == 1 })

	_, err = env.svc.Students.Create(ctx, "2023/2024", profile("Rina Wati"))
	require.NoError(t, err)
	require.NoError(t, env.svc.Students.Delete(ctx, id))
	readUntil(t, conn, func(f frame[int]) bool { return f.Data == 0 })
}

func TestRequestsStream(t *testing.T) {
	env := newWSEnv(t)
	ctx := context.Background()
	id, err := env.svc.Students.Create(ctx, testYear, profile("Dewi Lestari"))
	require.NoError(t, err)

	conn := env.dial(t, "/ws/requests")
	defer conn.Close()
	readUntil(t, conn, func(f frame[[]models.CorrectionRequest]) bool { return len(f.Data) == 0 })

	_, err = env.svc.Corrections.Submit(ctx, services.SubmitCorrectionInput{
		StudentID:      id,
		FieldToCorrect: "fatherName",
		NewValue:       "Ahmad",
		Notes:          "Nama ayah salah ketik di formulir",
		Requester:      auth.Identity{UserID: "guru-1", Email: "guru@sekolah.id"},
	})
	require.NoError(t, err)

	got := readUntil(t, conn, func(f frame[[]models.CorrectionRequest]) bool { return len(f.Data) == 1 })
	assert.Equal(t, StreamRequests, got.Type)
	assert.Equal(t, "Ahmad", got.Data[0].NewValue)
	assert.Equal(t, "Budi", got.Data[0].OldValue)
}

func TestClientDisconnectReleasesSubscription(t *testing.T) {
	env := newWSEnv(t)
	conn := env.dial(t, "/ws/dashboard")
	readUntil(t, conn, func(f frame[models.DashboardStats]) bool { return true })
	require.Eventually(t, func() bool { return env.hub.ClientCount(StreamDashboard) == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return env.hub.ClientCount(StreamDashboard) == 0 }, 2*time.Second, 10*time.Millisecond)
}
