package client_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"focusroom/backend/internal/client"
	"focusroom/backend/internal/db"
	"focusroom/backend/internal/handler"
	"focusroom/backend/internal/model"
	"focusroom/backend/internal/repository"
	"focusroom/backend/internal/router"
	"focusroom/backend/internal/service"
	"focusroom/backend/internal/timer"
	"focusroom/backend/migrations"
)

func startServer(t *testing.T) *httptest.Server {
	t.Helper()

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})
	if _, err := db.RunMigrations(database, migrations.FS); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	authService := service.NewAuthService(repository.NewUserRepository(database), "test-secret", time.Hour)
	timerService := service.NewActiveTimerService(repository.NewSQLiteActiveTimerStore(database), service.NewHub(), 10*time.Minute)
	sessionService := service.NewSessionService(repository.NewSessionRepository(database))

	engine := router.New(
		authService,
		handler.NewAuthHandler(authService),
		handler.NewTimerHandler(timerService, time.Second),
		handler.NewSessionHandler(sessionService),
		nil,
	)
	server := httptest.NewServer(engine)
	t.Cleanup(server.Close)
	return server
}

func registeredClient(t *testing.T, server *httptest.Server, email string) *client.Client {
	t.Helper()
	anonymous := client.New(server.URL, "")
	result, err := anonymous.Register(context.Background(), email, "123456", "")
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return anonymous.WithToken(result.Token)
}

func TestLoginErrorsDecodeAsAPIError(t *testing.T) {
	server := startServer(t)
	registeredClient(t, server, "ada@example.com")

	_, err := client.New(server.URL, "").Login(context.Background(), "ada@example.com", "wrong-password")
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *client.APIError, got %T %v", err, err)
	}
	if apiErr.Status != http.StatusUnauthorized || apiErr.Code != "unauthorized" {
		t.Fatalf("unexpected api error %+v", apiErr)
	}

	result, err := client.New(server.URL, "").Login(context.Background(), "ADA@example.com", "123456")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.User.DisplayName != "ada" {
		t.Fatalf("expected display name derived from email, got %q", result.User.DisplayName)
	}
}

func TestRecordSessionReplayIsIdempotent(t *testing.T) {
	server := startServer(t)
	c := registeredClient(t, server, "ada@example.com")
	ctx := context.Background()

	completion := model.Completion{
		SessionID:       "c2f0f3a4-1111-4111-8111-000000000001",
		Mode:            model.ModeFocus,
		DurationMinutes: 25,
		Subject:         "Physics",
		CompletedAt:     time.Now().Add(-time.Minute),
	}
	for i := 0; i < 2; i++ {
		if _, err := c.RecordSession(ctx, completion); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	history, err := c.History(ctx, 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 || history[0].DurationMinutes != 25 {
		t.Fatalf("unexpected history %+v", history)
	}

	stats, err := c.Stats(ctx, 7)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.FocusMinutes != 25 || len(stats.Subjects) != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	board, err := c.Leaderboard(ctx, 7, 10)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(board) != 1 || board[0].Rank != 1 {
		t.Fatalf("unexpected leaderboard %+v", board)
	}
}

func TestSubscribeStreamsSnapshots(t *testing.T) {
	server := startServer(t)
	c := registeredClient(t, server, "ada@example.com")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	updates, err := c.Subscribe(ctx)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	first := nextSnapshot(t, updates)
	if first.Version != 0 || first.Record != nil || !first.Resync {
		t.Fatalf("unexpected initial snapshot %+v", first)
	}

	_, err = c.PutActiveTimer(context.Background(), model.ActiveTimerRecord{
		Mode:     model.ModeBreak,
		EndTime:  time.Now().Add(5 * time.Minute).UnixMilli(),
		IsActive: true,
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	second := nextSnapshot(t, updates)
	if second.Version != 1 || second.Record == nil || second.Record.Mode != model.ModeBreak || second.Resync {
		t.Fatalf("unexpected streamed snapshot %+v", second)
	}

	cancel()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-updates:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("updates channel not closed after cancel")
		}
	}
}

// Two devices on one account: a session started on one is adopted by the
// other, and a stop on either clears both.
func TestMachinesReconcileAcrossDevices(t *testing.T) {
	server := startServer(t)
	laptop := registeredClient(t, server, "ada@example.com")
	login, err := client.New(server.URL, "").Login(context.Background(), "ada@example.com", "123456")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	phone := client.New(server.URL, login.Token)
	ctx := context.Background()

	deviceA := timer.New(timer.Options{Remote: laptop.TimerRemote(), DeviceID: "laptop"})
	deviceB := timer.New(timer.Options{Remote: phone.TimerRemote(), DeviceID: "phone"})

	if err := deviceA.SetSubject("Physics"); err != nil {
		t.Fatalf("set subject: %v", err)
	}
	if err := deviceA.ToggleStart(); err != nil {
		t.Fatalf("start: %v", err)
	}
	deviceA.SyncNow(ctx)

	if err := deviceB.PullRemote(ctx); err != nil {
		t.Fatalf("pull on phone: %v", err)
	}
	a, b := deviceA.Snapshot(), deviceB.Snapshot()
	if !b.IsActive || b.SelectedSubject != "Physics" || b.SessionID != a.SessionID {
		t.Fatalf("phone did not adopt laptop session: %+v", b)
	}
	if b.EndTimeEpochMs != a.EndTimeEpochMs {
		t.Fatalf("end times differ: laptop %d phone %d", a.EndTimeEpochMs, b.EndTimeEpochMs)
	}

	if err := deviceB.ToggleStart(); err != nil {
		t.Fatalf("stop on phone: %v", err)
	}
	deviceB.SyncNow(ctx)

	if err := deviceA.PullRemote(ctx); err != nil {
		t.Fatalf("pull on laptop: %v", err)
	}
	if deviceA.Snapshot().IsActive {
		t.Fatal("laptop still running after phone stopped the session")
	}
}
