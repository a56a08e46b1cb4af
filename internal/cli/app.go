package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/spf13/cobra"

	"focusroom/backend/internal/client"
	"focusroom/backend/internal/clientconfig"
	"focusroom/backend/internal/model"
	"focusroom/backend/internal/timer"
)

const requestTimeout = 10 * time.Second

// app is the per-invocation wiring of config, API client and timer machine.
type app struct {
	cfg         clientconfig.Config
	api         *client.Client
	machine     *timer.Machine
	out         io.Writer
	completions chan model.Completion
}

func loadConfig() (clientconfig.Config, error) {
	return clientconfig.Load(configDir)
}

// openApp restores the local timer and, when logged in, reconciles it with
// the account's active-timer record.
func openApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:         cfg,
		out:         cmd.OutOrStdout(),
		completions: make(chan model.Completion, 8),
	}

	var remote timer.Remote
	if cfg.LoggedIn() {
		a.api = client.New(cfg.ServerURL, cfg.Token)
		remote = a.api.TimerRemote()
	}

	mirror := timer.NewFileMirror(cfg.Dir())
	a.machine = timer.New(timer.Options{
		Remote:     remote,
		Mirror:     mirror,
		OnComplete: a.recordCompletion,
		DeviceID:   cfg.DeviceID,
	})

	session, err := mirror.Load()
	if err != nil {
		log.Printf("focus: ignoring unreadable timer state: %v", err)
	}
	if session != nil {
		a.machine.Restore(*session)
	} else {
		_ = a.machine.SetBaseline(model.ModeFocus, cfg.FocusSeconds())
		_ = a.machine.SetBaseline(model.ModeBreak, cfg.BreakSeconds())
	}

	if a.api != nil {
		ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
		defer cancel()
		if err := a.machine.PullRemote(ctx); err != nil {
			log.Printf("focus: working offline: %v", err)
		}
	}
	a.machine.Tick()
	return a, nil
}

// close flushes queued remote writes and reports completions.
func (a *app) close(ctx context.Context) {
	if a.api != nil {
		syncCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), requestTimeout)
		defer cancel()
		a.machine.SyncNow(syncCtx)
	}
	a.reportCompletions()
}

func (a *app) recordCompletion(completion model.Completion) {
	select {
	case a.completions <- completion:
	default:
	}
	if a.api == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	if _, err := a.api.RecordSession(ctx, completion); err != nil {
		log.Printf("focus: failed to record session %s: %v", completion.SessionID, err)
	}
}

func (a *app) reportCompletions() {
	for {
		select {
		case completion := <-a.completions:
			fmt.Fprintf(a.out, "✓ %s\n", describeCompletion(completion))
		default:
			return
		}
	}
}

// requireLogin returns an API client for commands that only make sense
// against the server.
func requireLogin() (*client.Client, clientconfig.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, cfg, err
	}
	if !cfg.LoggedIn() {
		return nil, cfg, fmt.Errorf("not logged in; run 'focus login' first")
	}
	return client.New(cfg.ServerURL, cfg.Token), cfg, nil
}
