package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/matheus3301/chatr/internal/app"
	"github.com/matheus3301/chatr/internal/chat"
	"github.com/matheus3301/chatr/internal/config"
	"github.com/matheus3301/chatr/internal/gateway"
	"github.com/matheus3301/chatr/internal/session"
	"github.com/matheus3301/chatr/internal/store"
)

// ============================================================================
// Global flags
// ============================================================================

var (
	profileFlag string
	baseURLFlag string
	jsonOutput  bool
	verbose     bool
	timeoutFlag time.Duration
)

// ============================================================================
// Root command
// ============================================================================

var rootCmd = &cobra.Command{
	Use:           "chatrctl",
	Short:         "chatr control CLI",
	Long:          "One-shot commands against a chatr profile: log in, list chats, read and send messages, manage groups.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&profileFlag, "profile", "", "profile name (overrides config default)")
	pf.StringVar(&baseURLFlag, "base-url", "", "backend base URL (overrides config)")
	pf.BoolVar(&jsonOutput, "json", false, "output in JSON format")
	pf.BoolVarP(&verbose, "verbose", "v", false, "mirror the log on stderr")
	pf.DurationVar(&timeoutFlag, "timeout", 30*time.Second, "overall command timeout")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// ============================================================================
// Runtime
// ============================================================================

// cliEnv is one composed chatr process for the lifetime of a command.
type cliEnv struct {
	profile string
	svc     *chat.Service
	cfg     *config.Config
}

// withService starts the app for the resolved profile, runs fn and stops the
// app again. The profile lock is not taken, so commands work while the TUI
// runs.
func withService(cmd *cobra.Command, fn func(ctx context.Context, env *cliEnv) error) error {
	profile := session.Resolve(profileFlag)
	if err := session.ValidateName(profile); err != nil {
		return err
	}

	env := &cliEnv{profile: profile}
	fxApp := fx.New(
		app.Options(app.Params{Profile: profile, Stderr: verbose, BaseURL: baseURLFlag}),
		fx.Populate(&env.svc, &env.cfg),
	)

	ctx, cancel := context.WithTimeout(cmd.Context(), timeoutFlag)
	defer cancel()
	if err := fxApp.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer stopCancel()
		_ = fxApp.Stop(stopCtx)
	}()

	return fn(ctx, env)
}

// withSession is withService plus an open session built from the stored
// login. A rejected token clears the stored login.
func withSession(cmd *cobra.Command, fn func(ctx context.Context, env *cliEnv, s *chat.Session) error) error {
	return withService(cmd, func(ctx context.Context, env *cliEnv) error {
		s, err := env.svc.Open()
		if errors.Is(err, chat.ErrNotLoggedIn) {
			return fmt.Errorf("profile %q is not logged in; run 'chatrctl login'", env.profile)
		}
		if err != nil {
			return err
		}
		defer s.Close()

		err = fn(ctx, env, s)
		if errors.Is(err, gateway.ErrUnauthorized) {
			if clearErr := env.svc.Logout(); clearErr != nil {
				return errors.Join(err, clearErr)
			}
			return fmt.Errorf("session expired; run 'chatrctl login': %w", err)
		}
		return err
	})
}

// resolveConversation finds a loaded conversation by id, then by exact name,
// then by unique name prefix. Names compare case-insensitively.
func resolveConversation(ctx context.Context, s *chat.Session, ref string) (store.Conversation, error) {
	convs, err := s.LoadConversations(ctx)
	if err != nil {
		return store.Conversation{}, err
	}
	return matchConversation(convs, ref)
}

func matchConversation(convs []store.Conversation, ref string) (store.Conversation, error) {
	ref = strings.TrimSpace(ref)
	for _, c := range convs {
		if c.ID == ref {
			return c, nil
		}
	}
	for _, c := range convs {
		if strings.EqualFold(c.Name, ref) {
			return c, nil
		}
	}
	var found []store.Conversation
	lower := strings.ToLower(ref)
	for _, c := range convs {
		if strings.HasPrefix(strings.ToLower(c.Name), lower) {
			found = append(found, c)
		}
	}
	switch len(found) {
	case 0:
		return store.Conversation{}, fmt.Errorf("%q: %w", ref, store.ErrUnknownConversation)
	case 1:
		return found[0], nil
	}
	names := make([]string, len(found))
	for i, c := range found {
		names[i] = c.Name
	}
	return store.Conversation{}, fmt.Errorf("%q is ambiguous: %s", ref, strings.Join(names, ", "))
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
