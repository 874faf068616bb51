package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/matheus3301/chatr/internal/lock"
	"github.com/matheus3301/chatr/internal/session"
)

var (
	loginUser     string
	loginPassword string
)

// ============================================================================
// login / logout / whoami
// ============================================================================

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the session token in the profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		user := loginUser
		if user == "" {
			v, err := promptLine("Username or email: ")
			if err != nil {
				return err
			}
			user = v
		}
		password := loginPassword
		if password == "" {
			v, err := promptPassword("Password: ")
			if err != nil {
				return err
			}
			password = v
		}

		return withService(cmd, func(ctx context.Context, env *cliEnv) error {
			creds, err := env.svc.Login(ctx, user, password)
			if err != nil {
				return err
			}
			if jsonOutput {
				return outputJSON(map[string]any{
					"profile":     env.profile,
					"userId":      creds.UserID,
					"displayName": creds.DisplayName,
					"expiresAt":   creds.ExpiresAt,
				})
			}
			fmt.Printf("Logged in as %s (profile %s)\n", creds.DisplayName, env.profile)
			return nil
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session token",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(_ context.Context, env *cliEnv) error {
			if err := env.svc.Logout(); err != nil {
				return err
			}
			fmt.Printf("Logged out of profile %s\n", env.profile)
			return nil
		})
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the stored login of the profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(_ context.Context, env *cliEnv) error {
			creds, err := env.svc.Current()
			if err != nil {
				return err
			}
			if creds == nil {
				return fmt.Errorf("profile %q is not logged in", env.profile)
			}
			if jsonOutput {
				return outputJSON(map[string]any{
					"profile":     env.profile,
					"baseUrl":     creds.BaseURL,
					"userId":      creds.UserID,
					"displayName": creds.DisplayName,
					"expiresAt":   creds.ExpiresAt,
					"savedAt":     creds.SavedAt,
				})
			}
			fmt.Printf("Profile:   %s\n", env.profile)
			fmt.Printf("User:      %s\n", creds.DisplayName)
			fmt.Printf("User ID:   %s\n", creds.UserID)
			backend := creds.BaseURL
			if backend == "" {
				backend = env.cfg.BaseURL
			}
			fmt.Printf("Backend:   %s\n", backend)
			if creds.ExpiresAt != "" {
				fmt.Printf("Expires:   %s\n", creds.ExpiresAt)
			}
			fmt.Printf("Saved:     %s\n", creds.SavedAt.Format(time.RFC3339))
			return nil
		})
	},
}

// ============================================================================
// profiles
// ============================================================================

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List local profiles and whether a TUI holds them",
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := session.List()
		if err != nil {
			return err
		}
		type row struct {
			Name    string `json:"name"`
			InUse   bool   `json:"inUse"`
			PID     int    `json:"pid,omitempty"`
			Current bool   `json:"current"`
		}
		current := session.Resolve(profileFlag)
		rows := make([]row, 0, len(names))
		for _, n := range names {
			r := row{Name: n, Current: n == current}
			if h, err := lock.ReadHolder(session.Dir(n)); err == nil {
				r.InUse = true
				r.PID = h.PID
			}
			rows = append(rows, r)
		}
		if jsonOutput {
			return outputJSON(rows)
		}
		if len(rows) == 0 {
			fmt.Println("No profiles.")
			return nil
		}
		for _, r := range rows {
			marker := " "
			if r.Current {
				marker = "*"
			}
			if r.InUse {
				fmt.Printf("%s %-20s in use (pid %d)\n", marker, r.Name, r.PID)
			} else {
				fmt.Printf("%s %s\n", marker, r.Name)
			}
		}
		return nil
	},
}

func promptLine(label string) (string, error) {
	fmt.Fprint(os.Stderr, label)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func promptPassword(label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return promptLine(label)
	}
	fmt.Fprint(os.Stderr, label)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if len(b) == 0 {
		return "", errors.New("empty password")
	}
	return string(b), nil
}

func init() {
	loginCmd.Flags().StringVarP(&loginUser, "user", "u", "", "username or email")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "password (prompted when omitted)")

	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd, profilesCmd)
}
