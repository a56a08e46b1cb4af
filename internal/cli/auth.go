package cli

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"

	"focusroom/backend/internal/client"
	"focusroom/backend/internal/clientconfig"
	"focusroom/backend/internal/timer"
)

var (
	authEmail       string
	authPassword    string
	authDisplayName string
	authServerURL   string
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and log in",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, api, err := authClient()
		if err != nil {
			return err
		}
		result, err := api.Register(cmd.Context(), authEmail, authPassword, authDisplayName)
		if err != nil {
			return fmt.Errorf("register: %w", err)
		}
		return saveLogin(cmd, cfg, result)
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to sync the timer across devices",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, api, err := authClient()
		if err != nil {
			return err
		}
		result, err := api.Login(cmd.Context(), authEmail, authPassword)
		if err != nil {
			return fmt.Errorf("login: %w", err)
		}
		return saveLogin(cmd, cfg, result)
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the saved login; the timer keeps working locally",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		cfg.Token = ""
		cfg.Email = ""
		if err := cfg.Save(); err != nil {
			return err
		}
		forgetRemoteVersion(cfg)
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		api, cfg, err := requireLogin()
		if err != nil {
			return err
		}
		user, err := api.Me(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> on %s (device %s)\n", user.DisplayName, user.Email, cfg.ServerURL, cfg.DeviceID)
		return nil
	},
}

func init() {
	for _, cmd := range []*cobra.Command{registerCmd, loginCmd} {
		cmd.Flags().StringVarP(&authEmail, "email", "e", "", "Account email")
		cmd.Flags().StringVarP(&authPassword, "password", "p", "", "Account password")
		cmd.Flags().StringVar(&authServerURL, "server", "", "Server URL (saved for later commands)")
		_ = cmd.MarkFlagRequired("email")
		_ = cmd.MarkFlagRequired("password")
	}
	registerCmd.Flags().StringVarP(&authDisplayName, "name", "n", "", "Name shown on the leaderboard")
}

func authClient() (clientconfig.Config, *client.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return cfg, nil, err
	}
	if server := strings.TrimRight(strings.TrimSpace(authServerURL), "/"); server != "" {
		cfg.ServerURL = server
	}
	return cfg, client.New(cfg.ServerURL, ""), nil
}

func saveLogin(cmd *cobra.Command, cfg clientconfig.Config, result *client.AuthResult) error {
	cfg.Token = result.Token
	cfg.Email = result.User.Email
	if err := cfg.Save(); err != nil {
		return err
	}
	forgetRemoteVersion(cfg)
	fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", result.User.DisplayName, result.User.Email)
	return nil
}

func forgetRemoteVersion(cfg clientconfig.Config) {
	if err := timer.ForgetRemoteVersion(timer.NewFileMirror(cfg.Dir())); err != nil {
		log.Printf("focus: could not reset sync state: %v", err)
	}
}
