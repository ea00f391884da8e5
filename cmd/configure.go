package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/jylitalo/garminconnect/config"
	"github.com/jylitalo/garminconnect/garmin"
)

// configureCmd runs the interactive SSO login (including the MFA challenge
// when Garmin asks for it), stores the token bundles and prints the config
// file content.
func configureCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "configure --email=[string]",
		Short: "Login to Garmin Connect and store tokens for later use",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			reader := bufio.NewReader(os.Stdin)
			if email == "" {
				email = prompt(reader, "Garmin email: ")
			}
			if password == "" {
				password = prompt(reader, "Garmin password: ")
			}
			if email == "" || password == "" {
				return errors.New("email and password are required")
			}
			auth := garmin.NewAuth(newSSOClient())
			err := auth.Login(ctx, email, password)
			if errors.Is(err, garmin.ErrMFARequired) {
				code := prompt(reader, "MFA code: ")
				err = auth.CompleteMFA(ctx, code)
			}
			if err != nil {
				return fmt.Errorf("Garmin login returned: %w", err) //nolint:staticcheck // Garmin is name
			}
			cfg := config.Config{Garmin: config.Garmin{Email: email}}
			if read, err := config.Get(); err == nil {
				cfg = *read
				cfg.Garmin.Email = email
			}
			oauth1, oauth2 := auth.Tokens()
			if err = config.SaveTokens(cfg.Tokens, oauth1, oauth2); err != nil {
				return err
			}
			fmt.Printf("Tokens saved to %s\n", cfg.Tokens)
			fname, err := cfg.Write()
			if err != nil {
				return err
			}
			cfgText, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			fmt.Printf("Wrote %s:\n%s", fname, string(cfgText))
			return nil
		},
	}
	cmd.Flags().String("email", "", "Garmin Connect account email")
	cmd.Flags().String("password", "", "Garmin Connect account password (prompted if omitted)")
	return cmd
}

// newSSOClient returns an HTTP client with a cookie jar; the signin flow
// spans several redirected requests that share session cookies.
func newSSOClient() *http.Client {
	jar, _ := cookiejar.New(nil)
	return &http.Client{Jar: jar, Timeout: 30 * time.Second}
}

func prompt(reader *bufio.Reader, label string) string {
	fmt.Print(label)
	text, _ := reader.ReadString('\n')
	return strings.TrimSpace(text)
}
