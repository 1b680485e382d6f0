package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/sagarc03/s3proxy"
	"github.com/sagarc03/s3proxy/config"
	"github.com/sagarc03/s3proxy/credentials"
)

var credentialsCmd = &cobra.Command{
	Use:   "credentials",
	Short: "Write a development credentials file",
	Long: `Write a local credentials file for development.

You will be prompted for:
  - Access key ID
  - Secret access key
  - Session token (optional)
  - Expiration, as RFC 3339 time or duration from now (optional)

The file uses the shape printed by "aws sts get-session-token", so the
output of that command can be saved directly instead. The file is ignored
in production mode, and this command refuses to run there.`,
	Annotations: map[string]string{partialConfigAnnotation: "true"},
	RunE:        runCredentials,
}

func init() {
	rootCmd.AddCommand(credentialsCmd)
}

func runCredentials(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	if cfg.Production() {
		return fmt.Errorf("credentials file is not used in production mode (env %q)", cfg.Env)
	}

	path := cfg.Credentials.File
	if _, statErr := os.Stat(path); statErr == nil {
		prompt := promptui.Prompt{
			Label:     fmt.Sprintf("%s already exists. Overwrite it", path),
			IsConfirm: true,
		}
		if _, promptErr := prompt.Run(); promptErr != nil {
			fmt.Println("Cancelled.")
			return nil //nolint:nilerr // User cancelled, not an error
		}
	}

	required := func(name string) func(string) error {
		return func(input string) error {
			if strings.TrimSpace(input) == "" {
				return fmt.Errorf("%s is required", name)
			}
			return nil
		}
	}

	accessKeyPrompt := promptui.Prompt{
		Label:    "Access Key ID",
		Validate: required("access key ID"),
	}
	accessKey, err := accessKeyPrompt.Run()
	if err != nil {
		return handlePromptError(err)
	}

	secretKeyPrompt := promptui.Prompt{
		Label:    "Secret Access Key",
		Mask:     '*',
		Validate: required("secret access key"),
	}
	secretKey, err := secretKeyPrompt.Run()
	if err != nil {
		return handlePromptError(err)
	}

	tokenPrompt := promptui.Prompt{
		Label: "Session Token (optional)",
		Mask:  '*',
	}
	token, err := tokenPrompt.Run()
	if err != nil {
		return handlePromptError(err)
	}

	expirationPrompt := promptui.Prompt{
		Label: "Expiration (optional, e.g. 12h or 2025-01-02T15:04:05Z)",
		Validate: func(input string) error {
			_, parseErr := parseExpiration(input, time.Now())
			return parseErr
		},
	}
	expirationVal, err := expirationPrompt.Run()
	if err != nil {
		return handlePromptError(err)
	}
	expiration, _ := parseExpiration(expirationVal, time.Now())

	set := s3proxy.CredentialSet{
		AccessKeyID:     strings.TrimSpace(accessKey),
		SecretAccessKey: strings.TrimSpace(secretKey),
		SessionToken:    strings.TrimSpace(token),
	}
	if err := credentials.WriteFile(path, set, expiration); err != nil {
		return err
	}

	fmt.Printf("Credentials written to %s\n", path)
	return nil
}

// parseExpiration accepts an empty string, an RFC 3339 time or a duration
// relative to now.
func parseExpiration(input string, now time.Time) (time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, input); err == nil {
		return t, nil
	}
	d, err := time.ParseDuration(input)
	if err != nil || d <= 0 {
		return time.Time{}, errors.New("expected an RFC 3339 time or a positive duration")
	}
	return now.Add(d), nil
}

// handlePromptError handles promptui errors.
func handlePromptError(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) {
		fmt.Println("\nCancelled.")
		os.Exit(0)
	}
	if errors.Is(err, promptui.ErrAbort) {
		fmt.Println("Cancelled.")
		return nil
	}
	return err
}
