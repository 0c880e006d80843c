package main

import (
	"encoding/json"
	"fmt"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Sign up, log in, and inspect the current user",
}

var authSignupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Register a new account",
	RunE:  runAuthSignup,
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and print a token pair",
	RunE:  runAuthLogin,
}

var authWhoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the authenticated user",
	RunE:  runAuthWhoami,
}

var (
	authEmail     string
	authPassword  string
	authFirstName string
	authLastName  string
	authRole      string
)

func init() {
	authCmd.AddCommand(authSignupCmd, authLoginCmd, authWhoamiCmd)

	authSignupCmd.Flags().StringVar(&authEmail, "email", "", "Email address (required)")
	authSignupCmd.Flags().StringVar(&authPassword, "password", "", "Password (prompted when omitted)")
	authSignupCmd.Flags().StringVar(&authFirstName, "first-name", "", "First name")
	authSignupCmd.Flags().StringVar(&authLastName, "last-name", "", "Last name")
	authSignupCmd.Flags().StringVar(&authRole, "role", "", "Role (Admin or Member, default Member)")
	authSignupCmd.MarkFlagRequired("email")

	authLoginCmd.Flags().StringVar(&authEmail, "email", "", "Email address (required)")
	authLoginCmd.Flags().StringVar(&authPassword, "password", "", "Password (prompted when omitted)")
	authLoginCmd.MarkFlagRequired("email")
}

func runAuthSignup(cmd *cobra.Command, args []string) error {
	password, err := resolvePassword()
	if err != nil {
		return err
	}

	body := map[string]string{
		"email":      authEmail,
		"password":   password,
		"first_name": authFirstName,
		"last_name":  authLastName,
	}
	if authRole != "" {
		body["role"] = authRole
	}

	resp, err := apiPost("/api/auth/signup", body)
	if err != nil {
		return err
	}
	return printTokenPair(resp)
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	password, err := resolvePassword()
	if err != nil {
		return err
	}

	body := map[string]string{
		"email":    authEmail,
		"password": password,
	}

	resp, err := apiPost("/api/auth/login", body)
	if err != nil {
		return err
	}
	return printTokenPair(resp)
}

func runAuthWhoami(cmd *cobra.Command, args []string) error {
	resp, err := apiGet("/api/auth/me")
	if err != nil {
		return err
	}

	var user map[string]interface{}
	if err := json.Unmarshal(resp, &user); err != nil {
		return err
	}

	fmt.Printf("ID:    %s\n", user["id"])
	fmt.Printf("Email: %s\n", user["email"])
	fmt.Printf("Name:  %s %s\n", user["first_name"], user["last_name"])
	fmt.Printf("Role:  %s\n", user["role"])
	return nil
}

func resolvePassword() (string, error) {
	if authPassword != "" {
		return authPassword, nil
	}
	fmt.Print("Password: ")
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(raw), nil
}

func printTokenPair(resp []byte) error {
	var result struct {
		User struct {
			ID    string `json:"id"`
			Email string `json:"email"`
			Role  string `json:"role"`
		} `json:"user"`
		Token        string `json:"token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return err
	}

	fmt.Printf("Signed in as %s (%s)\n\n", result.User.Email, result.User.Role)
	fmt.Printf("export TASKBOARD_TOKEN=%s\n", result.Token)
	fmt.Printf("# refresh token: %s\n", result.RefreshToken)
	return nil
}
