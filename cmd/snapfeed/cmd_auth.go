package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"snapfeed/internal/service"

	"github.com/spf13/cobra"
)

var (
	loginEmail    string
	loginPassword string

	registerInput service.RegisterInput
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and remember the session",
	Long: `Sign in with email and password. The token is stored in the session database
so later commands run as this account. Without --password the password is read
from the first line of standard input.`,
	RunE: runLogin,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	RunE:  runRegister,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		if err := application.Store.Logout(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
		return nil
	},
}

var meCmd = &cobra.Command{
	Use:   "me",
	Short: "Show your own profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		if err := application.Store.LoadMyProfile(ctx); err != nil {
			return err
		}
		p := application.Store.Profile().Mine
		return emit(cmd, p, func(w io.Writer) {
			writeProfile(w, *p)
			if p.Email != "" {
				fmt.Fprintf(w, "  %s\n", p.Email)
			}
		})
	},
}

func readSecret(cmd *cobra.Command, value string) (string, error) {
	if value != "" {
		return value, nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// authError prefers the message the store settled on for the auth slice.
func authError(err error) error {
	if msg := application.Store.Auth().Error; msg != "" {
		return errors.New(msg)
	}
	return err
}

func runLogin(cmd *cobra.Command, args []string) error {
	password, err := readSecret(cmd, loginPassword)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()
	if err := application.Store.Login(ctx, loginEmail, password); err != nil {
		return authError(err)
	}
	user := application.Store.Auth().User
	return emit(cmd, user, func(w io.Writer) {
		fmt.Fprintf(w, "Signed in as @%s.\n", user.Username)
	})
}

func runRegister(cmd *cobra.Command, args []string) error {
	in := registerInput
	password, err := readSecret(cmd, in.Password)
	if err != nil {
		return err
	}
	in.Password = password
	ctx, cancel := commandContext(cmd)
	defer cancel()
	if err := application.Store.Register(ctx, in); err != nil {
		return authError(err)
	}
	auth := application.Store.Auth()
	return emit(cmd, auth.User, func(w io.Writer) {
		if auth.IsAuthenticated {
			fmt.Fprintf(w, "Welcome, @%s. You are signed in.\n", auth.User.Username)
			return
		}
		fmt.Fprintf(w, "Account @%s created. Run `snapfeed login` to sign in.\n", auth.User.Username)
	})
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Account password (read from stdin when empty)")
	_ = loginCmd.MarkFlagRequired("email")

	registerCmd.Flags().StringVar(&registerInput.Name, "name", "", "Display name")
	registerCmd.Flags().StringVar(&registerInput.Username, "username", "", "Username")
	registerCmd.Flags().StringVar(&registerInput.Email, "email", "", "Email")
	registerCmd.Flags().StringVar(&registerInput.Phone, "phone", "", "Phone number")
	registerCmd.Flags().StringVar(&registerInput.Password, "password", "", "Password (read from stdin when empty)")
	for _, name := range []string{"name", "username", "email", "phone"} {
		_ = registerCmd.MarkFlagRequired(name)
	}

	requiresAuth(meCmd)
}
