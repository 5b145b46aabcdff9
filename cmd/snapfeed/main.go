// Command snapfeed is a terminal client for the snapfeed photo sharing API.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"snapfeed/internal/app"
	"snapfeed/internal/config"
	"snapfeed/internal/store"

	"github.com/spf13/cobra"
)

// Command annotations read by the root hooks.
const (
	annotationNoApp   = "snapfeed/no-app"
	annotationSession = "snapfeed/session"

	sessionRequired = "required"
	sessionOptional = "optional"
)

var (
	profileName string
	timeout     time.Duration
	jsonOutput  bool

	// loadConfig and newApp are swapped in tests.
	loadConfig = config.LoadConfig
	newApp     = app.New

	application *app.App
)

var rootCmd = &cobra.Command{
	Use:           "snapfeed",
	Short:         "Browse and post to snapfeed from the terminal",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Annotations[annotationNoApp] != "" {
			return nil
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		a, err := newApp(cmd.Context(), cfg, app.Options{Profile: profileName})
		if err != nil {
			return err
		}
		application = a
		switch cmd.Annotations[annotationSession] {
		case sessionRequired:
			return requireSession(cmd)
		case sessionOptional:
			// Signed-in viewers see their like and follow flags; anonymous browsing still works.
			ctx, cancel := commandContext(cmd)
			defer cancel()
			_ = application.Store.RestoreSession(ctx)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if application == nil {
			return nil
		}
		err := application.Close(context.Background())
		application = nil
		return err
	},
}

// requireSession restores the stored credentials or explains how to sign in.
func requireSession(cmd *cobra.Command) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()
	err := application.Store.RestoreSession(ctx)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNoSession):
		return errors.New("not signed in; run `snapfeed login` first")
	case errors.Is(err, store.ErrSessionExpired):
		return errors.New("session expired; run `snapfeed login` again")
	default:
		return fmt.Errorf("restoring session: %w", err)
	}
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func annotate(key, value string, cmds ...*cobra.Command) {
	for _, c := range cmds {
		if c.Annotations == nil {
			c.Annotations = map[string]string{}
		}
		c.Annotations[key] = value
	}
}

func requiresAuth(cmds ...*cobra.Command) { annotate(annotationSession, sessionRequired, cmds...) }
func optionalAuth(cmds ...*cobra.Command) { annotate(annotationSession, sessionOptional, cmds...) }

func init() {
	rootCmd.PersistentFlags().StringVar(&profileName, "profile", "default", "Credential profile to use")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", time.Minute, "Operation timeout")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")

	rootCmd.AddCommand(loginCmd, registerCmd, logoutCmd, meCmd)
	rootCmd.AddCommand(feedCmd, exploreCmd, postCmd, likeCmd, saveCmd, savedCmd, likedCmd, commentCmd)
	rootCmd.AddCommand(followCmd, profileCmd, searchCmd, configCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

// execute runs the command line and releases the app even when the command failed,
// since cobra skips post-run hooks after an error.
func execute(ctx context.Context, args []string) error {
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(ctx)
	if application != nil {
		_ = application.Close(context.Background())
		application = nil
	}
	return err
}
