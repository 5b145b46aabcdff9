package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"snapfeed/internal/config"
	"snapfeed/internal/models"
	"snapfeed/internal/search"
	"snapfeed/internal/service"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	edit       profileEdit
	avatarPath string

	interactiveSearch bool
)

type profileEdit struct {
	Name     string
	Username string
	Email    string
	Phone    string
	Bio      string
}

var followCmd = &cobra.Command{
	Use:   "follow USERNAME",
	Short: "Follow or unfollow an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		username := strings.TrimPrefix(args[0], "@")
		ctx, cancel := commandContext(cmd)
		defer cancel()
		if err := loadProfile(ctx, username); err != nil {
			return err
		}
		if err := application.Store.ToggleFollow(ctx, username); err != nil {
			return err
		}
		p := *application.Store.Profile().Viewed
		return emit(cmd, p, func(w io.Writer) {
			if p.IsFollowing {
				fmt.Fprintf(w, "Following @%s.\n", p.Username)
				return
			}
			fmt.Fprintf(w, "Unfollowed @%s.\n", p.Username)
		})
	},
}

var profileCmd = &cobra.Command{
	Use:   "profile USERNAME",
	Short: "Show an account and its latest posts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		if err := loadProfile(ctx, strings.TrimPrefix(args[0], "@")); err != nil {
			return err
		}
		st := application.Store.Profile()
		return emit(cmd, map[string]any{"profile": st.Viewed, "posts": st.ViewedPosts}, func(w io.Writer) {
			writeProfile(w, *st.Viewed)
			fmt.Fprintln(w)
			writePosts(w, st.ViewedPosts)
		})
	},
}

func connectionsCommand(use, short string, list func(context.Context, string) ([]models.User, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " USERNAME",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()
			users, err := list(ctx, strings.TrimPrefix(args[0], "@"))
			if err != nil {
				return err
			}
			return emit(cmd, users, func(w io.Writer) { writeUsers(w, users) })
		},
	}
}

var followersCmd = connectionsCommand("followers", "List an account's followers", func(ctx context.Context, u string) ([]models.User, error) {
	return application.Services.Follows.Followers(ctx, u)
})

var followingCmd = connectionsCommand("following", "List the accounts someone follows", func(ctx context.Context, u string) ([]models.User, error) {
	return application.Services.Follows.Following(ctx, u)
})

var profileEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Change your profile; unset flags keep their current value",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		if err := application.Store.LoadMyProfile(ctx); err != nil {
			return err
		}
		in := profileUpdate(cmd, *application.Store.Profile().Mine)
		if avatarPath != "" {
			img, err := service.ReadImage(avatarPath)
			if err != nil {
				return err
			}
			in.Avatar = &img
		}
		p, err := application.Store.UpdateMyProfile(ctx, in)
		if err != nil {
			return err
		}
		return emit(cmd, p, func(w io.Writer) {
			fmt.Fprintln(w, "Profile updated.")
			writeProfile(w, p)
		})
	},
}

// profileUpdate overlays the flags the user set on the current profile.
func profileUpdate(cmd *cobra.Command, current models.Profile) service.ProfileUpdate {
	in := service.ProfileUpdate{
		Name:     current.Name,
		Username: current.Username,
		Email:    current.Email,
		Phone:    current.Phone,
		Bio:      current.Bio,
	}
	flags := cmd.Flags()
	if flags.Changed("name") {
		in.Name = edit.Name
	}
	if flags.Changed("username") {
		in.Username = edit.Username
	}
	if flags.Changed("email") {
		in.Email = edit.Email
	}
	if flags.Changed("phone") {
		in.Phone = edit.Phone
	}
	if flags.Changed("bio") {
		in.Bio = edit.Bio
	}
	return in
}

func loadProfile(ctx context.Context, username string) error {
	if err := application.Store.LoadProfile(ctx, username); err != nil {
		if msg := application.Store.Profile().Error; msg != "" {
			return errors.New(msg)
		}
		return err
	}
	return nil
}

var searchCmd = &cobra.Command{
	Use:   "search [QUERY...]",
	Short: "Find accounts by username or name",
	Long: `Search accounts. With --interactive each line read from standard input
replaces the query, and results are printed once typing pauses.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		d := application.NewSearch()
		defer d.Close()

		if !interactiveSearch {
			if len(args) == 0 {
				return errors.New("search needs a query or --interactive")
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			d.Query(strings.Join(args, " "))
			select {
			case r := <-d.Results():
				return printSearch(cmd, r)
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return interactive(cmd, d)
	},
}

func interactive(cmd *cobra.Command, d *search.Debouncer) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(cmd.InOrStdin())
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()

	ctx := cmd.Context()
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			d.Query(line)
		case r := <-d.Results():
			if err := printSearch(cmd, r); err != nil {
				return err
			}
		case <-ctx.Done():
			return nil
		}
	}
}

func printSearch(cmd *cobra.Command, r search.Result) error {
	if r.Err != nil {
		return r.Err
	}
	return emit(cmd, r.Users, func(w io.Writer) {
		if r.Query != "" {
			fmt.Fprintf(w, "Results for %q:\n", r.Query)
		}
		writeUsers(w, r.Users)
	})
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect configuration",
}

var configShowCmd = &cobra.Command{
	Use:         "show",
	Short:       "Print the effective configuration as YAML",
	Annotations: map[string]string{annotationNoApp: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return writeConfig(cmd.OutOrStdout(), cfg)
	},
}

func writeConfig(w io.Writer, cfg *config.Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return enc.Close()
}

func init() {
	profileEditCmd.Flags().StringVar(&edit.Name, "name", "", "Display name")
	profileEditCmd.Flags().StringVar(&edit.Username, "username", "", "Username")
	profileEditCmd.Flags().StringVar(&edit.Email, "email", "", "Email")
	profileEditCmd.Flags().StringVar(&edit.Phone, "phone", "", "Phone number")
	profileEditCmd.Flags().StringVar(&edit.Bio, "bio", "", "Bio (up to 160 characters)")
	profileEditCmd.Flags().StringVar(&avatarPath, "avatar", "", "Path of a new avatar image")

	searchCmd.Flags().BoolVarP(&interactiveSearch, "interactive", "i", false, "Read queries from standard input")

	profileCmd.AddCommand(profileEditCmd, followersCmd, followingCmd)
	configCmd.AddCommand(configShowCmd)

	optionalAuth(profileCmd, followersCmd, followingCmd, searchCmd)
	requiresAuth(followCmd, profileEditCmd)
}
