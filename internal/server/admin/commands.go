package admin

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dmitrijs2005/growkeeper/internal/common"
	"github.com/dmitrijs2005/growkeeper/internal/cryptox"
	"github.com/dmitrijs2005/growkeeper/internal/schema"
	"github.com/dmitrijs2005/growkeeper/internal/server/config"
)

// readPassword prompts on out and reads a password without echo. Tests
// replace it.
var readPassword = func(prompt string, out io.Writer) ([]byte, error) {
	fmt.Fprint(out, prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(out)
	return b, err
}

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
)

// NewRootCmd builds the admin command tree.
func NewRootCmd(open Opener) *cobra.Command {
	defaults := &config.Config{}
	defaults.LoadDefaults()

	var dsn string

	root := &cobra.Command{
		Use:           "gk-admin",
		Short:         "GrowKeeper server administration",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&dsn, "dsn", "d", defaults.DatabaseDSN, "PostgreSQL DSN")

	withStore := func(fn func(ctx context.Context, cmd *cobra.Command, s Store, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			s, err := open(ctx, dsn)
			if err != nil {
				return err
			}
			defer s.Close()
			return fn(ctx, cmd, s, args)
		}
	}

	root.AddCommand(migrateCmd(withStore))
	root.AddCommand(userCmd(withStore))
	root.AddCommand(tombstonesCmd(withStore))
	root.AddCommand(tokensCmd(withStore))
	return root
}

type storeRunner func(fn func(ctx context.Context, cmd *cobra.Command, s Store, args []string) error) func(*cobra.Command, []string) error

func migrateCmd(with storeRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: with(func(ctx context.Context, cmd *cobra.Command, s Store, _ []string) error {
			if err := s.Migrate(ctx); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), okColor.Sprint("OK"), "schema is up to date")
			return nil
		}),
	}
}

func userCmd(with storeRunner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <name>",
		Short: "Create an account, prompting for its password",
		Long: `Create an account the same way the client's "register" does: the
password never leaves this process, only its salt and verifier are stored.`,
		Args: cobra.ExactArgs(1),
		RunE: with(func(ctx context.Context, cmd *cobra.Command, s Store, args []string) error {
			out := cmd.OutOrStdout()

			password, err := readPassword("Password: ", out)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(password)
			if len(password) == 0 {
				return errors.New("password must not be empty")
			}

			confirm, err := readPassword("Repeat password: ", out)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(confirm)
			if !bytes.Equal(password, confirm) {
				return errors.New("passwords do not match")
			}

			salt := cryptox.NewSalt()
			id, err := s.AddUser(ctx, args[0], salt, cryptox.Verifier(password, salt))
			if err != nil {
				if errors.Is(err, common.ErrUserAlreadyExists) {
					return fmt.Errorf("user %q already exists", args[0])
				}
				return err
			}

			fmt.Fprintln(out, okColor.Sprint("Created"), args[0], id)
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "count",
		Short: "Print the number of accounts",
		Args:  cobra.NoArgs,
		RunE: with(func(ctx context.Context, cmd *cobra.Command, s Store, _ []string) error {
			n, err := s.CountUsers(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		}),
	})

	return cmd
}

func tombstonesCmd(with storeRunner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tombstones",
		Short: "Inspect the deletion log",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "count",
		Short: "Print tombstones per table",
		Args:  cobra.NoArgs,
		RunE: with(func(ctx context.Context, cmd *cobra.Command, s Store, _ []string) error {
			counts, err := s.TombstoneCounts(ctx)
			if err != nil {
				return err
			}
			printTombstoneCounts(cmd.OutOrStdout(), counts)
			return nil
		}),
	})

	return cmd
}

// printTombstoneCounts lists tracked tables in schema order, then any table
// names the server no longer tracks, highlighted.
func printTombstoneCounts(out io.Writer, counts map[string]int64) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TABLE\tTOMBSTONES")

	var total int64
	seen := make(map[string]bool, len(counts))
	for _, t := range schema.Tables() {
		seen[t.Name] = true
		total += counts[t.Name]
		fmt.Fprintf(w, "%s\t%d\n", t.Name, counts[t.Name])
	}

	var unknown []string
	for name := range counts {
		if !seen[name] {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		total += counts[name]
		fmt.Fprintf(w, "%s\t%d\n", warnColor.Sprint(name), counts[name])
	}

	fmt.Fprintf(w, "total\t%d\n", total)
	w.Flush()
}

func tokensCmd(with storeRunner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tokens",
		Short: "Manage refresh tokens",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "prune",
		Short: "Delete expired refresh tokens",
		Args:  cobra.NoArgs,
		RunE: with(func(ctx context.Context, cmd *cobra.Command, s Store, _ []string) error {
			n, err := s.PruneRefreshTokens(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), okColor.Sprint("Pruned"), n, "expired refresh tokens")
			return nil
		}),
	})

	return cmd
}
