package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mrlokans/librarian/internal/auth"
	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/database"
)

// Prompter reads a secret from the user.
type Prompter interface {
	ReadPassword(out io.Writer, in io.Reader, prompt string) (string, error)
}

// terminalPrompter masks input on a terminal and falls back to reading a
// line when stdin is piped.
type terminalPrompter struct{}

func (terminalPrompter) ReadPassword(out io.Writer, in io.Reader, prompt string) (string, error) {
	fmt.Fprint(out, prompt)
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", err
		}
		return string(password), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newAdminCommand(prompter Prompter) *cobra.Command {
	admin := &cobra.Command{
		Use:   "admin",
		Short: "Manage administrator accounts",
	}

	var username string
	passwd := &cobra.Command{
		Use:   "passwd",
		Short: "Set an administrator's password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.NewConfig()
			db, err := database.NewDatabase(cfg.Database)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			// A single reader keeps buffered input between the two prompts.
			in := bufio.NewReader(cmd.InOrStdin())
			var src io.Reader = in
			if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
				src = f
			}

			password, err := prompter.ReadPassword(cmd.OutOrStdout(), src, "New password: ")
			if err != nil {
				return fmt.Errorf("read password: %w", err)
			}
			confirm, err := prompter.ReadPassword(cmd.OutOrStdout(), src, "Confirm password: ")
			if err != nil {
				return fmt.Errorf("read password: %w", err)
			}

			service := auth.NewService(db.DB, cfg.Auth)
			if err := service.SetPassword(username, password, confirm); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Password updated for %s\n", username)
			return nil
		},
	}
	passwd.Flags().StringVarP(&username, "username", "u", config.DefaultAdminUsername, "administrator to update")

	admin.AddCommand(passwd)
	return admin
}
