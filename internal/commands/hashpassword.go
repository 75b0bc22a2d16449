package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/klabast/wb-services/festival-calendar/internal/app"
)

var (
	hashOverwrite      bool
	hashInsecureUnmask bool
	hashAuthFile       string
)

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password",
	Short: "Create the auth file for event editing",
	Long: `Creates an auth.secret file with an Argon2id password hash. The server
requires these credentials for every change to personal events.

The file goes to --auth-file, else AUTH_FILE, else auth.secret next to the
binary.`,
	Args: cobra.NoArgs,
	RunE: runHashPassword,
}

func init() {
	hashPasswordCmd.Flags().BoolVar(&hashOverwrite, "overwrite", false, "overwrite an existing auth file without asking")
	hashPasswordCmd.Flags().BoolVar(&hashInsecureUnmask, "insecure-unmask-password", false, "show the password as plain text (INSECURE!)")
	hashPasswordCmd.Flags().StringVar(&hashAuthFile, "auth-file", "", "path of the auth file")
	rootCmd.AddCommand(hashPasswordCmd)
}

func runHashPassword(cmd *cobra.Command, _ []string) error {
	path := hashAuthFile
	if path == "" {
		path = os.Getenv("AUTH_FILE")
	}
	path, err := app.AuthFilePath(path)
	if err != nil {
		return err
	}

	in := bufio.NewReader(cmd.InOrStdin())
	out := cmd.OutOrStdout()

	fmt.Fprint(out, "Enter username: ")
	username, err := readLine(in)
	if err != nil {
		return fmt.Errorf("reading username: %w", err)
	}
	if username == "" {
		return errors.New("username cannot be empty")
	}

	password, err := promptPassword(cmd, in, "Enter password:   ")
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}
	passwordConfirm, err := promptPassword(cmd, in, "Confirm password: ")
	if err != nil {
		return fmt.Errorf("reading password confirmation: %w", err)
	}

	if password == "" {
		return errors.New("password cannot be empty")
	}
	if password != passwordConfirm {
		return errors.New("passwords do not match")
	}

	return app.CreateAuthFile(path, username, password, hashOverwrite, in, out)
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// promptPassword masks the input with asterisks on a terminal and reads a
// plain line otherwise.
func promptPassword(cmd *cobra.Command, in *bufio.Reader, prompt string) (string, error) {
	out := cmd.OutOrStdout()
	f, isFile := cmd.InOrStdin().(*os.File)
	if hashInsecureUnmask || !isFile || !term.IsTerminal(int(f.Fd())) {
		if hashInsecureUnmask {
			fmt.Fprintln(cmd.ErrOrStderr(), "WARNING: Password will be visible on screen!")
		}
		fmt.Fprint(out, prompt)
		return readLine(in)
	}
	fmt.Fprint(out, prompt)
	return readPasswordWithMask(int(f.Fd()), in, out)
}

// readPasswordWithMask reads password input and displays asterisks
func readPasswordWithMask(fd int, in *bufio.Reader, out io.Writer) (string, error) {
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		// Fallback to hidden input
		password, err := term.ReadPassword(fd)
		fmt.Fprintln(out)
		return string(password), err
	}
	defer func() { _ = term.Restore(fd, oldState) }()

	var password []rune
	for {
		char, _, err := in.ReadRune()
		if err != nil {
			fmt.Fprint(out, "\r\n")
			return string(password), nil
		}

		switch char {
		case '\n', '\r': // Enter key
			fmt.Fprint(out, "\r\n")
			return string(password), nil
		case 127, 8: // Backspace or Delete
			if len(password) > 0 {
				password = password[:len(password)-1]
				fmt.Fprint(out, "\b \b")
			}
		case 3: // Ctrl+C
			fmt.Fprint(out, "\r\n")
			return "", app.ErrAborted
		default:
			if char >= 32 && char != 127 {
				password = append(password, char)
				fmt.Fprint(out, "*")
			}
		}
	}
}
