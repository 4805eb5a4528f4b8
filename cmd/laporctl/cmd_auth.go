package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	loginEmail    string
	loginPassword string

	registerName  string
	registerNIK   string
	registerPhone string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the session",
	Long: `Sign in against the auth service. The token and profile are stored
locally so later commands are authenticated. With --name the account is
registered first.`,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Drop the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cli.auth.Logout(); err != nil {
			return fmt.Errorf("clear session: %w", err)
		}
		fmt.Println(okStyle.Render("Logged out."))
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := cli.currentSession(); err != nil {
			return err
		}
		user, err := cli.auth.Me(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("%s %s\n", titleStyle.Render(user.Name), dimStyle.Render("("+user.ID+")"))
		fmt.Printf("role: %s  access: %s\n", user.Role, user.AccessRole)
		if user.Department != "" {
			fmt.Printf("department: %s\n", user.Department)
		}
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVarP(&loginEmail, "email", "e", "", "account email (required)")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "password (prompted when omitted)")
	loginCmd.Flags().StringVar(&registerName, "name", "", "register a new account with this display name")
	loginCmd.Flags().StringVar(&registerNIK, "nik", "", "national id number for registration")
	loginCmd.Flags().StringVar(&registerPhone, "phone", "", "phone number for registration")
	loginCmd.MarkFlagRequired("email")
}

func runLogin(cmd *cobra.Command, args []string) error {
	password := loginPassword
	if password == "" {
		fmt.Fprint(os.Stderr, "Password: ")
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		password = string(raw)
	}

	ctx := cmd.Context()
	if registerName != "" {
		user, err := cli.auth.Register(ctx, registerName, loginEmail, password, registerNIK, registerPhone)
		if err != nil {
			return err
		}
		fmt.Println(okStyle.Render("Registered and signed in as " + user.Name))
		return nil
	}

	user, err := cli.auth.Login(ctx, loginEmail, password)
	if err != nil {
		return err
	}
	fmt.Println(okStyle.Render("Signed in as " + user.Name))
	return nil
}
