package commands

import (
	"fmt"
	"hoyocodes-backend/internal/codes"
	"hoyocodes-backend/internal/redeem"
	"hoyocodes-backend/lib/serviceutil"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	credentialsCmd.AddCommand(credentialsSetCmd)
	credentialsCmd.AddCommand(credentialsShowCmd)
	rootCmd.AddCommand(credentialsCmd)
}

var credentialsCmd = &cobra.Command{
	Use:   "credentials",
	Short: "Manages the session cookies codes are redeemed with.",
}

var credentialsSetCmd = &cobra.Command{
	Use:   "set <game> <cookies>",
	Short: "Stores the cookie string of a logged in HoYoLAB session for a game.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		game, err := codes.ParseGame(args[0])
		if err != nil {
			return err
		}
		cookies := redeem.ParseCookies(codes.CredentialSet(args[1]))
		if len(cookies) == 0 {
			return fmt.Errorf("no cookies in %q", args[1])
		}

		a, err := openApp(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to initialize", err)
		}
		defer a.Close()

		err = a.credentials.Set(cmd.Context(), game, cookies.CredentialSet())
		if err != nil {
			return err
		}
		fmt.Printf("stored %d cookies for %s\n", len(cookies), game)
		return nil
	},
}

var credentialsShowCmd = &cobra.Command{
	Use:   "show <game>",
	Short: "Prints the names of the stored cookies of a game.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		game, err := codes.ParseGame(args[0])
		if err != nil {
			return err
		}

		a, err := openApp(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to initialize", err)
		}
		defer a.Close()

		credentials, ok, err := a.credentials.Get(cmd.Context(), game)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no credentials stored for %s", game)
		}

		names := []string{}
		for _, c := range redeem.ParseCookies(credentials) {
			names = append(names, c.Name)
		}
		sort.Strings(names)

		t := newTable()
		t.AppendHeader(table.Row{"Game", "Cookies"})
		t.AppendRow(table.Row{game, strings.Join(names, "\n")})
		t.Render()
		return nil
	},
}
