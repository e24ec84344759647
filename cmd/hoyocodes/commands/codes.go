package commands

import (
	"errors"
	"fmt"
	"hoyocodes-backend/internal/catalog"
	"hoyocodes-backend/internal/codes"
	"hoyocodes-backend/lib/serviceutil"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var listStatus string

func init() {
	listCmd.Flags().StringVar(&listStatus, "status", "", "Only list codes with this status (OK or NOT_OK).")
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(deleteCmd)
}

var listCmd = &cobra.Command{
	Use:   "list <game> [--status OK|NOT_OK]",
	Short: "Lists the cataloged codes of a game.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		game, err := codes.ParseGame(args[0])
		if err != nil {
			return err
		}
		var status *codes.Status
		if listStatus != "" {
			parsed, err := codes.ParseStatus(listStatus)
			if err != nil {
				return err
			}
			status = &parsed
		}

		a, err := openApp(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to initialize", err)
		}
		defer a.Close()

		entries, err := a.service.ListCodes(cmd.Context(), game, status)
		if err != nil {
			return err
		}
		renderEntries(entries)
		return nil
	},
}

var addCmd = &cobra.Command{
	Use:   "add <game> <code> [rewards...]",
	Short: "Verifies a code and adds it to the catalog.",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		game, err := codes.ParseGame(args[0])
		if err != nil {
			return err
		}
		rewards := strings.Join(args[2:], " ")

		a, err := openApp(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to initialize", err)
		}
		defer a.Close()

		entry, err := a.service.CreateCode(cmd.Context(), game, args[1], rewards)
		if errors.Is(err, catalog.ErrDuplicate) {
			return fmt.Errorf("%s is already cataloged for %s", codes.Sanitize(args[1]), game)
		}
		if err != nil {
			return err
		}
		renderEntries([]codes.Entry{entry})
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Removes a code from the catalog.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid id %q", args[0])
		}

		a, err := openApp(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to initialize", err)
		}
		defer a.Close()

		err = a.service.DeleteCode(cmd.Context(), id)
		if errors.Is(err, catalog.ErrNotFound) {
			return fmt.Errorf("no code with id %d", id)
		}
		if err != nil {
			return err
		}
		fmt.Printf("deleted code %d\n", id)
		return nil
	},
}
