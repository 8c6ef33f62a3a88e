package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/veldt-labs/caresage/internal/config"
	"github.com/veldt-labs/caresage/internal/core"
	"github.com/veldt-labs/caresage/internal/storage/sqlite"
)

var (
	profileUser        string
	profileAllergies   string
	profileConditions  string
	profileMedications string
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage the health profile used for safety checks",
}

var profileSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Record allergies, conditions, and current medications",
	Long:  `Stores the comma-separated lists that medication safety checks and diagnosis reasoning are grounded on.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		appCfg := config.NewAppConfig(ctx)
		db, err := sqlite.NewDB(ctx, appCfg.GetDatabasePath())
		if err != nil {
			return err
		}
		defer db.Close()

		profile := core.UserProfile{
			UserID:      profileUser,
			Allergies:   splitList(profileAllergies),
			Conditions:  splitList(profileConditions),
			Medications: splitList(profileMedications),
		}

		if err := sqlite.NewProfilesRepo(db).Save(ctx, profile); err != nil {
			return err
		}

		fmt.Printf("profile saved for %s\n", profileUser)
		return nil
	},
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored health profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		appCfg := config.NewAppConfig(ctx)
		db, err := sqlite.NewDB(ctx, appCfg.GetDatabasePath())
		if err != nil {
			return err
		}
		defer db.Close()

		profile, err := sqlite.NewProfilesRepo(db).Get(ctx, profileUser)
		if err != nil {
			return err
		}

		fmt.Printf("user:        %s\n", profile.UserID)
		fmt.Printf("allergies:   %s\n", joinList(profile.Allergies))
		fmt.Printf("conditions:  %s\n", joinList(profile.Conditions))
		fmt.Printf("medications: %s\n", joinList(profile.Medications))
		return nil
	},
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, strings.ToLower(item))
		}
	}
	return out
}

func joinList(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, ", ")
}

func init() {
	profileCmd.PersistentFlags().StringVarP(&profileUser, "user", "u", "cli-local", "user the profile belongs to")
	profileSetCmd.Flags().StringVar(&profileAllergies, "allergies", "", "comma-separated allergies")
	profileSetCmd.Flags().StringVar(&profileConditions, "conditions", "", "comma-separated diagnosed conditions")
	profileSetCmd.Flags().StringVar(&profileMedications, "medications", "", "comma-separated current medications")

	profileCmd.AddCommand(profileSetCmd)
	profileCmd.AddCommand(profileShowCmd)
	rootCmd.AddCommand(profileCmd)
}
