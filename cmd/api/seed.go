package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skillshare/backend/internal/database"
	"github.com/skillshare/backend/internal/ledger"
	"github.com/skillshare/backend/internal/repository"
	"github.com/skillshare/backend/internal/seed"
)

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().StringP("file", "f", "", "TOML fixture to load (defaults to the built-in demo data)")
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load demo users and skills",
	Long: `Load users and skills from a TOML fixture. Users whose email already
exists are skipped along with their skills, so seeding twice is harmless.`,
	RunE: runSeed,
}

func runSeed(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("file")
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	fixture, err := seed.Load(path)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	pool, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	userRepo := repository.NewUserRepo(pool)
	creditRepo := repository.NewCreditRepo(pool)
	seeder := &seed.Seeder{
		DB:     pool,
		Users:  userRepo,
		Skills: repository.NewSkillRepo(pool),
		Ledger: ledger.NewService(pool, userRepo, creditRepo),
		Log:    logger,
	}
	res, err := seeder.Run(ctx, fixture)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "users created: %d, skipped: %d, skills created: %d\n",
		res.UsersCreated, res.UsersSkipped, res.SkillsCreated)
	return nil
}
