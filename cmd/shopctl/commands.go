package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/brewhaven/internal/config"
	"github.com/Skotchmaster/brewhaven/internal/mykafka"
	"github.com/Skotchmaster/brewhaven/internal/service"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Write the starter menu if the catalog is empty",
	RunE:  runSeed,
}

func runSeed(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close(cmd.Context())

	rep, err := a.Seeder.EnsureSeeded(cmd.Context())
	if err != nil {
		return err
	}
	if rep.AlreadySeeded {
		fmt.Println("Catalog already seeded")
		return nil
	}
	fmt.Printf("Seeded catalog: %d created, %d skipped\n", rep.Created, rep.Skipped)
	return nil
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the configured store is reachable",
	RunE:  runHealth,
}

func runHealth(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close(cmd.Context())

	rep := a.Health.Check(cmd.Context())
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return err
	}
	if rep.Status != service.StatusHealthy {
		return fmt.Errorf("store %s unreachable", rep.StoreDriver)
	}
	return nil
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an access token for a user id",
	RunE:  runToken,
}

func init() {
	tokenCmd.Flags().StringP("user", "u", "", "User id to put in the token")
	_ = tokenCmd.MarkFlagRequired("user")

	eventsCmd.Flags().Duration("for", 0, "Stop after this long (0 runs until interrupted)")
}

// runToken signs locally with JWT_SECRET; no store is needed.
func runToken(cmd *cobra.Command, args []string) error {
	user, _ := cmd.Flags().GetString("user")
	user = strings.TrimSpace(user)
	if user == "" {
		return fmt.Errorf("--user must not be empty")
	}

	cfg := config.Load()
	auth, err := service.NewAuthService(cfg.JWTSecret, cfg.TokenTTL, cfg.DemoUsername, cfg.DemoPassword)
	if err != nil {
		return err
	}
	tok, err := auth.IssueToken(user)
	if err != nil {
		return err
	}
	fmt.Println(tok.AccessToken)
	return nil
}

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Drop cached catalog listings and rebuild the search index",
	RunE:  runReindex,
}

func runReindex(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close(cmd.Context())

	a.Catalog.Refresh(cmd.Context())
	fmt.Println("Catalog refreshed")
	return nil
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Print shop events from Kafka as they arrive",
	RunE:  runEvents,
}

func runEvents(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if len(cfg.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is not set")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	if d, _ := cmd.Flags().GetDuration("for"); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	fmt.Printf("Tailing %s on %s\n", cfg.KafkaTopic, strings.Join(cfg.KafkaBrokers, ","))
	return mykafka.Tail(ctx, cfg.KafkaBrokers, cfg.KafkaTopic, func(key string, ev mykafka.Event) error {
		fmt.Printf("%s  %-22s key=%s user=%s product=%s qty=%d order=%s\n",
			ev.At.Format(time.RFC3339), ev.Type, key, ev.UserID, ev.ProductID, ev.Quantity, ev.OrderID)
		return nil
	})
}
