package health

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/stratastor/burrow/config"
	"github.com/stratastor/burrow/pkg/health"
)

func NewHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check Burrow health and pool alerts",
		RunE: func(cmd *cobra.Command, args []string) error {
			checker, err := health.NewHealthChecker(config.GetConfig())
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()

			report, err := checker.CheckHealth(ctx)
			if err != nil {
				fmt.Println("Health check failed: ", err)
				return nil
			}

			fmt.Printf("Status: %s\n", report.Status)
			if !report.Since.IsZero() {
				fmt.Printf("Pools checked at: %s\n", report.Since.Format(time.RFC3339))
			}
			if report.Error != "" {
				fmt.Printf("Pool check error: %s\n", report.Error)
			}
			if len(report.Alerts) == 0 {
				fmt.Println("No pool alerts")
				return nil
			}
			for _, a := range report.Alerts {
				fmt.Printf("[%s] %s: %s\n", a.Level, a.Pool, a.Message)
			}
			return nil
		},
	}
}
