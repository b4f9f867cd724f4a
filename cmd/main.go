package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{Use: "food-ordering-system"}
	rootCmd.AddCommand(
		createMigrationCommand(),
		migrateUpCommand(),
		runOrderCommand(),
		runPaymentCommand(),
		runRestaurantCommand(),
		runCustomerCommand(),
		upsertCatalogCommand(),
		createCustomerCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
