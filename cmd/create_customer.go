package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/sergen116/food-ordering-system/config"
	"github.com/sergen116/food-ordering-system/pkg/logging"
	"github.com/sergen116/food-ordering-system/service/customer"
)

func createCustomerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-customer [username] [first-name] [last-name]",
		Short: "register a customer and enqueue its CustomerCreated outbox row",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := logging.New(cfg.CustomerConfig.Name)

			db, err := sqlx.Connect("mysql", cfg.CustomerConfig.DatabaseDSN)
			if err != nil {
				return err
			}
			defer db.Close()

			svc := customer.NewService(customer.NewRepo(db), log)
			c, err := svc.CreateCustomer(cmd.Context(), customer.CreateCustomerCommand{
				ID:        uuid.NewString(),
				Username:  args[0],
				FirstName: args[1],
				LastName:  args[2],
			})
			if err != nil {
				return err
			}

			fmt.Println("Created customer", c.ID)
			return nil
		},
	}
	return cmd
}
