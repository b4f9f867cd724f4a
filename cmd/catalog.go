package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/sergen116/food-ordering-system/config"
	"github.com/sergen116/food-ordering-system/kafka"
	"github.com/sergen116/food-ordering-system/pkg/logging"
	"github.com/sergen116/food-ordering-system/service/restaurant"
)

// catalogFile is the on-disk shape an operator edits to publish a
// restaurant's menu — outside the saga entirely (SPEC_FULL.md §12).
type catalogFile struct {
	ID       string              `json:"id"`
	Active   bool                `json:"active"`
	Products []restaurant.Product `json:"products"`
}

func upsertCatalogCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "upsert-catalog [path-to-json]",
		Short: "create or replace a restaurant's catalog and publish it to the restaurant topic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var cf catalogFile
			if err := json.Unmarshal(raw, &cf); err != nil {
				return fmt.Errorf("cmd: decode catalog file: %w", err)
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := logging.New(cfg.RestaurantConfig.Name)

			db, err := sqlx.Connect("mysql", cfg.RestaurantConfig.DatabaseDSN)
			if err != nil {
				return err
			}
			defer db.Close()

			producer, err := kafka.NewProducer(cfg.KafkaHost)
			if err != nil {
				return err
			}
			defer producer.Close()

			catalog := restaurant.NewCatalog(restaurant.NewRepo(db), producer, log)
			rest := &restaurant.Restaurant{ID: cf.ID, Active: cf.Active, Products: cf.Products}
			if err := catalog.PublishCatalog(cmd.Context(), rest); err != nil {
				return err
			}

			fmt.Println("Published catalog for restaurant", cf.ID)
			return nil
		},
	}
}
