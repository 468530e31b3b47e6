package cli

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/indexer/consumer"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/kafka"
)

func newRebuildCmd() *cobra.Command {
	var (
		configPath  string
		reason      string
		requestedBy string
	)
	cmd := &cobra.Command{
		Use:   "rebuild",
		Short: "Ask running search services to rebuild their index via Kafka",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if requestedBy == "" {
				requestedBy, _ = os.Hostname()
			}
			producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.IndexRebuild)
			defer producer.Close()
			key := uuid.NewString()
			err = producer.Publish(cmd.Context(), kafka.Event{
				Key:   key,
				Value: consumer.RebuildRequest{Reason: reason, RequestedBy: requestedBy},
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rebuild requested on %s (%s)\n", cfg.Kafka.Topics.IndexRebuild, key)
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "configs/development.yaml", "path to config file")
	cmd.Flags().StringVar(&reason, "reason", "manual", "reason recorded with the rebuild")
	cmd.Flags().StringVar(&requestedBy, "requested-by", "", "requester recorded with the rebuild (default: hostname)")
	return cmd
}
