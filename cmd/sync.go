package cmd

import (
	"cloud.google.com/go/pubsub"
	"context"
	"encoding/json"
	"fmt"
	"github.com/openswoop/banner9/pkg/database"
	"github.com/openswoop/banner9/pkg/scrape"
	"log"

	"github.com/spf13/cobra"
)

const (
	projectID = "syllabank-4e5b9"
	datasetID = "banner9"
	topicID   = "catalog-refreshed"
)

var dryRun bool

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync term...",
	Short: "Scrape a term's catalog to BigQuery",
	Long: `This command takes one or more term ids (such as 202110), scrapes
the catalog for those terms, and merges the courses and sections
into BigQuery.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := scrape.NewClient(c, scrape.DefaultBaseURL)

		catalog, err := client.ScrapeCatalog(args)
		if err != nil {
			panic(err)
		}
		log.Println("Found", len(catalog.Sections), "sections in", len(catalog.Classes), "courses")

		// Connect to BigQuery
		bq, err := database.NewBigQuery(projectID, datasetID)
		if err != nil {
			panic(fmt.Errorf("failed to connect to bigquery: %v", err))
		}

		// Insert (merge) the terms, subjects, courses, and sections
		if !dryRun {
			if err := bq.SaveCatalog(catalog); err != nil {
				panic(fmt.Errorf("failed to insert catalog: %v", err))
			}
		} else {
			fmt.Println("Dry run: data will not be inserted")
		}
		_ = bq.Close()

		// Connect to PubSub
		ctx := context.Background()
		psClient, err := pubsub.NewClient(ctx, projectID)
		if err != nil {
			log.Fatalf("Failed to create client: %v", err)
		}

		msg, err := json.Marshal(struct {
			TermIds []string `json:"termIds"`
		}{args})
		if err != nil {
			log.Fatalf("Failed to create message: %v", err)
		}

		// Publish an event
		topic := psClient.Topic(topicID)
		res := topic.Publish(ctx, &pubsub.Message{Data: msg})
		if _, err := res.Get(ctx); err != nil {
			log.Fatalf("Failed to publish message: %v", err)
		}

		fmt.Println("Done.")
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Run without modifying the database (default: false)")
}
