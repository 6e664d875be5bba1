package cmd

import (
	"encoding/json"
	"log"
	"os"
	"strings"

	"github.com/openswoop/banner9/pkg/database"
	"github.com/openswoop/banner9/pkg/report"
	"github.com/openswoop/banner9/pkg/scrape"

	"github.com/spf13/cobra"
)

var dbFile = "/banner9/banner9.db"

var writeCsv bool

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape term...",
	Short: "Scrape a term's catalog to a JSON file",
	Long: `Given one or more term ids (such as 202110) this command scrapes
every section offered that term, collapses them into courses, and
writes the catalog to a JSON file. The results are also inserted
into a local SQLite database.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := scrape.NewClient(c, scrape.DefaultBaseURL)

		catalog, err := client.ScrapeCatalog(args)
		if err != nil {
			panic(err)
		}
		log.Println("Found", len(catalog.Sections), "sections in", len(catalog.Classes), "courses")

		// Save all the data to the database
		userCacheDir, _ := os.UserCacheDir()
		sqlite := database.NewSqlite(userCacheDir + dbFile)
		if err := sqlite.SaveCatalog(catalog); err != nil {
			panic(err)
		}
		_ = sqlite.Close()
		log.Println("Saved to database", dbFile)

		// Write the catalog to JSON
		name := strings.Join(args, "_")
		out, err := json.MarshalIndent(catalog, "", "  ")
		if err != nil {
			panic(err)
		}
		if err := os.WriteFile(name+".json", out, 0644); err != nil {
			panic(err)
		}
		log.Println("Wrote to file", name+".json")

		if writeCsv {
			if err := report.WriteSections(name+"_sections", catalog.Sections); err != nil {
				panic(err)
			}
			if err := report.WriteCourses(name+"_courses", catalog.Classes); err != nil {
				panic(err)
			}
			log.Println("Wrote section and course CSVs")
		}
	},
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	scrapeCmd.Flags().BoolVar(&writeCsv, "csv", false, "Also dump the sections and courses as CSVs (default: false)")
}
