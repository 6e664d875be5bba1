package cmd

import (
	"fmt"
	"github.com/gocolly/colly/v2"
	"github.com/spf13/cobra"
	"os"
)

var c *colly.Collector

var cacheDir = "/banner9/web-cache"
var noCache bool

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "banner9",
	Short: "A tool for scraping course catalogs from Banner 9",
	Long: `Scrapes the courses, sections, and meeting times a university
publishes through Banner 9 self-service into a normalized catalog.
Given one or more term ids, this application can write the catalog to
JSON and CSV files or send the results to BigQuery.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initColly)

	rootCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "Bypass the web cache (default: false)")
}

func initColly() {
	c = colly.NewCollector()
	if !noCache {
		userCacheDir, _ := os.UserCacheDir()
		c.CacheDir = userCacheDir + cacheDir
	}
}
