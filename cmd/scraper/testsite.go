package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spiralhouse/scraper/internal/testsite"
)

// NewTestSiteCmd creates the testsite command.
func NewTestSiteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "testsite DIR",
		Short: "Generate a synthetic website for testing the crawler",
		Long: `Generate writes a synthetic website to DIR: a home page, top-level pages,
sections and nested child pages, plus a robots.txt that disallows some deep
pages and a sitemap.xml listing the rest.

Serve DIR with any static file server and crawl it, for example:
  scraper testsite example-site
  python3 -m http.server -d example-site 8080
  scraper crawl --use-sitemap http://localhost:8080/`,
		Args: cobra.ExactArgs(1),
		RunE: runTestSiteCmd,
	}

	def := testsite.DefaultOptions()
	cmd.Flags().Uint64("seed", def.Seed, "Random seed; the same seed generates the same site")
	cmd.Flags().Int("max-depth", def.MaxDepth, "Depth of nested child pages")
	cmd.Flags().Int("sections", def.Sections, "Number of sections")
	cmd.Flags().String("base-url", def.BaseURL, "Base URL of sitemap.xml locations")
	cmd.Flags().Duration("crawl-delay", def.CrawlDelay, "Crawl-delay written to robots.txt")

	return cmd
}

func runTestSiteCmd(cmd *cobra.Command, args []string) error {
	opts := testsite.DefaultOptions()

	var err error
	if opts.Seed, err = cmd.Flags().GetUint64("seed"); err != nil {
		return err
	}
	if opts.MaxDepth, err = cmd.Flags().GetInt("max-depth"); err != nil {
		return err
	}
	if opts.Sections, err = cmd.Flags().GetInt("sections"); err != nil {
		return err
	}
	if opts.BaseURL, err = cmd.Flags().GetString("base-url"); err != nil {
		return err
	}
	if opts.CrawlDelay, err = cmd.Flags().GetDuration("crawl-delay"); err != nil {
		return err
	}

	site := testsite.Generate(opts)
	if err := site.Write(args[0]); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Generated %d pages in %s\n", len(site.Pages), args[0])
	fmt.Fprintf(cmd.OutOrStdout(), "Disallowed %d pages in robots.txt\n", len(site.Disallowed))
	return nil
}
