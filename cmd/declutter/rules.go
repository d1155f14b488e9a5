package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/declutter/pkg/declutter/category"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Show the categorization rule table",
	Long: `Display the ordered rule table used to categorize files.

Rules are evaluated top to bottom and the first match wins: directory
components are checked before the filename, the filename before the
extension. Files matching no rule are categorized as "other".`,
	RunE: runRules,
}

func init() {
	rootCmd.AddCommand(rulesCmd)
}

// runRules prints the categorization table.
func runRules(cmd *cobra.Command, args []string) error {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ORDER\tKIND\tPATTERN\tCATEGORY")
	for _, rule := range category.Rules() {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", rule.Order, rule.Kind, rule.Pattern, rule.Category)
	}
	return tw.Flush()
}
