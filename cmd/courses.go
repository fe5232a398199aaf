package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var coursesCmd = &cobra.Command{
	Use:   "courses",
	Short: "List the indexed courses",
	RunE:  runCourses,
}

func init() {
	rootCmd.AddCommand(coursesCmd)
}

func runCourses(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	system, _, _, err := bootstrap(ctx)
	if err != nil {
		return err
	}

	count, titles := system.Analytics()
	if count == 0 {
		fmt.Println("No courses indexed. Run \"coursechat ingest\" first.")
		return nil
	}

	fmt.Printf("Indexed courses (%d):\n", count)
	for _, title := range titles {
		fmt.Printf("  - %s\n", title)
	}
	return nil
}
