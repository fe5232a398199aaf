package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/koopa0/coursechat/internal/rag"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive conversation about the course materials",
	RunE:  runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	system, _, _, err := bootstrap(ctx)
	if err != nil {
		return err
	}

	count, _ := system.Analytics()
	fmt.Printf("Coursechat ready. %d courses indexed.\n", count)
	fmt.Println("Type your question, or \"exit\" to quit.")
	fmt.Println()

	sessionID := ""
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}

		answer, err := system.Query(ctx, line, sessionID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}
		sessionID = answer.SessionID

		fmt.Println()
		fmt.Println(answer.Text)
		printSources(answer)
		fmt.Println()
	}
}

// printSources lists the course materials behind an answer, if any.
func printSources(answer *rag.Answer) {
	if len(answer.Sources) == 0 {
		return
	}
	fmt.Println("\nSources:")
	for _, src := range answer.Sources {
		if src.Link != "" {
			fmt.Printf("  - %s (%s)\n", src.Label, src.Link)
			continue
		}
		fmt.Printf("  - %s\n", src.Label)
	}
}
