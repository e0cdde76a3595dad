package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var postsJSON bool

var postsCmd = &cobra.Command{
	Use:   "posts",
	Short: "Print the latest posts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		_, postsService := newServices(cfg)
		posts, err := postsService.FetchPosts(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to fetch posts: %w", err)
		}

		out := cmd.OutOrStdout()
		if postsJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(posts)
		}

		for _, post := range posts {
			fmt.Fprintf(out, "%s\n%s\n\n", strings.TrimSpace(post.FirstName+" "+post.LastName), post.Writeup)
		}
		return nil
	},
}

func init() {
	postsCmd.Flags().BoolVar(&postsJSON, "json", false, "print posts as JSON")
}
