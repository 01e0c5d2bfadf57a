package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/archsketch/archsketch/internal/gallery"
)

func newGalleryCmd() *cobra.Command {
	var dataDir string

	cmd := &cobra.Command{
		Use:   "gallery",
		Short: "Manage saved diagram artifacts",
	}
	cmd.PersistentFlags().StringVar(&dataDir, "data-dir", envOr("ARCHSKETCH_DATA_DIR", "outputs"), "Directory for the artifact gallery")

	list := &cobra.Command{
		Use:   "list",
		Short: "List saved artifacts, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withGallery(dataDir, func(store *gallery.Store) error {
				artifacts, err := store.List()
				if err != nil {
					return err
				}
				if len(artifacts) == 0 {
					fmt.Println("No artifacts.")
					return nil
				}
				for _, a := range artifacts {
					title := a.Title
					if title == "" {
						title = "(untitled)"
					}
					fmt.Printf("%s  %-7s %-7s %s  %s\n",
						a.ID, a.Engine, a.Format, a.CreatedAt.Format("2006-01-02 15:04"), title)
				}
				return nil
			})
		},
	}

	remove := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one artifact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withGallery(dataDir, func(store *gallery.Store) error {
				return store.Delete(args[0])
			})
		},
	}

	clear := &cobra.Command{
		Use:   "clear",
		Short: "Delete all artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withGallery(dataDir, func(store *gallery.Store) error {
				return store.Clear()
			})
		},
	}

	cmd.AddCommand(list, remove, clear)
	return cmd
}

func withGallery(dataDir string, fn func(*gallery.Store) error) error {
	store, err := gallery.Open(dataDir)
	if err != nil {
		return fmt.Errorf("opening gallery: %w", err)
	}
	defer func() {
		_ = store.Close()
	}()
	return fn(store)
}
