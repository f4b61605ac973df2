package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show collection status",
	Long:  `Connect to Qdrant and report the configured collection's point count and vector size.`,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	app, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	info, err := app.store.Info(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("Collection:  %s\n", info.Name)
	fmt.Printf("Points:      %d\n", info.PointCount)
	fmt.Printf("Vector size: %d\n", info.VectorSize)
	return nil
}
