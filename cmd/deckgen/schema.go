package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/thywilljoshua/deckgen/internal/apperr"
	"github.com/thywilljoshua/deckgen/internal/deck"
)

func schemaCmd() *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of generated content",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var t *deck.DocumentType
			if !strings.EqualFold(strings.TrimSpace(kind), "slide") {
				parsed, err := deck.ParseDocumentType(kind)
				if err != nil {
					return apperr.Wrap(err, apperr.KindInvalidInput, "")
				}
				t = &parsed
			}
			b, err := json.MarshalIndent(deck.JSONSchema(t), "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "type", "presentation", "presentation|document|slide")
	return cmd
}
