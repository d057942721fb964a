package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	recordsadapter "github.com/bnema/slotbot/internal/adapters/render/records"
	"github.com/bnema/slotbot/internal/domain"
	"github.com/spf13/cobra"
)

type recordJSON struct {
	Value      int64     `json:"value"`
	SessionID  int       `json:"session_id"`
	RunID      string    `json:"run_id"`
	SetAt      time.Time `json:"set_at"`
	Artifacts  []string  `json:"artifacts"`
	Transcript string    `json:"transcript"`
}

func newRecordsCmd(state *appState) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "records",
		Short: "List persisted high score records, newest first",
		Args:  cobra.NoArgs,
		RunE: withApp(state, func(cmd *cobra.Command, _ []string, app *app) error {
			records, err := app.recordService.ListRecords(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if asJSON {
				return writeRecordsJSON(cmd.OutOrStdout(), records)
			}

			out, err := app.recordsRenderer(records, recordsadapter.RenderOptions{Now: app.now()})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		}),
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Show at most this many records (default: all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")
	cmd.AddCommand(newRecordsBestCmd(state))

	return cmd
}

func newRecordsBestCmd(state *appState) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "best",
		Short: "Show the highest persisted record",
		Args:  cobra.NoArgs,
		RunE: withApp(state, func(cmd *cobra.Command, _ []string, app *app) error {
			record, err := app.recordService.BestRecord(cmd.Context())
			if errors.Is(err, domain.ErrRecordNotFound) {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "No records yet.")
				return err
			}
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), toRecordJSON(record))
			}

			out, err := app.recordsRenderer([]domain.Record{record}, recordsadapter.RenderOptions{Now: app.now()})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		}),
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

func writeRecordsJSON(w io.Writer, records []domain.Record) error {
	payload := make([]recordJSON, 0, len(records))
	for _, record := range records {
		payload = append(payload, toRecordJSON(record))
	}
	return writeJSON(w, payload)
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

func toRecordJSON(record domain.Record) recordJSON {
	artifacts := record.Artifacts
	if artifacts == nil {
		artifacts = []string{}
	}

	return recordJSON{
		Value:      record.Value,
		SessionID:  int(record.SessionID),
		RunID:      string(record.RunID),
		SetAt:      record.SetAt.UTC(),
		Artifacts:  artifacts,
		Transcript: record.Transcript,
	}
}
