package sheetsclient

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jakechorley/youth-roster-sync/pkg/core/model"
)

// Roster sheet columns, in order
const (
	colName = iota
	colCourse
	colBirthday
	colPhone
	colResidence
	colEmail
	colParticipation
	colPhotoURL
	colVideoURL
	columnCount
)

// minPopulatedColumns is the number of cells a row needs before it is treated as a member.
// The video column is optional.
const minPopulatedColumns = colVideoURL

// FetchRows reads every member row of the spreadsheet at url in a single request.
// The header row is skipped and rows with too few cells are logged and dropped.
func (c *Client) FetchRows(ctx context.Context, url string, progress model.ProgressFunc) ([]model.SheetRow, error) {
	spreadsheetID, ok := ExtractSpreadsheetID(url)
	if !ok {
		return nil, fmt.Errorf("%w: no spreadsheet id in %q", ErrInvalidSpreadsheet, url)
	}

	c.logger.Debug("Fetching roster rows",
		zap.String("spreadsheet_id", spreadsheetID),
		zap.String("range", c.sheetRange))

	values, err := c.GetValues(ctx, spreadsheetID, c.sheetRange)
	if err != nil {
		return nil, fmt.Errorf("failed to get roster data: %w", err)
	}

	rows := parseMemberRows(values, c.logger, progress)

	c.logger.Info("Fetched roster rows",
		zap.String("spreadsheet_id", spreadsheetID),
		zap.Int("raw_rows", len(values)),
		zap.Int("member_rows", len(rows)))

	return rows, nil
}

// parseMemberRows converts raw spreadsheet data into sheet rows
func parseMemberRows(raw [][]interface{}, logger *zap.Logger, progress model.ProgressFunc) []model.SheetRow {
	if len(raw) < 2 {
		// Header only, or nothing at all
		return []model.SheetRow{}
	}

	dataRows := raw[1:]
	rows := make([]model.SheetRow, 0, len(dataRows))

	for i, raw := range dataRows {
		index := i + 1

		if len(raw) < minPopulatedColumns {
			logger.Warn("Skipping roster row with missing columns",
				zap.Int("row", index),
				zap.Int("columns", len(raw)),
				zap.Int("required", minPopulatedColumns))
			continue
		}

		cells := make([]string, columnCount)
		for col := 0; col < columnCount && col < len(raw); col++ {
			cells[col] = cellString(raw[col])
		}

		row := model.SheetRow{
			Index:         index,
			Name:          cells[colName],
			Course:        cells[colCourse],
			Birthday:      cells[colBirthday],
			Phone:         cells[colPhone],
			Residence:     cells[colResidence],
			Email:         cells[colEmail],
			Participation: cells[colParticipation],
			PhotoURL:      cells[colPhotoURL],
			VideoURL:      cells[colVideoURL],
		}

		progress.Report(model.Progress{
			Stage:   model.StageFetching,
			Message: fmt.Sprintf("Processing %s", row.Name),
			Row:     index,
			Total:   len(dataRows),
		})

		rows = append(rows, row)
	}

	return rows
}

// cellString coerces a cell value into a trimmed string
func cellString(cell interface{}) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
