// Package export writes volunteer lists as spreadsheets.
package export

import (
	"fmt"
	"io"

	"github.com/localnerve/voternet/internal/models"
	"github.com/xuri/excelize/v2"
)

const (
	volunteerSheet = "Volunteers"
	placeSheet     = "Places"
)

var volunteerHeader = []string{"Place", "Place Name", "Name", "Email", "Phone", "Voter ID", "Role", "Notes", "Added"}

var placeHeader = []string{"Key", "Type", "Code", "Name", "Volunteers"}

// ContentType is the media type of the written workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// WriteVolunteers writes an xlsx workbook with one row per person and one row per place.
// People whose place is not in places are listed with an empty place.
func WriteVolunteers(w io.Writer, places []models.Place, people []models.Person) error {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	byID := make(map[uint]models.Place, len(places))
	perPlace := make(map[uint]int, len(places))
	for _, p := range places {
		byID[p.ID] = p
	}
	for _, p := range people {
		perPlace[p.PlaceID]++
	}

	if err := f.SetSheetName("Sheet1", volunteerSheet); err != nil {
		return err
	}
	sw, err := f.NewStreamWriter(volunteerSheet)
	if err != nil {
		return err
	}
	if err := sw.SetColWidth(1, 2, 28); err != nil {
		return err
	}
	if err := sw.SetColWidth(3, len(volunteerHeader), 18); err != nil {
		return err
	}
	if err := sw.SetRow("A1", header(volunteerHeader, bold)); err != nil {
		return err
	}
	for i, p := range people {
		place := byID[p.PlaceID]
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []interface{}{place.Key, place.Name, p.Name, p.Email, p.Phone, p.VoterID, string(p.Role), p.Notes, p.CreatedAt.Format(models.DateLayout)}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("volunteer row %d: %w", i+1, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}

	if _, err := f.NewSheet(placeSheet); err != nil {
		return err
	}
	sw, err = f.NewStreamWriter(placeSheet)
	if err != nil {
		return err
	}
	if err := sw.SetColWidth(1, 1, 32); err != nil {
		return err
	}
	if err := sw.SetRow("A1", header(placeHeader, bold)); err != nil {
		return err
	}
	for i, p := range places {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := sw.SetRow(cell, []interface{}{p.Key, string(p.Type), p.Code, p.Name, perPlace[p.ID]}); err != nil {
			return fmt.Errorf("place row %d: %w", i+1, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}

	return f.Write(w)
}

func header(names []string, style int) []interface{} {
	row := make([]interface{}, len(names))
	for i, n := range names {
		row[i] = excelize.Cell{StyleID: style, Value: n}
	}
	return row
}
