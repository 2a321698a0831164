// Package loader reads places and people from CSV and TSV files.
package loader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/localnerve/voternet/internal/models"
	"github.com/localnerve/voternet/internal/services"
)

// File names read by LoadState.
const (
	PCFile    = "pc.csv"
	ACFile    = "ac.csv"
	BoothFile = "polling_booths.csv"
)

// placeholder details of a bootstrapped admin, fixed by the admin on first login
const (
	adminName  = "Fix Your Name"
	adminPhone = "0000000000"
)

var badNameChars = regexp.MustCompile(`[^A-Za-z0-9 .-]+`)

// Stats counts the rows seen by a load.
type Stats struct {
	Added   int `json:"added"`
	Skipped int `json:"skipped"`
}

func (s *Stats) add(o Stats) {
	s.Added += o.Added
	s.Skipped += o.Skipped
}

// Loader creates places and people from files. Every load can be repeated: rows that
// already exist are skipped.
type Loader struct {
	places *services.PlaceStore
	people *services.PersonStore
	log    *slog.Logger
}

// New creates a Loader.
func New(places *services.PlaceStore, people *services.PersonStore, log *slog.Logger) *Loader {
	return &Loader{places: places, people: people, log: log}
}

// LoadState creates the state code, if missing, and the parliamentary constituencies,
// assembly constituencies and polling booths listed in dir.
func (l *Loader) LoadState(ctx context.Context, dir fs.FS, code, name string) (Stats, error) {
	var total Stats
	state, err := l.places.FindByKey(ctx, code)
	if errors.Is(err, services.ErrNotFound) {
		state, err = l.places.AddRoot(ctx, models.PlaceTypeState, code, name)
		total.Added++
	}
	if err != nil {
		return total, err
	}

	steps := []struct {
		file string
		load func(context.Context, *models.Place, [][]string) (Stats, error)
	}{
		{PCFile, l.loadPCs},
		{ACFile, l.loadACs},
		{BoothFile, l.loadBooths},
	}
	for _, step := range steps {
		rows, err := readCSV(dir, step.file)
		if err != nil {
			return total, err
		}
		s, err := step.load(ctx, &state, rows)
		total.add(s)
		if err != nil {
			return total, fmt.Errorf("%s: %w", step.file, err)
		}
		l.log.Info("loaded places", "file", step.file, "state", state.Key, "added", s.Added, "skipped", s.Skipped)
	}
	return total, nil
}

// pc_code, pc_name
func (l *Loader) loadPCs(ctx context.Context, state *models.Place, rows [][]string) (Stats, error) {
	existing, err := l.childrenByCode(ctx, state, models.PlaceTypePC)
	if err != nil {
		return Stats{}, err
	}
	var s Stats
	for i, row := range rows {
		if len(row) < 2 {
			return s, fmt.Errorf("row %d: want pc_code, pc_name", i+1)
		}
		code := FormatCode(models.PlaceTypePC, row[0])
		if _, ok := existing[code]; ok {
			s.Skipped++
			continue
		}
		p, err := l.places.AddSubplace(ctx, state, row[0]+" - "+row[1], models.PlaceTypePC, code)
		if err != nil {
			return s, fmt.Errorf("row %d: %w", i+1, err)
		}
		existing[code] = p
		s.Added++
	}
	return s, nil
}

// pc_code, ac_code, ac_name
func (l *Loader) loadACs(ctx context.Context, state *models.Place, rows [][]string) (Stats, error) {
	pcs, err := l.childrenByCode(ctx, state, models.PlaceTypePC)
	if err != nil {
		return Stats{}, err
	}
	existing, err := l.childrenByCode(ctx, state, models.PlaceTypeAC)
	if err != nil {
		return Stats{}, err
	}
	var s Stats
	for i, row := range rows {
		if len(row) < 3 {
			return s, fmt.Errorf("row %d: want pc_code, ac_code, ac_name", i+1)
		}
		code := FormatCode(models.PlaceTypeAC, row[1])
		if _, ok := existing[code]; ok {
			s.Skipped++
			continue
		}
		pc, ok := pcs[FormatCode(models.PlaceTypePC, row[0])]
		if !ok {
			return s, fmt.Errorf("row %d: PC %s: %w", i+1, row[0], services.ErrNotFound)
		}
		p, err := l.places.AddSubplace(ctx, &pc, row[1]+" - "+row[2], models.PlaceTypeAC, code)
		if err != nil {
			return s, fmt.Errorf("row %d: %w", i+1, err)
		}
		existing[code] = p
		s.Added++
	}
	return s, nil
}

// ac_code, pb_code, pb_name
func (l *Loader) loadBooths(ctx context.Context, state *models.Place, rows [][]string) (Stats, error) {
	acs, err := l.childrenByCode(ctx, state, models.PlaceTypeAC)
	if err != nil {
		return Stats{}, err
	}
	booths := map[uint]map[string]models.Place{}
	var s Stats
	for i, row := range rows {
		if len(row) < 3 {
			return s, fmt.Errorf("row %d: want ac_code, pb_code, pb_name", i+1)
		}
		ac, ok := acs[FormatCode(models.PlaceTypeAC, row[0])]
		if !ok {
			return s, fmt.Errorf("row %d: AC %s: %w", i+1, row[0], services.ErrNotFound)
		}
		existing, ok := booths[ac.ID]
		if !ok {
			if existing, err = l.childrenByCode(ctx, &ac, models.PlaceTypePB); err != nil {
				return s, err
			}
			booths[ac.ID] = existing
		}
		code := FormatCode(models.PlaceTypePB, row[1])
		if _, ok := existing[code]; ok {
			s.Skipped++
			continue
		}
		p, err := l.places.AddSubplace(ctx, &ac, row[1]+" - "+row[2], models.PlaceTypePB, code)
		if err != nil {
			return s, fmt.Errorf("row %d: %w", i+1, err)
		}
		existing[code] = p
		s.Added++
	}
	return s, nil
}

func (l *Loader) childrenByCode(ctx context.Context, parent *models.Place, t models.PlaceType) (map[string]models.Place, error) {
	children, err := l.places.Children(ctx, parent, t)
	if err != nil {
		return nil, err
	}
	out := make(map[string]models.Place, len(children))
	for _, c := range children {
		out[c.Code] = c
	}
	return out, nil
}

// FormatCode turns a numeric code from the election commission files into the code used
// for places, so AC 7 becomes AC007 and booth 119 becomes PB0119. Other codes are kept.
func FormatCode(t models.PlaceType, raw string) string {
	raw = strings.TrimSpace(raw)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return raw
	}
	switch t {
	case models.PlaceTypePC:
		return fmt.Sprintf("PC%02d", n)
	case models.PlaceTypeAC:
		return fmt.Sprintf("AC%03d", n)
	case models.PlaceTypePB:
		return fmt.Sprintf("PB%04d", n)
	}
	return raw
}

// AddAdmin attaches email to the state as an admin, unless it already is one there.
func (l *Loader) AddAdmin(ctx context.Context, stateKey, email string) (models.Person, bool, error) {
	state, err := l.places.FindByKey(ctx, stateKey)
	if err != nil {
		return models.Person{}, false, err
	}
	people, err := l.people.FindByEmail(ctx, email)
	if err != nil {
		return models.Person{}, false, err
	}
	for _, p := range people {
		if p.PlaceID == state.ID && p.Role == models.RoleAdmin {
			return p, false, nil
		}
	}
	p, err := l.people.AddVolunteer(ctx, nil, &state, services.VolunteerInput{
		Name: adminName, Email: email, Phone: adminPhone, Role: string(models.RoleAdmin),
	})
	return p, err == nil, err
}

func readCSV(dir fs.FS, name string) ([][]string, error) {
	f, err := dir.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parse(f, ',')
}

// parse reads delimited records, trimming cells, dropping blank lines and a header row
// whose first cell ends in "code".
func parse(r io.Reader, comma rune) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	var out [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		blank := true
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
			if rec[i] != "" {
				blank = false
			}
		}
		if blank {
			continue
		}
		if len(out) == 0 && strings.HasSuffix(strings.ToLower(rec[0]), "code") {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// Contact is one line of a name, phone, email TSV file.
type Contact struct {
	Name  string
	Phone string
	Email string
}

// ReadContacts parses tab separated name, phone and email lines. Characters other than
// letters, digits, spaces, dots and dashes are removed from names.
func ReadContacts(r io.Reader) ([]Contact, error) {
	rows, err := parse(r, '\t')
	if err != nil {
		return nil, err
	}
	out := make([]Contact, 0, len(rows))
	for i, row := range rows {
		if len(row) < 2 {
			return nil, fmt.Errorf("line %d: want name, phone and optionally email", i+1)
		}
		c := Contact{
			Name:  strings.TrimSpace(badNameChars.ReplaceAllString(row[0], "")),
			Phone: row[1],
		}
		if len(row) > 2 {
			c.Email = row[2]
		}
		out = append(out, c)
	}
	return out, nil
}
