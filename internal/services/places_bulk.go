package services

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/localnerve/voternet/internal/models"
	"gorm.io/gorm"
)

const maxNormalizedCode = 20

// "Display Name {{ CODE }}" names an existing child to rename.
var existingCodeLine = regexp.MustCompile(`^(.*?)\s*\{\{\s*([^{}\s]+)\s*\}\}\s*$`)

// BulkResult counts the children touched by BulkAddPlaces.
type BulkResult struct {
	Added   []models.Place `json:"added"`
	Updated []models.Place `json:"updated"`
}

// BulkAddPlaces applies a newline separated list of children to parent. A line ending in
// "{{ code }}" renames the existing child with that code; any other line creates a child of
// the next type with a code derived from its name. Either every line applies or none does.
func (s *PlaceStore) BulkAddPlaces(ctx context.Context, actor *models.Person, parent *models.Place, text string) (BulkResult, error) {
	childType, ok := parent.Type.Next()
	if !ok {
		return BulkResult{}, NewValidationError("places", "a %s has no children", parent.Type)
	}
	col, _ := parent.Type.Column()

	var res BulkResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken := make(map[string]bool)
		for n, raw := range strings.Split(text, "\n") {
			line := strings.TrimSpace(raw)
			if line == "" {
				continue
			}

			if m := existingCodeLine.FindStringSubmatch(line); m != nil {
				name, code := strings.TrimSpace(m[1]), m[2]
				var child models.Place
				err := tx.Where(col+" = ? AND type = ? AND code = ?", parent.ID, childType, code).First(&child).Error
				if err != nil {
					return notFound(err, fmt.Sprintf("line %d: %s %s under %s", n+1, childType, code, parent.Key))
				}
				if name != "" && name != child.Name {
					if err := tx.Model(&child).Update("name", name).Error; err != nil {
						return err
					}
					child.Name = name
				}
				res.Updated = append(res.Updated, child)
				continue
			}

			code, err := freeCode(tx, parent, childType, normalizeCode(line), taken)
			if err != nil {
				return err
			}
			taken[code] = true

			child := models.Place{Key: parent.Key + "/" + code, Type: childType, Code: code, Name: line}
			child.InheritFrom(parent)
			if err := tx.Create(&child).Error; err != nil {
				return fmt.Errorf("line %d: %w", n+1, err)
			}
			res.Added = append(res.Added, child)
		}

		if s.ledger != nil && (len(res.Added) > 0 || len(res.Updated) > 0) {
			return s.ledger.RecordActivity(ctx, tx, parent, models.ActivityPlacesAdded, actor, map[string]any{
				"added":   len(res.Added),
				"updated": len(res.Updated),
			})
		}
		return nil
	})
	if err != nil {
		return BulkResult{}, fmt.Errorf("bulk add under %s: %w", parent.Key, err)
	}

	stale := []*models.Place{parent}
	for i := range res.Added {
		stale = append(stale, &res.Added[i])
	}
	for i := range res.Updated {
		stale = append(stale, &res.Updated[i])
	}
	s.invalidate(stale...)
	s.index(ctx, append(append([]models.Place{}, res.Added...), res.Updated...)...)
	return res, nil
}

// normalizeCode keeps the lowercased letters of name, truncated.
func normalizeCode(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) && r < unicode.MaxASCII {
			b.WriteRune(r)
			if b.Len() == maxNormalizedCode {
				break
			}
		}
	}
	return b.String()
}

// freeCode returns base, or base with the smallest numeric suffix that is not yet used
// under parent. An empty base falls back to the sequential code of the type.
func freeCode(tx *gorm.DB, parent *models.Place, t models.PlaceType, base string, taken map[string]bool) (string, error) {
	if base == "" {
		next, err := nextCode(tx, parent, t)
		if err != nil {
			return "", err
		}
		base = next
	}
	for i := 1; ; i++ {
		code := base
		if i > 1 {
			code = base + strconv.Itoa(i)
		}
		if taken[code] {
			continue
		}
		var n int64
		if err := tx.Model(&models.Place{}).Where(keyIs(parent.Key + "/" + code)).Count(&n).Error; err != nil {
			return "", err
		}
		if n == 0 {
			return code, nil
		}
	}
}
