package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/localnerve/voternet/internal/electoralroll"
	"github.com/localnerve/voternet/internal/models"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VoterInfo returns the stored electoral roll entry for voterID.
func (s *PersonStore) VoterInfo(ctx context.Context, voterID string) (models.VoterIDInfo, error) {
	var info models.VoterIDInfo
	err := s.read(ctx).Where("voterid = ?", strings.ToUpper(strings.TrimSpace(voterID))).First(&info).Error
	if err != nil {
		return models.VoterIDInfo{}, notFound(err, "voter id "+voterID)
	}
	return info, nil
}

// PopulateVoterIDInfo resolves person's voter id to a polling booth, fetching it from the
// electoral roll when it is not stored yet. A polling booth agent attached to another
// booth is moved to the resolved one. Lookup failures are logged and treated as no data.
func (s *PersonStore) PopulateVoterIDInfo(ctx context.Context, actor *models.Person, person *models.Person) error {
	if person.VoterID == "" {
		return nil
	}

	// the shared lookup outlives any one caller; each caller waits on its own ctx
	shared := context.WithoutCancel(ctx)
	ch := s.lookups.DoChan(person.VoterID, func() (any, error) {
		return s.resolveVoterID(shared, person)
	})
	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return ctx.Err()
	}
	if res.Err != nil {
		return res.Err
	}
	info, _ := res.Val.(*models.VoterIDInfo)
	if info == nil || info.PBID == nil {
		return nil
	}

	if person.Role != models.RolePBAgent || person.PlaceID == *info.PBID {
		return nil
	}
	s.log.Info("moving polling booth agent to their booth", "person", person.ID, "from", person.PlaceID, "to", *info.PBID)
	return s.Update(ctx, actor, person, PersonUpdate{PlaceID: info.PBID})
}

func (s *PersonStore) resolveVoterID(ctx context.Context, person *models.Person) (*models.VoterIDInfo, error) {
	voterID := person.VoterID

	var info models.VoterIDInfo
	err := s.read(ctx).Where("voterid = ?", voterID).First(&info).Error
	if err == nil {
		return &info, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if s.lookup == nil {
		return nil, nil
	}
	voter, err := s.lookup.FetchVoter(ctx, voterID)
	if err != nil {
		s.log.Warn("electoral roll lookup failed", "voterid", voterID, "error", fmt.Errorf("%w: %w", ErrExternalLookup, err))
		return nil, nil
	}
	if voter == nil {
		s.log.Info("voter id not on the electoral roll", "voterid", voterID)
		return nil, nil
	}

	info = models.VoterIDInfo{
		VoterID:  voterID,
		ACNum:    voter.ACNum,
		PartNo:   voter.PartNo,
		SerialNo: voter.SerialNo,
		Name:     voter.Name(),
		RelName:  voter.RelName(),
		Gender:   voter.Gender,
		Age:      voter.Age,
	}
	if pb, err := s.findBooth(ctx, person, voter); err == nil {
		id := pb.ID
		info.PBID = &id
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// another request may have stored the same voter id while we were fetching
		var n int64
		if err := tx.Model(&models.VoterIDInfo{}).Where("voterid = ?", voterID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&info).Error; err != nil {
				return err
			}
		}
		return tx.Where("voterid = ?", voterID).First(&info).Error
	})
	if err != nil {
		return nil, fmt.Errorf("store voter id %s: %w", voterID, err)
	}
	return &info, nil
}

// findBooth maps an electoral roll entry to a polling booth in the person's state.
func (s *PersonStore) findBooth(ctx context.Context, person *models.Person, voter *electoralroll.Voter) (models.Place, error) {
	acNum, err := strconv.Atoi(strings.TrimSpace(voter.ACNum))
	if err != nil {
		return models.Place{}, fmt.Errorf("assembly constituency %q: %w", voter.ACNum, ErrNotFound)
	}
	partNo, err := strconv.Atoi(strings.TrimSpace(voter.PartNo))
	if err != nil {
		return models.Place{}, fmt.Errorf("part %q: %w", voter.PartNo, ErrNotFound)
	}

	q := s.read(ctx).Where("type = ? AND code = ?", models.PlaceTypeAC, fmt.Sprintf("AC%03d", acNum))
	if home, err := s.places.FindByID(ctx, person.PlaceID); err == nil {
		if home.Type == models.PlaceTypeState {
			q = q.Where("state_id = ?", home.ID)
		} else if home.StateID != nil {
			q = q.Where("state_id = ?", *home.StateID)
		}
	}

	var ac models.Place
	if err := q.Order("id").First(&ac).Error; err != nil {
		return models.Place{}, notFound(err, fmt.Sprintf("AC%03d", acNum))
	}
	var pb models.Place
	if err := s.read(ctx).Where("type = ? AND ac_id = ? AND code = ?", models.PlaceTypePB, ac.ID, fmt.Sprintf("PB%04d", partNo)).
		First(&pb).Error; err != nil {
		return models.Place{}, notFound(err, fmt.Sprintf("%s/PB%04d", ac.Key, partNo))
	}
	return pb, nil
}
