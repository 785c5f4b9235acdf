package profile

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/khoahotran/skilldeck/adapters/event"
	"github.com/khoahotran/skilldeck/internal/domain/profile"
	"github.com/khoahotran/skilldeck/pkg/apperror"
)

func (uc *ProfileUseCase) AddSkill(ctx context.Context, ownerID uuid.UUID, name string) (uuid.UUID, error) {
	ctx, span := tracer.Start(ctx, "AddSkill")
	defer span.End()

	name = strings.TrimSpace(name)
	if name == "" {
		return uuid.Nil, apperror.NewInvalidInput(profile.ErrSkillNameEmpty.Error(), profile.ErrSkillNameEmpty)
	}

	own, err := uc.ownProfile(ctx, ownerID, errSaveProfileFirst(ownerID))
	if err != nil {
		return uuid.Nil, err
	}

	id, err := uc.profileRepo.AddSkill(ctx, own.Profile.ID, name)
	if err != nil {
		span.RecordError(err)
		return uuid.Nil, err
	}
	uc.changed(ctx, event.ProfileEventTypeSkillAdded, own.Profile, own.Profile.Username)
	return id, nil
}

func (uc *ProfileUseCase) RemoveSkill(ctx context.Context, ownerID, skillID uuid.UUID) error {
	ctx, span := tracer.Start(ctx, "RemoveSkill")
	defer span.End()

	own, err := uc.ownProfile(ctx, ownerID, errSaveProfileFirst(ownerID))
	if err != nil {
		return err
	}
	if err := uc.profileRepo.RemoveSkill(ctx, own.Profile.ID, skillID); err != nil {
		span.RecordError(err)
		return err
	}
	uc.changed(ctx, event.ProfileEventTypeSkillRemoved, own.Profile, own.Profile.Username)
	return nil
}

func (uc *ProfileUseCase) ListSkills(ctx context.Context, ownerID uuid.UUID) ([]profile.Skill, error) {
	own, err := uc.ownProfile(ctx, ownerID, errSaveProfileFirst(ownerID))
	if err != nil {
		return nil, err
	}
	return own.Skills, nil
}
