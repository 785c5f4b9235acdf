package profile

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/khoahotran/skilldeck/adapters/event"
	"github.com/khoahotran/skilldeck/internal/domain/profile"
)

// AddProof accepts an empty title and URL: the editor adds a blank entry
// and fills it in afterwards.
func (uc *ProfileUseCase) AddProof(ctx context.Context, ownerID uuid.UUID, fields profile.ProofFields) (uuid.UUID, error) {
	ctx, span := tracer.Start(ctx, "AddProof")
	defer span.End()

	own, err := uc.ownProfile(ctx, ownerID, errSaveProfileFirst(ownerID))
	if err != nil {
		return uuid.Nil, err
	}

	fields.Title = strings.TrimSpace(fields.Title)
	fields.URL = strings.TrimSpace(fields.URL)
	id, err := uc.profileRepo.AddProof(ctx, own.Profile.ID, fields)
	if err != nil {
		span.RecordError(err)
		return uuid.Nil, err
	}
	uc.changed(ctx, event.ProfileEventTypeProofAdded, own.Profile, own.Profile.Username)
	return id, nil
}

func (uc *ProfileUseCase) UpdateProof(ctx context.Context, ownerID, proofID uuid.UUID, update profile.ProofUpdate) error {
	ctx, span := tracer.Start(ctx, "UpdateProof")
	defer span.End()

	own, err := uc.ownProfile(ctx, ownerID, errSaveProfileFirst(ownerID))
	if err != nil {
		return err
	}
	if err := uc.profileRepo.UpdateProof(ctx, own.Profile.ID, proofID, update); err != nil {
		span.RecordError(err)
		return err
	}
	uc.changed(ctx, event.ProfileEventTypeProofUpdated, own.Profile, own.Profile.Username)
	return nil
}

func (uc *ProfileUseCase) RemoveProof(ctx context.Context, ownerID, proofID uuid.UUID) error {
	ctx, span := tracer.Start(ctx, "RemoveProof")
	defer span.End()

	own, err := uc.ownProfile(ctx, ownerID, errSaveProfileFirst(ownerID))
	if err != nil {
		return err
	}
	if err := uc.profileRepo.RemoveProof(ctx, own.Profile.ID, proofID); err != nil {
		span.RecordError(err)
		return err
	}
	uc.changed(ctx, event.ProfileEventTypeProofRemoved, own.Profile, own.Profile.Username)
	return nil
}

func (uc *ProfileUseCase) ListProofs(ctx context.Context, ownerID uuid.UUID) ([]profile.ProofOfWork, error) {
	own, err := uc.ownProfile(ctx, ownerID, errSaveProfileFirst(ownerID))
	if err != nil {
		return nil, err
	}
	return own.Proofs, nil
}
