package persistence

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/khoahotran/skilldeck/internal/domain/profile"
	"github.com/khoahotran/skilldeck/pkg/apperror"
	"github.com/khoahotran/skilldeck/pkg/logger"
)

type postgresLegacyProfileRepo struct {
	db     *pgxpool.Pool
	logger logger.Logger
}

func NewPostgresLegacyProfileRepo(db *pgxpool.Pool, logger logger.Logger) profile.LegacyRepository {
	return &postgresLegacyProfileRepo{db: db, logger: logger}
}

type legacyProof struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// decodeLegacySkills accepts a JSON array whose elements are either skill
// names or {"name": ...} objects. Anything else fails so the row is left
// untouched.
func decodeLegacySkills(raw []byte) ([]string, error) {
	if isJSONNull(raw) {
		return nil, nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, fmt.Errorf("legacy skills is not an array: %w", err)
	}

	names := make([]string, 0, len(elems))
	for i, elem := range elems {
		var name string
		if err := json.Unmarshal(elem, &name); err != nil {
			var obj struct {
				Name *string `json:"name"`
			}
			if err := json.Unmarshal(elem, &obj); err != nil || obj.Name == nil {
				return nil, fmt.Errorf("legacy skill %d: expected a string or an object with a name", i)
			}
			name = *obj.Name
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("legacy skill %d: empty name", i)
		}
		names = append(names, name)
	}
	return names, nil
}

func decodeLegacyProofs(raw []byte) ([]profile.ProofFields, error) {
	if isJSONNull(raw) {
		return nil, nil
	}
	var proofs []legacyProof
	if err := json.Unmarshal(raw, &proofs); err != nil {
		return nil, fmt.Errorf("legacy proofs: %w", err)
	}

	out := make([]profile.ProofFields, 0, len(proofs))
	for _, p := range proofs {
		out = append(out, profile.ProofFields{Title: p.Title, URL: p.URL})
	}
	return out, nil
}

func isJSONNull(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func (r *postgresLegacyProfileRepo) ListEmbedded(ctx context.Context, limit int) ([]profile.EmbeddedProfile, error) {
	query := `
		SELECT id, legacy_skills, legacy_proofs
		FROM profiles
		WHERE legacy_skills IS NOT NULL OR legacy_proofs IS NOT NULL
		ORDER BY created_at
		LIMIT $1
	`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, storeError("failed to query embedded profiles", err)
	}
	defer rows.Close()

	out := make([]profile.EmbeddedProfile, 0)
	for rows.Next() {
		var id uuid.UUID
		var skillsBytes, proofsBytes []byte
		if err := rows.Scan(&id, &skillsBytes, &proofsBytes); err != nil {
			return nil, apperror.NewInternal("failed to scan embedded profile", err)
		}

		ep := profile.EmbeddedProfile{ProfileID: id}
		if ep.Skills, err = decodeLegacySkills(skillsBytes); err != nil {
			r.logger.Error("Undecodable legacy_skills", err, zap.String("profile_id", id.String()))
			return nil, apperror.NewInternal(fmt.Sprintf("undecodable legacy_skills on profile %s", id), err)
		}
		if ep.Proofs, err = decodeLegacyProofs(proofsBytes); err != nil {
			r.logger.Error("Undecodable legacy_proofs", err, zap.String("profile_id", id.String()))
			return nil, apperror.NewInternal(fmt.Sprintf("undecodable legacy_proofs on profile %s", id), err)
		}
		out = append(out, ep)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("error iterating embedded profiles", err)
	}
	return out, nil
}

// MoveEmbedded copies the embedded lists into the child tables and clears
// them in one transaction, so a profile is never migrated twice.
func (r *postgresLegacyProfileRepo) MoveEmbedded(ctx context.Context, ep profile.EmbeddedProfile) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return storeError("failed to begin migration transaction", err)
	}
	defer tx.Rollback(ctx)

	if len(ep.Skills) > 0 {
		rowsToInsert := make([][]interface{}, len(ep.Skills))
		for i, name := range ep.Skills {
			rowsToInsert[i] = []interface{}{ep.ProfileID, name}
		}
		if _, err := tx.CopyFrom(ctx,
			pgx.Identifier{"profile_skills"},
			[]string{"profile_id", "name"},
			pgx.CopyFromRows(rowsToInsert),
		); err != nil {
			return storeError("failed to copy legacy skills", err)
		}
	}

	if len(ep.Proofs) > 0 {
		rowsToInsert := make([][]interface{}, len(ep.Proofs))
		for i, p := range ep.Proofs {
			rowsToInsert[i] = []interface{}{ep.ProfileID, p.Title, p.URL}
		}
		if _, err := tx.CopyFrom(ctx,
			pgx.Identifier{"profile_proofs"},
			[]string{"profile_id", "title", "url"},
			pgx.CopyFromRows(rowsToInsert),
		); err != nil {
			return storeError("failed to copy legacy proofs", err)
		}
	}

	cmdTag, err := tx.Exec(ctx, `
		UPDATE profiles
		SET legacy_skills = NULL, legacy_proofs = NULL, updated_at = NOW()
		WHERE id = $1
	`, ep.ProfileID)
	if err != nil {
		return storeError("failed to clear legacy columns", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperror.NewNotFound("profile", ep.ProfileID.String())
	}

	if err := tx.Commit(ctx); err != nil {
		return storeError("failed to commit migration transaction", err)
	}
	return nil
}
