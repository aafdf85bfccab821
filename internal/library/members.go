package library

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/mrlokans/librarian/internal/database"
	"github.com/mrlokans/librarian/internal/database/loans"
	"github.com/mrlokans/librarian/internal/database/members"
	"github.com/mrlokans/librarian/internal/entities"
)

// NewMember is the input of AddMember. Empty optional fields are stored as NULL.
type NewMember struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Address  string `json:"address"`
}

// Membership manages library members.
type Membership struct {
	db    *database.Database
	clock Clock
}

// NewMembership creates a membership manager.
func NewMembership(db *database.Database, clock Clock) *Membership {
	return &Membership{db: db, clock: clock}
}

// AddMember registers an active member joining today.
func (m *Membership) AddMember(ctx context.Context, in NewMember) (*entities.Member, error) {
	name := strings.TrimSpace(in.FullName)
	if utf8.RuneCountInString(name) < minTextLength {
		return nil, validationf("full name must be at least %d characters", minTextLength)
	}

	member := &entities.Member{
		FullName: name,
		Phone:    optional(in.Phone),
		Email:    optional(in.Email),
		Address:  optional(in.Address),
		JoinDate: m.clock.Now(),
		IsActive: true,
	}
	if err := members.NewRepository(m.db.DB.WithContext(ctx)).Create(member); err != nil {
		return nil, storeError("add member", err)
	}
	return member, nil
}

// DeactivateMember marks a member inactive. Members holding an open loan
// cannot be deactivated; deactivating an inactive member is a no-op.
func (m *Membership) DeactivateMember(ctx context.Context, id uint) error {
	return inTx(ctx, m.db, "deactivate member", func(tx *gorm.DB) error {
		repo := members.NewRepository(tx)
		member, err := repo.GetByIDForUpdate(id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundf("member %d not found", id)
			}
			return err
		}
		if !member.IsActive {
			return nil
		}

		open, err := loans.NewRepository(tx).HasOpenForMember(id)
		if err != nil {
			return err
		}
		if open {
			return conflictf("member %q still has books on loan", member.FullName)
		}
		return repo.Deactivate(id)
	})
}

// GetMember returns a single member, active or not.
func (m *Membership) GetMember(ctx context.Context, id uint) (*entities.Member, error) {
	member, err := members.NewRepository(m.db.DB.WithContext(ctx)).GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundf("member %d not found", id)
		}
		return nil, storeError("get member", err)
	}
	return member, nil
}

// ListActiveMembers returns active members ordered by name.
func (m *Membership) ListActiveMembers(ctx context.Context) ([]entities.Member, error) {
	list, err := members.NewRepository(m.db.DB.WithContext(ctx)).ListActive()
	if err != nil {
		return nil, storeError("list members", err)
	}
	return list, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
