package users

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/threeline/internal/common"
	"github.com/dmitrijs2005/threeline/internal/server/models"
)

// MemoryRepository keeps users in process memory.
type MemoryRepository struct {
	mu         sync.RWMutex
	clock      common.Clock
	byID       map[string]models.User
	identities map[[2]string]string
}

func NewMemoryRepository(clock common.Clock) *MemoryRepository {
	return &MemoryRepository{
		clock:      clock,
		byID:       make(map[string]models.User),
		identities: make(map[[2]string]string),
	}
}

func (r *MemoryRepository) Create(_ context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user.Email != "" {
		if _, ok := r.findEmail(user.Email); ok {
			return nil, fmt.Errorf("%w: email %s", common.ErrAlreadyExists, user.Email)
		}
	}
	if _, ok := r.byID[user.ID]; ok {
		return nil, fmt.Errorf("%w: user %s", common.ErrAlreadyExists, user.ID)
	}

	user.CreatedAt = r.clock.Now()
	r.byID[user.ID] = *user
	return user, nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &u, nil
}

func (r *MemoryRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.findEmail(email)
	if !ok || email == "" {
		return nil, common.ErrNotFound
	}
	return &u, nil
}

func (r *MemoryRepository) GetByIdentity(_ context.Context, provider, subject string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.identities[[2]string{provider, subject}]
	if !ok {
		return nil, common.ErrNotFound
	}
	u := r.byID[id]
	return &u, nil
}

func (r *MemoryRepository) LinkIdentity(_ context.Context, identity models.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[identity.UserID]; !ok {
		return fmt.Errorf("%w: user %s", common.ErrNotFound, identity.UserID)
	}
	key := [2]string{identity.Provider, identity.Subject}
	if _, ok := r.identities[key]; !ok {
		r.identities[key] = identity.UserID
	}
	return nil
}

func (r *MemoryRepository) findEmail(email string) (models.User, bool) {
	for _, u := range r.byID {
		if u.Email != "" && strings.EqualFold(u.Email, email) {
			return u, true
		}
	}
	return models.User{}, false
}
