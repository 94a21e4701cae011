package ledger

import (
	"sync"
	"time"
)

type userEntry struct {
	user     User
	accounts *AccountStore
}

// Directory is the registry of users and their account stores. It is built
// empty by the serving process and owned by it; nothing is process-global.
type Directory struct {
	mu          sync.RWMutex
	users       map[string]*userEntry
	ids         IDGenerator
	now         func() time.Time
	maxAttempts int
	storeCfg    StoreConfig
}

func NewDirectory(ids IDGenerator, opts ...Option) *Directory {
	s := newSettings(opts)
	return &Directory{
		users:       make(map[string]*userEntry),
		ids:         ids,
		now:         s.now,
		maxAttempts: s.idAttempts,
		storeCfg: StoreConfig{
			SortCode: s.sortCode,
			Currency: s.currency,
			Now:      s.now,
		}.withDefaults(),
	}
}

// Create validates the profile and registers a user under a fresh id.
func (d *Directory) Create(profile UserProfile) (User, error) {
	if err := profile.Validate(); err != nil {
		return User{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	id, err := issueUnique(UserIDPrefix, d.maxAttempts, d.ids.NewUserID, func(id string) bool {
		_, ok := d.users[id]
		return ok
	})
	if err != nil {
		return User{}, err
	}

	now := d.now()
	user := User{
		ID:          id,
		Name:        profile.Name,
		Address:     profile.Address,
		PhoneNumber: profile.PhoneNumber,
		Email:       profile.Email,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	d.users[id] = &userEntry{
		user:     user,
		accounts: NewAccountStore(id, d.storeCfg),
	}
	return user, nil
}

func (d *Directory) Get(id string) (User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	entry, ok := d.users[id]
	if !ok {
		return User{}, &NotFoundError{Entity: EntityUser, Key: id}
	}
	return entry.user, nil
}

// Accounts returns the user's account store.
func (d *Directory) Accounts(id string) (*AccountStore, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	entry, ok := d.users[id]
	if !ok {
		return nil, &NotFoundError{Entity: EntityUser, Key: id}
	}
	return entry.accounts, nil
}

// Update applies the non-nil fields of patch. The patched profile must still
// be valid as a whole.
func (d *Directory) Update(id string, patch UserPatch) (User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	entry, ok := d.users[id]
	if !ok {
		return User{}, &NotFoundError{Entity: EntityUser, Key: id}
	}

	profile := patch.applyTo(entry.user.profile())
	if err := profile.Validate(); err != nil {
		return User{}, err
	}

	entry.user.Name = profile.Name
	entry.user.Address = profile.Address
	entry.user.PhoneNumber = profile.PhoneNumber
	entry.user.Email = profile.Email
	entry.user.UpdatedAt = d.now()
	return entry.user, nil
}

// Delete removes the user together with all of its accounts.
func (d *Directory) Delete(id string) error {
	d.mu.Lock()
	entry, ok := d.users[id]
	if !ok {
		d.mu.Unlock()
		return &NotFoundError{Entity: EntityUser, Key: id}
	}
	delete(d.users, id)
	d.mu.Unlock()

	entry.accounts.closeAll()
	return nil
}

func (d *Directory) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.users)
}
