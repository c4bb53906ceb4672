// Package clients lists the registered users of the site.
package clients

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/erazemk/auberge/internal/filter"
	"github.com/erazemk/auberge/internal/model"
)

// Backend lists users.
type Backend interface {
	ListUsers(ctx context.Context) ([]model.User, error)
}

// Directory holds the loaded users. It is safe for concurrent use.
type Directory struct {
	backend Backend

	mu    sync.Mutex
	users []model.User
}

// NewDirectory creates an empty directory.
func NewDirectory(backend Backend) *Directory {
	return &Directory{backend: backend}
}

// Load replaces the user list.
func (d *Directory) Load(ctx context.Context) error {
	users, err := d.backend.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("loading users: %w", err)
	}
	d.mu.Lock()
	d.users = users
	d.mu.Unlock()
	return nil
}

// Users returns a copy of the list.
func (d *Directory) Users() []model.User {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.users)
}

// Filter matches name, email and phone. An empty role keeps every role.
func (d *Directory) Filter(query, role string) []model.User {
	q := filter.Parse(query)
	d.mu.Lock()
	defer d.mu.Unlock()
	return filter.Apply(d.users, func(u model.User) bool {
		if role != "" && u.Role != role {
			return false
		}
		return q.Match(u.Name, u.Email, u.Phone)
	})
}
