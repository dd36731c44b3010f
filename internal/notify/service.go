// Package notify delivers broadcast messages to tenants and lets company
// users read and acknowledge them.
package notify

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/olehkv/backend-vzuttia/internal/common"
	"github.com/olehkv/backend-vzuttia/internal/store"
	"github.com/olehkv/backend-vzuttia/internal/tenant"
)

// Service implements notification operations over the flat-file store.
type Service struct {
	Store *store.Store
	Now   func() time.Time
}

// NewService constructs a Service.
func NewService(st *store.Store) *Service {
	return &Service{Store: st}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// List returns the company's notifications, newest first.
func (s *Service) List(ctx context.Context) ([]store.Notification, error) {
	companyID, ok := tenant.From(ctx)
	if !ok {
		return nil, common.NewAppError("COMPANY_REQUIRED", "company identifier missing", http.StatusBadRequest, nil)
	}
	var items []store.Notification
	err := s.Store.View(companyID, func(db *store.CompanyDB) error {
		items = append([]store.Notification(nil), db.Notifications...)
		return nil
	})
	if err != nil {
		return nil, storeError(err)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Date.After(items[j].Date) })
	return items, nil
}

// MarkRead acknowledges one notification.
func (s *Service) MarkRead(ctx context.Context, id string) error {
	companyID, ok := tenant.From(ctx)
	if !ok {
		return common.NewAppError("COMPANY_REQUIRED", "company identifier missing", http.StatusBadRequest, nil)
	}
	err := s.Store.Update(companyID, func(db *store.CompanyDB) error {
		for i := range db.Notifications {
			if db.Notifications[i].ID == id {
				db.Notifications[i].Read = true
				return nil
			}
		}
		return common.NewAppError("NOTIFICATION_NOT_FOUND", "notification not found", http.StatusNotFound, store.ErrNotFound)
	})
	return storeError(err)
}

// Broadcast appends the message to every target company. An empty target
// list addresses all registered companies. It returns the per-company
// notification count actually delivered.
func (s *Service) Broadcast(message string, targets []string) (int, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return 0, common.NewAppError("VALIDATION", "message is required", http.StatusUnprocessableEntity, nil)
	}
	if len(targets) == 0 {
		for _, c := range s.Store.Master().Companies {
			targets = append(targets, c.ID)
		}
	}
	delivered := 0
	var firstErr error
	for _, companyID := range targets {
		n := store.Notification{
			ID:      uuid.NewString(),
			Date:    s.now(),
			Message: message,
		}
		err := s.Store.Update(companyID, func(db *store.CompanyDB) error {
			db.Notifications = append(db.Notifications, n)
			return nil
		})
		if err != nil {
			if firstErr == nil {
				firstErr = storeError(err)
			}
			continue
		}
		delivered++
	}
	if delivered == 0 && firstErr != nil {
		return 0, firstErr
	}
	return delivered, nil
}

func storeError(err error) error {
	switch {
	case err == nil:
		return nil
	case common.IsAppError(err):
		return err
	case errors.Is(err, store.ErrCompanyNotFound):
		return common.NewAppError("COMPANY_NOT_FOUND", "unknown company", http.StatusNotFound, err)
	default:
		return err
	}
}
