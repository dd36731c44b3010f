package admin

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"

	"github.com/olehkv/backend-vzuttia/internal/common"
	"github.com/olehkv/backend-vzuttia/internal/pricing"
	"github.com/olehkv/backend-vzuttia/internal/store"
)

// CompanyInput provisions a new tenant.
type CompanyInput struct {
	ID           string           `json:"id" validate:"required,alphanum,lowercase"`
	Name         string           `json:"name" validate:"required"`
	MainCurrency pricing.Currency `json:"mainCurrency"`
}

// UserInput provisions a company user.
type UserInput struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

// UserView is a user without the credential hash.
type UserView struct {
	ID    string `json:"id"`
	Login string `json:"login"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// Service implements admin operations over the flat-file store.
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

// ListCompanies returns the tenant registry.
func (s *Service) ListCompanies() []store.Company {
	return s.Store.Master().Companies
}

// CreateCompany provisions a tenant with default settings.
func (s *Service) CreateCompany(input CompanyInput) (store.Company, error) {
	id := strings.ToLower(strings.TrimSpace(input.ID))
	name := strings.TrimSpace(input.Name)
	if id == "" || name == "" {
		return store.Company{}, common.NewAppError("VALIDATION", "company id and name are required", http.StatusUnprocessableEntity, nil)
	}
	main := input.MainCurrency
	if main == "" {
		main = pricing.USD
	}
	if !pricing.Supported(main) {
		return store.Company{}, common.NewAppError("VALIDATION", "unsupported currency", http.StatusUnprocessableEntity, nil)
	}
	company := store.Company{ID: id, Name: name, IsActive: true, Created: s.now()}
	err := s.Store.CreateCompany(company, store.CompanyDB{Settings: store.Settings{
		MainCurrency:       main,
		DefaultPrintCopies: 2,
		SizeGrids: []store.SizeGrid{
			{ID: 1, From: 36, To: 41},
			{ID: 2, From: 40, To: 45},
		},
		DefaultSizeGridID: 2,
	}})
	if err != nil {
		if errors.Is(err, store.ErrCompanyExists) {
			return store.Company{}, common.NewAppError("COMPANY_EXISTS", "company id already taken", http.StatusConflict, err)
		}
		return store.Company{}, err
	}
	return company, nil
}

// SetCompanyActive suspends or reactivates a tenant.
func (s *Service) SetCompanyActive(id string, active bool) error {
	err := s.Store.UpdateMaster(func(m *store.Master) error {
		for i := range m.Companies {
			if m.Companies[i].ID == id {
				m.Companies[i].IsActive = active
				return nil
			}
		}
		return store.ErrCompanyNotFound
	})
	if errors.Is(err, store.ErrCompanyNotFound) {
		return common.NewAppError("COMPANY_NOT_FOUND", "unknown company", http.StatusNotFound, err)
	}
	return err
}

// ListUsers returns the company's users without credential hashes.
func (s *Service) ListUsers(companyID string) ([]UserView, error) {
	var users []UserView
	err := s.Store.View(companyID, func(db *store.CompanyDB) error {
		for _, u := range db.Users {
			users = append(users, UserView{ID: u.ID, Login: u.Login, Name: u.Name, Role: u.Role})
		}
		return nil
	})
	if err != nil {
		return nil, storeError(err)
	}
	return users, nil
}

// CreateUser provisions a company user with an argon2id password hash and
// registers the login in the global directory.
func (s *Service) CreateUser(companyID string, input UserInput) (UserView, error) {
	login := strings.ToLower(strings.TrimSpace(input.Login))
	if login == "" {
		return UserView{}, common.NewAppError("VALIDATION", "login is required", http.StatusUnprocessableEntity, nil)
	}
	if len(input.Password) < 8 {
		return UserView{}, common.NewAppError("VALIDATION", "password must be at least 8 characters", http.StatusUnprocessableEntity, nil)
	}
	if owner := s.Store.Master().UsersDirectory[login]; owner != "" {
		return UserView{}, common.NewAppError("LOGIN_TAKEN", "login already registered", http.StatusConflict, nil)
	}
	hash, err := argon2id.CreateHash(input.Password, argon2id.DefaultParams)
	if err != nil {
		return UserView{}, err
	}
	user := store.User{
		ID:           uuid.NewString(),
		Login:        login,
		PasswordHash: hash,
		Name:         strings.TrimSpace(input.Name),
		Role:         strings.TrimSpace(input.Role),
	}
	err = s.Store.Update(companyID, func(db *store.CompanyDB) error {
		db.Users = append(db.Users, user)
		return nil
	})
	if err != nil {
		return UserView{}, storeError(err)
	}
	err = s.Store.UpdateMaster(func(m *store.Master) error {
		m.UsersDirectory[login] = companyID
		return nil
	})
	if err != nil {
		return UserView{}, err
	}
	return UserView{ID: user.ID, Login: user.Login, Name: user.Name, Role: user.Role}, nil
}

// UserUpdate carries the editable user fields. Nil fields stay untouched;
// the login is immutable once registered in the directory.
type UserUpdate struct {
	Password *string `json:"password"`
	Name     *string `json:"name"`
	Role     *string `json:"role"`
}

// UpdateUser edits a company user, rehashing the password when one is given.
func (s *Service) UpdateUser(companyID, userID string, input UserUpdate) (UserView, error) {
	var hash string
	if input.Password != nil {
		if len(*input.Password) < 8 {
			return UserView{}, common.NewAppError("VALIDATION", "password must be at least 8 characters", http.StatusUnprocessableEntity, nil)
		}
		var err error
		hash, err = argon2id.CreateHash(*input.Password, argon2id.DefaultParams)
		if err != nil {
			return UserView{}, err
		}
	}
	var view UserView
	err := s.Store.Update(companyID, func(db *store.CompanyDB) error {
		for i := range db.Users {
			if db.Users[i].ID != userID {
				continue
			}
			if hash != "" {
				db.Users[i].PasswordHash = hash
			}
			if input.Name != nil {
				db.Users[i].Name = strings.TrimSpace(*input.Name)
			}
			if input.Role != nil {
				db.Users[i].Role = strings.TrimSpace(*input.Role)
			}
			u := db.Users[i]
			view = UserView{ID: u.ID, Login: u.Login, Name: u.Name, Role: u.Role}
			return nil
		}
		return common.NewAppError("USER_NOT_FOUND", "user not found", http.StatusNotFound, store.ErrNotFound)
	})
	if err != nil {
		return UserView{}, storeError(err)
	}
	return view, nil
}

// DeleteUser removes a company user and its directory entry.
func (s *Service) DeleteUser(companyID, userID string) error {
	var login string
	err := s.Store.Update(companyID, func(db *store.CompanyDB) error {
		for i := range db.Users {
			if db.Users[i].ID == userID {
				login = db.Users[i].Login
				db.Users = append(db.Users[:i], db.Users[i+1:]...)
				return nil
			}
		}
		return common.NewAppError("USER_NOT_FOUND", "user not found", http.StatusNotFound, store.ErrNotFound)
	})
	if err != nil {
		return storeError(err)
	}
	return s.Store.UpdateMaster(func(m *store.Master) error {
		delete(m.UsersDirectory, login)
		return nil
	})
}

// VerifyUser checks a login/password pair against the directory. Used by the
// provisioning CLI to smoke-test freshly created accounts.
func (s *Service) VerifyUser(login, password string) (string, bool) {
	login = strings.ToLower(strings.TrimSpace(login))
	companyID := s.Store.Master().UsersDirectory[login]
	if companyID == "" {
		return "", false
	}
	matched := false
	_ = s.Store.View(companyID, func(db *store.CompanyDB) error {
		for _, u := range db.Users {
			if u.Login != login {
				continue
			}
			ok, err := argon2id.ComparePasswordAndHash(password, u.PasswordHash)
			matched = err == nil && ok
			break
		}
		return nil
	})
	if !matched {
		return "", false
	}
	return companyID, true
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
