package seshttp

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/trussworks/userauth/pkg/auth"
	"github.com/trussworks/userauth/pkg/domain"
)

// UserHandlers serves the user resource and password resets.
type UserHandlers struct {
	users    domain.UserRepository
	accounts auth.Accounts
	log      domain.LogService
}

// NewUserHandlers returns UserHandlers
func NewUserHandlers(users domain.UserRepository, accounts auth.Accounts, log domain.LogService) UserHandlers {
	return UserHandlers{
		users:    users,
		accounts: accounts,
		log:      log,
	}
}

func (h UserHandlers) serverError(w http.ResponseWriter, err error) {
	h.log.WarnError(domain.SessionUnexpectedError, err, domain.LogFields{})
	RespondWithStructuredError(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// userFromPath loads the user named by the {user_id} path value. "me" is the authenticated user.
func (h UserHandlers) userFromPath(r *http.Request) (domain.User, error) {
	userID := r.PathValue("user_id")
	if userID == "me" {
		current := UserFromContext(r.Context())
		if current == nil {
			return domain.User{}, domain.ErrUserNotFound
		}
		return *current, nil
	}

	if userID == "" {
		return domain.User{}, domain.ErrUserNotFound
	}
	return h.users.Get(r.Context(), userID)
}

// List responds with every user
func (h UserHandlers) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.Find(r.Context(), domain.Filter{})
	if err != nil {
		h.serverError(w, err)
		return
	}

	body := make([]domain.UserJSON, 0, len(users))
	for _, u := range users {
		body = append(body, u.ToJSON())
	}
	RespondWithJSON(w, body, http.StatusOK)
}

// Stats responds with the number of users
func (h UserHandlers) Stats(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.Find(r.Context(), domain.Filter{})
	if err != nil {
		h.serverError(w, err)
		return
	}
	RespondWithJSON(w, map[string]int{"users": len(users)}, http.StatusOK)
}

// Get responds with one user
func (h UserHandlers) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.userFromPath(r)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			NotFound(w, r)
			return
		}
		h.serverError(w, err)
		return
	}
	RespondWithJSON(w, user.ToJSON(), http.StatusOK)
}

// Delete removes one user
func (h UserHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	user, err := h.userFromPath(r)
	if err == nil {
		err = h.users.Delete(r.Context(), user.ID)
	}
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			NotFound(w, r)
			return
		}
		h.serverError(w, err)
		return
	}
	RespondWithJSON(w, struct{}{}, http.StatusOK)
}

type userRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Create registers a user from a json body
func (h UserHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithStructuredError(w, "Wrong format", http.StatusBadRequest)
		return
	}

	profile := domain.Fields{}
	if req.FirstName != "" {
		profile[domain.FieldFirstName] = req.FirstName
	}
	if req.LastName != "" {
		profile[domain.FieldLastName] = req.LastName
	}

	user, err := h.accounts.RegisterUser(r.Context(), req.Email, req.Password, profile)
	if err != nil {
		var validation domain.ValidationError
		switch {
		case errors.As(err, &validation):
			RespondWithStructuredError(w, validation.Error(), http.StatusBadRequest)
		case errors.Is(err, domain.ErrUserExists):
			RespondWithStructuredError(w, domain.ErrUserExists.Error(), http.StatusBadRequest)
		default:
			h.serverError(w, err)
		}
		return
	}

	RespondWithJSON(w, user.ToJSON(), http.StatusCreated)
}

// Update changes the names of one user from a json body
func (h UserHandlers) Update(w http.ResponseWriter, r *http.Request) {
	user, err := h.userFromPath(r)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			NotFound(w, r)
			return
		}
		h.serverError(w, err)
		return
	}

	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithStructuredError(w, "Wrong format", http.StatusBadRequest)
		return
	}

	fields := domain.Fields{}
	if req.FirstName != "" {
		fields[domain.FieldFirstName] = req.FirstName
	}
	if req.LastName != "" {
		fields[domain.FieldLastName] = req.LastName
	}

	if len(fields) > 0 {
		if err := h.users.Update(r.Context(), user.ID, fields); err != nil {
			h.serverError(w, err)
			return
		}
	}

	updated, err := h.users.Get(r.Context(), user.ID)
	if err != nil {
		h.serverError(w, err)
		return
	}
	RespondWithJSON(w, updated.ToJSON(), http.StatusOK)
}

// ResetPasswordToken issues a reset token for the form value email. Unknown emails are a 403.
func (h UserHandlers) ResetPasswordToken(w http.ResponseWriter, r *http.Request) {
	email := r.PostFormValue("email")

	token, err := h.accounts.GetResetPasswordToken(r.Context(), email)
	if err != nil {
		var validation domain.ValidationError
		if errors.As(err, &validation) || errors.Is(err, domain.ErrUserNotFound) {
			Forbidden(w, r)
			return
		}
		h.serverError(w, err)
		return
	}

	RespondWithJSON(w, map[string]string{"email": email, "reset_token": token}, http.StatusOK)
}

// UpdatePassword sets new_password for the holder of reset_token. Invalid tokens are a 403.
func (h UserHandlers) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	email := r.PostFormValue("email")
	token := r.PostFormValue("reset_token")
	password := r.PostFormValue("new_password")

	err := h.accounts.UpdatePassword(r.Context(), token, password)
	if err != nil {
		var validation domain.ValidationError
		if errors.As(err, &validation) || errors.Is(err, domain.ErrInvalidResetToken) {
			Forbidden(w, r)
			return
		}
		h.serverError(w, err)
		return
	}

	RespondWithJSON(w, map[string]string{"email": email, "message": "Password updated"}, http.StatusOK)
}
