package server

import (
	"fmt"
	"net/http"

	"github.com/owwnwrrght/ledgex/internal/models"
	"github.com/owwnwrrght/ledgex/internal/service"
)

type sessionPayload struct {
	User  userPayload `json:"user"`
	Token string      `json:"token"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		DisplayName string `json:"display_name"`
		Password    string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", service.ErrInvalidInput, err))
		return
	}

	user, token, err := s.auth.Register(r.Context(), req.Email, req.DisplayName, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionPayload{User: userToPayload(user), Token: token})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", service.ErrInvalidInput, err))
		return
	}

	user, token, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionPayload{User: userToPayload(user), Token: token})
}

func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.auth.CurrentUser(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userToPayload(user))
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string          `json:"name"`
		Currency string          `json:"currency"`
		Members  []personPayload `json:"members"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", service.ErrInvalidInput, err))
		return
	}

	members := make([]models.Person, len(req.Members))
	for i, m := range req.Members {
		members[i] = models.Person{ID: m.ID, Name: m.Name}
	}

	group, err := s.groups.CreateGroup(r.Context(), req.Name, req.Currency, members)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, groupToPayload(group))
}

func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	group, err := s.groups.GetGroup(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, groupToPayload(group))
}

func (s *Server) handleAddMembers(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Members []personPayload `json:"members"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", service.ErrInvalidInput, err))
		return
	}

	members := make([]models.Person, len(req.Members))
	for i, m := range req.Members {
		members[i] = models.Person{ID: m.ID, Name: m.Name}
	}

	group, err := s.groups.AddMembers(r.Context(), r.PathValue("id"), members)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, groupToPayload(group))
}

func (s *Server) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	err := s.groups.RemoveMember(r.Context(), r.PathValue("id"), r.PathValue("personID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

func (s *Server) handleChangeCurrency(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Currency string `json:"currency"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", service.ErrInvalidInput, err))
		return
	}

	if err := s.ledger.ChangeBaseCurrency(r.Context(), r.PathValue("id"), req.Currency); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"currency": req.Currency})
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	groupID := r.PathValue("id")
	exp, err := s.decodeExpense(r, groupID)
	if err != nil {
		writeError(w, err)
		return
	}

	created, err := s.ledger.AddExpense(r.Context(), groupID, exp)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, expenseToPayload(created))
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	groupID := r.PathValue("id")
	exp, err := s.decodeExpense(r, groupID)
	if err != nil {
		writeError(w, err)
		return
	}
	exp.ID = r.PathValue("expenseID")

	updated, err := s.ledger.UpdateExpense(r.Context(), groupID, exp)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, expenseToPayload(updated))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	err := s.ledger.DeleteExpense(r.Context(), r.PathValue("id"), r.PathValue("expenseID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.ledger.Expenses(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	payloads := make([]expensePayload, len(expenses))
	for i, exp := range expenses {
		payloads[i] = expenseToPayload(exp)
	}
	writeJSON(w, http.StatusOK, map[string]any{"expenses": payloads})
}

func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	groupID := r.PathValue("id")
	group, err := s.groups.GetGroup(r.Context(), groupID)
	if err != nil {
		writeError(w, err)
		return
	}

	balances, err := s.ledger.Balances(r.Context(), groupID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"currency": group.Currency,
		"balances": balancesToPayload(balances, group.Currency),
	})
}

func (s *Server) handleSettlements(w http.ResponseWriter, r *http.Request) {
	receipts, err := s.ledger.Settlements(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"settlements": receiptsToPayload(receipts)})
}

func (s *Server) handleMarkReceived(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FromPersonID string `json:"from_person_id"`
		ToPersonID   string `json:"to_person_id"`
		Received     bool   `json:"received"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", service.ErrInvalidInput, err))
		return
	}

	err := s.ledger.MarkReceived(r.Context(), r.PathValue("id"), req.FromPersonID, req.ToPersonID, req.Received)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// decodeExpense parses an expense payload against the group's base
// currency.
func (s *Server) decodeExpense(r *http.Request, groupID string) (*models.Expense, error) {
	group, err := s.groups.GetGroup(r.Context(), groupID)
	if err != nil {
		return nil, err
	}

	var payload expensePayload
	if err := decodeJSON(r, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", service.ErrInvalidInput, err)
	}

	exp, err := payload.toModel(group.Currency)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", service.ErrInvalidInput, err)
	}
	return exp, nil
}
