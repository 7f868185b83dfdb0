package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"aoe-companion-api/internal/repository"
	"aoe-companion-api/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAccountRouter(t *testing.T) (*chi.Mux, *service.AccountService) {
	t.Helper()
	accounts := service.NewAccountService(repository.NewMemoryStore(), nil, nil, time.Minute)
	h := NewAccountHandler(accounts)

	r := chi.NewRouter()
	r.Get("/accounts", h.List)
	r.Post("/accounts", h.Add)
	r.Get("/accounts/active/info", h.ActiveInfo)
	r.Post("/accounts/{id}/activate", h.Activate)
	r.Put("/accounts/{id}/tokens", h.UpdateTokens)
	r.Delete("/accounts/{id}", h.Remove)
	return r, accounts
}

func TestAccountAddAndList(t *testing.T) {
	r, _ := newAccountRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/accounts",
		strings.NewReader(`{"username":"alpha","auth_token":"tok"}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/accounts", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool `json:"success"`
		Data    []struct {
			ID           string `json:"id"`
			Username     string `json:"username"`
			TokensStatus string `json:"tokens_status"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Data, 1)
	assert.NotEmpty(t, resp.Data[0].ID)
	assert.Equal(t, "alpha", resp.Data[0].Username)
	assert.Equal(t, "ok", resp.Data[0].TokensStatus)
}

func TestAccountAddInvalidJSON(t *testing.T) {
	r, _ := newAccountRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/accounts", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAccountActiveInfoWithoutAccounts(t *testing.T) {
	r, _ := newAccountRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/accounts/active/info", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAccountActiveInfoReportsTokens(t *testing.T) {
	r, accounts := newAccountRouter(t)

	acc, err := accounts.Add(context.Background(), "alpha", "", "")
	require.NoError(t, err)
	ok, err := accounts.UpdateTokens(context.Background(), acc.ID, 90000, 100000)
	require.NoError(t, err)
	require.True(t, ok)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/accounts/active/info", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data struct {
			Username     string `json:"username"`
			TokensStatus string `json:"tokens_status"`
			Tokens       struct {
				Remaining int64 `json:"tokens_remaining"`
			} `json:"tokens"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "alpha", resp.Data.Username)
	assert.Equal(t, "critical", resp.Data.TokensStatus)
	assert.Equal(t, int64(10000), resp.Data.Tokens.Remaining)
}

func TestAccountActivateUnknown(t *testing.T) {
	r, _ := newAccountRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/accounts/nope/activate", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAccountRemove(t *testing.T) {
	r, accounts := newAccountRouter(t)

	acc, err := accounts.Add(context.Background(), "alpha", "", "")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/accounts/"+acc.ID, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/accounts/"+acc.ID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAccountUpdateTokensRejectsNegative(t *testing.T) {
	r, accounts := newAccountRouter(t)

	acc, err := accounts.Add(context.Background(), "alpha", "", "")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPut, "/accounts/"+acc.ID+"/tokens",
		strings.NewReader(`{"tokens_used":-1}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
