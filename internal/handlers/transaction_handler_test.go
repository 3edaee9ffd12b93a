package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "glidepath/internal/errors"
	"glidepath/internal/models"
	"glidepath/internal/pagination"
	"glidepath/internal/services"
)

type mockTransactionService struct {
	createFn func(userID string, categoryID *string, amount decimal.Decimal, transactionTime time.Time, notes string) (*models.Transaction, error)
	listFn   func(userID string, page pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
}

func (m *mockTransactionService) CreateTransaction(userID string, categoryID *string, amount decimal.Decimal, transactionTime time.Time, notes string) (*models.Transaction, error) {
	if m.createFn != nil {
		return m.createFn(userID, categoryID, amount, transactionTime, notes)
	}
	return &models.Transaction{}, nil
}

func (m *mockTransactionService) GetUserTransactions(userID string, page pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	if m.listFn != nil {
		return m.listFn(userID, page, filter)
	}
	result := pagination.NewPageResponse([]models.Transaction{}, 1, 20, 0)
	return &result, nil
}

func (m *mockTransactionService) SumInRange(userID string, from, to time.Time) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func setupTransactionRouter(svc services.TransactionServicer) *gin.Engine {
	handler := NewTransactionHandler(svc)
	r := gin.New()
	group := r.Group("/transactions", injectUserID("user-1"))
	group.POST("", handler.CreateTransaction)
	group.GET("", handler.GetTransactions)
	return r
}

func TestTransactionHandler_CreateTransaction(t *testing.T) {
	t.Run("returns 201", func(t *testing.T) {
		svc := &mockTransactionService{
			createFn: func(userID string, _ *string, amount decimal.Decimal, _ time.Time, notes string) (*models.Transaction, error) {
				tx := &models.Transaction{UserID: userID, Amount: amount, Notes: notes}
				tx.ID = "tx-1"
				return tx, nil
			},
		}
		rec := doRequest(setupTransactionRouter(svc), http.MethodPost, "/transactions",
			`{"amount":"12.50","notes":"coffee"}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		tx := result["transaction"].(map[string]interface{})
		if tx["id"] != "tx-1" {
			t.Errorf("expected tx-1, got %v", tx["id"])
		}
	})

	t.Run("missing amount rejected", func(t *testing.T) {
		rec := doRequest(setupTransactionRouter(&mockTransactionService{}), http.MethodPost, "/transactions",
			`{"notes":"coffee"}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("non-positive amount returns 422", func(t *testing.T) {
		svc := &mockTransactionService{
			createFn: func(string, *string, decimal.Decimal, time.Time, string) (*models.Transaction, error) {
				return nil, apperrors.WithMessage(apperrors.ErrValidation, "Transaction amount must be greater than zero")
			},
		}
		rec := doRequest(setupTransactionRouter(svc), http.MethodPost, "/transactions",
			`{"amount":"-5"}`)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "VALIDATION_ERROR")
	})

	t.Run("unknown category returns 404", func(t *testing.T) {
		svc := &mockTransactionService{
			createFn: func(string, *string, decimal.Decimal, time.Time, string) (*models.Transaction, error) {
				return nil, apperrors.ErrCategoryNotFound
			},
		}
		rec := doRequest(setupTransactionRouter(svc), http.MethodPost, "/transactions",
			`{"amount":"5","category_id":"missing"}`)
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})
}

func TestTransactionHandler_GetTransactions(t *testing.T) {
	t.Run("passes filters through", func(t *testing.T) {
		var gotFilter services.TransactionFilter
		svc := &mockTransactionService{
			listFn: func(_ string, _ pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
				gotFilter = filter
				result := pagination.NewPageResponse([]models.Transaction{}, 1, 20, 0)
				return &result, nil
			},
		}
		rec := doRequest(setupTransactionRouter(svc), http.MethodGet,
			"/transactions?from=2026-03-01T00:00:00Z&category_id=cat-1", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotFilter.FromDate == nil || gotFilter.FromDate.Day() != 1 {
			t.Errorf("expected from filter, got %v", gotFilter.FromDate)
		}
		if gotFilter.CategoryID == nil || *gotFilter.CategoryID != "cat-1" {
			t.Errorf("expected category filter, got %v", gotFilter.CategoryID)
		}
	})

	t.Run("malformed date rejected", func(t *testing.T) {
		rec := doRequest(setupTransactionRouter(&mockTransactionService{}), http.MethodGet,
			"/transactions?from=yesterday", "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("oversized page rejected", func(t *testing.T) {
		rec := doRequest(setupTransactionRouter(&mockTransactionService{}), http.MethodGet,
			"/transactions?page_size=500", "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})
}
