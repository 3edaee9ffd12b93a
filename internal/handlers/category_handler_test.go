package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"glidepath/internal/models"
	"glidepath/internal/pagination"
	"glidepath/internal/services"
)

type mockCategoryService struct {
	createFn func(userID, name string, categoryType models.CategoryType, icon, color string) (*models.Category, error)
	listFn   func(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	getFn    func(userID, categoryID string) (*models.Category, error)
}

func (m *mockCategoryService) CreateCategory(userID, name string, categoryType models.CategoryType, icon, color string) (*models.Category, error) {
	if m.createFn != nil {
		return m.createFn(userID, name, categoryType, icon, color)
	}
	return &models.Category{}, nil
}

func (m *mockCategoryService) GetUserCategories(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error) {
	if m.listFn != nil {
		return m.listFn(userID, page)
	}
	result := pagination.NewPageResponse([]models.Category{}, 1, 20, 0)
	return &result, nil
}

func (m *mockCategoryService) GetCategoryByID(userID, categoryID string) (*models.Category, error) {
	if m.getFn != nil {
		return m.getFn(userID, categoryID)
	}
	return &models.Category{}, nil
}

func setupCategoryRouter(svc services.CategoryServicer) *gin.Engine {
	handler := NewCategoryHandler(svc)
	r := gin.New()
	group := r.Group("/categories", injectUserID("user-1"))
	group.POST("", handler.CreateCategory)
	group.GET("", handler.GetCategories)
	return r
}

func TestCategoryHandler_CreateCategory(t *testing.T) {
	t.Run("returns 201", func(t *testing.T) {
		svc := &mockCategoryService{
			createFn: func(userID, name string, categoryType models.CategoryType, _, _ string) (*models.Category, error) {
				category := &models.Category{UserID: userID, Name: name, Type: categoryType}
				category.ID = "cat-1"
				return category, nil
			},
		}
		rec := doRequest(setupCategoryRouter(svc), http.MethodPost, "/categories",
			`{"name":"Groceries","type":"expense"}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		category := result["category"].(map[string]interface{})
		if category["name"] != "Groceries" {
			t.Errorf("expected Groceries, got %v", category["name"])
		}
	})

	t.Run("unknown type rejected by binding", func(t *testing.T) {
		rec := doRequest(setupCategoryRouter(&mockCategoryService{}), http.MethodPost, "/categories",
			`{"name":"Groceries","type":"misc"}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("missing name rejected", func(t *testing.T) {
		rec := doRequest(setupCategoryRouter(&mockCategoryService{}), http.MethodPost, "/categories",
			`{"type":"expense"}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})
}

func TestCategoryHandler_GetCategories(t *testing.T) {
	t.Run("returns the page", func(t *testing.T) {
		svc := &mockCategoryService{
			listFn: func(string, pagination.PageRequest) (*pagination.PageResponse[models.Category], error) {
				result := pagination.NewPageResponse([]models.Category{
					{Name: "Dining", Type: models.CategoryTypeExpense},
				}, 1, 20, 1)
				return &result, nil
			},
		}
		rec := doRequest(setupCategoryRouter(svc), http.MethodGet, "/categories", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		result := parseJSON(t, rec)
		if result["total_items"] != float64(1) {
			t.Errorf("expected 1 item, got %v", result["total_items"])
		}
	})
}
