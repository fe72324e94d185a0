package rest

import (
	"net/http"

	"borlette/business/catalog"
	"borlette/domain"

	"github.com/AMFarhan21/fres"
	"github.com/labstack/echo/v4"
)

type CatalogHandler struct {
	catalog *catalog.Catalog
}

func NewCatalogHandler(cat *catalog.Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: cat}
}

type CatalogResponse struct {
	BetTypes []catalog.Entry `json:"bet_types"`
	Draws    []domain.Draw   `json:"draws"`
}

func (h *CatalogHandler) Get(c echo.Context) error {
	return c.JSON(http.StatusOK, fres.Response.StatusOK(CatalogResponse{
		BetTypes: h.catalog.Entries(),
		Draws:    h.catalog.Draws(),
	}))
}
