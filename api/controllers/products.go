package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/orderledger-backend/api/responses"
	"github.com/angelmondragon/orderledger-backend/api/validators"
	product "github.com/angelmondragon/orderledger-backend/internal/products"
	"github.com/angelmondragon/orderledger-backend/pkg/logger"
)

// ListProducts returns the listed catalog, optionally filtered by the
// `epoca` season query parameter.
func ListProducts(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "product")
			return
		}

		season := validators.SanitizeString(r.URL.Query().Get("epoca"), 64)
		list, err := svc.ListProducts(r.Context(), season)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

// ProductPricing returns the tier pricing fields of one product.
func ProductPricing(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "product")
			return
		}

		pricing, err := svc.GetPricing(r.Context(), chi.URLParam(r, "code"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, pricing)
	}
}
