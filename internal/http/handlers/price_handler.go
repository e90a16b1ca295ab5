// Market-price HTTP handler.
//
// Exposes GET /market-price: a plateless pricing endpoint for callers that
// already know the vehicle's make, model and year and only want the sampled
// market price plus the quote formulas applied to it.
package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dryanez/MrcarCotizacion/internal/domain"
	"github.com/dryanez/MrcarCotizacion/internal/scrape"
	"github.com/dryanez/MrcarCotizacion/internal/services"
	"github.com/dryanez/MrcarCotizacion/internal/utils"
)

// MarketPriceResponse carries a standalone quote for an ad-hoc vehicle
// description.
type MarketPriceResponse struct {
	Make   string                  `json:"make"`
	Model  string                  `json:"model"`
	Year   int                     `json:"year"`
	Quote  *domain.PriceQuote      `json:"quote"`
	Market *services.MarketSummary `json:"market"`
}

// GetMarketPrice godoc
// @ID          getMarketPrice
// @Summary     Price a vehicle by description
// @Description Samples comparable listings for a make/model/year and returns the median market price with the resale quote derived from it.
// @Tags        Pricing
// @Produce     json
//
// @Param       make     query  string  true  "Vehicle make"   example(CHEVROLET)
// @Param       model    query  string  true  "Vehicle model"  example(AVEO)
// @Param       year     query  int     true  "Model year"     example(2012)
// @Param       mileage  query  int     false "Mileage in km"
//
// @Success     200  {object} handlers.MarketPriceResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     429  {object} handlers.ErrorResponse "Daily quota exhausted"
// @Failure     502  {object} handlers.ErrorResponse "Upstream site failure"
// @Failure     503  {object} handlers.ErrorResponse "Browser driver unavailable"
// @Router      /market-price [get]
func (h *Handlers) GetMarketPrice(c *gin.Context) {
	make := strings.TrimSpace(c.Query("make"))
	model := strings.TrimSpace(c.Query("model"))
	year := utils.AtoiDefault(c.Query("year"), 0)

	if make == "" || model == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "make and model are required")
		return
	}
	if year < 1900 || year > time.Now().UTC().Year()+1 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "year must be a plausible model year")
		return
	}

	q := scrape.Query{
		Make:      make,
		Model:     model,
		Year:      year,
		MileageKM: utils.AtoiDefault(c.Query("mileage"), 0),
	}
	quote, market, err := h.quoteSvc.QuoteQuery(c.Request.Context(), q)
	if err != nil {
		failResolve(c, err)
		return
	}

	ok(c, http.StatusOK, MarketPriceResponse{
		Make:   make,
		Model:  model,
		Year:   year,
		Quote:  quote,
		Market: market,
	})
}
