package v1

import (
	"math/rand/v2"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shenikar/resq_dispatch/internal/geo"
	"github.com/shenikar/resq_dispatch/internal/models"
)

// @Summary Distance between two points
// @Tags Geo
// @Produce json
// @Security BearerAuth
// @Param lat1 query number true "Latitude of the first point"
// @Param lng1 query number true "Longitude of the first point"
// @Param lat2 query number true "Latitude of the second point"
// @Param lng2 query number true "Longitude of the second point"
// @Success 200 {object} DistanceResponse
// @Failure 400 {object} map[string]any "Validation error"
// @Router /geo/distance [get]
func (h *Handler) geoDistance(c *gin.Context) {
	var query DistanceQuery
	log := h.logger.WithField("method", "geoDistance")

	if !h.bindQuery(c, log, &query) {
		return
	}

	d := geo.Distance(
		models.Coordinates{Lat: *query.Lat1, Lng: *query.Lng1},
		models.Coordinates{Lat: *query.Lat2, Lng: *query.Lng2},
	)
	c.JSON(http.StatusOK, DistanceResponse{DistanceKm: d})
}

// @Summary Reverse geocode a point
// @Tags Geo
// @Produce json
// @Security BearerAuth
// @Param lat query number true "Latitude"
// @Param lng query number true "Longitude"
// @Success 200 {object} AddressResponse
// @Failure 400 {object} map[string]any "Validation error"
// @Router /geo/reverse [get]
func (h *Handler) geoReverse(c *gin.Context) {
	var query PointQuery
	log := h.logger.WithField("method", "geoReverse")

	if !h.bindQuery(c, log, &query) {
		return
	}

	var address string
	h.locator.Random(func(rng *rand.Rand) {
		address = geo.ReverseGeocode(rng, models.Coordinates{Lat: *query.Lat, Lng: *query.Lng})
	})
	c.JSON(http.StatusOK, AddressResponse{Address: address})
}

// @Summary Geocode an address
// @Description Only addresses inside Tuguegarao City resolve.
// @Tags Geo
// @Produce json
// @Security BearerAuth
// @Param address query string true "Street address"
// @Success 200 {object} models.Coordinates
// @Failure 400 {object} map[string]any "Validation error"
// @Failure 404 {object} map[string]string "Address not found"
// @Router /geo/geocode [get]
func (h *Handler) geoGeocode(c *gin.Context) {
	var query GeocodeQuery
	log := h.logger.WithField("method", "geoGeocode")

	if !h.bindQuery(c, log, &query) {
		return
	}

	var (
		point models.Coordinates
		err   error
	)
	h.locator.Random(func(rng *rand.Rand) {
		point, err = geo.Geocode(rng, query.Address)
	})
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, point)
}

// @Summary Current position of the console
// @Description Falls back to a simulated fix near the city center.
// @Tags Geo
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.LocationFix
// @Router /geo/current [get]
func (h *Handler) geoCurrent(c *gin.Context) {
	c.JSON(http.StatusOK, h.locator.Current(c.Request.Context()))
}
