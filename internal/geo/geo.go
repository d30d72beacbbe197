// Package geo - расчет расстояний, границы города и имитация геокодирования
package geo

import (
	"errors"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/shenikar/resq_dispatch/internal/models"
)

const (
	earthRadiusKm = 6371.0
	cityRadiusKm  = 20.0

	// около километра вокруг центра
	mockVariance = 0.01

	CityAddress = "Tuguegarao City, Cagayan, Philippines"
)

var ErrAddressNotFound = errors.New("address not found")

var cityCenter = models.Coordinates{Lat: 17.6132, Lng: 121.7270}

// Barangays районы (барангаи) Тугегарао
var Barangays = []string{
	"Atulayan Norte", "Atulayan Sur", "Bagay", "Buntun", "Caggay",
	"Caritan Centro", "Centro 1", "Centro 2", "Centro 3", "Centro 4",
	"Centro 5", "Centro 6", "Centro 7", "Centro 8", "Centro 9",
	"Centro 10", "Dadda", "Gosi Norte", "Gosi Sur", "Larion Alto",
	"Larion Bajo", "Leonarda", "Libag Norte", "Libag Sur", "Pallua Norte",
	"Pallua Sur", "Pengue-Ruyu", "Reyes", "San Gabriel", "Tagga",
}

func CityCenter() models.Coordinates { return cityCenter }

// Distance возвращает расстояние по дуге большого круга в км (формула гаверсинусов)
func Distance(a, b models.Coordinates) float64 {
	dLat := toRadians(b.Lat - a.Lat)
	dLng := toRadians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(a.Lat))*math.Cos(toRadians(b.Lat))*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKm * c
}

func toRadians(deg float64) float64 { return deg * math.Pi / 180 }

func IsWithinCity(p models.Coordinates) bool {
	return Distance(p, cityCenter) <= cityRadiusKm
}

// Jitter возвращает точку около центра со смещением до ±spread/2 градуса по каждой оси
func Jitter(rng *rand.Rand, spread float64) models.Coordinates {
	return models.Coordinates{
		Lat: cityCenter.Lat + (rng.Float64()-0.5)*spread,
		Lng: cityCenter.Lng + (rng.Float64()-0.5)*spread,
	}
}

// MockLocation симулированное местоположение, когда реальный источник недоступен
func MockLocation(rng *rand.Rand, now time.Time) models.LocationFix {
	return models.LocationFix{
		Coordinates: Jitter(rng, mockVariance),
		Address:     CityAddress,
		Accuracy:    50,
		Timestamp:   now,
		Simulated:   true,
	}
}

// ReverseGeocode выбирает случайный барангай из первых двадцати
func ReverseGeocode(rng *rand.Rand, _ models.Coordinates) string {
	b := Barangays[rng.IntN(20)]
	return b + ", " + CityAddress
}

// Geocode находит только адреса в пределах города
func Geocode(rng *rand.Rand, address string) (models.Coordinates, error) {
	if !strings.Contains(strings.ToLower(address), "tuguegarao") {
		return models.Coordinates{}, ErrAddressNotFound
	}
	return Jitter(rng, mockVariance), nil
}
