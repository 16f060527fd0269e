package catalog

import (
	"fmt"
	"time"
)

// Design styles a quiz question can map to.
const (
	StyleModern       = "MODERN"
	StyleMinimalist   = "MINIMALIST"
	StyleIndustrial   = "INDUSTRIAL"
	StyleScandinavian = "SCANDINAVIAN"
	StyleClassic      = "CLASSIC"
	StyleBohemian     = "BOHEMIAN"
)

// ValidStyle reports whether s is a known design style.
func ValidStyle(s string) bool {
	switch s {
	case StyleModern, StyleMinimalist, StyleIndustrial, StyleScandinavian, StyleClassic, StyleBohemian:
		return true
	}
	return false
}

// Offering is a publicly listed service, the "services" resource of the
// HTTP API.
type Offering struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Category    string    `json:"category"`
	Price       string    `json:"price"`
	Image       string    `json:"image,omitempty"`
	Description string    `json:"description"`
	Features    []string  `json:"features"`
	IsPopular   bool      `json:"is_popular"`
	IsShown     bool      `json:"is_shown"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Material is a finish option fed into the price calculator.
type Material struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	PriceMultiplier float64   `json:"price_multiplier"`
	Unit            string    `json:"unit"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Portfolio is a published past project.
type Portfolio struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	EndDate     time.Time `json:"end_date"`
	PhotoURL    string    `json:"photo_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// QuizQuestion maps an image choice to a design style.
type QuizQuestion struct {
	ID           string    `json:"id"`
	Text         string    `json:"text"`
	ImageURL     string    `json:"image_url,omitempty"`
	RelatedStyle string    `json:"related_style"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SettingsID is the fixed id of the calculator settings singleton row.
const SettingsID = "CALC-SETTINGS"

// CalculatorSettings holds the price estimate coefficients. Exactly one
// row exists; reads create it with defaults when missing.
type CalculatorSettings struct {
	ID              string    `json:"id"`
	BasePrice       float64   `json:"base_price"`
	AreaMultiplier  float64   `json:"area_multiplier"`
	FloorMultiplier float64   `json:"floor_multiplier"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// DefaultSettings is the singleton as first created.
func DefaultSettings() CalculatorSettings {
	return CalculatorSettings{ID: SettingsID, BasePrice: 0, AreaMultiplier: 1, FloorMultiplier: 1}
}

// Estimate computes the indicative price for an area over a number of
// floors with a material multiplier applied.
func (c CalculatorSettings) Estimate(area float64, floors int, materialMultiplier float64) float64 {
	if area <= 0 || floors <= 0 {
		return 0
	}
	if materialMultiplier <= 0 {
		materialMultiplier = 1
	}
	return c.BasePrice * area * c.AreaMultiplier * float64(floors) * c.FloorMultiplier * materialMultiplier
}

// New*ID mint public ids for the catalog entities.
func NewServiceID(now time.Time) string   { return fmt.Sprintf("SVC-%d", now.UnixMilli()) }
func NewMaterialID(now time.Time) string  { return fmt.Sprintf("MAT-%d", now.UnixMilli()) }
func NewPortfolioID(now time.Time) string { return fmt.Sprintf("PORT-%d", now.UnixMilli()) }
func NewQuestionID(now time.Time) string  { return fmt.Sprintf("QUIZ-%d", now.UnixMilli()) }
