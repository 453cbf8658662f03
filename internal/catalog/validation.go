package catalog

import (
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"scanorder-backend/internal/apperr"
	"scanorder-backend/internal/models"

	"github.com/shopspring/decimal"
)

const invalidData = "The given data was invalid."

var maxPrice = decimal.RequireFromString(models.MaxProductPrice)

type StoreInput struct {
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description"`
	Address     string `json:"address"`
	Phone       string `json:"phone"`
	OpeningTime string `json:"opening_time"`
	ClosingTime string `json:"closing_time"`
	IsActive    *bool  `json:"is_active"`
}

func (in *StoreInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Code = strings.TrimSpace(in.Code)
	in.Address = strings.TrimSpace(in.Address)
	in.Phone = strings.TrimSpace(in.Phone)
	if in.OpeningTime == "" {
		in.OpeningTime = "08:00"
	}
	if in.ClosingTime == "" {
		in.ClosingTime = "22:00"
	}
}

func (in StoreInput) validate() error {
	fe := apperr.FieldErrors{}
	if in.Name == "" {
		fe.Add("name", "Store name is required.")
	} else if utf8.RuneCountInString(in.Name) > 255 {
		fe.Add("name", "Store name may not be greater than 255 characters.")
	}
	if in.Code == "" {
		fe.Add("code", "Store code is required.")
	} else if utf8.RuneCountInString(in.Code) > 20 {
		fe.Add("code", "Store code may not be greater than 20 characters.")
	}
	if utf8.RuneCountInString(in.Address) > 500 {
		fe.Add("address", "Address may not be greater than 500 characters.")
	}
	if utf8.RuneCountInString(in.Phone) > 20 {
		fe.Add("phone", "Phone may not be greater than 20 characters.")
	}

	open, openErr := time.Parse("15:04", in.OpeningTime)
	if openErr != nil {
		fe.Add("opening_time", "Opening time must match the format H:i.")
	}
	closing, closeErr := time.Parse("15:04", in.ClosingTime)
	if closeErr != nil {
		fe.Add("closing_time", "Closing time must match the format H:i.")
	}
	if openErr == nil && closeErr == nil && !closing.After(open) {
		fe.Add("closing_time", "Closing time must be after opening time.")
	}
	return fe.Err(invalidData)
}

type CategoryInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	SortOrder   *int   `json:"sort_order"`
	IsActive    *bool  `json:"is_active"`
}

func (in CategoryInput) validate() error {
	fe := apperr.FieldErrors{}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		fe.Add("name", "Category name is required.")
	} else if utf8.RuneCountInString(name) > 255 {
		fe.Add("name", "Category name may not be greater than 255 characters.")
	}
	if in.SortOrder != nil && *in.SortOrder < 0 {
		fe.Add("sort_order", "Sort order must be at least 0.")
	}
	return fe.Err(invalidData)
}

type ProductInput struct {
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Price           decimal.Decimal `json:"price"`
	ImageURL        string          `json:"image_url"`
	PreparationTime int             `json:"preparation_time"`
	IsAvailable     *bool           `json:"is_available"`
	SortOrder       *int            `json:"sort_order"`
	CategoryID      uint            `json:"category_id"`
	StoreID         uint            `json:"store_id"`
}

func (in ProductInput) validate() error {
	fe := apperr.FieldErrors{}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		fe.Add("name", "Product name is required.")
	} else if utf8.RuneCountInString(name) > 255 {
		fe.Add("name", "Product name may not be greater than 255 characters.")
	}
	if in.Price.IsNegative() {
		fe.Add("price", "Product price cannot be negative.")
	} else if in.Price.GreaterThan(maxPrice) {
		fe.Add("price", "Product price cannot exceed $999.99.")
	}
	if in.ImageURL != "" {
		u, err := url.ParseRequestURI(in.ImageURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			fe.Add("image_url", "Image URL must be a valid URL.")
		}
	}
	if in.PreparationTime < models.MinPreparationMinutes {
		fe.Add("preparation_time", "Preparation time must be at least 1 minute.")
	} else if in.PreparationTime > models.MaxPreparationMinutes {
		fe.Add("preparation_time", "Preparation time cannot exceed 2 hours.")
	}
	if in.SortOrder != nil && *in.SortOrder < 0 {
		fe.Add("sort_order", "Sort order must be at least 0.")
	}
	if in.CategoryID == 0 {
		fe.Add("category_id", "Please select a category.")
	}
	if in.StoreID == 0 {
		fe.Add("store_id", "Please select a store.")
	}
	return fe.Err(invalidData)
}
