package catalog

import (
	"strings"
	"testing"

	"scanorder-backend/internal/apperr"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	if err == nil {
		return nil
	}
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	return appErr.Fields
}

func TestStoreInputValidation(t *testing.T) {
	in := StoreInput{Name: " Corner Cafe ", Code: " CAFE01 "}
	in.normalize()
	assert.Equal(t, "Corner Cafe", in.Name)
	assert.Equal(t, "CAFE01", in.Code)
	assert.Equal(t, "08:00", in.OpeningTime)
	assert.Equal(t, "22:00", in.ClosingTime)
	assert.NoError(t, in.validate())

	tests := []struct {
		name  string
		in    StoreInput
		field string
	}{
		{"missing name", StoreInput{Code: "A", OpeningTime: "08:00", ClosingTime: "09:00"}, "name"},
		{"long code", StoreInput{Name: "A", Code: "ABCDEFGHIJKLMNOPQRSTU", OpeningTime: "08:00", ClosingTime: "09:00"}, "code"},
		{"bad opening", StoreInput{Name: "A", Code: "A", OpeningTime: "8am", ClosingTime: "09:00"}, "opening_time"},
		{"closing before opening", StoreInput{Name: "A", Code: "A", OpeningTime: "10:00", ClosingTime: "09:30"}, "closing_time"},
		{"equal times", StoreInput{Name: "A", Code: "A", OpeningTime: "10:00", ClosingTime: "10:00"}, "closing_time"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, fieldErrors(t, tt.in.validate()), tt.field)
		})
	}
}

func TestProductInputValidation(t *testing.T) {
	valid := ProductInput{
		Name:            "Toast",
		Price:           decimal.RequireFromString("4.50"),
		PreparationTime: 5,
		CategoryID:      1,
		StoreID:         1,
	}
	assert.NoError(t, valid.validate())

	edge := valid
	edge.Price = decimal.RequireFromString("999.99")
	edge.PreparationTime = 120
	edge.ImageURL = "https://cdn.example.com/toast.png"
	assert.NoError(t, edge.validate())

	tests := []struct {
		name  string
		mut   func(*ProductInput)
		field string
	}{
		{"negative price", func(p *ProductInput) { p.Price = decimal.RequireFromString("-1") }, "price"},
		{"price too high", func(p *ProductInput) { p.Price = decimal.RequireFromString("1000") }, "price"},
		{"bad url", func(p *ProductInput) { p.ImageURL = "not a url" }, "image_url"},
		{"ftp url", func(p *ProductInput) { p.ImageURL = "ftp://example.com/x.png" }, "image_url"},
		{"zero prep", func(p *ProductInput) { p.PreparationTime = 0 }, "preparation_time"},
		{"long prep", func(p *ProductInput) { p.PreparationTime = 121 }, "preparation_time"},
		{"negative sort", func(p *ProductInput) { v := -1; p.SortOrder = &v }, "sort_order"},
		{"no category", func(p *ProductInput) { p.CategoryID = 0 }, "category_id"},
		{"no store", func(p *ProductInput) { p.StoreID = 0 }, "store_id"},
		{"blank name", func(p *ProductInput) { p.Name = "   " }, "name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mut(&in)
			assert.Contains(t, fieldErrors(t, in.validate()), tt.field)
		})
	}
}

func TestTextLimitsCountCharacters(t *testing.T) {
	store := func(name, code, address, phone string) StoreInput {
		return StoreInput{Name: name, Code: code, Address: address, Phone: phone, OpeningTime: "08:00", ClosingTime: "22:00"}
	}
	at := store(strings.Repeat("ğ", 255), strings.Repeat("Ç", 20), strings.Repeat("ü", 500), strings.Repeat("٠", 20))
	assert.NoError(t, at.validate())

	over := store(strings.Repeat("ğ", 256), strings.Repeat("Ç", 21), strings.Repeat("ü", 501), strings.Repeat("٠", 21))
	fields := fieldErrors(t, over.validate())
	for _, f := range []string{"name", "code", "address", "phone"} {
		assert.Contains(t, fields, f)
	}

	cat := CategoryInput{Name: strings.Repeat("é", 255)}
	assert.NoError(t, cat.validate())
	cat.Name += "é"
	assert.Contains(t, fieldErrors(t, cat.validate()), "name")

	product := ProductInput{Name: strings.Repeat("ı", 255), Price: decimal.RequireFromString("1"), PreparationTime: 5, CategoryID: 1, StoreID: 1}
	assert.NoError(t, product.validate())
	product.Name += "ı"
	assert.Contains(t, fieldErrors(t, product.validate()), "name")
}
