package catalog_test

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"

	"scanorder-backend/internal/apperr"
	"scanorder-backend/internal/catalog"
	"scanorder-backend/internal/models"
	"scanorder-backend/internal/testutil"

	"github.com/xuri/excelize/v2"
)

func workbook(s *CatalogTestSuite, rows ...string) *bytes.Buffer {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, v := range rows {
		s.Require().NoError(f.SetCellValue(sheet, fmt.Sprintf("A%d", i+1), v))
	}
	buf, err := f.WriteToBuffer()
	s.Require().NoError(err)
	return buf
}

func (s *CatalogTestSuite) menuNames() []string {
	products, err := s.db.StoreProducts(context.Background(), s.store.ID)
	s.Require().NoError(err)
	sort.SliceStable(products, func(i, j int) bool { return products[i].SortOrder < products[j].SortOrder })
	names := make([]string, len(products))
	for i, p := range products {
		names[i] = p.Name
	}
	return names
}

func (s *CatalogTestSuite) TestImportMenuOrder() {
	t := s.T()
	s.db.Product(t, s.category, "Club Sandwich", "7.00", 0, true)
	s.db.Product(t, s.category, "Cola", "2.00", 1, true)
	s.db.Product(t, s.category, "Crème Brûlée", "4.00", 2, true)
	s.db.Product(t, s.category, "Soup", "3.00", 3, true)

	res, err := s.svc.ImportMenuOrder(s.ctx, s.cashier, s.store.ID,
		workbook(s, "Product name", "CREME BRULEE", "", "Cola 330 ml", "Pizza", "cola"))
	s.Require().NoError(err)
	s.Equal(2, res.Matched)
	s.Equal([]string{"Pizza"}, res.Unmatched)
	s.Equal([]string{"Crème Brûlée", "Cola", "Club Sandwich", "Soup"}, s.menuNames())
	s.Equal([]string{"DELI01"}, s.menus.codes)

	last := s.db.AuditLogs()[len(s.db.AuditLogs())-1]
	s.Equal("store", last.EntityType)
	s.Equal(models.AuditActionUpdate, last.Action)
}

func (s *CatalogTestSuite) TestImportMenuOrderRejections() {
	_, err := s.svc.ImportMenuOrder(s.ctx, s.rival, s.store.ID, workbook(s, "Cola"))
	s.True(apperr.IsForbidden(err))

	_, err = s.svc.ImportMenuOrder(s.ctx, s.owner, 999, workbook(s, "Cola"))
	s.True(apperr.IsNotFound(err))

	_, err = s.svc.ImportMenuOrder(s.ctx, s.owner, s.store.ID, bytes.NewBufferString("not a workbook"))
	s.True(apperr.IsValidation(err))

	_, err = s.svc.ImportMenuOrder(s.ctx, s.owner, s.store.ID, workbook(s, "Product"))
	s.True(apperr.IsValidation(err))

	res, err := s.svc.ImportMenuOrder(s.ctx, s.owner, s.store.ID, workbook(s, "Nothing here"))
	s.Require().NoError(err)
	s.Zero(res.Matched)
	s.Empty(s.menus.codes)
}

func (s *CatalogTestSuite) TestImportMenuOrderHandler() {
	s.db.Product(s.T(), s.category, "Cola", "2.00", 0, true)
	current := s.owner
	app := testutil.App(&current)
	app.Post("/api/stores/:id/menu-order", catalog.ImportMenuOrderHandler(s.svc))

	upload := func(filename string, content *bytes.Buffer) int {
		body := &bytes.Buffer{}
		w := multipart.NewWriter(body)
		part, err := w.CreateFormFile("file", filename)
		s.Require().NoError(err)
		_, err = part.Write(content.Bytes())
		s.Require().NoError(err)
		s.Require().NoError(w.Close())

		req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/stores/%d/menu-order", s.store.ID), body)
		req.Header.Set("Content-Type", w.FormDataContentType())
		resp, err := app.Test(req, -1)
		s.Require().NoError(err)
		resp.Body.Close()
		return resp.StatusCode
	}

	s.Equal(http.StatusOK, upload("menu.xlsx", workbook(s, "Cola")))
	s.Equal(http.StatusBadRequest, upload("menu.csv", workbook(s, "Cola")))
}
