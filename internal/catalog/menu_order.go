package catalog

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode"

	"scanorder-backend/internal/apperr"
	"scanorder-backend/internal/audit"
	"scanorder-backend/internal/identity"
	"scanorder-backend/internal/models"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	numericWord  = regexp.MustCompile(`^[\d.,]+$`)
	quantityWord = regexp.MustCompile(`^[\d.,]+(?:kg|gr|g|lt|l|ml|cl|oz|pcs)$`)
	unitWords    = map[string]bool{"kg": true, "gr": true, "g": true, "lt": true, "l": true, "ml": true, "cl": true, "oz": true, "pcs": true}
)

type MenuOrderResult struct {
	Matched   int      `json:"matched_count"`
	Unmatched []string `json:"unmatched_products"`
}

// normalizeProductName folds case and accents and drops quantity words so
// "Çay 330 ml" and "cay" compare equal.
func normalizeProductName(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(strings.ReplaceAll(folded, "ı", "i"))

	var words []string
	for _, w := range strings.Fields(folded) {
		if numericWord.MatchString(w) || quantityWord.MatchString(w) || unitWords[w] {
			continue
		}
		words = append(words, w)
	}
	return strings.Join(words, " ")
}

func isHeaderCell(cell string) bool {
	c := strings.ToLower(strings.TrimSpace(cell))
	return strings.Contains(c, "product") || c == "name"
}

// readProductNames returns the first column of the first sheet, skipping
// blank rows and a header row.
func readProductNames(r io.Reader) ([]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperr.Validation(invalidData, map[string]string{"file": "The file is not a readable .xlsx workbook."})
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperr.Validation(invalidData, map[string]string{"file": "The workbook has no sheets."})
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}

	var names []string
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		name := strings.TrimSpace(row[0])
		if name == "" || (i == 0 && isHeaderCell(name)) {
			continue
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return nil, apperr.Validation(invalidData, map[string]string{"file": "The workbook lists no products."})
	}
	return names, nil
}

// ImportMenuOrder reorders a store's products to follow the product names
// listed in an .xlsx workbook. Listed products come first in sheet order;
// the rest keep their relative order after them.
func (s *Service) ImportMenuOrder(ctx context.Context, actor identity.Actor, storeID uint, r io.Reader) (*MenuOrderResult, error) {
	store, err := s.repo.FindStore(ctx, storeID)
	if err != nil {
		return nil, storeNotFound(err)
	}
	if !actor.CanManageProducts(store.ID) {
		return nil, apperr.Forbidden(unauthorized)
	}

	names, err := readProductNames(r)
	if err != nil {
		return nil, err
	}
	products, err := s.repo.StoreProducts(ctx, store.ID)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]uint, len(products))
	for _, p := range products {
		key := normalizeProductName(p.Name)
		if _, dup := byName[key]; !dup {
			byName[key] = p.ID
		}
	}

	res := &MenuOrderResult{Unmatched: []string{}}
	placed := make(map[uint]bool, len(products))
	ids := make([]uint, 0, len(products))
	for _, name := range names {
		id, ok := byName[normalizeProductName(name)]
		if !ok {
			res.Unmatched = append(res.Unmatched, name)
			continue
		}
		if placed[id] {
			continue
		}
		placed[id] = true
		ids = append(ids, id)
		res.Matched++
	}
	for _, p := range products {
		if !placed[p.ID] {
			ids = append(ids, p.ID)
		}
	}

	if res.Matched > 0 {
		if err := s.repo.ReorderProducts(ctx, store.ID, ids); err != nil {
			return nil, err
		}
		s.menus.InvalidateMenu(ctx, store.Code)
		s.audit.Record(ctx, audit.Entry{
			StoreID:     &store.ID,
			Actor:       actor,
			EntityType:  "store",
			EntityID:    store.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Menu order imported: %d matched, %d unmatched", res.Matched, len(res.Unmatched)),
		})
	}

	s.logger.Info().
		Uint("store_id", store.ID).
		Int("matched", res.Matched).
		Int("unmatched", len(res.Unmatched)).
		Msg("menu order imported")
	return res, nil
}
