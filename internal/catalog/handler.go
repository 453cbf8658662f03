package catalog

import (
	"fmt"
	"strings"

	"scanorder-backend/internal/auth"
	"scanorder-backend/internal/paging"

	"github.com/gofiber/fiber/v2"
)

const (
	storesPerPage   = 10
	productsPerPage = 20
)

func idParam(c *fiber.Ctx, name string) (uint, error) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid "+name)
	}
	return uint(id), nil
}

// ----------------------------------------
// STORES
// ----------------------------------------

// GET /api/stores
func ListStoresHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		res, err := svc.ListStores(c.UserContext(), actor, paging.FromQuery(c, storesPerPage))
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

// GET /api/stores/:id
func GetStoreHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		id, err := idParam(c, "id")
		if err != nil {
			return err
		}
		store, err := svc.GetStore(c.UserContext(), actor, id)
		if err != nil {
			return err
		}
		return c.JSON(store)
	}
}

// POST /api/stores
func CreateStoreHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		var body StoreInput
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		store, err := svc.CreateStore(c.UserContext(), actor, body)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(store)
	}
}

// PUT /api/stores/:id
func UpdateStoreHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		id, err := idParam(c, "id")
		if err != nil {
			return err
		}
		var body StoreInput
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		store, err := svc.UpdateStore(c.UserContext(), actor, id, body)
		if err != nil {
			return err
		}
		return c.JSON(store)
	}
}

// DELETE /api/stores/:id
func DeleteStoreHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		id, err := idParam(c, "id")
		if err != nil {
			return err
		}
		if err := svc.DeleteStore(c.UserContext(), actor, id); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ----------------------------------------
// CATEGORIES
// ----------------------------------------

// GET /api/stores/:id/categories
func ListCategoriesHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		storeID, err := idParam(c, "id")
		if err != nil {
			return err
		}
		cats, err := svc.ListCategories(c.UserContext(), actor, storeID)
		if err != nil {
			return err
		}
		return c.JSON(cats)
	}
}

// POST /api/stores/:id/categories
func CreateCategoryHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		storeID, err := idParam(c, "id")
		if err != nil {
			return err
		}
		var body CategoryInput
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		cat, err := svc.CreateCategory(c.UserContext(), actor, storeID, body)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(cat)
	}
}

// PUT /api/categories/:id
func UpdateCategoryHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		id, err := idParam(c, "id")
		if err != nil {
			return err
		}
		var body CategoryInput
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		cat, err := svc.UpdateCategory(c.UserContext(), actor, id, body)
		if err != nil {
			return err
		}
		return c.JSON(cat)
	}
}

// DELETE /api/categories/:id
func DeleteCategoryHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		id, err := idParam(c, "id")
		if err != nil {
			return err
		}
		if err := svc.DeleteCategory(c.UserContext(), actor, id); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ----------------------------------------
// PRODUCTS
// ----------------------------------------

// GET /api/products
func ListProductsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		res, err := svc.ListProducts(c.UserContext(), actor, paging.FromQuery(c, productsPerPage))
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

// GET /api/products/:id
func GetProductHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		id, err := idParam(c, "id")
		if err != nil {
			return err
		}
		product, err := svc.GetProduct(c.UserContext(), actor, id)
		if err != nil {
			return err
		}
		return c.JSON(product)
	}
}

// POST /api/products
func CreateProductHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		var body ProductInput
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		product, err := svc.CreateProduct(c.UserContext(), actor, body)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(product)
	}
}

// PUT /api/products/:id
func UpdateProductHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		id, err := idParam(c, "id")
		if err != nil {
			return err
		}
		var body ProductInput
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		product, err := svc.UpdateProduct(c.UserContext(), actor, id, body)
		if err != nil {
			return err
		}
		return c.JSON(product)
	}
}

// DELETE /api/products/:id
func DeleteProductHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		id, err := idParam(c, "id")
		if err != nil {
			return err
		}
		if err := svc.DeleteProduct(c.UserContext(), actor, id); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// POST /api/stores/:id/menu-order
// multipart field "file": .xlsx whose first column lists product names in menu order.
func ImportMenuOrderHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		storeID, err := idParam(c, "id")
		if err != nil {
			return err
		}
		fh, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "A file upload is required")
		}
		if !strings.HasSuffix(strings.ToLower(fh.Filename), ".xlsx") {
			return fiber.NewError(fiber.StatusBadRequest, "Only .xlsx files can be uploaded")
		}
		f, err := fh.Open()
		if err != nil {
			return err
		}
		defer f.Close()

		res, err := svc.ImportMenuOrder(c.UserContext(), actor, storeID, f)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"message":            fmt.Sprintf("%d products ordered, %d not matched.", res.Matched, len(res.Unmatched)),
			"matched_count":      res.Matched,
			"unmatched_products": res.Unmatched,
		})
	}
}
