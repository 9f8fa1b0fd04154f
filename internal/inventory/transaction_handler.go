package inventory

import (
	"errors"
	"fmt"

	"sitedesk-backend/internal/api"
	"sitedesk-backend/internal/audit"
	"sitedesk-backend/internal/auth"
	"sitedesk-backend/internal/models"
	"sitedesk-backend/internal/stock"
	"sitedesk-backend/internal/store"

	"github.com/gofiber/fiber/v2"
)

type CreateTransactionRequest struct {
	MaterialID      uint    `json:"materialId" validate:"required,gt=0"`
	SiteID          uint    `json:"siteId"`
	Date            string  `json:"date" validate:"omitempty,datetime=2006-01-02"`
	TransactionType string  `json:"transactionType" validate:"required,oneof=added used"`
	Quantity        float64 `json:"quantity" validate:"required,gt=0"`
	Notes           string  `json:"notes" validate:"max=500"`
	RecordedBy      string  `json:"recordedBy" validate:"max=100"`
}

type TransactionResponse struct {
	Transaction models.MaterialTransaction `json:"transaction"`
	// Material is null when the transaction references a material that no
	// longer exists; the row is still recorded.
	Material *MaterialResponse `json:"material"`
	// Absorbed is the part of a "used" quantity that exceeded stock.
	Absorbed float64 `json:"absorbed"`
}

// POST /api/transactions
func CreateTransactionHandler(ledger *stock.Ledger, aw *audit.Writer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateTransactionRequest
		if err := api.Bind(c, &body); err != nil {
			return err
		}

		date, _ := api.ParseDate(body.Date)
		recordedBy := body.RecordedBy
		if recordedBy == "" {
			_, recordedBy = auth.CurrentUser(c)
		}

		res, err := ledger.Record(c.UserContext(), stock.Input{
			MaterialID: body.MaterialID,
			SiteID:     body.SiteID,
			Type:       models.TransactionType(body.TransactionType),
			Quantity:   body.Quantity,
			Date:       date,
			Notes:      body.Notes,
			RecordedBy: recordedBy,
		})
		switch {
		case errors.Is(err, stock.ErrInvalidQuantity):
			return api.Invalid("quantity", err.Error())
		case errors.Is(err, stock.ErrInvalidType):
			return api.Invalid("transactionType", err.Error())
		case err != nil:
			return err
		}

		resp := TransactionResponse{Transaction: res.Transaction, Absorbed: res.Absorbed}
		desc := fmt.Sprintf("Stock %s: %.2f (material #%d)", res.Transaction.TransactionType, res.Transaction.Quantity, res.Transaction.MaterialID)
		if res.Material != nil {
			mr := toResponse(*res.Material)
			resp.Material = &mr
			desc = fmt.Sprintf("Stock %s: %s - %.2f %s", res.Transaction.TransactionType, res.Material.Name, res.Transaction.Quantity, res.Material.Unit)
		}
		if res.Absorbed > 0 {
			desc += fmt.Sprintf(" (%.2f over available stock)", res.Absorbed)
		}

		aw.Record(c, audit.LogOptions{
			SiteID:      audit.SiteRef(res.Transaction.SiteID),
			EntityType:  "material_transaction",
			EntityID:    res.Transaction.ID,
			Action:      models.AuditActionCreate,
			Description: desc,
			After:       res.Transaction,
		})

		return c.Status(fiber.StatusCreated).JSON(resp)
	}
}

// GET /api/transactions?siteId=&materialId=&from=&to=
func ListTransactionsHandler(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q, err := api.ParseQuery(c)
		if err != nil {
			return err
		}
		txs, err := st.Transactions.List(c.UserContext(), q)
		if err != nil {
			return err
		}
		return c.JSON(newestFirst(txs))
	}
}

// GET /api/transactions/:id
func GetTransactionHandler(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := api.ParseID(c, "id")
		if err != nil {
			return err
		}
		tx, err := st.Transactions.Get(c.UserContext(), id)
		if err != nil {
			return api.NotFound(err, "transaction")
		}
		return c.JSON(tx)
	}
}

// GET /api/materials/:id/transactions
//
// Works for deleted materials too: their history stays readable.
func ListMaterialTransactionsHandler(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := api.ParseID(c, "id")
		if err != nil {
			return err
		}
		q, err := api.ParseQuery(c)
		if err != nil {
			return err
		}
		q.MaterialID = id
		txs, err := st.Transactions.List(c.UserContext(), q)
		if err != nil {
			return err
		}
		return c.JSON(newestFirst(txs))
	}
}
