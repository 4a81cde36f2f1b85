package suppliers

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

// RegisterSupplierRoutes mounts the supplier CRUD endpoints. Reads are open;
// writes require a valid token and delete additionally requires the
// delete-supplier policy.
func RegisterSupplierRoutes(app RouteRegistrar, gate *HTTPGate, opts ...SupplierControllerOption) {
	controller := NewSupplierController(opts...)

	app.Get("/fornecedor", controller.List).SetName("supplier.list")
	app.Get("/fornecedor/:id", controller.Show).SetName("supplier.show")
	app.Post("/fornecedor", controller.Create, gate.Protected()).SetName("supplier.create")
	app.Put("/fornecedor/:id", controller.Update, gate.Protected()).SetName("supplier.update")
	app.Delete("/fornecedor/:id", controller.Delete, gate.Protected(PolicyDeleteSupplier)).SetName("supplier.delete")
}

// SupplierController handles the supplier HTTP routes
type SupplierController struct {
	Debug  bool
	Logger Logger
	Store  Suppliers
}

type SupplierControllerOption func(*SupplierController) *SupplierController

func NewSupplierController(opts ...SupplierControllerOption) *SupplierController {
	c := &SupplierController{
		Logger: defLogger{},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Store == nil {
		panic("Missing Suppliers store in supplier controller...")
	}

	return c
}

// SupplierPayload is the request body for create and update. Field names
// keep the Portuguese wire keys. There is no ativo field: new suppliers
// always start active and updates may only change name and document.
type SupplierPayload struct {
	Name     string `form:"nome" json:"nome"`
	Document string `form:"documento" json:"documento"`
}

// Validate will validate the payload, reporting every failing field
func (p SupplierPayload) Validate() *goerrors.Error {
	return goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&p,
			validation.Field(&p.Name, validation.Required, validation.Length(1, 200)),
			validation.Field(&p.Document, validation.Required, validation.Length(11, 14), is.Digit),
		)
	}, "Invalid supplier payload")
}

// List returns every supplier
func (c *SupplierController) List(ctx router.Context) error {
	records, err := c.Store.List(ctx.Context())
	if err != nil {
		c.Logger.Error("supplier list", "error", err)
		return RespondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, records)
}

// Show returns a single supplier by id
func (c *SupplierController) Show(ctx router.Context) error {
	id, err := parseSupplierID(ctx)
	if err != nil {
		return RespondError(ctx, err)
	}

	record, err := c.Store.GetByID(ctx.Context(), id)
	if err != nil {
		return RespondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, record)
}

// Create inserts a new supplier and points the client at it
func (c *SupplierController) Create(ctx router.Context) error {
	payload := new(SupplierPayload)

	if err := ctx.Bind(payload); err != nil {
		c.Logger.Error("supplier create parse payload", "error", err)
		return RespondError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		c.Logger.Error("supplier create validate payload", "error", err)
		return RespondError(ctx, err)
	}

	if c.Debug {
		fmt.Println("======= SUPPLIER CREATE ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("==============================")
	}

	record, err := c.Store.Create(ctx.Context(), NewSupplier(payload.Name, payload.Document))
	if err != nil {
		c.Logger.Error("supplier create", "error", err)
		return RespondError(ctx, err)
	}

	ctx.SetHeader("Location", fmt.Sprintf("/fornecedor/%s", record.ID))
	return ctx.JSON(router.StatusCreated, record)
}

// Update overwrites the mutable attributes of an existing supplier. The
// record is read back first; whoever writes last wins.
func (c *SupplierController) Update(ctx router.Context) error {
	id, err := parseSupplierID(ctx)
	if err != nil {
		return RespondError(ctx, err)
	}

	// read first: an unknown id answers not found even when the body is bad
	record, err := c.Store.GetByID(ctx.Context(), id)
	if err != nil {
		return RespondError(ctx, err)
	}

	payload := new(SupplierPayload)

	if err := ctx.Bind(payload); err != nil {
		c.Logger.Error("supplier update parse payload", "error", err)
		return RespondError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		c.Logger.Error("supplier update validate payload", "error", err)
		return RespondError(ctx, err)
	}

	record.Apply(payload.Name, payload.Document)

	if err := c.Store.Update(ctx.Context(), record); err != nil {
		c.Logger.Error("supplier update", "id", id.String(), "error", err)
		return RespondError(ctx, err)
	}

	return ctx.NoContent(router.StatusNoContent)
}

// Delete removes a supplier. The route only runs for tokens that satisfy
// the delete-supplier policy.
func (c *SupplierController) Delete(ctx router.Context) error {
	id, err := parseSupplierID(ctx)
	if err != nil {
		return RespondError(ctx, err)
	}

	if _, err := c.Store.GetByID(ctx.Context(), id); err != nil {
		return RespondError(ctx, err)
	}

	if err := c.Store.Delete(ctx.Context(), id); err != nil {
		c.Logger.Error("supplier delete", "id", id.String(), "error", err)
		return RespondError(ctx, err)
	}

	return ctx.NoContent(router.StatusNoContent)
}

// parseSupplierID reads the :id route param. A value that is not a UUID can
// never match a record, so it reports not found rather than bad input.
func parseSupplierID(ctx router.Context) (uuid.UUID, error) {
	raw := ctx.Param("id", "")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ErrSupplierNotFound
	}
	return id, nil
}
