package orders

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	product "github.com/angelmondragon/orderledger-backend/internal/products"
	"github.com/angelmondragon/orderledger-backend/internal/testdb"
	pkgAuth "github.com/angelmondragon/orderledger-backend/pkg/auth"
	"github.com/angelmondragon/orderledger-backend/pkg/db/models"
	"github.com/angelmondragon/orderledger-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/orderledger-backend/pkg/errors"
	"github.com/angelmondragon/orderledger-backend/pkg/pagination"
)

type recordingMetrics struct {
	transitions []string
	mutations   []string
	conflicts   []string
	archived    int
}

func (m *recordingMetrics) IncTransition(from, to string) {
	m.transitions = append(m.transitions, from+"->"+to)
}
func (m *recordingMetrics) IncItemMutation(op string) { m.mutations = append(m.mutations, op) }
func (m *recordingMetrics) IncArchived()              { m.archived++ }
func (m *recordingMetrics) IncConflict(reason string) { m.conflicts = append(m.conflicts, reason) }

type fixture struct {
	svc     Service
	conn    *gorm.DB
	metrics *recordingMetrics
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	client, conn := testdb.Client(t)
	products := product.NewRepository(conn)
	metrics := &recordingMetrics{}
	svc, err := NewService(ServiceParams{
		Repo: NewRepository(conn),
		Tx:   client,
		Products: func(tx *gorm.DB) ProductFinder {
			return products.WithTx(tx)
		},
		Metrics: metrics,
	})
	require.NoError(t, err)
	return fixture{svc: svc, conn: conn, metrics: metrics}
}

func (f fixture) seedProduct(t *testing.T, p models.Product) {
	t.Helper()
	if p.Description == "" {
		p.Description = "product " + p.Code
	}
	p.StockStatus = enums.ProductStockIn
	require.NoError(t, f.conn.Create(&p).Error)
}

func (f fixture) order(t *testing.T, id int64) models.Order {
	t.Helper()
	var order models.Order
	require.NoError(t, f.conn.First(&order, "id = ?", id).Error)
	return order
}

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func actorFor(username string) pkgAuth.Actor {
	return pkgAuth.Actor{Username: username, Role: enums.UserRoleCustomer}
}

var adminActor = pkgAuth.Actor{Username: "root", Role: enums.UserRoleAdmin}

func addInput(code string, qty int) AddItemInput {
	return AddItemInput{CustomerName: "Acme", ProductCode: code, Quantity: qty}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
}

func TestOrderLifecycleEndToEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := actorFor("u1")
	f.seedProduct(t, models.Product{
		Code:              "P1",
		FractionalPrice:   dec("10"),
		ClosedBoxQuantity: 10,
		ClosedBoxPrice:    dec("8"),
	})

	added, err := f.svc.AddItem(ctx, user, addInput("P1", 5))
	require.NoError(t, err)
	assert.True(t, added.OrderCreated)
	assert.Equal(t, "50.00", added.Total.StringFixed(2))
	assert.Equal(t, "10.00", added.UnitPrice.StringFixed(2))

	edited, err := f.svc.EditItemQuantity(ctx, user, added.ItemID, 12)
	require.NoError(t, err)
	assert.Equal(t, "8.00", edited.UnitPrice.StringFixed(2))
	assert.Equal(t, "96.00", edited.Total.StringFixed(2))
	assert.Equal(t, 10, edited.ClosedBoxQuantity)

	deleted, err := f.svc.DeleteItem(ctx, user, added.OrderID, added.ItemID)
	require.NoError(t, err)
	assert.Equal(t, "0.00", deleted.Total.StringFixed(2))

	submitted, err := f.svc.Submit(ctx, user, added.OrderID, nil)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusSubmitted, submitted.Status)
	assert.True(t, submitted.Changed)

	finished, err := f.svc.Finish(ctx, user, added.OrderID, nil)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusFinished, finished.Status)

	_, err = f.svc.RevertToDraft(ctx, user, added.OrderID)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	assert.Equal(t, map[string]any{"from": "finished", "to": "draft"}, pkgerrors.As(err).Details())

	assert.Equal(t, enums.OrderStatusFinished, f.order(t, added.OrderID).Status)
	assert.Equal(t, []string{"add", "edit", "delete"}, f.metrics.mutations)
	assert.Equal(t, []string{"draft->submitted", "submitted->finished"}, f.metrics.transitions)
}

func TestTierPriceAtThreshold(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := actorFor("u1")
	f.seedProduct(t, models.Product{Code: "T", FractionalPrice: dec("10"), ClosedBoxQuantity: 10, ClosedBoxPrice: dec("9")})
	f.seedProduct(t, models.Product{Code: "U", FractionalPrice: dec("10"), ClosedBoxQuantity: 10, ClosedBoxPrice: dec("9")})

	atThreshold, err := f.svc.AddItem(ctx, user, addInput("T", 10))
	require.NoError(t, err)
	assert.Equal(t, "9.00", atThreshold.UnitPrice.StringFixed(2))

	below, err := f.svc.AddItem(ctx, user, addInput("U", 9))
	require.NoError(t, err)
	assert.Equal(t, "10.00", below.UnitPrice.StringFixed(2))
	assert.Equal(t, atThreshold.OrderID, below.OrderID)
	assert.False(t, below.OrderCreated)
	assert.Equal(t, "180.00", below.Total.StringFixed(2))
}

func TestAddItemValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := map[string]AddItemInput{
		"missing customer": {ProductCode: "P1", Quantity: 1},
		"missing code":     {CustomerName: "Acme", Quantity: 1},
		"zero quantity":    {CustomerName: "Acme", ProductCode: "P1"},
		"negative":         {CustomerName: "Acme", ProductCode: "P1", Quantity: -3},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.AddItem(ctx, actorFor("u1"), input)
			require.Error(t, err)
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
		})
	}

	_, err := f.svc.AddItem(ctx, actorFor("u1"), addInput("MISSING", 1))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.Contains(t, err.Error(), "MISSING")
}

func TestAddItemRejectsDuplicateProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedProduct(t, models.Product{Code: "P1", FractionalPrice: dec("10")})

	first, err := f.svc.AddItem(ctx, actorFor("u1"), addInput("P1", 1))
	require.NoError(t, err)

	_, err = f.svc.AddItem(ctx, actorFor("u1"), addInput("P1", 2))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
	assert.Contains(t, err.Error(), "P1")

	var count int64
	require.NoError(t, f.conn.Model(&models.OrderItem{}).Where("order_id = ?", first.OrderID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
	assert.Contains(t, f.metrics.conflicts, "duplicate_item")
}

func TestAddItemRejectsDraftForOtherCustomer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedProduct(t, models.Product{Code: "P1", FractionalPrice: dec("10")})
	f.seedProduct(t, models.Product{Code: "P2", FractionalPrice: dec("5")})

	first, err := f.svc.AddItem(ctx, actorFor("u1"), addInput("P1", 1))
	require.NoError(t, err)

	input := addInput("P2", 1)
	input.CustomerName = "Beta"
	_, err = f.svc.AddItem(ctx, actorFor("u1"), input)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
	assert.Contains(t, err.Error(), "Acme")
	details, ok := pkgerrors.As(err).Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, first.OrderID, details["order_id"])

	var orders int64
	require.NoError(t, f.conn.Model(&models.Order{}).Count(&orders).Error)
	assert.Equal(t, int64(1), orders)
}

func TestAddItemAdminTargetsUsername(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedProduct(t, models.Product{Code: "P1", FractionalPrice: dec("10")})

	input := addInput("P1", 1)
	input.Username = "u2"
	res, err := f.svc.AddItem(ctx, adminActor, input)
	require.NoError(t, err)
	assert.Equal(t, "u2", f.order(t, res.OrderID).Username)

	input.Username = "u3"
	res, err = f.svc.AddItem(ctx, actorFor("u4"), input)
	require.NoError(t, err)
	assert.Equal(t, "u4", f.order(t, res.OrderID).Username)
}

func TestOneDraftPerUserOnRevert(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := actorFor("u1")
	f.seedProduct(t, models.Product{Code: "P1", FractionalPrice: dec("10")})

	first, err := f.svc.AddItem(ctx, user, addInput("P1", 1))
	require.NoError(t, err)
	_, err = f.svc.Submit(ctx, user, first.OrderID, nil)
	require.NoError(t, err)

	ok, err := f.svc.CanRevert(ctx, user, "")
	require.NoError(t, err)
	assert.True(t, ok)

	second, err := f.svc.AddItem(ctx, user, addInput("P1", 1))
	require.NoError(t, err)
	assert.True(t, second.OrderCreated)
	assert.NotEqual(t, first.OrderID, second.OrderID)

	ok, err = f.svc.CanRevert(ctx, user, "")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = f.svc.RevertToDraft(ctx, user, first.OrderID)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
	assert.Equal(t, enums.OrderStatusSubmitted, f.order(t, first.OrderID).Status)

	require.NoError(t, f.svc.Archive(ctx, user, second.OrderID))
	reverted, err := f.svc.RevertToDraft(ctx, user, first.OrderID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusDraft, reverted.Status)
}

func TestTransitionTable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := actorFor("u1")
	f.seedProduct(t, models.Product{Code: "P1", FractionalPrice: dec("10")})

	added, err := f.svc.AddItem(ctx, user, addInput("P1", 1))
	require.NoError(t, err)
	id := added.OrderID

	_, err = f.svc.Receive(ctx, user, id)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	res, err := f.svc.RevertFinished(ctx, user, id)
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, "no action needed", res.Message)

	notes := "deliver on monday"
	res, err = f.svc.Finish(ctx, user, id, &notes)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusDraft, res.From)
	assert.Equal(t, enums.OrderStatusFinished, res.Status)
	assert.Equal(t, notes, f.order(t, id).Notes)

	updated := "deliver on tuesday"
	res, err = f.svc.Finish(ctx, user, id, &updated)
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, updated, f.order(t, id).Notes)

	res, err = f.svc.RevertFinished(ctx, user, id)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusSubmitted, res.Status)

	res, err = f.svc.Submit(ctx, user, id, nil)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	assert.Nil(t, res)

	_, err = f.svc.Finish(ctx, user, id, nil)
	require.NoError(t, err)
	res, err = f.svc.Submit(ctx, user, id, nil)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusSubmitted, res.Status)

	_, err = f.svc.Finish(ctx, user, id, nil)
	require.NoError(t, err)
	res, err = f.svc.Receive(ctx, user, id)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusReceived, res.Status)

	for name, op := range map[string]func() (*TransitionResult, error){
		"submit":          func() (*TransitionResult, error) { return f.svc.Submit(ctx, user, id, nil) },
		"finish":          func() (*TransitionResult, error) { return f.svc.Finish(ctx, user, id, nil) },
		"receive":         func() (*TransitionResult, error) { return f.svc.Receive(ctx, user, id) },
		"revert":          func() (*TransitionResult, error) { return f.svc.RevertToDraft(ctx, user, id) },
		"revert finished": func() (*TransitionResult, error) { return f.svc.RevertFinished(ctx, user, id) },
	} {
		_, err := op()
		assert.Truef(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict), "%s from received", name)
	}

	_, err = f.svc.EditItemQuantity(ctx, user, added.ItemID, 3)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestUpdateIPIRecomputesTaxableLines(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := actorFor("u1")
	f.seedProduct(t, models.Product{Code: "TAX", FractionalPrice: dec("100"), IPIApplicable: true})
	f.seedProduct(t, models.Product{Code: "FREE", FractionalPrice: dec("50")})

	_, err := f.svc.AddItem(ctx, user, addInput("TAX", 1))
	require.NoError(t, err)
	added, err := f.svc.AddItem(ctx, user, addInput("FREE", 2))
	require.NoError(t, err)
	assert.Equal(t, "200.00", added.Total.StringFixed(2))

	res, err := f.svc.UpdateIPI(ctx, user, added.OrderID, dec("0.13"))
	require.NoError(t, err)
	assert.Equal(t, "213.00", res.Total.StringFixed(2))
	assert.Equal(t, "IPI updated to 13% and total updated to 213.00", res.Message)

	detail, err := f.svc.Details(ctx, user, added.OrderID)
	require.NoError(t, err)
	require.Len(t, detail.Items, 2)
	assert.Equal(t, "113.00", detail.Items[0].LineTotal.StringFixed(2))
	assert.Equal(t, "213.00", detail.Total.StringFixed(2))

	_, err = f.svc.UpdateIPI(ctx, user, added.OrderID, dec("1.5"))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = f.svc.UpdateIPI(ctx, user, added.OrderID, dec("-0.1"))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.Submit(ctx, user, added.OrderID, nil)
	require.NoError(t, err)
	_, err = f.svc.UpdateIPI(ctx, user, added.OrderID, dec("0.2"))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestArchiveMovesOrderAndItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := actorFor("u1")
	f.seedProduct(t, models.Product{Code: "P1", FractionalPrice: dec("10")})

	added, err := f.svc.AddItem(ctx, user, addInput("P1", 3))
	require.NoError(t, err)
	require.NoError(t, f.svc.SaveNotes(ctx, user, added.OrderID, "keep"))

	require.NoError(t, f.svc.Archive(ctx, user, added.OrderID))

	var archived models.ArchivedOrder
	require.NoError(t, f.conn.First(&archived, "id = ?", added.OrderID).Error)
	assert.Equal(t, "keep", archived.Notes)
	assert.Equal(t, "u1", archived.ArchivedBy)
	assert.Equal(t, "30.00", archived.Total.StringFixed(2))

	var items int64
	require.NoError(t, f.conn.Model(&models.OrderItem{}).Where("order_id = ?", added.OrderID).Count(&items).Error)
	assert.Zero(t, items)

	err = f.svc.Archive(ctx, user, added.OrderID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.Equal(t, 1, f.metrics.archived)
}

func TestArchiveRollsBackWhenBackupExists(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := actorFor("u1")
	f.seedProduct(t, models.Product{Code: "P1", FractionalPrice: dec("10")})

	added, err := f.svc.AddItem(ctx, user, addInput("P1", 1))
	require.NoError(t, err)
	stale := models.ArchiveOf(f.order(t, added.OrderID), "someone", f.order(t, added.OrderID).CreatedAt)
	require.NoError(t, f.conn.Create(&stale).Error)

	err = f.svc.Archive(ctx, user, added.OrderID)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInternal))

	order := f.order(t, added.OrderID)
	assert.Equal(t, added.OrderID, order.ID)
	var items int64
	require.NoError(t, f.conn.Model(&models.OrderItem{}).Where("order_id = ?", added.OrderID).Count(&items).Error)
	assert.Equal(t, int64(1), items)
}

func TestOwnershipHidesForeignOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedProduct(t, models.Product{Code: "P1", FractionalPrice: dec("10")})

	input := addInput("P1", 1)
	input.Representative = "rep1"
	added, err := f.svc.AddItem(ctx, actorFor("u1"), input)
	require.NoError(t, err)

	_, err = f.svc.Status(ctx, actorFor("u2"), added.OrderID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	_, err = f.svc.DeleteItem(ctx, actorFor("u2"), added.OrderID, added.ItemID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	_, err = f.svc.Submit(ctx, actorFor("u2"), added.OrderID, nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	rep := pkgAuth.Actor{Username: "rep1", Role: enums.UserRoleRepresentative}
	status, err := f.svc.Status(ctx, rep, added.OrderID)
	require.NoError(t, err)
	assert.Equal(t, "draft", status.StatusName)

	listed, err := f.svc.List(ctx, rep)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	listed, err = f.svc.List(ctx, actorFor("u2"))
	require.NoError(t, err)
	assert.Empty(t, listed)

	items, err := f.svc.Items(ctx, adminActor, added.OrderID)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestDeleteItemMissing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedProduct(t, models.Product{Code: "P1", FractionalPrice: dec("10")})

	added, err := f.svc.AddItem(ctx, actorFor("u1"), addInput("P1", 1))
	require.NoError(t, err)

	_, err = f.svc.DeleteItem(ctx, actorFor("u1"), added.OrderID, added.ItemID+100)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = f.svc.EditItemQuantity(ctx, actorFor("u1"), added.ItemID+100, 2)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	_, err = f.svc.EditItemQuantity(ctx, actorFor("u1"), added.ItemID, 0)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestListAllPaginatesWithCustomerJoin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedProduct(t, models.Product{Code: "P1", FractionalPrice: dec("10")})
	require.NoError(t, f.conn.Create(&models.Customer{Username: "u1", CompanyName: "Acme", Representative: "rep9"}).Error)

	for _, username := range []string{"u1", "u2", "u3"} {
		_, err := f.svc.AddItem(ctx, actorFor(username), addInput("P1", 1))
		require.NoError(t, err)
	}

	page, err := f.svc.ListAll(ctx, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Orders, 2)
	assert.Equal(t, "u3", page.Orders[0].Username)
	assert.Nil(t, page.Orders[0].CustomerRepresentative)
	require.NotEmpty(t, page.NextCursor)

	next, err := f.svc.ListAll(ctx, pagination.Params{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, next.Orders, 1)
	assert.Equal(t, "u1", next.Orders[0].Username)
	require.NotNil(t, next.Orders[0].CustomerRepresentative)
	assert.Equal(t, "rep9", *next.Orders[0].CustomerRepresentative)
	assert.Empty(t, next.NextCursor)

	_, err = f.svc.ListAll(ctx, pagination.Params{Cursor: "%%%"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
