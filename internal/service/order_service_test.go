package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/online-movie-store/internal/model"
	"github.com/iliyamo/online-movie-store/internal/repository"
)

type fakeCarts struct {
	lines []repository.CartLine
	err   error
}

func (f *fakeCarts) LinesForUser(ctx context.Context, userID uint64) ([]repository.CartLine, error) {
	return f.lines, f.err
}

type fakeOrders struct {
	paid    []uint64
	pending []uint64

	placedItems []model.OrderItem
	placedTotal decimal.Decimal
	placeErr    error
}

func (f *fakeOrders) MovieIDsWithStatus(ctx context.Context, userID uint64, status string) ([]uint64, error) {
	switch status {
	case model.OrderStatusPaid:
		return f.paid, nil
	case model.OrderStatusPending:
		return f.pending, nil
	}
	return nil, nil
}

func (f *fakeOrders) Place(ctx context.Context, userID uint64, items []model.OrderItem, total decimal.Decimal) (model.Order, error) {
	if f.placeErr != nil {
		return model.Order{}, f.placeErr
	}
	f.placedItems = items
	f.placedTotal = total
	return model.Order{
		ID: 42, UserID: userID,
		Status: model.OrderStatusPending, TotalAmount: total,
	}, nil
}

func price(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func line(movieID uint64, title string, current string, available bool) repository.CartLine {
	return repository.CartLine{
		ItemID: movieID, MovieID: movieID, Title: title,
		Quantity:   1,
		PriceAtAdd: price(current), CurrentPrice: price(current),
		IsAvailable: available,
	}
}

func TestPlaceEmptyCart(t *testing.T) {
	svc := NewOrderService(&fakeCarts{}, &fakeOrders{})
	_, err := svc.Place(context.Background(), 1)
	require.ErrorIs(t, err, ErrEmptyCart)
}

func TestPlaceUnavailableMovie(t *testing.T) {
	carts := &fakeCarts{lines: []repository.CartLine{
		line(1, "Heat", "9.99", true),
		line(2, "Ronin", "7.49", false),
	}}
	svc := NewOrderService(carts, &fakeOrders{})
	_, err := svc.Place(context.Background(), 1)
	require.ErrorIs(t, err, ErrMovieUnavailable)
	require.Contains(t, err.Error(), "Ronin")
}

func TestPlaceTotalMatchesItems(t *testing.T) {
	carts := &fakeCarts{lines: []repository.CartLine{
		line(1, "Heat", "9.99", true),
		line(2, "Ronin", "14.99", true),
	}}
	orders := &fakeOrders{}
	svc := NewOrderService(carts, orders)

	o, err := svc.Place(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, model.OrderStatusPending, o.Status)
	require.True(t, o.TotalAmount.Equal(price("24.98")), "got total %s", o.TotalAmount)
	require.Len(t, orders.placedItems, 2)
	require.True(t, model.OrderTotal(orders.placedItems).Equal(orders.placedTotal))
}

func TestPlaceSnapshotsCurrentPrice(t *testing.T) {
	// Catalog price changed after the line was added; checkout charges
	// the current price.
	l := line(1, "Heat", "9.99", true)
	l.PriceAtAdd = price("4.99")
	carts := &fakeCarts{lines: []repository.CartLine{l}}
	orders := &fakeOrders{}
	svc := NewOrderService(carts, orders)

	o, err := svc.Place(context.Background(), 7)
	require.NoError(t, err)
	require.True(t, o.TotalAmount.Equal(price("9.99")))
	require.True(t, orders.placedItems[0].PriceAtOrder.Equal(price("9.99")))
}

func TestPlaceSkipsOwnedMovies(t *testing.T) {
	carts := &fakeCarts{lines: []repository.CartLine{
		line(1, "Heat", "9.99", true),
		line(2, "Ronin", "14.99", true),
	}}
	orders := &fakeOrders{paid: []uint64{1}}
	svc := NewOrderService(carts, orders)

	o, err := svc.Place(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, orders.placedItems, 1)
	require.Equal(t, uint64(2), orders.placedItems[0].MovieID)
	require.True(t, o.TotalAmount.Equal(price("14.99")))
}

func TestPlaceAllOwned(t *testing.T) {
	carts := &fakeCarts{lines: []repository.CartLine{
		line(1, "Heat", "9.99", true),
	}}
	orders := &fakeOrders{paid: []uint64{1}}
	svc := NewOrderService(carts, orders)

	_, err := svc.Place(context.Background(), 7)
	require.ErrorIs(t, err, ErrAlreadyPurchased)
}

func TestPlaceBlockedByPendingOrder(t *testing.T) {
	carts := &fakeCarts{lines: []repository.CartLine{
		line(1, "Heat", "9.99", true),
	}}
	orders := &fakeOrders{pending: []uint64{1}}
	svc := NewOrderService(carts, orders)

	_, err := svc.Place(context.Background(), 7)
	require.ErrorIs(t, err, ErrPendingOrder)
}

func TestPlaceQuantityClamp(t *testing.T) {
	l := line(1, "Heat", "9.99", true)
	l.Quantity = 0
	carts := &fakeCarts{lines: []repository.CartLine{l}}
	orders := &fakeOrders{}
	svc := NewOrderService(carts, orders)

	o, err := svc.Place(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, 1, orders.placedItems[0].Quantity)
	require.True(t, o.TotalAmount.Equal(price("9.99")))
}

func TestPlaceStoreError(t *testing.T) {
	carts := &fakeCarts{lines: []repository.CartLine{
		line(1, "Heat", "9.99", true),
	}}
	boom := errors.New("db down")
	svc := NewOrderService(carts, &fakeOrders{placeErr: boom})

	_, err := svc.Place(context.Background(), 7)
	require.ErrorIs(t, err, boom)
}
