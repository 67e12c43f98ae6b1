package service

import (
	"context"
	"fmt"
	"log/slog"

	"go-pos-ledger/internal/model"
	"go-pos-ledger/internal/repository"
	"go-pos-ledger/internal/ws"

	"github.com/shopspring/decimal"
)

// CatalogService owns item stock. Reserve and Release join the caller's
// transaction when ctx carries one.
type CatalogService interface {
	Reserve(ctx context.Context, itemID uint, qty decimal.Decimal, actor string) (*model.Item, error)
	Release(ctx context.Context, itemID uint, qty decimal.Decimal, actor string) (*model.Item, error)
	Lock(ctx context.Context, itemIDs []uint) error

	CreateItem(ctx context.Context, req *model.Item, actor string) (*model.Item, error)
	UpdateItem(ctx context.Context, id uint, req *model.Item, actor string) (*model.Item, error)
	DeleteItem(ctx context.Context, id uint, actor string) error
	GetItem(ctx context.Context, id uint) (*model.Item, error)
	ListItems(ctx context.Context, search string) ([]model.Item, error)
	ListAvailableItems(ctx context.Context) ([]model.Item, error)
}

type catalogService struct {
	tx        repository.Transactor
	items     repository.ItemRepository
	suppliers repository.SupplierRepository
	events    ws.Publisher
	log       *slog.Logger
}

func NewCatalogService(tx repository.Transactor, items repository.ItemRepository, suppliers repository.SupplierRepository, events ws.Publisher, log *slog.Logger) CatalogService {
	return &catalogService{
		tx:        tx,
		items:     items,
		suppliers: suppliers,
		events:    publisherOrDiscard(events),
		log:       log,
	}
}

func (s *catalogService) Reserve(ctx context.Context, itemID uint, qty decimal.Decimal, actor string) (*model.Item, error) {
	if err := validQuantity(qty); err != nil {
		return nil, err
	}
	var reserved *model.Item
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		item, err := s.items.FindForUpdate(ctx, itemID)
		if err != nil {
			return notFound("item", itemID, err)
		}
		if item.Quantity.LessThan(qty) {
			return &InsufficientStockError{
				ItemID:    item.ID,
				ItemName:  item.Name,
				Unit:      item.Unit,
				Available: item.Quantity,
				Requested: qty,
			}
		}
		item.Quantity = item.Quantity.Sub(qty)
		if err := s.items.UpdateStock(ctx, item.ID, item.Quantity, actor); err != nil {
			return err
		}
		reserved = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reserved, nil
}

func (s *catalogService) Release(ctx context.Context, itemID uint, qty decimal.Decimal, actor string) (*model.Item, error) {
	if err := validQuantity(qty); err != nil {
		return nil, err
	}
	var released *model.Item
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		item, err := s.items.FindForUpdate(ctx, itemID)
		if err != nil {
			return notFound("item", itemID, err)
		}
		item.Quantity = item.Quantity.Add(qty)
		if err := s.items.UpdateStock(ctx, item.ID, item.Quantity, actor); err != nil {
			return err
		}
		released = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return released, nil
}

// Lock takes row locks on every listed item in ascending id order so that
// concurrent sales touching overlapping items cannot deadlock.
func (s *catalogService) Lock(ctx context.Context, itemIDs []uint) error {
	return s.items.LockByIDs(ctx, itemIDs)
}

func validateItem(item *model.Item) error {
	if err := validateStruct(item); err != nil {
		return err
	}
	return checkPlaces(
		quantity("quantity", item.Quantity),
		money("purchase_price", item.PurchasePrice),
		money("sale_price", item.SalePrice),
	)
}

func (s *catalogService) CreateItem(ctx context.Context, req *model.Item, actor string) (*model.Item, error) {
	if err := validateItem(req); err != nil {
		return nil, err
	}
	req.SupplierID = normalizeID(req.SupplierID)
	if err := s.checkSupplier(ctx, req.SupplierID); err != nil {
		return nil, err
	}
	req.ID = 0
	req.Stamp(actor)
	if err := s.items.Create(ctx, req); err != nil {
		return nil, err
	}

	s.log.Info("item created", "item_id", req.ID, "name", req.Name, "actor", actor)
	s.events.Publish(ws.Event{
		Type:    "stock_update",
		Action:  "item_created",
		Data:    StockLevel{ItemID: req.ID, Name: req.Name, Quantity: req.Quantity, Unit: req.Unit},
		User:    actor,
		Message: fmt.Sprintf("%s created item '%s'", actor, req.Name),
	})
	return req, nil
}

func (s *catalogService) UpdateItem(ctx context.Context, id uint, req *model.Item, actor string) (*model.Item, error) {
	if err := validateItem(req); err != nil {
		return nil, err
	}
	supplierID := normalizeID(req.SupplierID)

	var updated *model.Item
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := s.items.FindForUpdate(ctx, id)
		if err != nil {
			return notFound("item", id, err)
		}
		if err := s.checkSupplier(ctx, supplierID); err != nil {
			return err
		}
		existing.Name = req.Name
		existing.Quantity = req.Quantity
		existing.Unit = req.Unit
		existing.PurchasePrice = req.PurchasePrice
		existing.SalePrice = req.SalePrice
		existing.SupplierID = supplierID
		existing.UpdatedBy = actor
		if err := s.items.Update(ctx, existing); err != nil {
			return err
		}
		updated = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("item updated", "item_id", updated.ID, "quantity", updated.Quantity.String(), "actor", actor)
	s.events.Publish(ws.Event{
		Type:    "stock_update",
		Action:  "item_updated",
		Data:    StockLevel{ItemID: updated.ID, Name: updated.Name, Quantity: updated.Quantity, Unit: updated.Unit},
		User:    actor,
		Message: fmt.Sprintf("%s updated item '%s'", actor, updated.Name),
	})
	return updated, nil
}

func (s *catalogService) DeleteItem(ctx context.Context, id uint, actor string) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.items.FindForUpdate(ctx, id); err != nil {
			return notFound("item", id, err)
		}
		refs, err := s.items.CountSaleReferences(ctx, id)
		if err != nil {
			return err
		}
		if refs > 0 {
			return ErrItemInUse
		}
		return s.items.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.log.Info("item deleted", "item_id", id, "actor", actor)
	s.events.Publish(ws.Event{Type: "stock_update", Action: "item_deleted", Data: map[string]uint{"item_id": id}, User: actor})
	return nil
}

func (s *catalogService) GetItem(ctx context.Context, id uint) (*model.Item, error) {
	item, err := s.items.FindByID(ctx, id)
	if err != nil {
		return nil, notFound("item", id, err)
	}
	return item, nil
}

func (s *catalogService) ListItems(ctx context.Context, search string) ([]model.Item, error) {
	return s.items.FindAll(ctx, search)
}

func (s *catalogService) ListAvailableItems(ctx context.Context) ([]model.Item, error) {
	return s.items.FindAvailable(ctx)
}

func (s *catalogService) checkSupplier(ctx context.Context, id *uint) error {
	if id == nil {
		return nil
	}
	if _, err := s.suppliers.FindByID(ctx, *id); err != nil {
		return notFound("supplier", *id, err)
	}
	return nil
}
