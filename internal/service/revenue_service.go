package service

import (
	"context"

	"github.com/shinyyama/campus-market/internal/identity"
	"github.com/shinyyama/campus-market/internal/model"
	"github.com/shinyyama/campus-market/internal/repository"
	"github.com/shopspring/decimal"
)

// RevenueSummary totals a seller's honored sales. AwaitingCollection is the
// part of Gross whose items have not been handed over yet.
type RevenueSummary struct {
	SellerID           string
	Sales              int
	Collected          int
	Gross              decimal.Decimal
	AwaitingCollection decimal.Decimal
}

type RevenueService interface {
	Summary(ctx context.Context, req identity.Requester) (*RevenueSummary, error)
}

type revenueService struct {
	purchases repository.PurchaseRepository
}

func NewRevenueService(purchases repository.PurchaseRepository) RevenueService {
	return &revenueService{purchases: purchases}
}

func (s *revenueService) Summary(ctx context.Context, req identity.Requester) (*RevenueSummary, error) {
	if err := requireActive(req); err != nil {
		return nil, err
	}
	sales, err := s.purchases.ListBySeller(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	sum := &RevenueSummary{SellerID: req.ID, Gross: decimal.Zero, AwaitingCollection: decimal.Zero}
	for _, p := range sales {
		sum.Sales++
		sum.Gross = sum.Gross.Add(p.TotalAmount)
		if p.CollectionStatus == model.CollectionStatusCollected {
			sum.Collected++
			continue
		}
		sum.AwaitingCollection = sum.AwaitingCollection.Add(p.TotalAmount)
	}
	return sum, nil
}
