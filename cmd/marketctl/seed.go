package main

import (
	"context"
	"fmt"
	"log"

	"github.com/shinyyama/campus-market/internal/app"
	"github.com/shinyyama/campus-market/internal/identity"
	"github.com/shinyyama/campus-market/internal/model"
	"github.com/shinyyama/campus-market/internal/repository"
	"github.com/shinyyama/campus-market/internal/service"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

type seedItem struct {
	Title     string
	Category  model.Category
	Condition model.Condition
	Price     decimal.Decimal
}

func newSeedCmd() *cobra.Command {
	var seller string
	var force bool
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create approved sample listings for local development",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				n, err := seed(cmd.Context(), a, seller, force)
				if err != nil {
					return err
				}
				log.Printf("seeded %d items", n)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&seller, "seller", "seed-seller", "uid that owns the sample listings")
	cmd.Flags().BoolVar(&force, "force", false, "seed even when items already exist")
	return cmd
}

// seed creates each listing as a draft and walks it through submit and
// approval so sample data obeys the same rules as real listings.
func seed(ctx context.Context, a *app.App, sellerID string, force bool) (int, error) {
	existing, err := a.Items.List(ctx, operator, service.ListItemsInput{Filter: repository.ItemFilter{Limit: 1}})
	if err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	if existing.Total > 0 && !force {
		log.Printf("items already exist; skipping seed (use --force to override)")
		return 0, nil
	}
	if _, err := a.Profiles.Ensure(ctx, sellerID, ""); err != nil {
		return 0, fmt.Errorf("ensure seller profile: %w", err)
	}
	seller := identity.Requester{ID: sellerID}

	n := 0
	for idx, it := range seedCatalog() {
		item, err := a.Items.Create(ctx, seller, service.CreateItemInput{
			Title:       it.Title,
			Description: fmt.Sprintf("%s. Kept at home, pick up on campus.", it.Title),
			Price:       it.Price,
			Category:    string(it.Category),
			Condition:   string(it.Condition),
			Images:      []string{fmt.Sprintf("https://picsum.photos/seed/%s-%d/600/600", it.Category, idx+1)},
		})
		if err != nil {
			return n, fmt.Errorf("create %q: %w", it.Title, err)
		}
		if _, err := a.Lifecycle.Submit(ctx, seller, item.ID); err != nil {
			return n, fmt.Errorf("submit %q: %w", it.Title, err)
		}
		if _, err := a.Admin.Approve(ctx, operator, item.ID, nil); err != nil {
			return n, fmt.Errorf("approve %q: %w", it.Title, err)
		}
		n++
	}
	return n, nil
}

func seedCatalog() []seedItem {
	type cat struct {
		Category model.Category
		Titles   []string
		Price    int64
	}
	categories := []cat{
		{Category: model.CategoryBooks, Price: 1200, Titles: []string{"Linear Algebra textbook", "Intro to Microeconomics", "Organic Chemistry study guide"}},
		{Category: model.CategoryElectronics, Price: 18000, Titles: []string{"14-inch laptop", "Noise cancelling headphones", "Graphing calculator"}},
		{Category: model.CategoryFurniture, Price: 4500, Titles: []string{"Solid wood side table", "Stacking shelf", "Desk chair"}},
		{Category: model.CategoryClothing, Price: 2500, Titles: []string{"Relaxed fit hoodie", "Denim jacket", "Rain parka"}},
		{Category: model.CategorySports, Price: 3800, Titles: []string{"Running shoes", "Yoga mat", "Tennis racket"}},
		{Category: model.CategoryStationery, Price: 600, Titles: []string{"A4 document stand", "Fountain pen set"}},
		{Category: model.CategoryKitchen, Price: 1800, Titles: []string{"Ceramic frying pan", "Rice cooker", "Double wall glass mugs"}},
		{Category: model.CategoryOther, Price: 900, Titles: []string{"Cable organizer", "Travel adapter"}},
	}
	conditions := []model.Condition{model.ConditionExcellent, model.ConditionUsed, model.ConditionFair}

	var items []seedItem
	for _, c := range categories {
		for i, t := range c.Titles {
			items = append(items, seedItem{
				Title:     t,
				Category:  c.Category,
				Condition: conditions[i%len(conditions)],
				Price:     decimal.NewFromInt(c.Price + int64((i+1)*100)),
			})
		}
	}
	return items
}
