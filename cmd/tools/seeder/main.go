package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/vincent8494/ecomerce-platform-sub000/internal/app"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/auth"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/catalog"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/common"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/config"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/discount"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/obs"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := obs.NewLogger("console", cfg.Obs.LogLevel).With().Str("component", "seeder").Logger()
	if cfg.StoreDriver == config.DriverMemory {
		logger.Fatal().Msg("the memory store does not outlive the process; set STORE_DRIVER to postgres or mongo")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	deps, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise dependencies")
	}
	defer func() { _ = deps.Close(context.Background()) }()

	products := []catalog.Product{
		{ID: "prod-desk-lamp", Name: "Desk Lamp", CategoryID: "lighting", Price: 4999, Active: true},
		{ID: "prod-notebook", Name: "Dotted Notebook", CategoryID: "stationery", Price: 1250, Active: true},
		{ID: "prod-headphones", Name: "Wireless Headphones", CategoryID: "audio", Price: 12900, Active: true},
	}
	for _, p := range products {
		if _, err := deps.Catalog.Create(ctx, p); err != nil && !errors.Is(err, common.ErrDuplicate) {
			logger.Fatal().Err(err).Str("product", p.ID).Msg("seed product")
		}
	}

	maxUses := 100
	minPurchase := int64(5000)
	coupons := []discount.Coupon{
		{Code: "WELCOME10", Kind: discount.KindPercentage, Amount: 1000, MaxUses: &maxUses, Active: true},
		{Code: "SAVE20", Kind: discount.KindFixed, Amount: 2000, Active: true, Restrictions: discount.Restrictions{MinPurchase: &minPurchase}},
		{Code: "AUDIO15", Kind: discount.KindPercentage, Amount: 1500, Active: true, Restrictions: discount.Restrictions{CategoryIDs: []string{"audio"}}},
	}
	for _, c := range coupons {
		if _, err := deps.Admin.CreateCoupon(ctx, c); err != nil && !errors.Is(err, common.ErrDuplicate) {
			logger.Fatal().Err(err).Str("code", c.Code).Msg("seed coupon")
		}
	}

	card, err := deps.Admin.IssueGiftCard(ctx, discount.GiftCard{Amount: 5000, Currency: discount.Currency(cfg.CurrencyCode)})
	if err != nil {
		logger.Fatal().Err(err).Msg("issue gift card")
	}

	adminToken, _, err := deps.Tokens.Issue("admin", auth.RoleAdmin)
	if err != nil {
		logger.Fatal().Err(err).Msg("issue admin token")
	}
	shopperToken, _, err := deps.Tokens.Issue("shopper-1")
	if err != nil {
		logger.Fatal().Err(err).Msg("issue shopper token")
	}

	fmt.Fprintf(os.Stdout, "gift card:     %s\n", card.Code)
	fmt.Fprintf(os.Stdout, "admin token:   %s\n", adminToken)
	fmt.Fprintf(os.Stdout, "shopper token: %s\n", shopperToken)
	logger.Info().Int("products", len(products)).Int("coupons", len(coupons)).Msg("seeding completed")
}
