// Command orders is a small ops tool for the kitchen: list today's orders,
// show the current queue, or move an order through its statuses.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/nottechincal/StuffedLamb-Final/internal/catalog"
	"github.com/nottechincal/StuffedLamb-Final/internal/config"
	"github.com/nottechincal/StuffedLamb-Final/internal/db"
	"github.com/nottechincal/StuffedLamb-Final/internal/notify"
	customerrepo "github.com/nottechincal/StuffedLamb-Final/internal/repository/customer"
	orderrepo "github.com/nottechincal/StuffedLamb-Final/internal/repository/order"
	ordersvc "github.com/nottechincal/StuffedLamb-Final/internal/service/order"
)

func main() {
	var (
		orderID = flag.String("id", "", "order id for -status")
		status  = flag.String("status", "", "set order status (preparing, ready, collected, cancelled)")
	)
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.FromEnv()
	logger := log.New(os.Stderr, "[orders] ", log.LstdFlags)

	cat, err := catalog.Load()
	if err != nil {
		logger.Fatalf("load catalog: %v", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	svc := ordersvc.New(orderrepo.NewPostgres(pool, logger), customerrepo.NewPostgres(pool, logger), cat.Location(), logger)

	if *status != "" {
		if *orderID == "" {
			logger.Fatalf("-status requires -id")
		}
		order, err := svc.UpdateStatus(ctx, *orderID, *status)
		if err != nil {
			logger.Fatalf("update status: %v", err)
		}
		fmt.Printf("%s is now %s\n", order.OrderNumber, order.Status)
		return
	}

	orders, err := svc.TodaysOrders(ctx)
	if err != nil {
		logger.Fatalf("list orders: %v", err)
	}
	queue, err := svc.QueueSize(ctx)
	if err != nil {
		logger.Fatalf("queue size: %v", err)
	}

	fmt.Printf("Today: %d order(s), %d in the kitchen\n", len(orders), queue)
	for _, o := range orders {
		fmt.Printf("%s  %-10s  %-20s  %s  pickup %s\n",
			o.OrderNumber, o.Status, o.CustomerName, notify.FormatCents(o.Pricing.TotalCents), o.PickupTime)
	}
}
