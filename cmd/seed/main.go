// Command seed 写入演示数据，可重复执行
package main

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/bitfantasy/nimo-mfg/internal/config"
	"github.com/bitfantasy/nimo-mfg/internal/mfg/entity"
	"github.com/bitfantasy/nimo-mfg/internal/mfg/repository"
	"github.com/bitfantasy/nimo-mfg/internal/mfg/service"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}
	cfg, err := config.Read()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	zapLogger, err := cfg.Log.Build()
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := entity.AutoMigrate(db); err != nil {
		zapLogger.Fatal("Failed to auto-migrate tables", zap.Error(err))
	}

	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, db, service.Options{Logger: zapLogger})
	if err := seed(context.Background(), repos, services, zapLogger); err != nil {
		zapLogger.Fatal("Seed failed", zap.Error(err))
	}
	zapLogger.Info("Seed completed")
}

func seed(ctx context.Context, repos *repository.Repositories, svc *service.Services, zapLogger *zap.Logger) error {
	manager := "manager"
	sewer := "sewer"
	users := []service.CreateUserRequest{
		{Name: "John Doe", Email: "tato@example.com", Password: "password", Role: "admin", Position: &manager},
		{Name: "Jane Doe", Email: "jane@gmail.com", Password: "password", Role: "employee", Position: &sewer},
	}
	for _, u := range users {
		if _, err := repos.User.FindByEmail(ctx, u.Email); err == nil {
			zapLogger.Info("User exists, skipping", zap.String("email", u.Email))
			continue
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		if _, err := svc.User.Create(ctx, u); err != nil {
			return err
		}
	}

	for _, inv := range []struct {
		typ string
		qty int
	}{{"Sinulid", 100}, {"Tela", 200}} {
		if _, err := repos.Inventory.FindByType(ctx, inv.typ); err == nil {
			continue
		}
		qty := inv.qty
		if _, _, err := svc.Inventory.Add(ctx, service.InventoryRequest{Type: inv.typ, Quantity: &qty}); err != nil {
			return err
		}
	}

	existing, err := repos.Production.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) == 0 {
		poloStart := time.Date(2022, 1, 1, 8, 0, 0, 0, time.UTC)
		pantsStart := time.Date(2022, 1, 15, 8, 0, 0, 0, time.UTC)
		poloQty, pantsQty := 10, 20
		poloPrice, pantsPrice := decimal.NewFromInt(20), decimal.NewFromInt(30)
		productions := []service.ProductionRequest{
			{ProductType: "Polo", StartTime: &poloStart, Status: entity.ProductionStatusInProgress, UserEmail: "jane@gmail.com", Quantity: &poloQty, UnitPrice: &poloPrice},
			// completion stocks Pants and spawns its finished product
			{ProductType: "Pants", StartTime: &pantsStart, Status: entity.ProductionStatusCompleted, UserEmail: "tato@example.com", Quantity: &pantsQty, UnitPrice: &pantsPrice},
		}
		for _, p := range productions {
			if _, err := svc.Production.Create(ctx, p); err != nil {
				return err
			}
		}
	}

	reports, err := repos.SalesReport.List(ctx)
	if err != nil {
		return err
	}
	if len(reports) == 0 {
		for _, r := range []struct {
			date    time.Time
			qty     int
			revenue int64
		}{
			{time.Date(2022, 1, 31, 0, 0, 0, 0, time.UTC), 5, 100},
			{time.Date(2022, 2, 28, 0, 0, 0, 0, time.UTC), 10, 200},
		} {
			date, qty, revenue := r.date, r.qty, decimal.NewFromInt(r.revenue)
			if _, err := svc.SalesReport.Create(ctx, service.SalesReportRequest{
				ProductType:  "Polo",
				SalesDate:    &date,
				QuantitySold: &qty,
				TotalRevenue: &revenue,
			}); err != nil {
				return err
			}
		}
	}
	return nil
}
