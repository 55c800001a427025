// Package seed creates bootstrap and demo records: the initial super admin,
// default subscription plans, and a sample shop wired with games, rewards
// and QR touchpoints.
package seed

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/amira30til/ScanToWin-sub001/internal/http/api/admin/permissions"
	"github.com/amira30til/ScanToWin-sub001/internal/models"
	"github.com/amira30til/ScanToWin-sub001/internal/security"
)

// Default bootstrap credentials. Meant for first login only.
const (
	DefaultSuperAdminUsername = "admin"
	DefaultSuperAdminEmail    = "admin@scan2win.local"
	DefaultSuperAdminPassword = "admin123"
)

// EnsureSuperAdmin creates the initial super admin when the admins table is
// empty. It is safe to call on every startup.
func EnsureSuperAdmin(ctx context.Context, conn *gorm.DB) error {
	if conn == nil {
		return errors.New("seed: db not initialized")
	}

	var count int64
	if errCount := conn.WithContext(ctx).Model(&models.Admin{}).Count(&count).Error; errCount != nil {
		return errCount
	}
	if count > 0 {
		return nil
	}

	hash, errHash := security.HashPassword(DefaultSuperAdminPassword)
	if errHash != nil {
		return errHash
	}
	perms, errMarshal := permissions.Marshal(permissions.All())
	if errMarshal != nil {
		return errMarshal
	}

	admin := models.Admin{
		Username:     DefaultSuperAdminUsername,
		Email:        DefaultSuperAdminEmail,
		Password:     hash,
		Active:       true,
		IsSuperAdmin: true,
		Permissions:  datatypes.JSON(perms),
	}
	if errCreate := conn.WithContext(ctx).Create(&admin).Error; errCreate != nil {
		return errCreate
	}
	log.Warnf("seed: created initial super admin %q with the default password, change it", admin.Username)
	return nil
}

// Demo seeds a full sample tenant for local development. Each step checks
// for existing rows, so rerunning is harmless.
func Demo(ctx context.Context, conn *gorm.DB) error {
	if conn == nil {
		return errors.New("seed: db not initialized")
	}
	if errPlans := seedPlans(ctx, conn); errPlans != nil {
		return errPlans
	}
	if errGames := seedGames(ctx, conn); errGames != nil {
		return errGames
	}
	if errTenant := seedDemoTenant(ctx, conn); errTenant != nil {
		return errTenant
	}
	log.Info("seed: demo data ready")
	return nil
}

func seedPlans(ctx context.Context, conn *gorm.DB) error {
	var count int64
	if errCount := conn.WithContext(ctx).Model(&models.SubscriptionPlan{}).Count(&count).Error; errCount != nil {
		return errCount
	}
	if count > 0 {
		return nil
	}

	plans := []models.SubscriptionPlan{
		{
			Name:       "Starter",
			MaxShops:   1,
			MaxRewards: 5,
			Features:   datatypes.JSON([]byte(`["basic_stats"]`)),
			IsDefault:  true,
			Active:     true,
		},
		{
			Name:         "Pro",
			MonthlyPrice: 29,
			MaxShops:     5,
			MaxRewards:   25,
			Features:     datatypes.JSON([]byte(`["basic_stats","event_export","custom_branding"]`)),
			Active:       true,
		},
		{
			Name:         "Enterprise",
			MonthlyPrice: 99,
			MaxShops:     50,
			MaxRewards:   200,
			Features:     datatypes.JSON([]byte(`["basic_stats","event_export","custom_branding","priority_support"]`)),
			Active:       true,
		},
	}
	return conn.WithContext(ctx).Create(&plans).Error
}

func seedGames(ctx context.Context, conn *gorm.DB) error {
	var count int64
	if errCount := conn.WithContext(ctx).Model(&models.Game{}).Count(&count).Error; errCount != nil {
		return errCount
	}
	if count > 0 {
		return nil
	}

	games := []models.Game{
		{
			Name:   "Classic Wheel",
			Kind:   models.GameKindWheel,
			Config: datatypes.JSON([]byte(`{"segments":8,"spin_duration_ms":4000}`)),
			Active: true,
		},
		{
			Name:   "Scratch Card",
			Kind:   models.GameKindScratch,
			Config: datatypes.JSON([]byte(`{"cells":9,"reveal_threshold":0.6}`)),
			Active: true,
		},
		{
			Name:   "Lucky Slots",
			Kind:   models.GameKindSlot,
			Config: datatypes.JSON([]byte(`{"reels":3,"symbols":["cherry","bell","star","seven"]}`)),
			Active: true,
		},
	}
	return conn.WithContext(ctx).Create(&games).Error
}

func seedDemoTenant(ctx context.Context, conn *gorm.DB) error {
	var count int64
	if errCount := conn.WithContext(ctx).Model(&models.Shop{}).Count(&count).Error; errCount != nil {
		return errCount
	}
	if count > 0 {
		return nil
	}

	return conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var plan models.SubscriptionPlan
		if errFind := tx.Where("is_default = ?", true).First(&plan).Error; errFind != nil {
			if !errors.Is(errFind, gorm.ErrRecordNotFound) {
				return errFind
			}
		}

		passwordHash, errHash := security.HashPassword("demo1234")
		if errHash != nil {
			return errHash
		}
		perms, errMarshal := permissions.Marshal(permissions.All())
		if errMarshal != nil {
			return errMarshal
		}
		demoAdmin := models.Admin{
			Username:    "demo",
			Email:       "demo@scan2win.local",
			Password:    passwordHash,
			Active:      true,
			Permissions: datatypes.JSON(perms),
		}
		if plan.ID != 0 {
			demoAdmin.PlanID = &plan.ID
		}
		if errCreate := tx.Create(&demoAdmin).Error; errCreate != nil {
			return errCreate
		}

		pinHash, errPin := security.HashPIN("1234")
		if errPin != nil {
			return errPin
		}
		shop := models.Shop{
			AdminID:        demoAdmin.ID,
			Name:           "Demo Coffee",
			Slug:           "demo-coffee",
			Branding:       datatypes.JSON([]byte(`{"primary_color":"#6f4e37","title":"Spin & Sip"}`)),
			WinningPercent: 40,
			PINHash:        pinHash,
			Active:         true,
		}
		if errCreate := tx.Create(&shop).Error; errCreate != nil {
			return errCreate
		}

		var wheel models.Game
		if errFind := tx.Where("kind = ?", models.GameKindWheel).First(&wheel).Error; errFind != nil {
			return errFind
		}
		assignment := models.GameAssignment{
			ShopID:   shop.ID,
			GameID:   wheel.ID,
			IsActive: true,
		}
		if errCreate := tx.Create(&assignment).Error; errCreate != nil {
			return errCreate
		}

		for _, name := range []string{"Counter", "Table 1", "Receipt"} {
			token, errToken := security.NewQRToken()
			if errToken != nil {
				return errToken
			}
			action := models.Action{
				ShopID:  shop.ID,
				Name:    name,
				QRToken: token,
				Active:  true,
			}
			if errCreate := tx.Create(&action).Error; errCreate != nil {
				return errCreate
			}
		}

		rewards := []models.Reward{
			{
				ShopID:      shop.ID,
				Name:        "Free Espresso",
				Description: "One free espresso, any size",
				Weight:      60,
				WinnerCount: 100,
				Remaining:   100,
				ValidDays:   14,
				Active:      true,
			},
			{
				ShopID:      shop.ID,
				Name:        "Pastry of the Day",
				Description: "One pastry from the counter",
				Weight:      30,
				WinnerCount: 40,
				Remaining:   40,
				ValidDays:   7,
				Active:      true,
			},
			{
				ShopID:      shop.ID,
				Name:        "Coffee Subscription Week",
				Description: "One week of free filter coffee",
				Weight:      10,
				WinnerCount: 5,
				Remaining:   5,
				ValidDays:   30,
				Active:      true,
			},
		}
		if errCreate := tx.Create(&rewards).Error; errCreate != nil {
			return errCreate
		}

		log.Infof("seed: demo tenant ready (admin=demo shop=%s assignment=%d created=%s)",
			shop.Slug, assignment.ID, time.Now().UTC().Format(time.RFC3339))
		return nil
	})
}
