package store

import (
	"context"
	"errors"

	logrus "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"bus_tracker/internal/models"
)

// seedEntry is one manifest row: a bus with its default route label and
// depot coordinates.
type seedEntry struct {
	BusNumber string
	RouteName string
	Lat       float64
	Lng       float64
}

// fleetManifest is the fixed fleet of the reference deployment. Records are
// only ever created from this list, at first boot.
var fleetManifest = []seedEntry{
	{"1", "Rampally x Road", 17.6034937425493, 78.48695051843427},
	{"2", "Nagaram", 17.6044937425493, 78.48795051843427},
	{"3", "Kushaiguda", 17.6054937425493, 78.48895051843427},
	{"4", "Charlapally", 17.6064937425493, 78.48995051843427},
	{"5", "ECIL", 17.6074937425493, 78.49095051843427},
	{"6", "ZTS", 17.6084937425493, 78.49195051843427},
	{"7", "Malkajgiri", 17.6094937425493, 78.49295051843427},
	{"8", "Boduuppal", 17.6104937425493, 78.49395051843427},
	{"9", "Canaranagar", 17.6114937425493, 78.49495051843427},
	{"10", "B.N.Reddy colony", 17.6124937425493, 78.49595051843427},
	{"11", "L.B.Nagar", 17.6134937425493, 78.49695051843427},
	{"12", "NTR NAGAR", 17.6144937425493, 78.49795051843427},
	{"13", "Dilsuk Nagar", 17.6154937425493, 78.49895051843427},
	{"14", "Karmanghat", 17.6164937425493, 78.49995051843427},
	{"15", "Koti", 17.6174937425493, 78.50095051843427},
	{"16", "Ramanthpur", 17.6184937425493, 78.50195051843427},
	{"17", "Attapur", 17.6194937425493, 78.50295051843427},
	{"18", "Lunger House", 17.6204937425493, 78.50395051843427},
	{"19", "Yadagirigutta", 17.6214937425493, 78.50495051843427},
	{"20", "Ashok Nagar", 17.6224937425493, 78.50595051843427},
	{"21", "A.G.Colony", 17.6234937425493, 78.50695051843427},
	{"22", "Bharath nagar", 17.6244937425493, 78.50795051843427},
	{"23", "Sanath Nagar", 17.6254937425493, 78.50895051843427},
	{"24", "KP METRO", 17.6264937425493, 78.50995051843427},
	{"25", "Usha mullapudi arch", 17.6274937425493, 78.51095051843427},
	{"26", "KPHB METRO STATION", 17.6284937425493, 78.51195051843427},
	{"27", "KPHB Bus stop", 17.6294937425493, 78.51295051843427},
	{"28", "Forum mall", 17.6304937425493, 78.51395051843427},
	{"29", "Vasanth Nagar", 17.6314937425493, 78.51495051843427},
	{"30", "Madinaguda", 17.6324937425493, 78.51595051843427},
	{"31", "NEW MIG BHEL", 17.6334937425493, 78.51695051843427},
	{"32", "LIG BHEL", 17.6344937425493, 78.51795051843427},
	{"33", "Patancheru", 17.6354937425493, 78.51895051843427},
	{"34", "Sanga Reddy", 17.6364937425493, 78.51995051843427},
}

// FleetSize is the number of buses in the manifest.
func FleetSize() int {
	return len(fleetManifest)
}

// SeedFleet populates an empty fleet table from the manifest. It runs on
// every boot; the count guard and the bus_number uniqueness make it
// idempotent, so an already-populated store is left untouched.
func SeedFleet(ctx context.Context, fleet FleetStore) error {
	count, err := fleet.Count(ctx)
	if err != nil {
		return err
	}
	if count >= int64(len(fleetManifest)) {
		logrus.WithField("count", count).Debug("Fleet table already populated, skipping seed.")
		return nil
	}

	seeded := 0
	for _, m := range fleetManifest {
		bus := models.Bus{
			BusNumber: m.BusNumber,
			RouteName: m.RouteName,
			PlaceName: models.InitialPlaceName,
			Lat:       m.Lat,
			Lng:       m.Lng,
			IsLocked:  false,
		}
		if err := fleet.Insert(ctx, &bus); err != nil {
			if errors.Is(err, ErrDuplicate) {
				continue
			}
			return err
		}
		seeded++
	}
	logrus.WithField("seeded", seeded).Info("Fleet table seeded from manifest.")
	return nil
}

// SeedAdmin creates the dashboard admin account if it does not exist yet.
func SeedAdmin(db *gorm.DB, username, password string) error {
	var user models.User
	err := db.Where("username = ?", username).First(&user).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := models.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         "admin",
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}
	logrus.WithField("username", username).Info("Admin account created.")
	return nil
}
