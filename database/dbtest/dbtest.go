// Package dbtest opens throwaway SQLite databases with the full schema for
// tests that need real queries.
package dbtest

import (
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"smartmenu/model"
)

// Open returns a migrated in-memory database closed at the end of the test.
// It holds a single connection so every query sees the same memory store.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(model.Tables()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// Fixture is one restaurant with a menu, a table and its smartmenu.
type Fixture struct {
	Restaurant model.Restaurant
	Menu       model.Menu
	Pizza      model.Menuitem
	Salad      model.Menuitem
	Water      model.Menuitem
	Table      model.Tablesetting
	Smartmenu  model.Smartmenu
}

// Seed creates the fixture. The menu has a 1.50 cover charge per guest and
// the restaurant a single 10% tax.
func Seed(t testing.TB, db *gorm.DB) Fixture {
	t.Helper()
	f := Fixture{
		Restaurant: model.Restaurant{Name: "Trattoria Test", Currency: "EUR"},
	}
	must(t, db.Create(&f.Restaurant).Error)

	f.Menu = model.Menu{RestaurantId: f.Restaurant.ID, Name: "Dinner", Covercharge: 1.5}
	must(t, db.Create(&f.Menu).Error)

	f.Pizza = model.Menuitem{MenuId: f.Menu.ID, Name: "Margherita Pizza", Price: 9.5, Itemtype: model.ItemFood, Sequence: 1}
	f.Salad = model.Menuitem{MenuId: f.Menu.ID, Name: "Caesar Salad", Price: 7, Itemtype: model.ItemFood, Sequence: 2}
	f.Water = model.Menuitem{MenuId: f.Menu.ID, Name: "Sparkling Water", Price: 3, Itemtype: model.ItemBeverage, Sequence: 3}
	for _, mi := range []*model.Menuitem{&f.Pizza, &f.Salad, &f.Water} {
		must(t, db.Create(mi).Error)
	}

	must(t, db.Create(&model.Tax{RestaurantId: f.Restaurant.ID, Name: "VAT", Taxpercentage: 10, Taxtype: model.TaxTypeTax, Sequence: 1}).Error)

	f.Table = model.Tablesetting{RestaurantId: f.Restaurant.ID, Name: "Table 1", Capacity: 4}
	must(t, db.Create(&f.Table).Error)

	f.Smartmenu = model.Smartmenu{
		Slug:           "trattoria-test-table-1",
		RestaurantId:   f.Restaurant.ID,
		MenuId:         f.Menu.ID,
		TablesettingId: &f.Table.ID,
	}
	must(t, db.Create(&f.Smartmenu).Error)
	return f
}

// Order creates an order on the fixture table with the given status code.
func (f Fixture) Order(t testing.TB, db *gorm.DB, status, capacity int) model.Ordr {
	t.Helper()
	o := model.Ordr{
		RestaurantId:   f.Restaurant.ID,
		MenuId:         f.Menu.ID,
		TablesettingId: f.Table.ID,
		Ordercapacity:  capacity,
		Status:         status,
	}
	must(t, db.Create(&o).Error)
	return o
}

// Item attaches a line for mi at its menu price.
func (f Fixture) Item(t testing.TB, db *gorm.DB, o model.Ordr, mi model.Menuitem, status int) model.Ordritem {
	t.Helper()
	it := model.Ordritem{OrdrId: o.ID, MenuitemId: mi.ID, Ordritemprice: mi.Price, Status: status}
	must(t, db.Create(&it).Error)
	return it
}

func must(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
}
