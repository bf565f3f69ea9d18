package database

import (
	"log"

	"gorm.io/gorm"

	"smartmenu/helper"
	"smartmenu/model"
)

// SeedData creates a demo restaurant with one menu, two tables and their
// smartmenus. Existing rows are kept.
func SeedData(db *gorm.DB) {
	restaurant := model.Restaurant{Name: "Trattoria Demo", Currency: "EUR", AllowAlcohol: true}
	if err := db.Where(model.Restaurant{Name: restaurant.Name}).FirstOrCreate(&restaurant).Error; err != nil {
		log.Println("failed to seed restaurant:", err)
		return
	}

	menu := model.Menu{RestaurantId: restaurant.ID, Name: "Dinner", Covercharge: 1.5}
	if err := db.Where(model.Menu{RestaurantId: restaurant.ID, Name: menu.Name}).FirstOrCreate(&menu).Error; err != nil {
		log.Println("failed to seed menu:", err)
		return
	}

	items := []model.Menuitem{
		{Name: "Margherita Pizza", Description: "Tomato, mozzarella, basil", Price: 9.5, Itemtype: model.ItemFood, Sequence: 1},
		{Name: "Caesar Salad", Description: "Romaine, parmesan, croutons", Price: 7, Itemtype: model.ItemFood, Sequence: 2},
		{Name: "Large Fries", Description: "Sea salt", Price: 4, Itemtype: model.ItemFood, Sequence: 3},
		{Name: "Sparkling Water", Description: "75cl", Price: 3, Itemtype: model.ItemBeverage, Sequence: 4},
		{Name: "Chianti", Description: "Glass of house red", Price: 6.5, Itemtype: model.ItemWine, Sequence: 5},
	}
	for _, item := range items {
		item.MenuId = menu.ID
		if err := db.Where(model.Menuitem{MenuId: menu.ID, Name: item.Name}).FirstOrCreate(&item).Error; err != nil {
			log.Println("failed to seed menu item:", item.Name, "error:", err)
		}
	}

	taxes := []model.Tax{
		{Name: "VAT", Taxpercentage: 10, Taxtype: model.TaxTypeTax, Sequence: 1},
		{Name: "Service", Taxpercentage: 5, Taxtype: model.TaxTypeService, Sequence: 2},
	}
	for _, tax := range taxes {
		tax.RestaurantId = restaurant.ID
		if err := db.Where(model.Tax{RestaurantId: restaurant.ID, Name: tax.Name}).FirstOrCreate(&tax).Error; err != nil {
			log.Println("failed to seed tax:", tax.Name, "error:", err)
		}
	}

	for _, name := range []string{"Table 1", "Table 2"} {
		table := model.Tablesetting{RestaurantId: restaurant.ID, Name: name, Capacity: 4}
		if err := db.Where(model.Tablesetting{RestaurantId: restaurant.ID, Name: name}).FirstOrCreate(&table).Error; err != nil {
			log.Println("failed to seed table:", name, "error:", err)
			continue
		}
		var count int64
		db.Model(&model.Smartmenu{}).Where("tablesetting_id = ?", table.ID).Count(&count)
		if count > 0 {
			continue
		}
		sm := model.Smartmenu{
			Slug:           helper.GenerateUniqueSmartmenuSlug(db, restaurant.Name, table.Name),
			RestaurantId:   restaurant.ID,
			MenuId:         menu.ID,
			TablesettingId: &table.ID,
		}
		if err := db.Create(&sm).Error; err != nil {
			log.Println("failed to seed smartmenu:", name, "error:", err)
		}
	}
}
