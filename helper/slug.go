package helper

import (
	"fmt"

	"github.com/gosimple/slug"
	"gorm.io/gorm"

	"smartmenu/model"
)

// SmartmenuSlugBase is the slug a table's smartmenu starts from.
func SmartmenuSlugBase(restaurant, table string) string {
	base := slug.Make(restaurant + " " + table)
	if base == "" {
		base = "smartmenu"
	}
	return base
}

func GenerateUniqueSmartmenuSlug(tx *gorm.DB, restaurant, table string) string {
	base := SmartmenuSlugBase(restaurant, table)
	result := base
	i := 1

	for {
		var count int64
		tx.Model(&model.Smartmenu{}).
			Where("slug = ?", result).
			Count(&count)

		if count == 0 {
			break
		}
		result = fmt.Sprintf("%s-%d", base, i)
		i++
	}

	return result
}
