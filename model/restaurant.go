package model

type Restaurant struct {
	DTO
	Name         string `gorm:"not null" json:"name"`
	Currency     string `gorm:"size:3;default:'USD'" json:"currency"`
	AllowAlcohol bool   `json:"allowAlcohol"`
	Email        string `json:"email"`
}

type Menu struct {
	DTO
	RestaurantId uint       `gorm:"index;not null" json:"restaurantId"`
	Name         string     `gorm:"not null" json:"name"`
	Covercharge  float64    `json:"covercharge"`
	Menuitems    []Menuitem `gorm:"foreignKey:MenuId" json:"menuitems,omitempty"`
}

// Item types; food goes to the kitchen station, everything else to the bar.
const (
	ItemFood     = "food"
	ItemBeverage = "beverage"
	ItemWine     = "wine"
)

type Menuitem struct {
	DTO
	MenuId      uint    `gorm:"index;not null" json:"menuId"`
	Name        string  `gorm:"not null" json:"name"`
	Description string  `json:"description"`
	Price       float64 `gorm:"not null" json:"price"`
	Itemtype    string  `gorm:"default:'food'" json:"itemtype"`
	Hidden      bool    `json:"hidden"`
	Sequence    int     `json:"sequence"`
}

type Tablesetting struct {
	DTO
	RestaurantId uint   `gorm:"index;not null" json:"restaurantId"`
	Name         string `gorm:"not null" json:"name"`
	Capacity     int    `json:"capacity"`
	Status       int    `json:"status"`
}

type Smartmenu struct {
	DTO
	Slug           string        `gorm:"uniqueIndex;size:120" json:"slug"`
	RestaurantId   uint          `gorm:"index;not null" json:"restaurantId"`
	MenuId         uint          `gorm:"not null" json:"menuId"`
	TablesettingId *uint         `json:"tablesettingId,omitempty"`
	Restaurant     Restaurant    `gorm:"foreignKey:RestaurantId" json:"-"`
	Menu           Menu          `gorm:"foreignKey:MenuId" json:"-"`
	Tablesetting   *Tablesetting `gorm:"foreignKey:TablesettingId" json:"-"`
}

const (
	TaxTypeTax     = "tax"
	TaxTypeService = "service"
)

type Tax struct {
	DTO
	RestaurantId  uint    `gorm:"index;not null" json:"restaurantId"`
	Name          string  `json:"name"`
	Taxpercentage float64 `json:"taxpercentage"`
	Taxtype       string  `gorm:"default:'tax'" json:"taxtype"`
	Sequence      int     `json:"sequence"`
}
