// Package model содержит доменные сущности сервиса заказов ресторана.
package model

import "time"

// Text хранит отображаемую строку на двух языках интерфейса.
type Text struct {
	EN string `json:"en"`
	AR string `json:"ar"`
}

// Category описывает раздел меню.
type Category string

const (
	CategoryAppetizers Category = "appetizers"
	CategoryMains      Category = "mains"
	CategoryDrinks     Category = "drinks"
	CategoryKids       Category = "kids"
	CategorySoups      Category = "soups"
	CategorySalads     Category = "salads"
	CategoryCombo      Category = "combo"
)

// Valid сообщает, относится ли категория к известным разделам меню.
func (c Category) Valid() bool {
	switch c {
	case CategoryAppetizers, CategoryMains, CategoryDrinks, CategoryKids,
		CategorySoups, CategorySalads, CategoryCombo:
		return true
	}
	return false
}

// MenuItem представляет позицию меню.
type MenuItem struct {
	ID            string   `json:"id"`
	Category      Category `json:"category"`
	Name          Text     `json:"name"`
	Description   Text     `json:"description"`
	Subcategory   *Text    `json:"subcategory,omitempty"`
	Price         float64  `json:"price"`
	OriginalPrice *float64 `json:"originalPrice,omitempty"`
	Image         string   `json:"image"`
}

// HourRange задаёт полуоткрытый интервал часов [Start, End).
type HourRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Schedule описывает расписание доступности акции.
type Schedule struct {
	ActiveDays []time.Weekday `json:"activeDays,omitempty"`
	TimeRange  *HourRange     `json:"timeRange,omitempty"`
}

// DealRules описывает правила интерактивной акции.
type DealRules struct {
	MainCourseCount int      `json:"mainCourseCount"`
	GiftOptions     []string `json:"giftOptions"`
}

// OptionPolicy определяет, какие позиции меню можно выбрать в акции.
// Пустой MainCategories означает основные блюда и комбо.
// Непустой GiftCategories заменяет явный список подарков из правил.
type OptionPolicy struct {
	MainCategories []Category `json:"mainCategories,omitempty"`
	GiftCategories []Category `json:"giftCategories,omitempty"`
}

// Deal представляет акцию из каталога.
type Deal struct {
	ID               string       `json:"id"`
	Title            Text         `json:"title"`
	Description      Text         `json:"description"`
	Image            string       `json:"image"`
	AvailabilityText *Text        `json:"availabilityText,omitempty"`
	IsActive         bool         `json:"isActive"`
	Schedule         Schedule     `json:"schedule"`
	Rules            *DealRules   `json:"rules,omitempty"`
	Policy           OptionPolicy `json:"policy"`
}

// Role определяет права пользователя.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User представляет зарегистрированного пользователя.
type User struct {
	ID             int64
	Phone          string
	Email          string
	PasswordHash   []byte
	Role           Role
	LoyaltyBalance float64
	CreatedAt      time.Time
}

// PromoCode описывает процентную скидку по промокоду.
type PromoCode struct {
	ID       string  `json:"id"`
	Code     string  `json:"code"`
	Discount float64 `json:"discount"`
	IsActive bool    `json:"isActive"`
}

// OrderStatus описывает статус заказа.
type OrderStatus string

const (
	OrderStatusReceived  OrderStatus = "Received"
	OrderStatusPreparing OrderStatus = "Preparing"
	OrderStatusOnTheWay  OrderStatus = "Out for Delivery"
	OrderStatusDelivered OrderStatus = "Delivered"
	OrderStatusCancelled OrderStatus = "Cancelled"
)

// Valid сообщает, является ли статус допустимым.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusReceived, OrderStatusPreparing, OrderStatusOnTheWay,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// OrderItem описывает строку заказа.
type OrderItem struct {
	Name     Text    `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// Order описывает оформленный заказ.
type Order struct {
	ID                string
	UserID            int64
	UserPhone         string
	Items             []OrderItem
	Subtotal          float64
	Discount          float64
	PromoCode         string
	LoyaltyPointsUsed float64
	VAT               float64
	Total             float64
	Status            OrderStatus
	DeliveryAddress   string
	ContactPhone      string
	DeliveryTime      string
	CreatedAt         time.Time
}

// LoyaltyLogEntry фиксирует начисление баллов за доставленный заказ.
type LoyaltyLogEntry struct {
	ID            string
	OrderID       string
	UserPhone     string
	PointsAwarded float64
	CreatedAt     time.Time
}

// Quote содержит расчёт суммы заказа перед оформлением.
type Quote struct {
	Subtotal       float64 `json:"subtotal"`
	Discount       float64 `json:"discount"`
	PromoCode      string  `json:"promoCode,omitempty"`
	LoyaltyApplied float64 `json:"loyaltyApplied"`
	VAT            float64 `json:"vat"`
	Total          float64 `json:"total"`
}
