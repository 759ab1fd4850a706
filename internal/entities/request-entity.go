package entities

import "time"

// ServiceRequest - корневая сущность рабочего процесса. Статус пишется
// только синхронизатором (пересчет по выездам) либо решением клиента по
// предложению; публичный номер выставляется один раз после создания.
type ServiceRequest struct {
	ID          uint64 `json:"id"`
	PublicRef   string `json:"public_ref"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`

	CustomerID uint64 `json:"customer_id"`
	CategoryID uint64 `json:"category_id"`

	ContactFirstName string `json:"contact_first_name"`
	ContactLastName  string `json:"contact_last_name"`
	ContactEmail     string `json:"contact_email"`
	ContactPhone     string `json:"contact_phone"`

	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	PlaceName        string `json:"place_name,omitempty"`
	FormattedAddress string `json:"formatted_address,omitempty"`
	AddressLine      string `json:"address_line,omitempty"`
	Subdistrict      string `json:"subdistrict,omitempty"`
	District         string `json:"district,omitempty"`
	Province         string `json:"province,omitempty"`
	PostalCode       string `json:"postal_code,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type RequestImage struct {
	ID        uint64    `json:"id"`
	RequestID uint64    `json:"request_id"`
	ImageURL  string    `json:"image_url"`
	CreatedAt time.Time `json:"created_at"`
}
