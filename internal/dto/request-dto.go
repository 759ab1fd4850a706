package dto

// CreateRequestDTO - входные данные клиента при создании заявки.
// Правило местоположения: координаты обязательны и принимаются только
// вместе с полным адресом (см. customvalidator "location_logic").
type CreateRequestDTO struct {
	Title       string `json:"title" form:"title" validate:"required,max=200"`
	Description string `json:"description" form:"description" validate:"required,max=5000"`
	CategoryID  uint64 `json:"category_id" form:"category_id" validate:"required,gt=0"`

	ContactFirstName string `json:"contact_first_name" form:"contact_first_name" validate:"required"`
	ContactLastName  string `json:"contact_last_name" form:"contact_last_name" validate:"required"`
	ContactEmail     string `json:"contact_email" form:"contact_email" validate:"required,email"`
	ContactPhone     string `json:"contact_phone" form:"contact_phone" validate:"required,phone_TH"`

	Latitude  float64 `json:"latitude" form:"latitude" validate:"required,location_logic"`
	Longitude float64 `json:"longitude" form:"longitude" validate:"required"`

	PlaceName        string `json:"place_name" form:"place_name"`
	FormattedAddress string `json:"formatted_address" form:"formatted_address"`
	AddressLine      string `json:"address_line" form:"address_line"`
	Subdistrict      string `json:"subdistrict" form:"subdistrict" validate:"required"`
	District         string `json:"district" form:"district" validate:"required"`
	Province         string `json:"province" form:"province" validate:"required"`
	PostalCode       string `json:"postal_code" form:"postal_code" validate:"required,postal_TH"`
}

type RequestImageDTO struct {
	ID        uint64 `json:"id"`
	ImageURL  string `json:"image_url"`
	CreatedAt string `json:"created_at"`
}

type RequestCustomerDTO struct {
	ID        uint64 `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
}

type RequestDTO struct {
	ID          uint64 `json:"id"`
	PublicRef   string `json:"public_ref"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`

	Category CategoryDTO         `json:"category"`
	Customer *RequestCustomerDTO `json:"customer,omitempty"`

	ContactFirstName string `json:"contact_first_name"`
	ContactLastName  string `json:"contact_last_name"`
	ContactEmail     string `json:"contact_email"`
	ContactPhone     string `json:"contact_phone"`

	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	PlaceName        string  `json:"place_name,omitempty"`
	FormattedAddress string  `json:"formatted_address,omitempty"`
	AddressLine      string  `json:"address_line,omitempty"`
	Subdistrict      string  `json:"subdistrict,omitempty"`
	District         string  `json:"district,omitempty"`
	Province         string  `json:"province,omitempty"`
	PostalCode       string  `json:"postal_code,omitempty"`

	Images     []RequestImageDTO `json:"images,omitempty"`
	SiteVisits []SiteVisitDTO    `json:"site_visits,omitempty"`
	Quotations []QuotationDTO    `json:"quotations,omitempty"`

	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type CreatedRequestDTO struct {
	ID        uint64            `json:"id"`
	PublicRef string            `json:"public_ref"`
	Title     string            `json:"title"`
	Images    []RequestImageDTO `json:"images"`
}
