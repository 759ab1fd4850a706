package services

import (
	"intake-system/internal/dto"
	"intake-system/internal/entities"
)

const timeLayout = "2006-01-02 15:04:05"

func categoryToDTO(c *entities.Category) dto.CategoryDTO {
	return dto.CategoryDTO{
		ID:        c.ID,
		Name:      c.Name,
		Slug:      c.Slug,
		CreatedAt: c.CreatedAt.Local().Format(timeLayout),
	}
}

func imageToDTO(img entities.RequestImage) dto.RequestImageDTO {
	return dto.RequestImageDTO{
		ID:        img.ID,
		ImageURL:  img.ImageURL,
		CreatedAt: img.CreatedAt.Local().Format(timeLayout),
	}
}

func visitToDTO(v entities.SiteVisit) dto.SiteVisitDTO {
	out := dto.SiteVisitDTO{
		ID:               v.ID,
		RequestID:        v.RequestID,
		ScheduledAt:      v.ScheduledAt.Local().Format(timeLayout),
		Status:           v.Status,
		CustomerResponse: v.CustomerResponse,
		CustomerNote:     v.CustomerNote,
		CreatedAt:        v.CreatedAt.Local().Format(timeLayout),
	}
	if v.RespondedAt != nil {
		out.RespondedAt = v.RespondedAt.Local().Format(timeLayout)
	}
	return out
}

func quotationToDTO(q entities.Quotation) dto.QuotationDTO {
	return dto.QuotationDTO{
		ID:         q.ID,
		RequestID:  q.RequestID,
		FileURL:    q.FileURL,
		TotalPrice: q.TotalPrice,
		ValidUntil: q.ValidUntil,
		Status:     q.Status,
		CreatedAt:  q.CreatedAt.Local().Format(timeLayout),
	}
}

func portfolioItemToDTO(item entities.PortfolioItem) dto.PortfolioItemDTO {
	return dto.PortfolioItemDTO{
		ID:          item.ID,
		Title:       item.Title,
		Description: item.Description,
		ImageURL:    item.ImageURL,
		OccurredAt:  item.OccurredAt,
		TimeNote:    item.TimeNote,
		CreatedAt:   item.CreatedAt.Local().Format(timeLayout),
	}
}

func requestBriefDTO(r *entities.ServiceRequest) *dto.SiteVisitRequestDTO {
	if r == nil {
		return nil
	}
	return &dto.SiteVisitRequestDTO{
		ID:               r.ID,
		PublicRef:        r.PublicRef,
		Title:            r.Title,
		Status:           r.Status,
		FormattedAddress: r.FormattedAddress,
		PlaceName:        r.PlaceName,
	}
}

func requestToDTO(r *entities.ServiceRequest) dto.RequestDTO {
	return dto.RequestDTO{
		ID:               r.ID,
		PublicRef:        r.PublicRef,
		Title:            r.Title,
		Description:      r.Description,
		Status:           r.Status,
		Category:         dto.CategoryDTO{ID: r.CategoryID},
		ContactFirstName: r.ContactFirstName,
		ContactLastName:  r.ContactLastName,
		ContactEmail:     r.ContactEmail,
		ContactPhone:     r.ContactPhone,
		Latitude:         r.Latitude,
		Longitude:        r.Longitude,
		PlaceName:        r.PlaceName,
		FormattedAddress: r.FormattedAddress,
		AddressLine:      r.AddressLine,
		Subdistrict:      r.Subdistrict,
		District:         r.District,
		Province:         r.Province,
		PostalCode:       r.PostalCode,
		CreatedAt:        r.CreatedAt.Local().Format(timeLayout),
		UpdatedAt:        r.UpdatedAt.Local().Format(timeLayout),
	}
}
