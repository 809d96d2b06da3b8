package models

import "time"

// Attribution records who created and last modified an entity.
type Attribution struct {
	CreatedBy     string    `db:"created_by" json:"createdBy"`
	CreatedByName string    `db:"created_by_name" json:"createdByName"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
	UpdatedBy     string    `db:"updated_by" json:"updatedBy"`
	UpdatedByName string    `db:"updated_by_name" json:"updatedByName"`
	UpdatedAt     time.Time `db:"updated_at" json:"updatedAt"`
}

// StampCreated fills both creation and modification fields.
func (a *Attribution) StampCreated(actor Actor, at time.Time) {
	a.CreatedBy, a.CreatedByName, a.CreatedAt = actor.ID, actor.Name, at
	a.StampUpdated(actor, at)
}

// StampUpdated fills the last-modification fields.
func (a *Attribution) StampUpdated(actor Actor, at time.Time) {
	a.UpdatedBy, a.UpdatedByName, a.UpdatedAt = actor.ID, actor.Name, at
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalCount int `json:"totalCount"`
}

// PageRequest is the common paging input of list filters.
type PageRequest struct {
	Page     int
	PageSize int
}

// Normalize clamps page to >= 1 and size to (0, 100], defaulting to 20.
func (p PageRequest) Normalize() (page, size int) {
	page, size = p.Page, p.PageSize
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return page, size
}

// Slice returns the bounds of the requested page within total items.
func (p PageRequest) Slice(total int) (start, end int) {
	page, size := p.Normalize()
	start = (page - 1) * size
	if start > total {
		start = total
	}
	end = start + size
	if end > total {
		end = total
	}
	return start, end
}
